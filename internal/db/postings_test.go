package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-board/internal/types"
)

func TestMarshalLists(t *testing.T) {
	p := &types.Posting{
		Requirements: []string{"3+ years Go", "SQL"},
		Skills:       []string{"go", "postgres"},
	}

	requirements, responsibilities, skills, err := marshalLists(p)
	require.NoError(t, err)

	assert.JSONEq(t, `["3+ years Go", "SQL"]`, string(requirements))
	assert.JSONEq(t, `["go", "postgres"]`, string(skills))
	// A nil list round-trips as JSON null, which scanPosting leaves as nil.
	assert.Equal(t, "null", string(responsibilities))
}

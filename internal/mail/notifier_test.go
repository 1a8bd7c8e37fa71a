package mail

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-board/internal/types"
)

type fakeUserLookup struct {
	users map[uuid.UUID]*types.User
}

func (f *fakeUserLookup) GetUser(_ context.Context, id uuid.UUID) (*types.User, error) {
	return f.users[id], nil
}

type captureMailer struct {
	to      string
	subject string
	body    string
	sends   int
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.to = to
	m.subject = subject
	m.body = body
	m.sends++
	return nil
}

func TestNotifyStatusChange_SendsToApplicant(t *testing.T) {
	user := &types.User{
		ID:                   uuid.New(),
		Email:                "dana@example.com",
		Name:                 "Dana",
		NotificationsEnabled: true,
	}
	mailer := &captureMailer{}
	n := NewStatusNotifier(mailer, &fakeUserLookup{users: map[uuid.UUID]*types.User{user.ID: user}})

	posting := &types.Posting{Title: "Backend Engineer", Company: "Acme"}
	err := n.NotifyStatusChange(context.Background(), user.ID, posting, types.StatusShortlisted)
	require.NoError(t, err)

	assert.Equal(t, "dana@example.com", mailer.to)
	assert.Equal(t, "Update on your application: Backend Engineer at Acme", mailer.subject)
	assert.Contains(t, mailer.body, "Hi Dana,")
	assert.Contains(t, mailer.body, "shortlisted")
}

func TestNotifyStatusChange_SkipsOptedOut(t *testing.T) {
	user := &types.User{ID: uuid.New(), Email: "dana@example.com"}
	mailer := &captureMailer{}
	n := NewStatusNotifier(mailer, &fakeUserLookup{users: map[uuid.UUID]*types.User{user.ID: user}})

	err := n.NotifyStatusChange(context.Background(), user.ID, &types.Posting{}, types.StatusReviewed)
	require.NoError(t, err)
	assert.Zero(t, mailer.sends)
}

func TestNotifyStatusChange_UnknownApplicant(t *testing.T) {
	n := NewStatusNotifier(&captureMailer{}, &fakeUserLookup{users: map[uuid.UUID]*types.User{}})

	err := n.NotifyStatusChange(context.Background(), uuid.New(), &types.Posting{}, types.StatusReviewed)
	assert.Error(t, err)
}

func TestStatusBody_PerStatusLine(t *testing.T) {
	user := &types.User{Name: "Lee"}
	posting := &types.Posting{Title: "Analyst", Company: "Beta"}

	assert.Contains(t, statusBody(user, posting, types.StatusHired), "Congratulations")
	assert.Contains(t, statusBody(user, posting, types.StatusRejected), "not to move forward")
	assert.Contains(t, statusBody(&types.User{}, posting, types.StatusReviewed), "Hi there,")
}

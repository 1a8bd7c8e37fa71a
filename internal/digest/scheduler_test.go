package digest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNextRun_BeforeBoundarySameDay(t *testing.T) {
	s := NewScheduler(context.Background(), nil, SchedulerConfig{Hour: 8, Minute: 30, Location: time.UTC}, zap.NewNop().Sugar())

	now := time.Date(2026, 3, 15, 6, 0, 0, 0, time.UTC)
	next := s.nextRun(now)

	assert.Equal(t, time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC), next)
}

func TestNextRun_AfterBoundaryRollsToTomorrow(t *testing.T) {
	s := NewScheduler(context.Background(), nil, SchedulerConfig{Hour: 8, Minute: 0, Location: time.UTC}, zap.NewNop().Sugar())

	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	next := s.nextRun(now)

	assert.Equal(t, time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC), next)
}

func TestNextRun_ExactlyAtBoundaryRollsForward(t *testing.T) {
	s := NewScheduler(context.Background(), nil, SchedulerConfig{Hour: 8, Minute: 0, Location: time.UTC}, zap.NewNop().Sugar())

	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	next := s.nextRun(now)

	assert.Equal(t, time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC), next)
}

func TestNextRun_RespectsTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := NewScheduler(context.Background(), nil, SchedulerConfig{Hour: 8, Minute: 0, Location: loc}, zap.NewNop().Sugar())

	// 11:00 UTC is 06:00 or 07:00 in New York depending on DST; the
	// boundary is always 08:00 wall clock in the reference zone.
	now := time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC)
	next := s.nextRun(now)

	assert.Equal(t, 8, next.Hour())
	assert.Equal(t, loc.String(), next.Location().String())
	assert.True(t, next.After(now))
}

func TestDefaultSchedulerConfig(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	assert.Equal(t, 8, cfg.Hour)
	assert.Equal(t, 0, cfg.Minute)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestScheduler_StartStop(t *testing.T) {
	runner := newTestRunner(&fakePostingSource{}, &fakeUserSource{}, &fakeMailer{})
	s := NewScheduler(context.Background(), runner, DefaultSchedulerConfig(), zap.NewNop().Sugar())

	s.Start()
	s.Stop()
	// Stop is idempotent with respect to the context.
	s.cancel()
}

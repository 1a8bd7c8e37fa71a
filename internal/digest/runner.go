// Package digest implements the scheduled batch that mails eligible
// applicants a ranked selection of recent postings.
package digest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/talent-board/internal/matching"
	"github.com/jonathan/talent-board/internal/types"
)

// Mode selects the caps for a digest run.
type Mode string

const (
	// ModeScheduled is the normal daily run.
	ModeScheduled Mode = "scheduled"
	// ModeManual is the operator-triggered verification run with
	// reduced caps, so a forced run never blasts the full user base.
	ModeManual Mode = "manual"
)

const (
	// LookbackWindow bounds how old a posting may be to appear in a digest.
	LookbackWindow = 24 * time.Hour

	scheduledPostingCap = 10
	manualPostingCap    = 3
	manualUserCap       = 5
)

// ErrRunInProgress is returned when a run is requested while another is
// still executing. Runs never overlap.
var ErrRunInProgress = errors.New("digest run already in progress")

// PostingSource supplies candidate postings for a run.
type PostingSource interface {
	ListRecentActivePostings(ctx context.Context, since time.Time, limit int) ([]types.Posting, error)
}

// UserSource supplies digest-eligible users: applicants that are active,
// email-verified, and opted in. limit <= 0 means no cap.
type UserSource interface {
	ListDigestEligibleUsers(ctx context.Context, limit int) ([]types.User, error)
}

// Summary is the outcome of one digest run.
type Summary struct {
	EligibleUsers int `json:"eligible_users"`
	Sent          int `json:"sent"`
	Failed        int `json:"failed"`
}

// Runner executes digest runs. A per-recipient send failure is counted
// and skipped; only selection failures abort a run. At most one run
// executes at a time, whether scheduled or manual.
type Runner struct {
	postings   PostingSource
	users      UserSource
	dispatcher *Dispatcher
	log        *zap.SugaredLogger
	now        func() time.Time

	mu      sync.Mutex
	running bool
}

// NewRunner creates a digest runner.
func NewRunner(postings PostingSource, users UserSource, dispatcher *Dispatcher, log *zap.SugaredLogger) *Runner {
	return &Runner{
		postings:   postings,
		users:      users,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// Run executes one digest pass and returns its summary. Zero candidate
// postings is a logged no-op, not an error. A canceled context aborts
// the remainder of the run; recipients already attempted stay counted.
func (r *Runner) Run(ctx context.Context, mode Mode) (Summary, error) {
	if !r.acquire() {
		return Summary{}, ErrRunInProgress
	}
	defer r.release()

	postingCap, userCap := scheduledPostingCap, 0
	if mode == ModeManual {
		postingCap, userCap = manualPostingCap, manualUserCap
	}

	started := r.now()
	since := started.Add(-LookbackWindow)

	candidates, err := r.postings.ListRecentActivePostings(ctx, since, postingCap)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to select candidate postings: %w", err)
	}
	if len(candidates) == 0 {
		r.log.Infow("digest run skipped, no recent postings",
			"mode", mode,
			"since", since)
		return Summary{}, nil
	}

	selected, err := r.users.ListDigestEligibleUsers(ctx, userCap)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to select eligible users: %w", err)
	}

	// The store query already filters, but eligibility is re-checked
	// here so a stale or over-broad source never causes a send to an
	// opted-out or unverified account.
	users := make([]types.User, 0, len(selected))
	for _, user := range selected {
		if !user.DigestEligible() {
			r.log.Warnw("skipping ineligible user returned by selection",
				"user_id", user.ID)
			continue
		}
		users = append(users, user)
	}

	summary := Summary{EligibleUsers: len(users)}
	for _, user := range users {
		selected := matching.SelectForUser(candidates, user.Skills)
		if err := r.dispatcher.Dispatch(ctx, user, selected); err != nil {
			if ctx.Err() != nil {
				// Run-level cancellation, not a recipient failure.
				r.log.Warnw("digest run aborted",
					"mode", mode,
					"sent", summary.Sent,
					"failed", summary.Failed,
					"error", ctx.Err())
				return summary, ctx.Err()
			}
			summary.Failed++
			r.log.Warnw("digest send failed",
				"user_id", user.ID,
				"error", err)
			continue
		}
		summary.Sent++
	}

	r.log.Infow("digest run complete",
		"mode", mode,
		"eligible_users", summary.EligibleUsers,
		"sent", summary.Sent,
		"failed", summary.Failed,
		"postings", len(candidates),
		"duration", r.now().Sub(started).Round(time.Millisecond))
	return summary, nil
}

func (r *Runner) acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Package lifecycle implements the application state machine: submitting
// applications and moving them through review, while keeping the posting
// aggregate and the applicant's denormalized back-reference consistent.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-board/internal/types"
)

// PostingStore is the posting-aggregate persistence the engine needs.
// CreateApplication must insert the application and bump the posting's
// applications_count in one atomic step; IncrementViews must be an
// atomic increment, not read-modify-write.
type PostingStore interface {
	GetPosting(ctx context.Context, id uuid.UUID) (*types.Posting, error)
	GetApplication(ctx context.Context, postingID, applicationID uuid.UUID) (*types.Application, error)
	GetApplicationByApplicant(ctx context.Context, postingID, applicantID uuid.UUID) (*types.Application, error)
	CreateApplication(ctx context.Context, app *types.Application) error
	UpdateApplicationStatus(ctx context.Context, postingID, applicationID uuid.UUID, status types.ApplicationStatus) error
	IncrementViews(ctx context.Context, postingID uuid.UUID) error
}

// UserStore is the user-aggregate persistence the engine needs for the
// applied-jobs back-reference list.
type UserStore interface {
	AppendAppliedJob(ctx context.Context, userID uuid.UUID, entry types.AppliedJob) error
	GetAppliedJob(ctx context.Context, userID, postingID uuid.UUID) (*types.AppliedJob, error)
	UpdateAppliedJobStatus(ctx context.Context, userID, postingID uuid.UUID, status types.ApplicationStatus) error
}

// Notifier receives best-effort status-change notifications for the
// applicant. Send failures are logged, never surfaced to the caller.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, applicantID uuid.UUID, posting *types.Posting, status types.ApplicationStatus) error
}

// Actor is the authenticated principal performing a write, as supplied
// by the identity collaborator.
type Actor struct {
	ID   uuid.UUID
	Role types.UserRole
}

// Engine drives application lifecycle writes across the two aggregates.
// The posting side is always written first; if the user-side write then
// fails the caller gets ErrPartiallyApplied rather than a generic error.
type Engine struct {
	postings PostingStore
	users    UserStore
	notifier Notifier
	log      *zap.SugaredLogger
}

// NewEngine creates a lifecycle engine. notifier may be nil to disable
// applicant status-change notifications.
func NewEngine(postings PostingStore, users UserStore, notifier Notifier, log *zap.SugaredLogger) *Engine {
	return &Engine{
		postings: postings,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// Submit creates a pending application for (postingID, applicantID).
// Fails with ErrPostingNotFound when the posting is missing or inactive
// and ErrDuplicateApplication when the pair already applied; the
// application counter is untouched in both cases.
func (e *Engine) Submit(ctx context.Context, postingID, applicantID uuid.UUID, coverLetter, resumeURL string) (uuid.UUID, error) {
	posting, err := e.postings.GetPosting(ctx, postingID)
	if err != nil {
		return uuid.Nil, err
	}
	if posting == nil || !posting.Active {
		return uuid.Nil, &ErrPostingNotFound{PostingID: postingID}
	}

	existing, err := e.postings.GetApplicationByApplicant(ctx, postingID, applicantID)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return uuid.Nil, &ErrDuplicateApplication{PostingID: postingID, ApplicantID: applicantID}
	}

	app := &types.Application{
		ID:          uuid.New(),
		PostingID:   postingID,
		ApplicantID: applicantID,
		Status:      types.StatusPending,
		CoverLetter: coverLetter,
		ResumeURL:   resumeURL,
		AppliedAt:   time.Now().UTC(),
	}

	// Posting side first: application row plus counter, atomically.
	if err := e.postings.CreateApplication(ctx, app); err != nil {
		return uuid.Nil, err
	}

	entry := types.AppliedJob{
		PostingID: postingID,
		AppliedAt: app.AppliedAt,
		Status:    app.Status,
	}
	if err := e.users.AppendAppliedJob(ctx, applicantID, entry); err != nil {
		e.log.Errorw("submit left aggregates inconsistent",
			"posting_id", postingID,
			"applicant_id", applicantID,
			"error", err)
		return app.ID, &ErrPartiallyApplied{PostingID: postingID, ApplicantID: applicantID, Cause: err}
	}

	return app.ID, nil
}

// UpdateStatus moves an application to newStatus. Only the posting owner
// or an admin may do this, and only transitions the forward-only graph
// allows. Setting the already-current status is an idempotent no-op that
// still re-propagates to the back-reference.
func (e *Engine) UpdateStatus(ctx context.Context, postingID, applicationID uuid.UUID, newStatus types.ApplicationStatus, actor Actor) error {
	posting, err := e.postings.GetPosting(ctx, postingID)
	if err != nil {
		return err
	}
	if posting == nil {
		return &ErrPostingNotFound{PostingID: postingID}
	}

	if actor.Role != types.RoleAdmin && actor.ID != posting.OwnerID {
		return &ErrUnauthorized{ActorID: actor.ID}
	}

	app, err := e.postings.GetApplication(ctx, postingID, applicationID)
	if err != nil {
		return err
	}
	if app == nil {
		return &ErrApplicationNotFound{PostingID: postingID, ApplicationID: applicationID}
	}

	if app.Status != newStatus {
		if !app.Status.CanTransitionTo(newStatus) {
			return &ErrInvalidTransition{From: app.Status, To: newStatus}
		}
		if err := e.postings.UpdateApplicationStatus(ctx, postingID, applicationID, newStatus); err != nil {
			return err
		}
	}

	if err := e.users.UpdateAppliedJobStatus(ctx, app.ApplicantID, postingID, newStatus); err != nil {
		e.log.Errorw("status update left aggregates inconsistent",
			"posting_id", postingID,
			"application_id", applicationID,
			"applicant_id", app.ApplicantID,
			"status", newStatus,
			"error", err)
		return &ErrPartiallyApplied{PostingID: postingID, ApplicantID: app.ApplicantID, Cause: err}
	}

	e.notifyStatusChange(ctx, app.ApplicantID, posting, newStatus)
	return nil
}

// Reconcile re-propagates the authoritative posting-side application
// state to the user aggregate. Safe to call repeatedly; this is the
// retry path after ErrPartiallyApplied.
func (e *Engine) Reconcile(ctx context.Context, postingID, applicantID uuid.UUID) error {
	app, err := e.postings.GetApplicationByApplicant(ctx, postingID, applicantID)
	if err != nil {
		return err
	}
	if app == nil {
		return &ErrApplicationNotFound{PostingID: postingID}
	}

	entry, err := e.users.GetAppliedJob(ctx, applicantID, postingID)
	if err != nil {
		return err
	}
	if entry == nil {
		return e.users.AppendAppliedJob(ctx, applicantID, types.AppliedJob{
			PostingID: postingID,
			AppliedAt: app.AppliedAt,
			Status:    app.Status,
		})
	}
	if entry.Status != app.Status {
		return e.users.UpdateAppliedJobStatus(ctx, applicantID, postingID, app.Status)
	}
	return nil
}

// RecordView bumps the posting's view counter. Reads share the posting
// aggregate with lifecycle writes, so the store increment must be atomic.
func (e *Engine) RecordView(ctx context.Context, postingID uuid.UUID) error {
	return e.postings.IncrementViews(ctx, postingID)
}

func (e *Engine) notifyStatusChange(ctx context.Context, applicantID uuid.UUID, posting *types.Posting, status types.ApplicationStatus) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyStatusChange(ctx, applicantID, posting, status); err != nil {
		e.log.Warnw("status change notification failed",
			"applicant_id", applicantID,
			"posting_id", posting.ID,
			"status", status,
			"error", err)
	}
}

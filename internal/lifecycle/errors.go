package lifecycle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/talent-board/internal/types"
)

// ErrPostingNotFound indicates the posting is missing or inactive
type ErrPostingNotFound struct {
	PostingID uuid.UUID
}

func (e *ErrPostingNotFound) Error() string {
	return fmt.Sprintf("posting not found: %s", e.PostingID)
}

// ErrApplicationNotFound indicates no such application under the posting
type ErrApplicationNotFound struct {
	PostingID     uuid.UUID
	ApplicationID uuid.UUID
}

func (e *ErrApplicationNotFound) Error() string {
	return fmt.Sprintf("application not found: %s on posting %s", e.ApplicationID, e.PostingID)
}

// ErrDuplicateApplication indicates the applicant already applied to the posting
type ErrDuplicateApplication struct {
	PostingID   uuid.UUID
	ApplicantID uuid.UUID
}

func (e *ErrDuplicateApplication) Error() string {
	return fmt.Sprintf("applicant %s already applied to posting %s", e.ApplicantID, e.PostingID)
}

// ErrUnauthorized indicates the actor does not own the posting
type ErrUnauthorized struct {
	ActorID uuid.UUID
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("user %s is not authorized to manage this posting", e.ActorID)
}

// ErrInvalidTransition indicates a status change the forward-only graph forbids
type ErrInvalidTransition struct {
	From types.ApplicationStatus
	To   types.ApplicationStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// ErrPartiallyApplied indicates the posting-side write succeeded but the
// user-side back-reference write failed. The operation is keyed on
// (PostingID, ApplicantID) so Reconcile can repair it idempotently.
type ErrPartiallyApplied struct {
	PostingID   uuid.UUID
	ApplicantID uuid.UUID
	Cause       error
}

func (e *ErrPartiallyApplied) Error() string {
	return fmt.Sprintf("partially applied: posting %s updated but user %s back-reference failed: %v",
		e.PostingID, e.ApplicantID, e.Cause)
}

func (e *ErrPartiallyApplied) Unwrap() error {
	return e.Cause
}

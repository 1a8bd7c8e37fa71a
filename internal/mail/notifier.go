package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/talent-board/internal/types"
)

// UserLookup resolves a recipient's account for notification delivery.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
}

// StatusNotifier emails applicants when their application status
// changes. Users who disabled notifications are silently skipped.
type StatusNotifier struct {
	mailer Mailer
	users  UserLookup
}

// NewStatusNotifier creates a notifier backed by the given mailer.
func NewStatusNotifier(mailer Mailer, users UserLookup) *StatusNotifier {
	return &StatusNotifier{
		mailer: mailer,
		users:  users,
	}
}

// NotifyStatusChange sends a status update email to the applicant.
func (n *StatusNotifier) NotifyStatusChange(ctx context.Context, applicantID uuid.UUID, posting *types.Posting, status types.ApplicationStatus) error {
	user, err := n.users.GetUser(ctx, applicantID)
	if err != nil {
		return fmt.Errorf("failed to look up applicant %s: %w", applicantID, err)
	}
	if user == nil {
		return fmt.Errorf("applicant not found: %s", applicantID)
	}
	if !user.NotificationsEnabled {
		return nil
	}

	subject := fmt.Sprintf("Update on your application: %s at %s", posting.Title, posting.Company)
	body := statusBody(user, posting, status)
	return n.mailer.Send(ctx, user.Email, subject, body)
}

func statusBody(user *types.User, posting *types.Posting, status types.ApplicationStatus) string {
	name := user.Name
	if name == "" {
		name = "there"
	}

	var line string
	switch status {
	case types.StatusReviewed:
		line = "Your application has been reviewed."
	case types.StatusShortlisted:
		line = "Good news: you have been shortlisted!"
	case types.StatusRejected:
		line = "Unfortunately the employer has decided not to move forward with your application."
	case types.StatusHired:
		line = "Congratulations, you got the job!"
	default:
		line = fmt.Sprintf("Your application status is now %q.", status)
	}

	return fmt.Sprintf("Hi %s,\n\n%s\n\nPosition: %s at %s\n", name, line, posting.Title, posting.Company)
}

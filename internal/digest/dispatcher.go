package digest

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/talent-board/internal/mail"
	"github.com/jonathan/talent-board/internal/types"
)

const (
	// DefaultSendTimeout bounds one outbound transport call.
	DefaultSendTimeout = 10 * time.Second
	// DefaultSendInterval is the pause between consecutive sends,
	// respecting the external transport's send-rate ceiling.
	DefaultSendInterval = 500 * time.Millisecond
)

// Dispatcher sends one digest notification per user, pacing sends and
// bounding each transport call with a timeout. Failures are isolated
// per recipient.
type Dispatcher struct {
	mailer  mail.Mailer
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewDispatcher creates a dispatcher. sendInterval <= 0 disables pacing
// (tests); timeout <= 0 uses DefaultSendTimeout.
func NewDispatcher(mailer mail.Mailer, sendInterval, timeout time.Duration, log *zap.SugaredLogger) *Dispatcher {
	limit := rate.Inf
	if sendInterval > 0 {
		limit = rate.Every(sendInterval)
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{
		mailer:  mailer,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		log:     log,
	}
}

// Dispatch composes and sends one user's digest. The limiter wait is
// context-aware so cancellation interrupts the pacing pause; a timed-out
// send counts as a failure for that recipient only.
func (d *Dispatcher) Dispatch(ctx context.Context, user types.User, postings []types.Posting) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	subject, body := Compose(user, postings)

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.mailer.Send(sendCtx, user.Email, subject, body); err != nil {
		return err
	}

	d.log.Debugw("digest sent",
		"user_id", user.ID,
		"postings", len(postings))
	return nil
}

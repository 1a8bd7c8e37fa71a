// Package mail defines the outbound notification transport. The engine
// only ever needs a single capability: send(to, subject, body).
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mailer sends one message per call. Implementations report a result
// per send; the caller decides whether a failure is retryable.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ErrTransport indicates the external mail transport failed for one
// recipient. Recoverable: retry with backoff at the caller's discretion.
type ErrTransport struct {
	To    string
	Cause error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("mail transport failed for %s: %v", e.To, e.Cause)
}

func (e *ErrTransport) Unwrap() error {
	return e.Cause
}

// SMTPConfig holds connection settings for the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	addr string
	auth smtp.Auth
}

// NewSMTP creates an SMTP mailer. Auth is skipped when no username is
// configured (local relay).
func NewSMTP(cfg SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{
		cfg:  cfg,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m
}

// Send delivers one message. The SMTP dial runs in a goroutine so the
// caller's context deadline interrupts a hung transport; the abandoned
// attempt finishes in the background.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := FormatMessage(m.cfg.From, to, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.addr, m.auth, m.cfg.From, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return &ErrTransport{To: to, Cause: ctx.Err()}
	case err := <-done:
		if err != nil {
			return &ErrTransport{To: to, Cause: err}
		}
		return nil
	}
}

// FormatMessage renders a minimal RFC 5322 plain-text message.
func FormatMessage(from, to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

// LogMailer logs messages instead of sending them. Used in development
// when no SMTP relay is configured.
type LogMailer struct {
	log *zap.SugaredLogger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(log *zap.SugaredLogger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs the message and always succeeds.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Infow("mail (log transport)",
		"to", to,
		"subject", subject,
		"body_bytes", len(body))
	return nil
}

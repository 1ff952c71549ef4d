package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
)

// Mailer delivers a single HTML message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to string, subject string, html string) error
}

// LogMailer writes outbound mail to the log instead of delivering it. Used
// when SMTP is unconfigured (local development, tests).
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to string, subject string, html string) error {
	slog.Info("outbound email (smtp unconfigured)", "to", to, "subject", subject, "bytes", len(html))
	return nil
}

// Dispatcher renders the auth flow emails and hands them to a Mailer. Links
// point at the frontend origin, which owns the verify/reset pages.
type Dispatcher struct {
	mailer Mailer
	origin string
}

func NewDispatcher(m Mailer, origin string) *Dispatcher {
	return &Dispatcher{mailer: m, origin: origin}
}

func (d *Dispatcher) SendVerificationEmail(ctx context.Context, name string, email string, verificationToken string) error {
	link := fmt.Sprintf("%s/user/verify-email?token=%s&email=%s",
		d.origin, url.QueryEscape(verificationToken), url.QueryEscape(email))

	html := fmt.Sprintf(
		`<h4>Hello, %s</h4><p>Please confirm your email by clicking on the following link: <a href=%q>Verify Email</a></p>`,
		name, link)

	return d.mailer.Send(ctx, email, "Email Confirmation", html)
}

func (d *Dispatcher) SendResetPasswordEmail(ctx context.Context, name string, email string, resetToken string) error {
	link := fmt.Sprintf("%s/user/reset-password?token=%s&email=%s",
		d.origin, url.QueryEscape(resetToken), url.QueryEscape(email))

	html := fmt.Sprintf(
		`<h4>Hello, %s</h4><p>Please reset your password by clicking on the following link: <a href=%q>Reset Password</a></p>`,
		name, link)

	return d.mailer.Send(ctx, email, "Reset Password", html)
}

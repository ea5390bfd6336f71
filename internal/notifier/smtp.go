package notifier

import (
	"context"
	"fmt"

	mail "github.com/go-mail/mail"
	"github.com/rs/zerolog/log"

	"github.com/offerhub/offer-portal/internal/config"
)

// SMTPNotifier sends OTP emails over SMTP.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

// NewSMTPNotifier creates a notifier for the given SMTP configuration.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// NotifyOTP sends the login code by email. On failure it logs the code as
// a console fallback so the principal is not locked out in degraded
// environments.
func (n *SMTPNotifier) NotifyOTP(_ context.Context, email, code, name string) bool {
	m := mail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your Offer Portal login code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour one-time password is: %s\n\nThis code expires in 10 minutes. If you did not request it, ignore this email.\n",
		name, code))
	m.AddAlternative("text/html", fmt.Sprintf(
		`<p>Hello %s,</p><p>Your one-time password is:</p><h2 style="letter-spacing:4px">%s</h2><p><strong>This code expires in 10 minutes.</strong></p><p>If you did not request it, ignore this email.</p>`,
		name, code))

	d := mail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		log.Warn().Err(err).Str("to", email).Msg("otp email delivery failed, falling back to log")
		(&LogNotifier{}).NotifyOTP(context.Background(), email, code, name)
		return false
	}

	log.Info().Str("to", email).Msg("otp email sent")
	return true
}

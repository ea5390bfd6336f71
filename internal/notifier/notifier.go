// Package notifier delivers one-time passwords to principals. Delivery is
// best-effort: a failed or skipped notification never blocks the login
// flow.
package notifier

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/offerhub/offer-portal/internal/config"
)

// Notifier sends an OTP to a destination address. The returned bool
// reports delivery; callers treat false as "not delivered" but never as a
// login failure.
type Notifier interface {
	NotifyOTP(ctx context.Context, email, code, name string) bool
}

// New picks the SMTP notifier when an SMTP host is configured and the log
// fallback otherwise.
func New(cfg config.SMTPConfig) Notifier {
	if cfg.Host == "" {
		log.Warn().Msg("smtp not configured, otp codes will be logged instead of emailed")
		return &LogNotifier{}
	}
	return NewSMTPNotifier(cfg)
}

// LogNotifier writes the OTP to the application log. Development fallback
// for deployments without an SMTP server; the log line is the notification
// channel in that mode.
type LogNotifier struct{}

// NotifyOTP logs the code and reports success.
func (n *LogNotifier) NotifyOTP(_ context.Context, email, code, name string) bool {
	log.Info().
		Str("to", email).
		Str("name", name).
		Str("otp", code).
		Msg("otp notification (console mode)")
	return true
}

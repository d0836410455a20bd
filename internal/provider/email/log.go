package email

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogSender writes codes to the log instead of sending mail. Development only.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a log-only sender
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("provider", "log").Logger()}
}

// SendCode implements Sender
func (s *LogSender) SendCode(ctx context.Context, to, code string, validFor time.Duration) error {
	s.log.Warn().
		Str("email", to).
		Str("code", code).
		Dur("valid_for", validFor).
		Msg("Login code (log provider, not delivered)")
	return nil
}

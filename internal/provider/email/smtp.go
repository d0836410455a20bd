package email

import (
	"context"
	"fmt"
	"time"

	"github.com/news-aggregator-api/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// SMTPSender sends mail through an SMTP relay
type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
	log    zerolog.Logger
}

// NewSMTPSender creates an SMTP sender
func NewSMTPSender(cfg *config.EmailConfig, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		log:    log.With().Str("provider", "smtp").Logger(),
	}
}

// SendCode implements Sender
func (s *SMTPSender) SendCode(ctx context.Context, to, code string, validFor time.Duration) error {
	msg := RenderCode(code, validFor)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := runWithContext(ctx, func() error { return s.dialer.DialAndSend(m) }); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	s.log.Info().Str("email", to).Msg("Login code sent")
	return nil
}

package email

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ResendSender sends mail through the Resend API
type ResendSender struct {
	from   string
	client *resend.Client
	log    zerolog.Logger
}

// NewResendSender creates a Resend sender
func NewResendSender(apiKey, from string, log zerolog.Logger) (*ResendSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("from email address is required")
	}

	return &ResendSender{
		from:   from,
		client: resend.NewClient(apiKey),
		log:    log.With().Str("provider", "resend").Logger(),
	}, nil
}

// SendCode implements Sender
func (s *ResendSender) SendCode(ctx context.Context, to, code string, validFor time.Duration) error {
	msg := RenderCode(code, validFor)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Html:    msg.HTML,
		Subject: msg.Subject,
	}

	var messageID string
	err := runWithContext(ctx, func() error {
		sent, err := s.client.Emails.Send(params)
		if err != nil {
			return err
		}
		messageID = sent.Id
		return nil
	})
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	s.log.Info().Str("email", to).Str("message_id", messageID).Msg("Login code sent")
	return nil
}

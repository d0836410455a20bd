// Package email delivers login codes through a configurable provider.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/news-aggregator-api/internal/config"
	"github.com/rs/zerolog"
)

// Sender dispatches a one-time login code to an address
type Sender interface {
	SendCode(ctx context.Context, to, code string, validFor time.Duration) error
}

// New builds the sender selected by cfg.Provider
func New(cfg *config.EmailConfig, log zerolog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg, log), nil
	case "resend":
		return NewResendSender(cfg.ResendAPIKey, cfg.From, log)
	case "log", "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// Message is a rendered login email
type Message struct {
	Subject string
	HTML    string
}

// RenderCode builds the login email for code
func RenderCode(code string, validFor time.Duration) Message {
	minutes := int(validFor.Round(time.Minute) / time.Minute)
	return Message{
		Subject: "Your login code",
		HTML: fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px;margin:0 auto">
<h2>Sign in to News Aggregator</h2>
<p>Use this code to finish signing in:</p>
<p style="font-size:32px;font-weight:bold;letter-spacing:8px">%s</p>
<p>The code expires in %d minutes. If you did not request it, ignore this email.</p>
</div>`, code, minutes),
	}
}

// runWithContext runs a blocking call that has no context support and
// returns early with ctx.Err() if ctx ends first.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

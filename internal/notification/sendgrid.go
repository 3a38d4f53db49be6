package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridProvider delivers mail through the SendGrid API.
type SendGridProvider struct {
	client *sendgrid.Client
	from   string
	logger *slog.Logger
}

func NewSendGridProvider(apiKey, from string, logger *slog.Logger) *SendGridProvider {
	return &SendGridProvider{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
		logger: logger,
	}
}

func (p *SendGridProvider) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(
		mail.NewEmail("", p.from),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Body,
		"",
	)
	resp, err := p.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode)
	}
	p.logger.InfoContext(ctx, "email sent",
		"provider", "sendgrid",
		"to", msg.To,
		"subject", msg.Subject,
		"message_id", resp.Headers["X-Message-Id"],
	)
	return nil
}

// NewProviderFromConfig picks SendGrid when a plausible key is configured
// and falls back to the console otherwise.
func NewProviderFromConfig(apiKey, from string, logger *slog.Logger) Provider {
	if strings.HasPrefix(apiKey, "SG.") {
		return NewSendGridProvider(apiKey, from, logger)
	}
	if apiKey != "" {
		logger.Warn("sendgrid key looks invalid, falling back to console provider")
	}
	return NewConsoleProvider(logger)
}

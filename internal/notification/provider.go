// Package notification delivers registrant-facing email. Providers are
// plain transports; the service owns the message content.
package notification

import (
	"context"
	"log/slog"
)

// Message is one outbound plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Provider sends one message.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// ConsoleProvider logs messages instead of sending them. The fallback for
// local development and missing credentials.
type ConsoleProvider struct {
	logger *slog.Logger
}

func NewConsoleProvider(logger *slog.Logger) *ConsoleProvider {
	return &ConsoleProvider{logger: logger}
}

func (p *ConsoleProvider) Send(ctx context.Context, msg Message) error {
	p.logger.InfoContext(ctx, "email simulated",
		"provider", "console",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

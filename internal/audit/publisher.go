package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"credencia/internal/device"
	"credencia/pkg/requestcontext"
)

// Publisher captures structured audit entries. Persistence goes through the
// store synchronously (joining the caller's transaction when one is active);
// the optional Kafka sink receives the same entry fire-and-forget so a broker
// outage never fails a registration.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

// Sink receives entries after they are persisted. Implemented by the Kafka
// producer; nil disables fan-out.
type Sink interface {
	Publish(ctx context.Context, entry Entry)
}

func NewPublisher(store Store, sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, sink: sink, logger: logger}
}

// Emit fills request-scoped fields from context and appends the entry.
func (p *Publisher) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = requestcontext.Now(ctx)
	}
	if entry.Actor == "" {
		entry.Actor = requestcontext.Actor(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.Device == "" {
		if ua := requestcontext.UserAgent(ctx); ua != "" {
			entry.Device = device.ParseUserAgent(ua)
		}
	}

	if err := p.store.Append(ctx, entry); err != nil {
		return err
	}
	if p.sink != nil {
		p.sink.Publish(ctx, entry)
	}
	return nil
}

// History lists the entries recorded for one target, newest first.
func (p *Publisher) History(ctx context.Context, targetModel, targetID string) ([]Entry, error) {
	return p.store.ListByTarget(ctx, targetModel, targetID)
}

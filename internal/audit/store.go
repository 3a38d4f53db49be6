package audit

import (
	"context"
	"time"
)

// Store persists audit entries. Append is called inside the same transaction
// as the mutation it records when the SQL runner is active.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// ListByTarget returns entries for one record, newest first.
	ListByTarget(ctx context.Context, targetModel, targetID string) ([]Entry, error)
	// CountDistinctTargetsBetween counts distinct target IDs touched by the
	// given actions in [from, to). Feeds the dashboard's analyzed-this-month
	// figure.
	CountDistinctTargetsBetween(ctx context.Context, from, to time.Time, actions []Action) (int, error)
}

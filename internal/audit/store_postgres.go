package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	txcontext "credencia/pkg/platform/tx"
)

// PostgresStore persists audit entries in the audit_entries table. When a
// transaction is present in context it joins it, so an entry never outlives a
// rolled-back mutation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_entries (id, actor, action, target_model, target_id, details, request_id, device, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID, entry.Actor, string(entry.Action), entry.TargetModel,
		entry.TargetID, entry.Details, entry.RequestID, entry.Device, entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTarget(ctx context.Context, targetModel, targetID string) ([]Entry, error) {
	query := `
		SELECT id, actor, action, target_model, target_id, details, request_id, device, occurred_at
		FROM audit_entries
		WHERE target_model = $1 AND target_id = $2
		ORDER BY occurred_at DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, targetModel, targetID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.Actor, &action, &e.TargetModel, &e.TargetID,
			&e.Details, &e.RequestID, &e.Device, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountDistinctTargetsBetween(ctx context.Context, from, to time.Time, actions []Action) (int, error) {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	query := `
		SELECT COUNT(DISTINCT (target_model, target_id))
		FROM audit_entries
		WHERE occurred_at >= $1 AND occurred_at < $2 AND action = ANY($3)
	`
	var count int
	err := s.execer(ctx).QueryRowContext(ctx, query, from, to, names).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit targets: %w", err)
	}
	return count, nil
}

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"credencia/pkg/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*AdminUser, error) {
	query := `SELECT username, password_hash, created_at FROM admin_users WHERE username = $1`
	var u AdminUser
	err := s.db.QueryRowContext(ctx, query, username).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query admin user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, user *AdminUser) error {
	query := `
		INSERT INTO admin_users (username, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`
	if _, err := s.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.CreatedAt); err != nil {
		return fmt.Errorf("upsert admin user: %w", err)
	}
	return nil
}

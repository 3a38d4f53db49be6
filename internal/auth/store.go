package auth

import "context"

// Store persists admin accounts.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*AdminUser, error)
	Upsert(ctx context.Context, user *AdminUser) error
}

// Package auth covers the back office login: admin accounts, bearer
// tokens, and the failed-attempt lockout.
package auth

import "time"

// AdminUser is a back office account. Passwords are stored as bcrypt hashes.
type AdminUser struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

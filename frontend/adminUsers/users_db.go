package adminusers

import (
	"context"
	"errors"
	"strings"

	"github.com/uptrace/bun"

	"gpdash/frontend/login"
	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/argon"
	"gpdash/infrastructure/rbac"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidRole      = errors.New("role must be admin or sales")
	ErrUsernameExists   = errors.New("username already exists")
)

func LoadUsersPageData(ctx context.Context, db *appdb.DB) (PageData, error) {
	data := PageData{Users: make([]UserView, 0)}
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT id, username, email, display_name, role, default_site
FROM users
ORDER BY id ASC`).Scan(ctx, &data.Users)
	})
	return data, err
}

// CreateUser validates and inserts a dashboard account. Usernames are unique
// case-insensitively so "Pat" cannot shadow "pat" at login.
func CreateUser(ctx context.Context, db *appdb.DB, username, email, displayName, password, role, defaultSite string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	if role != rbac.RoleAdmin && role != rbac.RoleSales {
		return ErrInvalidRole
	}
	if err := login.ValidatePasswordPolicy(password); err != nil {
		return err
	}

	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		return err
	}

	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var existing int
		if err := tx.NewRaw(`
SELECT COUNT(1) FROM users WHERE LOWER(username) = LOWER(?)`, username).Scan(ctx, &existing); err != nil {
			return err
		}
		if existing > 0 {
			return ErrUsernameExists
		}

		_, err := tx.ExecContext(ctx, `
INSERT INTO users (username, email, display_name, password_hash, role, default_site, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			username, strings.TrimSpace(email), strings.TrimSpace(displayName), hash, role, strings.TrimSpace(defaultSite))
		return err
	})
}

// SetUserRole changes an existing account's role.
func SetUserRole(ctx context.Context, db *appdb.DB, userID int64, role string) error {
	if role != rbac.RoleAdmin && role != rbac.RoleSales {
		return ErrInvalidRole
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, role, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("user not found")
		}
		return nil
	})
}

package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"gpdash/infrastructure/appdb"
)

// UserSettings are per-user browsing preferences. default_site is mirrored
// onto users.default_site so site resolution sees it without a join.
type UserSettings struct {
	DefaultSite string `bun:"default_site"`
	RowsPerPage int    `bun:"rows_per_page"`
}

const (
	minRowsPerPage = 10
	maxRowsPerPage = 200
)

func LoadUserSettings(ctx context.Context, db *appdb.DB, userID int64) (UserSettings, error) {
	out := UserSettings{RowsPerPage: 25}
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT default_site, rows_per_page
FROM user_settings
WHERE user_id = ?`, userID).Scan(ctx, &out)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return UserSettings{RowsPerPage: 25}, nil
	}
	return out, err
}

func SaveUserSettings(ctx context.Context, db *appdb.DB, userID int64, s UserSettings) error {
	if s.RowsPerPage < minRowsPerPage || s.RowsPerPage > maxRowsPerPage {
		return fmt.Errorf("rows per page must be between %d and %d", minRowsPerPage, maxRowsPerPage)
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO user_settings (user_id, default_site, rows_per_page, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
  default_site = excluded.default_site,
  rows_per_page = excluded.rows_per_page,
  updated_at = CURRENT_TIMESTAMP`, userID, s.DefaultSite, s.RowsPerPage); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
UPDATE users SET default_site = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			s.DefaultSite, userID)
		return err
	})
}

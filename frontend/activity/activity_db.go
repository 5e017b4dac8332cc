package activity

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"gpdash/infrastructure/appdb"
)

type ActivityRow struct {
	CreatedAtUK string `bun:"created_at_uk"`
	Actor       string `bun:"actor"`
	Action      string `bun:"action"`
	EntityID    string `bun:"entity_id"`
	AfterJSON   string `bun:"after_json"`
}

type HoldRow struct {
	ItemNumber   string `bun:"item_number"`
	SerialNumber string `bun:"serial_number"`
	ReservedBy   string `bun:"reserved_by"`
	UserName     string `bun:"user_name"`
	ExpiresAtUK  string `bun:"expires_at_uk"`
}

type PageData struct {
	Holds []HoldRow
	Rows  []ActivityRow
}

// LoadActivityPageData returns the live reservation table plus the recent
// reservation audit trail.
func LoadActivityPageData(ctx context.Context, db *appdb.DB, limit int) (PageData, error) {
	if limit <= 0 {
		limit = 100
	}
	data := PageData{Holds: make([]HoldRow, 0), Rows: make([]ActivityRow, 0)}

	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewRaw(`
SELECT item_number, serial_number, reserved_by,
       COALESCE(user_name, '') AS user_name,
       COALESCE(strftime('%d/%m/%Y %H:%M', expires_at), '') AS expires_at_uk
FROM serial_reservations
WHERE expires_at > CURRENT_TIMESTAMP
ORDER BY expires_at ASC`).Scan(ctx, &data.Holds); err != nil {
			return err
		}

		if err := tx.NewRaw(`
SELECT
  COALESCE(strftime('%d/%m/%Y %H:%M', created_at), '') AS created_at_uk,
  actor,
  action,
  COALESCE(entity_id, '') AS entity_id,
  COALESCE(after_json, '') AS after_json
FROM audit_logs
WHERE action LIKE 'serial.%'
ORDER BY created_at DESC, id DESC
LIMIT ?`, limit).Scan(ctx, &data.Rows); err != nil {
			return err
		}

		for i := range data.Rows {
			data.Rows[i].Actor = defaultActor(data.Rows[i].Actor)
		}
		return nil
	})
	return data, err
}

func defaultActor(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return "-"
	}
	return actor
}

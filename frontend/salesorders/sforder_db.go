package salesorders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"gpdash/infrastructure/appdb"
	"gpdash/models"
)

// loadSfOrderForSop cross-references the imported Salesforce snapshot by
// the GP document number, falling back to the raw order number. Missing is
// normal: not every GP order came through Salesforce.
func loadSfOrderForSop(ctx context.Context, db *appdb.DB, sopNumber string) (*models.SfOrder, error) {
	var order models.SfOrder
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&order).
			Where("gp_sop_number = ? OR order_number = ?", sopNumber, sopNumber).
			Order("sf_last_updated DESC").
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

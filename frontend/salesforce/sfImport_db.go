package salesforce

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/audit"
	"gpdash/models"
)

type ImportSummary struct {
	Inserted int
	Updated  int
	Errors   int
}

var csvHeader = []string{
	"sf_order_id", "order_number", "gp_sop_number", "account_name",
	"status", "owner_name", "total_amount", "sf_last_updated",
}

// ImportCSV loads a Salesforce order snapshot export into sf_orders,
// upserting on the Salesforce id. The snapshot is produced by the external
// sync pipeline; this just lands the file.
func ImportCSV(ctx context.Context, db *appdb.DB, auditSvc *audit.Service, actor string, reader io.Reader) (ImportSummary, error) {
	summary := ImportSummary{}
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return summary, fmt.Errorf("read header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return summary, err
	}

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for {
			record, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				summary.Errors++
				continue
			}
			row, ok := parseRow(record)
			if !ok {
				summary.Errors++
				continue
			}

			var exists int
			if err := tx.NewRaw("SELECT COUNT(1) FROM sf_orders WHERE sf_order_id = ?", row.SfOrderID).Scan(ctx, &exists); err != nil {
				return err
			}
			if exists > 0 {
				summary.Updated++
			} else {
				summary.Inserted++
			}

			if _, err := tx.ExecContext(ctx, `
INSERT INTO sf_orders (sf_order_id, order_number, gp_sop_number, account_name, status, owner_name, total_amount, sf_last_updated, imported_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(sf_order_id) DO UPDATE SET
  order_number = excluded.order_number,
  gp_sop_number = excluded.gp_sop_number,
  account_name = excluded.account_name,
  status = excluded.status,
  owner_name = excluded.owner_name,
  total_amount = excluded.total_amount,
  sf_last_updated = excluded.sf_last_updated,
  imported_at = CURRENT_TIMESTAMP`,
				row.SfOrderID, row.OrderNumber, row.GPSopNumber, row.AccountName,
				row.Status, row.OwnerName, row.TotalAmount, row.SfLastUpdated); err != nil {
				summary.Errors++
			}
		}

		if auditSvc != nil {
			after := map[string]any{"inserted": summary.Inserted, "updated": summary.Updated, "errors": summary.Errors}
			if err := auditSvc.Write(ctx, tx, actor, "salesforce.import", "sf_orders", "snapshot", nil, after); err != nil {
				return err
			}
		}
		return nil
	})
	return summary, err
}

func validateHeader(header []string) error {
	if len(header) < len(csvHeader) {
		return fmt.Errorf("invalid CSV header; expected %s", strings.Join(csvHeader, ","))
	}
	for i, want := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("invalid CSV header; expected %s", strings.Join(csvHeader, ","))
		}
	}
	return nil
}

func parseRow(record []string) (models.SfOrder, bool) {
	if len(record) < len(csvHeader) {
		return models.SfOrder{}, false
	}
	row := models.SfOrder{
		SfOrderID:   strings.TrimSpace(record[0]),
		OrderNumber: strings.TrimSpace(record[1]),
		GPSopNumber: strings.TrimSpace(record[2]),
		AccountName: strings.TrimSpace(record[3]),
		Status:      strings.TrimSpace(record[4]),
		OwnerName:   strings.TrimSpace(record[5]),
		TotalAmount: strings.TrimSpace(record[6]),
	}
	if row.SfOrderID == "" || row.OrderNumber == "" || row.Status == "" {
		return models.SfOrder{}, false
	}
	if raw := strings.TrimSpace(record[7]); raw != "" {
		updated, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.SfOrder{}, false
		}
		row.SfLastUpdated = updated
	}
	return row, true
}

// ListOrders returns the imported snapshot, newest first.
func ListOrders(ctx context.Context, db *appdb.DB, limit int) ([]models.SfOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	orders := make([]models.SfOrder, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&orders).
			Order("sf_last_updated DESC", "id DESC").
			Limit(limit).
			Scan(ctx)
	})
	return orders, err
}

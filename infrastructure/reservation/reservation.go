package reservation

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/audit"
	"gpdash/models"
)

// HoldDuration is the fixed lifetime of a serial reservation. Expiry doubles
// as crash recovery: holds from abandoned sessions lapse without a heartbeat.
const HoldDuration = 10 * time.Minute

// Result is returned by mutation calls. ReservedBy carries the current
// holder's display name when a reserve attempt loses to a live hold.
type Result struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	ReservedBy string `json:"reservedBy,omitempty"`
}

// Service mediates exclusive, time-boxed claims on individual serial
// numbers. All coordination state lives in the serial_reservations table;
// the single-writer app DB connection makes the check-then-write in Reserve
// atomic with respect to concurrent callers.
type Service struct {
	db    *appdb.DB
	audit *audit.Service
	now   func() time.Time
}

func NewService(db *appdb.DB, auditSvc *audit.Service) *Service {
	return &Service{db: db, audit: auditSvc, now: time.Now}
}

// WithClock overrides the time source. Test seam.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Reserve claims (itemNumber, serialNumber) for the requester.
//
// The claim succeeds when no reservation exists, the existing one has
// expired, or the existing one already belongs to the requester; in all
// three cases the row is upserted with a refreshed expiry. A live hold by a
// different requester fails the call with the holder's display name and no
// mutation. Storage errors are logged and surfaced as a generic failure so
// the interactive caller can degrade instead of crashing.
func (s *Service) Reserve(ctx context.Context, itemNumber, serialNumber, requesterID, requesterName string) Result {
	itemNumber = strings.TrimSpace(itemNumber)
	serialNumber = strings.TrimSpace(serialNumber)
	if itemNumber == "" || serialNumber == "" || requesterID == "" {
		return Result{Success: false, Error: "item and serial are required"}
	}

	var blockedBy string
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		now := s.now()

		var existing models.SerialReservation
		err := tx.NewSelect().
			Model(&existing).
			Where("item_number = ?", itemNumber).
			Where("serial_number = ?", serialNumber).
			Limit(1).
			Scan(ctx)
		switch {
		case err == nil:
			if !existing.ExpiredAt(now) && existing.ReservedBy != requesterID {
				// Live hold by someone else: the sole mutual-exclusion gate.
				blockedBy = holderLabel(existing)
				return nil
			}
		case errors.Is(err, sql.ErrNoRows):
			// free
		default:
			return err
		}

		row := models.SerialReservation{
			ItemNumber:   itemNumber,
			SerialNumber: serialNumber,
			ReservedBy:   requesterID,
			UserName:     requesterName,
			ExpiresAt:    now.Add(HoldDuration),
			UpdatedAt:    now,
		}
		if _, err := tx.NewInsert().
			Model(&row).
			On("CONFLICT (item_number, serial_number) DO UPDATE").
			Set("reserved_by = EXCLUDED.reserved_by").
			Set("user_name = EXCLUDED.user_name").
			Set("expires_at = EXCLUDED.expires_at").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return err
		}

		if s.audit != nil {
			if err := s.audit.Write(ctx, tx, requesterID, "serial.reserve", "serial_reservations", itemNumber+"/"+serialNumber, nil, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("reserve serial failed", slog.String("item", itemNumber), slog.String("serial", serialNumber), slog.Any("err", err))
		return Result{Success: false, Error: "reservation unavailable"}
	}
	if blockedBy != "" {
		return Result{Success: false, Error: "serial is reserved by another user", ReservedBy: blockedBy}
	}
	return Result{Success: true}
}

// Release drops the requester's hold on (itemNumber, serialNumber). It is
// idempotent: a missing row or a row owned by someone else is a no-op. A
// hold belonging to another requester is never force-released.
func (s *Service) Release(ctx context.Context, itemNumber, serialNumber, requesterID string) Result {
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.SerialReservation)(nil)).
			Where("item_number = ?", strings.TrimSpace(itemNumber)).
			Where("serial_number = ?", strings.TrimSpace(serialNumber)).
			Where("reserved_by = ?", requesterID).
			Exec(ctx)
		return err
	})
	if err != nil {
		slog.Error("release serial failed", slog.String("item", itemNumber), slog.String("serial", serialNumber), slog.Any("err", err))
		return Result{Success: false, Error: "release unavailable"}
	}
	return Result{Success: true}
}

// ReleaseAll drops every hold owned by the requester. Used when an editing
// session is abandoned.
func (s *Service) ReleaseAll(ctx context.Context, requesterID string) Result {
	if requesterID == "" {
		return Result{Success: true}
	}
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.SerialReservation)(nil)).
			Where("reserved_by = ?", requesterID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if s.audit != nil {
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				if err := s.audit.Write(ctx, tx, requesterID, "serial.release_all", "serial_reservations", requesterID, nil, map[string]int64{"released": n}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("release all reservations failed", slog.String("requester", requesterID), slog.Any("err", err))
		return Result{Success: false, Error: "release unavailable"}
	}
	return Result{Success: true}
}

// SweepExpired deletes every reservation whose expiry has passed and returns
// the number of rows removed. This is hygiene, not correctness: Reserve
// treats expired rows as free whether or not the sweep ran.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	var removed int64
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.SerialReservation)(nil)).
			Where("expires_at <= ?", s.now()).
			Exec(ctx)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ActiveByItem returns the live reservations for an item keyed by serial
// number. Expired rows are excluded; the resolver never trusts them.
func (s *Service) ActiveByItem(ctx context.Context, itemNumber string) (map[string]models.SerialReservation, error) {
	var rows []models.SerialReservation
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&rows).
			Where("item_number = ?", strings.TrimSpace(itemNumber)).
			Where("expires_at > ?", s.now()).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	active := make(map[string]models.SerialReservation, len(rows))
	for _, r := range rows {
		active[r.SerialNumber] = r
	}
	return active, nil
}

func holderLabel(r models.SerialReservation) string {
	if strings.TrimSpace(r.UserName) != "" {
		return r.UserName
	}
	return r.ReservedBy
}

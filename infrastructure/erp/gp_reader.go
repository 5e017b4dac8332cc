package erp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gpdash/infrastructure/allocation"
)

// GP tracking option values on IV00101.ITMTRKOP.
const (
	gpTrackNone   = 1
	gpTrackSerial = 2
	gpTrackLot    = 3
)

// GPReader answers the allocation resolver's ERP reads against the GP
// company database. GP stores strings as blank-padded CHAR, hence the
// RTRIMs; SOPTYPE 2 is an order, 3 an invoice.
type GPReader struct {
	db *DB
}

func NewGPReader(db *DB) *GPReader {
	return &GPReader{db: db}
}

var _ allocation.ERPReader = (*GPReader)(nil)

func (g *GPReader) ItemTracking(ctx context.Context, itemNumber string) (allocation.ItemTracking, error) {
	var trackOption int
	var desc string
	err := g.db.R.NewRaw(`
SELECT ITMTRKOP, RTRIM(ITEMDESC)
FROM IV00101
WHERE ITEMNMBR = ?`, strings.TrimSpace(itemNumber)).Scan(ctx, &trackOption, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return allocation.ItemTracking{}, fmt.Errorf("item %s not found in GP item master", itemNumber)
	}
	if err != nil {
		return allocation.ItemTracking{}, err
	}
	return allocation.ItemTracking{
		ItemNumber:  strings.TrimSpace(itemNumber),
		Description: desc,
		Serialized:  trackOption == gpTrackSerial,
	}, nil
}

func (g *GPReader) SerialUnitsAtSite(ctx context.Context, itemNumber, siteID string) ([]allocation.SerialUnit, error) {
	rows, err := g.db.SQL.QueryContext(ctx, `
SELECT RTRIM(SERLNMBR), DATERECD
FROM IV00200
WHERE ITEMNMBR = @p1 AND LOCNCODE = @p2 AND SERLNSLD = 0
ORDER BY DATERECD ASC, SERLNMBR ASC`, strings.TrimSpace(itemNumber), strings.TrimSpace(siteID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []allocation.SerialUnit
	for rows.Next() {
		var u allocation.SerialUnit
		var received sql.NullTime
		if err := rows.Scan(&u.SerialNumber, &received); err != nil {
			return nil, err
		}
		if received.Valid {
			u.ReceiptDate = parseDate(received.Time)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (g *GPReader) HasSerialUnitsAnywhere(ctx context.Context, itemNumber string) (bool, error) {
	var count int64
	err := g.db.R.NewRaw(`
SELECT COUNT(*)
FROM IV00200
WHERE ITEMNMBR = ? AND SERLNSLD = 0`, strings.TrimSpace(itemNumber)).Scan(ctx, &count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *GPReader) SerialOrderAllocations(ctx context.Context, itemNumber string) (map[string]string, error) {
	rows, err := g.db.SQL.QueryContext(ctx, `
SELECT RTRIM(sl.SERLTNUM), RTRIM(sl.SOPNUMBE)
FROM SOP10201 sl
JOIN SOP10100 h ON h.SOPNUMBE = sl.SOPNUMBE AND h.SOPTYPE = sl.SOPTYPE
WHERE sl.ITEMNMBR = @p1 AND sl.SOPTYPE = 2`, strings.TrimSpace(itemNumber))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocated := make(map[string]string)
	for rows.Next() {
		var serial, sop string
		if err := rows.Scan(&serial, &sop); err != nil {
			return nil, err
		}
		allocated[serial] = sop
	}
	return allocated, rows.Err()
}

func (g *GPReader) SiteQuantity(ctx context.Context, itemNumber, siteID string) (allocation.SiteQuantity, error) {
	var onHand, allocated string
	err := g.db.R.NewRaw(`
SELECT CAST(QTYONHND AS varchar(32)), CAST(ATYALLOC AS varchar(32))
FROM IV00102
WHERE ITEMNMBR = ? AND LOCNCODE = ? AND RCRDTYPE = 2`,
		strings.TrimSpace(itemNumber), strings.TrimSpace(siteID)).Scan(ctx, &onHand, &allocated)
	if errors.Is(err, sql.ErrNoRows) {
		// Item not stocked at this site.
		return allocation.SiteQuantity{OnHand: decimal.Zero, Allocated: decimal.Zero}, nil
	}
	if err != nil {
		return allocation.SiteQuantity{}, err
	}

	qty := allocation.SiteQuantity{}
	if qty.OnHand, err = decimal.NewFromString(strings.TrimSpace(onHand)); err != nil {
		return allocation.SiteQuantity{}, fmt.Errorf("parse on-hand qty %q: %w", onHand, err)
	}
	if qty.Allocated, err = decimal.NewFromString(strings.TrimSpace(allocated)); err != nil {
		return allocation.SiteQuantity{}, fmt.Errorf("parse allocated qty %q: %w", allocated, err)
	}
	return qty, nil
}

// Sites lists the GP site codes and descriptions for the site picker.
func (g *GPReader) Sites(ctx context.Context) ([]Site, error) {
	rows, err := g.db.SQL.QueryContext(ctx, `
SELECT RTRIM(LOCNCODE), RTRIM(LOCNDSCR)
FROM IV40700
ORDER BY LOCNCODE ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.Code, &s.Description); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// Site is a GP warehouse/location.
type Site struct {
	Code        string
	Description string
}

// parseDate converts GP's sentinel 1900-01-01 dates to zero time.
func parseDate(t time.Time) time.Time {
	if t.Year() <= 1900 {
		return time.Time{}
	}
	return t
}

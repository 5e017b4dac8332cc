package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"gpdash/models"
)

// TrackingOption classifies how an item's units are tracked.
type TrackingOption string

const (
	TrackingSerialized    TrackingOption = "serialized"
	TrackingNonSerialized TrackingOption = "non-serialized"
)

// ItemTracking is the item-master view the resolver starts from.
type ItemTracking struct {
	ItemNumber  string
	Description string
	Serialized  bool
}

// SerialUnit is one unsold serial-tracked unit at a site.
type SerialUnit struct {
	SerialNumber string
	ReceiptDate  time.Time
}

// SiteQuantity carries GP's cached quantity counters for an item at a site.
type SiteQuantity struct {
	OnHand    decimal.Decimal
	Allocated decimal.Decimal
}

// ERPReader is the narrow slice of GP reads the resolver needs. The
// concrete implementation lives in infrastructure/erp; tests use fakes.
type ERPReader interface {
	ItemTracking(ctx context.Context, itemNumber string) (ItemTracking, error)
	SerialUnitsAtSite(ctx context.Context, itemNumber, siteID string) ([]SerialUnit, error)
	HasSerialUnitsAnywhere(ctx context.Context, itemNumber string) (bool, error)
	// SerialOrderAllocations maps serial number to the open sales document
	// number that already references it, for the given item.
	SerialOrderAllocations(ctx context.Context, itemNumber string) (map[string]string, error)
	SiteQuantity(ctx context.Context, itemNumber, siteID string) (SiteQuantity, error)
}

// ReservationReader is the reservation-store slice the resolver joins in.
// reservation.Service satisfies it.
type ReservationReader interface {
	ActiveByItem(ctx context.Context, itemNumber string) (map[string]models.SerialReservation, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// SerialStatus is the per-unit answer inside a Snapshot.
type SerialStatus struct {
	SerialNumber string    `json:"serialNumber"`
	ReceiptDate  time.Time `json:"receiptDate"`
	AgingDays    int       `json:"agingDays"`

	ReservedBy     string `json:"reservedBy,omitempty"`
	ReservedByName string `json:"reservedByName,omitempty"`
	IsReservedByMe bool   `json:"isReservedByMe"`

	AllocatedToSopNumber    string `json:"allocatedToSopNumber,omitempty"`
	IsAllocatedByOtherOrder bool   `json:"isAllocatedByOtherOrder"`
}

// Snapshot is the derived, per-request allocation answer for one item at
// one site. It is never persisted.
type Snapshot struct {
	ItemNumber     string          `json:"itemNumber"`
	SiteID         string          `json:"siteId"`
	Description    string          `json:"description"`
	TrackingOption TrackingOption  `json:"trackingOption"`
	QtyOnHand      decimal.Decimal `json:"qtyOnHand"`
	AvailableQty   decimal.Decimal `json:"availableQty"`
	Serials        []SerialStatus  `json:"serials"`
}

// Request identifies what is being resolved and for whom. CurrentSopNumber
// is the sales document being edited; serials GP has committed to that same
// document are not flagged as blocked.
type Request struct {
	ItemNumber       string
	SiteID           string
	RequesterID      string
	CurrentSopNumber string
}

// Resolver reconciles three independent truths about an item's units: GP's
// item master and quantity counters, GP's literal serial records, and the
// app's reservation store. Serial records are ground truth; the master flag
// and cached counters are hints that are overridden when they disagree.
type Resolver struct {
	erp ERPReader
	res ReservationReader
	now func() time.Time
}

func NewResolver(erp ERPReader, res ReservationReader) *Resolver {
	return &Resolver{erp: erp, res: res, now: time.Now}
}

// WithClock overrides the time source. Test seam.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Snapshot computes the allocation answer for req.
//
// ERP read failures are fatal: there is nothing useful to return without
// authoritative stock data. Reservation-store failures degrade: the
// snapshot is returned with reservation fields omitted.
func (r *Resolver) Snapshot(ctx context.Context, req Request) (*Snapshot, error) {
	// Opportunistic hygiene; correctness never depends on it.
	if _, err := r.res.SweepExpired(ctx); err != nil {
		slog.Warn("reservation sweep failed", slog.Any("err", err))
	}

	item, err := r.erp.ItemTracking(ctx, req.ItemNumber)
	if err != nil {
		return nil, fmt.Errorf("item tracking lookup: %w", err)
	}

	units, err := r.erp.SerialUnitsAtSite(ctx, req.ItemNumber, req.SiteID)
	if err != nil {
		return nil, fmt.Errorf("serial units lookup: %w", err)
	}

	serialized := item.Serialized
	if !serialized && len(units) > 0 {
		// Real serial records outrank a misconfigured master flag.
		slog.Info("tracking override: serial records exist for non-serialized item",
			slog.String("item", req.ItemNumber), slog.String("site", req.SiteID))
		serialized = true
	}
	if !serialized {
		anywhere, err := r.erp.HasSerialUnitsAnywhere(ctx, req.ItemNumber)
		if err != nil {
			return nil, fmt.Errorf("global serial lookup: %w", err)
		}
		if anywhere {
			slog.Info("tracking override: item has serial records at other sites",
				slog.String("item", req.ItemNumber))
			serialized = true
		}
	}

	snap := &Snapshot{
		ItemNumber:     req.ItemNumber,
		SiteID:         req.SiteID,
		Description:    item.Description,
		TrackingOption: TrackingNonSerialized,
		AvailableQty:   decimal.Zero,
		QtyOnHand:      decimal.Zero,
		Serials:        []SerialStatus{},
	}
	if serialized {
		snap.TrackingOption = TrackingSerialized
	}

	qty, err := r.erp.SiteQuantity(ctx, req.ItemNumber, req.SiteID)
	if err != nil {
		return nil, fmt.Errorf("site quantity lookup: %w", err)
	}
	snap.QtyOnHand = qty.OnHand

	if !serialized {
		avail := qty.OnHand.Sub(qty.Allocated)
		if avail.IsNegative() {
			avail = decimal.Zero
		}
		snap.AvailableQty = avail
		return snap, nil
	}

	var reserved map[string]models.SerialReservation
	if reserved, err = r.res.ActiveByItem(ctx, req.ItemNumber); err != nil {
		// Degrade: stock data still flows, reservation fields stay empty.
		slog.Error("reservation join failed; returning snapshot without reservations",
			slog.String("item", req.ItemNumber), slog.Any("err", err))
		reserved = nil
	}

	allocated, err := r.erp.SerialOrderAllocations(ctx, req.ItemNumber)
	if err != nil {
		return nil, fmt.Errorf("serial allocation lookup: %w", err)
	}

	now := r.now()
	available := int64(0)
	for _, u := range units {
		st := SerialStatus{
			SerialNumber: u.SerialNumber,
			ReceiptDate:  u.ReceiptDate,
		}
		if !u.ReceiptDate.IsZero() {
			st.AgingDays = int(now.Sub(u.ReceiptDate).Hours() / 24)
		}
		if hold, ok := reserved[u.SerialNumber]; ok {
			st.ReservedBy = hold.ReservedBy
			st.ReservedByName = hold.UserName
			st.IsReservedByMe = hold.ReservedBy == req.RequesterID
		}
		if sop, ok := allocated[u.SerialNumber]; ok {
			st.AllocatedToSopNumber = sop
			// GP's own commitment is harder than any app reservation and is
			// only "ours" when it matches the document being edited.
			st.IsAllocatedByOtherOrder = req.CurrentSopNumber == "" || sop != req.CurrentSopNumber
		}
		if !st.IsAllocatedByOtherOrder && (st.ReservedBy == "" || st.IsReservedByMe) {
			available++
		}
		snap.Serials = append(snap.Serials, st)
	}

	// For serialized items the literal serial count is authoritative over
	// GP's cached on-hand/allocated counters, which drift.
	snap.AvailableQty = decimal.NewFromInt(available)
	return snap, nil
}

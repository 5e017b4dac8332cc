package allocate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gpdash/infrastructure/allocation"
)

// CandidateState is the per-serial position in the selection flow.
type CandidateState int

const (
	StateFree CandidateState = iota
	StateReservedByOther
	StateAllocatedByOtherOrder
	StateSelected
	StateSelectedAndFulfilled
)

func (s CandidateState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateReservedByOther:
		return "reserved-by-other"
	case StateAllocatedByOtherOrder:
		return "allocated-by-other-order"
	case StateSelected:
		return "selected"
	case StateSelectedAndFulfilled:
		return "selected-and-fulfilled"
	default:
		return "unknown"
	}
}

// Mode is the two-bit register controlling what a toggle does next.
// Switching modes never mutates existing selections.
type Mode uint8

const (
	ModeAllocate Mode = 1 << iota
	ModeFulfill
)

// ReservationClient is the write path a toggle drives. The HTTP modal
// calls the serial endpoints; tests plug a fake.
type ReservationClient interface {
	Reserve(ctx context.Context, itemNumber, serialNumber string) (ok bool, holder string, err error)
	Release(ctx context.Context, itemNumber, serialNumber string) error
}

// ToggleResult reports what one toggle did. Message is user-facing and
// only set when the toggle was refused or failed.
type ToggleResult struct {
	Changed bool
	State   CandidateState
	Message string
}

type candidate struct {
	state  CandidateState
	holder string
}

// Controller tracks one sales-order line's selection session for a
// serialized item. All transitions are synchronous and pure apart from the
// ReservationClient round-trips; rendering happens elsewhere.
type Controller struct {
	itemNumber string
	orderedQty int
	mode       Mode
	client     ReservationClient

	candidates map[string]*candidate
	selected   []string
	fulfilled  map[string]bool

	// inFlight serializes repeated toggles of the same serial; toggles of
	// different serials stay independent.
	inFlight map[string]bool

	// acquired marks holds taken during this session, as opposed to holds
	// that pre-dated it; only the former are cleaned up on close.
	acquired map[string]bool
}

// NewController seeds candidate states from an allocation snapshot. A
// serial the ERP has committed to another order is blocked outright and
// outranks any reservation state; the requester's own pre-existing holds
// start Free so they can be re-selected without a failed round-trip.
func NewController(snap *allocation.Snapshot, orderedQty int, client ReservationClient) *Controller {
	c := &Controller{
		itemNumber: snap.ItemNumber,
		orderedQty: orderedQty,
		mode:       ModeAllocate,
		client:     client,
		candidates: make(map[string]*candidate, len(snap.Serials)),
		fulfilled:  make(map[string]bool),
		inFlight:   make(map[string]bool),
		acquired:   make(map[string]bool),
	}
	for _, s := range snap.Serials {
		cand := &candidate{state: StateFree}
		switch {
		case s.IsAllocatedByOtherOrder:
			cand.state = StateAllocatedByOtherOrder
		case s.ReservedBy != "" && !s.IsReservedByMe:
			cand.state = StateReservedByOther
			cand.holder = s.ReservedByName
			if cand.holder == "" {
				cand.holder = s.ReservedBy
			}
		}
		c.candidates[s.SerialNumber] = cand
	}
	return c
}

// SetMode switches the active mode register for subsequent toggles.
func (c *Controller) SetMode(mode Mode) {
	c.mode = mode
}

func (c *Controller) Mode() Mode { return c.mode }

// SerialNumbers returns the serials currently allocated to the line, in
// selection order.
func (c *Controller) SerialNumbers() []string {
	out := make([]string, len(c.selected))
	copy(out, c.selected)
	return out
}

// FulfilledSerialNumbers returns the fulfilled subset, sorted.
func (c *Controller) FulfilledSerialNumbers() []string {
	out := make([]string, 0, len(c.fulfilled))
	for sn := range c.fulfilled {
		out = append(out, sn)
	}
	sort.Strings(out)
	return out
}

func (c *Controller) QtyAllocated() int { return len(c.selected) }
func (c *Controller) QtyFulfilled() int { return len(c.fulfilled) }

// State returns the current state of one candidate.
func (c *Controller) State(serialNumber string) CandidateState {
	if cand, ok := c.candidates[serialNumber]; ok {
		return cand.state
	}
	return StateFree
}

// Toggle applies one user toggle to serialNumber under the active mode.
func (c *Controller) Toggle(ctx context.Context, serialNumber string) ToggleResult {
	cand, ok := c.candidates[serialNumber]
	if !ok {
		return ToggleResult{Message: "unknown serial number"}
	}
	if c.inFlight[serialNumber] {
		return ToggleResult{State: cand.state, Message: "request already in progress"}
	}
	if cand.state == StateAllocatedByOtherOrder {
		return ToggleResult{State: cand.state, Message: fmt.Sprintf("serial %s is committed to another order", serialNumber)}
	}

	switch {
	case c.mode&ModeAllocate != 0 && c.mode&ModeFulfill != 0:
		return c.toggleBoth(ctx, serialNumber, cand)
	case c.mode&ModeAllocate != 0:
		return c.toggleAllocate(ctx, serialNumber, cand)
	case c.mode&ModeFulfill != 0:
		return c.toggleFulfill(serialNumber, cand)
	default:
		return ToggleResult{State: cand.state, Message: "no mode active"}
	}
}

func (c *Controller) toggleBoth(ctx context.Context, serialNumber string, cand *candidate) ToggleResult {
	switch cand.state {
	case StateFree, StateReservedByOther:
		return c.acquire(ctx, serialNumber, cand, StateSelectedAndFulfilled)
	case StateSelected:
		// Already held; promoting to fulfilled needs no reservation call.
		cand.state = StateSelectedAndFulfilled
		c.fulfilled[serialNumber] = true
		return ToggleResult{Changed: true, State: cand.state}
	case StateSelectedAndFulfilled:
		return c.discard(ctx, serialNumber, cand)
	}
	return ToggleResult{State: cand.state}
}

func (c *Controller) toggleAllocate(ctx context.Context, serialNumber string, cand *candidate) ToggleResult {
	switch cand.state {
	case StateFree, StateReservedByOther:
		return c.acquire(ctx, serialNumber, cand, StateSelected)
	case StateSelected, StateSelectedAndFulfilled:
		// Deselecting drops the fulfilled mark too; a fulfilled serial
		// cannot outlive its allocation.
		return c.discard(ctx, serialNumber, cand)
	}
	return ToggleResult{State: cand.state}
}

func (c *Controller) toggleFulfill(serialNumber string, cand *candidate) ToggleResult {
	switch cand.state {
	case StateSelected:
		cand.state = StateSelectedAndFulfilled
		c.fulfilled[serialNumber] = true
		return ToggleResult{Changed: true, State: cand.state}
	case StateSelectedAndFulfilled:
		cand.state = StateSelected
		delete(c.fulfilled, serialNumber)
		return ToggleResult{Changed: true, State: cand.state}
	}
	// Fulfillment without allocation is disallowed; no reservation call.
	return ToggleResult{State: cand.state, Message: "serial must be allocated before it can be fulfilled"}
}

func (c *Controller) acquire(ctx context.Context, serialNumber string, cand *candidate, target CandidateState) ToggleResult {
	if len(c.selected) >= c.orderedQty {
		return ToggleResult{State: cand.state, Message: fmt.Sprintf("line quantity of %d already allocated", c.orderedQty)}
	}

	c.inFlight[serialNumber] = true
	defer delete(c.inFlight, serialNumber)

	ok, holder, err := c.client.Reserve(ctx, c.itemNumber, serialNumber)
	if err != nil {
		return ToggleResult{State: cand.state, Message: "reservation unavailable"}
	}
	if !ok {
		cand.state = StateReservedByOther
		cand.holder = holder
		msg := "serial is reserved by another user"
		if holder != "" {
			msg = fmt.Sprintf("serial is reserved by %s", holder)
		}
		return ToggleResult{State: cand.state, Message: msg}
	}

	cand.state = target
	cand.holder = ""
	c.selected = append(c.selected, serialNumber)
	c.acquired[serialNumber] = true
	if target == StateSelectedAndFulfilled {
		c.fulfilled[serialNumber] = true
	}
	return ToggleResult{Changed: true, State: cand.state}
}

func (c *Controller) discard(ctx context.Context, serialNumber string, cand *candidate) ToggleResult {
	c.inFlight[serialNumber] = true
	defer delete(c.inFlight, serialNumber)

	if err := c.client.Release(ctx, c.itemNumber, serialNumber); err != nil {
		return ToggleResult{State: cand.state, Message: "release unavailable"}
	}

	cand.state = StateFree
	delete(c.fulfilled, serialNumber)
	delete(c.acquired, serialNumber)
	for i, sn := range c.selected {
		if sn == serialNumber {
			c.selected = append(c.selected[:i], c.selected[i+1:]...)
			break
		}
	}
	return ToggleResult{Changed: true, State: cand.state}
}

// Close releases every hold acquired during this session that did not make
// it into the final selection. Holds that pre-dated the session are left
// alone. Best effort: failures are logged and never retried.
func (c *Controller) Close(ctx context.Context) {
	keep := make(map[string]bool, len(c.selected))
	for _, sn := range c.selected {
		keep[sn] = true
	}
	for sn := range c.acquired {
		if keep[sn] {
			continue
		}
		if err := c.client.Release(ctx, c.itemNumber, sn); err != nil {
			slog.Warn("session-close release failed",
				slog.String("item", c.itemNumber), slog.String("serial", sn), slog.Any("err", err))
		}
	}
}

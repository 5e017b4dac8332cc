package allocate

import (
	"context"
	"errors"
	"testing"

	"gpdash/infrastructure/allocation"
)

type fakeClient struct {
	reserveCalls []string
	releaseCalls []string

	reserveOK     bool
	reserveHolder string
	reserveErr    error
	releaseErr    error

	onReserve func(c *Controller) ToggleResult
	reentrant ToggleResult
	ctrl      *Controller
}

func (f *fakeClient) Reserve(ctx context.Context, item, serial string) (bool, string, error) {
	f.reserveCalls = append(f.reserveCalls, serial)
	if f.onReserve != nil {
		cb := f.onReserve
		f.onReserve = nil
		f.reentrant = cb(f.ctrl)
	}
	return f.reserveOK, f.reserveHolder, f.reserveErr
}

func (f *fakeClient) Release(ctx context.Context, item, serial string) error {
	f.releaseCalls = append(f.releaseCalls, serial)
	return f.releaseErr
}

func snapshotFixture() *allocation.Snapshot {
	return &allocation.Snapshot{
		ItemNumber:     "ITM-100",
		SiteID:         "MAIN",
		TrackingOption: allocation.TrackingSerialized,
		Serials: []allocation.SerialStatus{
			{SerialNumber: "SN1", ReservedBy: "bob@example.com", ReservedByName: "Bob"},
			{SerialNumber: "SN2"},
			{SerialNumber: "SN3", AllocatedToSopNumber: "SO999", IsAllocatedByOtherOrder: true},
			{SerialNumber: "SN4"},
		},
	}
}

func TestToggleAllocatesAndReleases(t *testing.T) {
	client := &fakeClient{reserveOK: true}
	c := NewController(snapshotFixture(), 2, client)

	res := c.Toggle(context.Background(), "SN2")
	if !res.Changed || res.State != StateSelected {
		t.Fatalf("expected selection, got %+v", res)
	}
	if got := c.SerialNumbers(); len(got) != 1 || got[0] != "SN2" {
		t.Fatalf("unexpected serial list: %v", got)
	}

	res = c.Toggle(context.Background(), "SN2")
	if !res.Changed || res.State != StateFree {
		t.Fatalf("expected deselection, got %+v", res)
	}
	if len(c.SerialNumbers()) != 0 {
		t.Fatalf("serial list should be empty")
	}
	if len(client.releaseCalls) != 1 || client.releaseCalls[0] != "SN2" {
		t.Fatalf("expected one release for SN2, got %v", client.releaseCalls)
	}
}

func TestBothModesSelectsAndFulfillsInOneToggle(t *testing.T) {
	client := &fakeClient{reserveOK: true}
	c := NewController(snapshotFixture(), 2, client)
	c.SetMode(ModeAllocate | ModeFulfill)

	res := c.Toggle(context.Background(), "SN2")
	if res.State != StateSelectedAndFulfilled {
		t.Fatalf("expected selected-and-fulfilled, got %+v", res)
	}
	if got := c.FulfilledSerialNumbers(); len(got) != 1 || got[0] != "SN2" {
		t.Fatalf("unexpected fulfilled list: %v", got)
	}

	res = c.Toggle(context.Background(), "SN2")
	if res.State != StateFree {
		t.Fatalf("expected return to free, got %+v", res)
	}
	if c.QtyAllocated() != 0 || c.QtyFulfilled() != 0 {
		t.Fatalf("both lists should be empty")
	}
}

func TestErpAllocatedSerialIsUnselectable(t *testing.T) {
	client := &fakeClient{reserveOK: true}
	c := NewController(snapshotFixture(), 2, client)

	for _, mode := range []Mode{ModeAllocate, ModeAllocate | ModeFulfill, ModeFulfill} {
		c.SetMode(mode)
		res := c.Toggle(context.Background(), "SN3")
		if res.Changed || res.Message == "" {
			t.Fatalf("mode %b: expected refusal, got %+v", mode, res)
		}
	}
	if len(client.reserveCalls) != 0 {
		t.Fatalf("no reservation call should be made for an ERP-committed serial")
	}
}

func TestFulfillWithoutAllocateIsRejected(t *testing.T) {
	client := &fakeClient{reserveOK: true}
	c := NewController(snapshotFixture(), 2, client)
	c.SetMode(ModeFulfill)

	res := c.Toggle(context.Background(), "SN2")
	if res.Changed {
		t.Fatalf("expected rejection, got %+v", res)
	}
	if len(c.SerialNumbers()) != 0 || len(c.FulfilledSerialNumbers()) != 0 {
		t.Fatalf("lists must be unchanged")
	}
	if len(client.reserveCalls) != 0 || len(client.releaseCalls) != 0 {
		t.Fatalf("fulfill-only toggling must not touch the reservation service")
	}
}

func TestFulfillTogglesSelectedSerial(t *testing.T) {
	client := &fakeClient{reserveOK: true}
	c := NewController(snapshotFixture(), 2, client)

	c.Toggle(context.Background(), "SN2")
	c.SetMode(ModeFulfill)

	if res := c.Toggle(context.Background(), "SN2"); res.State != StateSelectedAndFulfilled {
		t.Fatalf("expected fulfillment, got %+v", res)
	}
	if res := c.Toggle(context.Background(), "SN2"); res.State != StateSelected {
		t.Fatalf("expected unfulfillment, got %+v", res)
	}
	if got := c.SerialNumbers(); len(got) != 1 {
		t.Fatalf("allocation must survive fulfill toggling: %v", got)
	}
}

func TestQuantityCapRejectsWithoutStorageCall(t *testing.T) {
	client := &fakeClient{reserveOK: true}
	c := NewController(snapshotFixture(), 1, client)

	if res := c.Toggle(context.Background(), "SN2"); !res.Changed {
		t.Fatalf("first selection should succeed: %+v", res)
	}
	calls := len(client.reserveCalls)

	for _, mode := range []Mode{ModeAllocate, ModeAllocate | ModeFulfill} {
		c.SetMode(mode)
		res := c.Toggle(context.Background(), "SN4")
		if res.Changed || res.Message == "" {
			t.Fatalf("mode %b: expected cap rejection, got %+v", mode, res)
		}
	}
	if len(client.reserveCalls) != calls {
		t.Fatalf("cap rejection must not call the reservation service")
	}
}

func TestContentionSurfacesHolderAndLeavesStateUnchanged(t *testing.T) {
	client := &fakeClient{reserveOK: false, reserveHolder: "Bob"}
	c := NewController(snapshotFixture(), 2, client)

	res := c.Toggle(context.Background(), "SN1")
	if res.Changed {
		t.Fatalf("contended toggle must not change selection: %+v", res)
	}
	if res.State != StateReservedByOther || res.Message == "" {
		t.Fatalf("expected holder-visible contention, got %+v", res)
	}
	if len(c.SerialNumbers()) != 0 {
		t.Fatalf("nothing should be selected")
	}
}

func TestReserveErrorLeavesStateUnchanged(t *testing.T) {
	client := &fakeClient{reserveErr: errors.New("store down")}
	c := NewController(snapshotFixture(), 2, client)

	res := c.Toggle(context.Background(), "SN2")
	if res.Changed || res.Message == "" {
		t.Fatalf("expected generic failure, got %+v", res)
	}
	if c.State("SN2") != StateFree {
		t.Fatalf("state must be unchanged, got %v", c.State("SN2"))
	}
}

func TestSameSerialToggleIsSerialized(t *testing.T) {
	client := &fakeClient{reserveOK: true}
	c := NewController(snapshotFixture(), 2, client)
	client.ctrl = c
	client.onReserve = func(c *Controller) ToggleResult {
		// A second toggle of the same serial arriving while the first is
		// still in flight.
		return c.Toggle(context.Background(), "SN2")
	}

	if res := c.Toggle(context.Background(), "SN2"); !res.Changed {
		t.Fatalf("outer toggle should succeed: %+v", res)
	}
	if client.reentrant.Changed || client.reentrant.Message == "" {
		t.Fatalf("in-flight toggle must be refused: %+v", client.reentrant)
	}
	if len(client.reserveCalls) != 1 {
		t.Fatalf("expected a single reserve call, got %d", len(client.reserveCalls))
	}
}

func TestCloseReleasesOnlyDiscardedSessionHolds(t *testing.T) {
	client := &fakeClient{reserveOK: true}
	c := NewController(snapshotFixture(), 3, client)

	c.Toggle(context.Background(), "SN2") // X: stays selected
	c.Toggle(context.Background(), "SN4") // Y: discarded before close
	c.Toggle(context.Background(), "SN4")

	c.Close(context.Background())

	if len(client.releaseCalls) != 1 || client.releaseCalls[0] != "SN4" {
		t.Fatalf("expected exactly one release, for SN4 only: %v", client.releaseCalls)
	}
}

func TestCloseLeavesPreexistingHoldsAlone(t *testing.T) {
	snap := snapshotFixture()
	snap.Serials = append(snap.Serials, allocation.SerialStatus{
		SerialNumber: "SN5", ReservedBy: "alice@example.com", IsReservedByMe: true,
	})
	client := &fakeClient{reserveOK: true}
	c := NewController(snap, 3, client)

	c.Close(context.Background())
	if len(client.releaseCalls) != 0 {
		t.Fatalf("untouched pre-existing holds must not be released: %v", client.releaseCalls)
	}
}

func TestQuantityLineClamps(t *testing.T) {
	q := NewQuantityLine(5)

	q.SetAllocated(9)
	if q.QtyAllocated() != 5 {
		t.Fatalf("expected clamp to ordered quantity, got %d", q.QtyAllocated())
	}
	q.SetFulfilled(7)
	if q.QtyFulfilled() != 5 {
		t.Fatalf("fulfilled must not exceed allocated, got %d", q.QtyFulfilled())
	}
	q.SetAllocated(2)
	if q.QtyFulfilled() != 2 {
		t.Fatalf("reducing allocation must drag fulfilled down, got %d", q.QtyFulfilled())
	}
	q.SetAllocated(-3)
	if q.QtyAllocated() != 0 || q.QtyFulfilled() != 0 {
		t.Fatalf("negative input must clamp to zero")
	}
}

func TestQuantityLineEnableFulfillSeedsFromAllocation(t *testing.T) {
	q := NewQuantityLine(10)
	q.SetAllocated(4)
	q.EnableFulfill()
	if q.QtyFulfilled() != 4 {
		t.Fatalf("expected fulfilled seeded to 4, got %d", q.QtyFulfilled())
	}

	q.SetFulfilled(2)
	q.EnableFulfill()
	if q.QtyFulfilled() != 2 {
		t.Fatalf("re-enabling must not reseed, got %d", q.QtyFulfilled())
	}
}

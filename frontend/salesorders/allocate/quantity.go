package allocate

// QuantityLine is the non-serialized counterpart of the Controller. There
// is no per-unit lock for these items: two users can over-allocate the
// same stock concurrently, and GP reconciles at posting time. That
// asymmetry is accepted, not a gap to close here.
type QuantityLine struct {
	orderedQty   int
	qtyAllocated int
	qtyFulfilled int
	fulfillable  bool
}

func NewQuantityLine(orderedQty int) *QuantityLine {
	if orderedQty < 0 {
		orderedQty = 0
	}
	return &QuantityLine{orderedQty: orderedQty}
}

func (q *QuantityLine) QtyAllocated() int { return q.qtyAllocated }
func (q *QuantityLine) QtyFulfilled() int { return q.qtyFulfilled }

// SetAllocated clamps to [0, orderedQty] and drags the fulfilled count
// down with it when it would exceed the new allocation.
func (q *QuantityLine) SetAllocated(qty int) {
	q.qtyAllocated = clamp(qty, q.orderedQty)
	if q.qtyFulfilled > q.qtyAllocated {
		q.qtyFulfilled = q.qtyAllocated
	}
}

// SetFulfilled clamps to [0, qtyAllocated]; fulfillment cannot exceed
// allocation.
func (q *QuantityLine) SetFulfilled(qty int) {
	q.qtyFulfilled = clamp(qty, q.qtyAllocated)
}

// EnableFulfill seeds the fulfilled count from the current allocation the
// first time fulfill mode is switched on. A convenience default, not a
// constraint.
func (q *QuantityLine) EnableFulfill() {
	if !q.fulfillable {
		q.fulfillable = true
		q.qtyFulfilled = q.qtyAllocated
	}
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

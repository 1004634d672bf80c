package engine

import "github.com/shopspring/decimal"

// Position is the venue's read model of an open position, built from its own
// fills. External portfolio accounting is the execution client's job; the
// venue needs positions only for reduce-only enforcement and NETTING
// position-id resolution.
type Position struct {
	ID           string
	InstrumentID string
	Side         PositionSide
	Quantity     decimal.Decimal

	signedQty decimal.Decimal
}

// PositionTracker indexes positions by id and keeps per-instrument open
// position ids in insertion order.
type PositionTracker struct {
	positions map[string]*Position
	openIDs   map[string][]string
	byOrder   map[string]string
}

func NewPositionTracker() *PositionTracker {
	return &PositionTracker{
		positions: make(map[string]*Position),
		openIDs:   make(map[string][]string),
		byOrder:   make(map[string]string),
	}
}

func (t *PositionTracker) Get(positionID string) *Position {
	return t.positions[positionID]
}

// OpenPosition returns the oldest open position for an instrument, or nil.
// Under NETTING there is at most one.
func (t *PositionTracker) OpenPosition(instrumentID string) *Position {
	ids := t.openIDs[instrumentID]
	if len(ids) == 0 {
		return nil
	}
	return t.positions[ids[0]]
}

// BindOrder records which position an order executes against.
func (t *PositionTracker) BindOrder(clientOrderID, positionID string) {
	t.byOrder[clientOrderID] = positionID
}

func (t *PositionTracker) PositionIDForOrder(clientOrderID string) (string, bool) {
	id, ok := t.byOrder[clientOrderID]
	return id, ok
}

// ApplyFill mutates the position for a fill, creating it on first use and
// retiring it from the open set when quantity reaches zero.
func (t *PositionTracker) ApplyFill(positionID, instrumentID string, side OrderSide, quantity decimal.Decimal) *Position {
	pos, ok := t.positions[positionID]
	if !ok {
		pos = &Position{
			ID:           positionID,
			InstrumentID: instrumentID,
			Side:         PositionFlat,
			Quantity:     decimal.Zero,
			signedQty:    decimal.Zero,
		}
		t.positions[positionID] = pos
		t.openIDs[instrumentID] = append(t.openIDs[instrumentID], positionID)
	}

	if side == SideBuy {
		pos.signedQty = pos.signedQty.Add(quantity)
	} else {
		pos.signedQty = pos.signedQty.Sub(quantity)
	}
	pos.Quantity = pos.signedQty.Abs()

	switch {
	case pos.signedQty.IsPositive():
		pos.Side = PositionLong
	case pos.signedQty.IsNegative():
		pos.Side = PositionShort
	default:
		pos.Side = PositionFlat
		t.retire(instrumentID, positionID)
	}
	return pos
}

func (t *PositionTracker) retire(instrumentID, positionID string) {
	ids := t.openIDs[instrumentID]
	for i, id := range ids {
		if id == positionID {
			t.openIDs[instrumentID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func (t *PositionTracker) Reset() {
	t.positions = make(map[string]*Position)
	t.openIDs = make(map[string][]string)
	t.byOrder = make(map[string]string)
}

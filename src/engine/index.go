package engine

import "sort"

// OrderIndex owns the venue's working orders: a lookup by client order id
// plus per-instrument side lists held in strict price priority (bids
// descending, asks ascending). Matching iterates snapshots of the side lists
// because fills mutate the underlying slices.
type OrderIndex struct {
	orders map[string]*Order
	bids   map[string][]*Order
	asks   map[string][]*Order
}

func NewOrderIndex() *OrderIndex {
	return &OrderIndex{
		orders: make(map[string]*Order),
		bids:   make(map[string][]*Order),
		asks:   make(map[string][]*Order),
	}
}

func (x *OrderIndex) Get(clientOrderID string) *Order {
	return x.orders[clientOrderID]
}

func (x *OrderIndex) Contains(clientOrderID string) bool {
	_, ok := x.orders[clientOrderID]
	return ok
}

func (x *OrderIndex) Insert(order *Order) {
	x.orders[order.ClientOrderID] = order
	if order.Side == SideBuy {
		x.bids[order.InstrumentID] = insertSorted(x.bids[order.InstrumentID], order, func(a, b *Order) bool {
			return a.Price.GreaterThan(b.Price)
		})
	} else {
		x.asks[order.InstrumentID] = insertSorted(x.asks[order.InstrumentID], order, func(a, b *Order) bool {
			return a.Price.LessThan(b.Price)
		})
	}
}

func (x *OrderIndex) Remove(order *Order) {
	delete(x.orders, order.ClientOrderID)
	if order.Side == SideBuy {
		x.bids[order.InstrumentID] = removeOrder(x.bids[order.InstrumentID], order.ClientOrderID)
	} else {
		x.asks[order.InstrumentID] = removeOrder(x.asks[order.InstrumentID], order.ClientOrderID)
	}
}

// Reposition re-sorts an order whose price changed.
func (x *OrderIndex) Reposition(order *Order) {
	if !x.Contains(order.ClientOrderID) {
		return
	}
	x.Remove(order)
	x.Insert(order)
}

// BidsSnapshot returns a copy of the bid side list for iteration.
func (x *OrderIndex) BidsSnapshot(instrumentID string) []*Order {
	return snapshot(x.bids[instrumentID])
}

// AsksSnapshot returns a copy of the ask side list for iteration.
func (x *OrderIndex) AsksSnapshot(instrumentID string) []*Order {
	return snapshot(x.asks[instrumentID])
}

// WorkingOrders returns the working orders for an instrument, bids before
// asks, each side in price priority. An empty instrument id returns nothing.
func (x *OrderIndex) WorkingOrders(instrumentID string) []*Order {
	out := make([]*Order, 0, len(x.bids[instrumentID])+len(x.asks[instrumentID]))
	out = append(out, x.bids[instrumentID]...)
	out = append(out, x.asks[instrumentID]...)
	return out
}

func (x *OrderIndex) Len() int {
	return len(x.orders)
}

func (x *OrderIndex) Reset() {
	x.orders = make(map[string]*Order)
	x.bids = make(map[string][]*Order)
	x.asks = make(map[string][]*Order)
}

func insertSorted(side []*Order, order *Order, before func(a, b *Order) bool) []*Order {
	// Insert after equal prices to preserve time priority at a level.
	i := sort.Search(len(side), func(i int) bool {
		return before(order, side[i])
	})
	side = append(side, nil)
	copy(side[i+1:], side[i:])
	side[i] = order
	return side
}

func removeOrder(side []*Order, clientOrderID string) []*Order {
	for i, o := range side {
		if o.ClientOrderID == clientOrderID {
			return append(side[:i], side[i+1:]...)
		}
	}
	return side
}

func snapshot(side []*Order) []*Order {
	out := make([]*Order, len(side))
	copy(out, side)
	return out
}

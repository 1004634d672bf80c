package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// matchOrders runs one matching sweep for an instrument: bid side first,
// then ask side, each over a snapshot because fills mutate the side lists.
func (e *SimulatedExchange) matchOrders(instrumentID string) {
	instrument, ok := e.instruments[instrumentID]
	if !ok {
		return
	}
	book := e.books[instrumentID]

	for _, o := range e.index.BidsSnapshot(instrumentID) {
		e.matchOrder(o, instrument, book)
	}
	for _, o := range e.index.AsksSnapshot(instrumentID) {
		e.matchOrder(o, instrument, book)
	}
}

func (e *SimulatedExchange) matchOrder(o *Order, instrument *Instrument, book *OrderBook) {
	// State may have changed while iterating the snapshot.
	if !e.index.Contains(o.ClientOrderID) || !o.IsWorking() {
		return
	}
	if o.ExpireTimeNs > 0 && e.clock.TimeNs() >= o.ExpireTimeNs {
		e.expireOrder(o)
		return
	}

	switch o.Type {
	case TypeLimit:
		e.matchLimitOrder(o, instrument, book)

	case TypeStopMarket:
		if e.stopTriggered(book, o.Side, o.Price) {
			stopPx := o.Price
			e.fillMarketOrder(o, instrument, book, &stopPx)
		}

	case TypeStopLimit:
		if o.IsTriggered {
			e.matchLimitOrder(o, instrument, book)
			return
		}
		if !e.stopTriggered(book, o.Side, o.Trigger) {
			return
		}
		o.IsTriggered = true
		o.Status = StatusTriggered
		e.publish(OrderTriggered{e.orderCore(o)})
		if !e.isMarketable(book, o.Side, o.Price) {
			return
		}
		if o.PostOnly {
			// The triggered limit leg would take liquidity.
			e.index.Remove(o)
			e.rejectOrder(o, e.postOnlyReason(book, o, o.Price))
			return
		}
		e.fillLimitOrder(o, instrument, book, LiquidityTaker)

	default:
		panic(fmt.Sprintf("simulated exchange: cannot match order type %s", o.Type))
	}
}

// matchLimitOrder is the maker path: fill when the market trades through the
// limit price, or probabilistically when it touches it.
func (e *SimulatedExchange) matchLimitOrder(o *Order, instrument *Instrument, book *OrderBook) {
	best, ok := e.oppositeBest(book, o.Side)
	if !ok {
		return
	}
	var crossed bool
	if o.Side == SideBuy {
		crossed = o.Price.GreaterThan(best)
	} else {
		crossed = o.Price.LessThan(best)
	}
	if crossed || (o.Price.Equal(best) && e.fillModel.IsLimitFilled()) {
		e.fillLimitOrder(o, instrument, book, LiquidityMaker)
	}
}

// stopTriggered applies the trigger test during matching: a strict move
// through the stop always triggers, a touch triggers probabilistically.
func (e *SimulatedExchange) stopTriggered(book *OrderBook, side OrderSide, stop decimal.Decimal) bool {
	if side == SideBuy {
		best, ok := book.BestAsk()
		if !ok {
			return false
		}
		return best.GreaterThan(stop) || (best.Equal(stop) && e.fillModel.IsStopFilled())
	}
	best, ok := book.BestBid()
	if !ok {
		return false
	}
	return best.LessThan(stop) || (best.Equal(stop) && e.fillModel.IsStopFilled())
}

func (e *SimulatedExchange) fillLimitOrder(o *Order, instrument *Instrument, book *OrderBook, liquiditySide LiquiditySide) {
	limit := o.Price
	plan := book.SimulateFills(o.Side, o.LeavesQuantity(), &limit)
	e.applyFillPlan(o, instrument, book, plan, liquiditySide, nil)
}

// fillMarketOrder fills against the full opposing ladder. A non-nil stop
// price substitutes the first allocation's price (pessimistic policy: the
// market is assumed to have moved through the stop).
func (e *SimulatedExchange) fillMarketOrder(o *Order, instrument *Instrument, book *OrderBook, stopPx *decimal.Decimal) {
	plan := book.SimulateFills(o.Side, o.LeavesQuantity(), nil)
	e.applyFillPlan(o, instrument, book, plan, LiquidityTaker, stopPx)
}

func (e *SimulatedExchange) applyFillPlan(o *Order, instrument *Instrument, book *OrderBook, plan []BookLevel, liquiditySide LiquiditySide, stopPx *decimal.Decimal) {
	if len(plan) == 0 {
		return
	}

	// Reduce-only orders never fill beyond the open position; the order
	// quantity is clipped down first so filled + leaves stays consistent.
	if o.ReduceOnly {
		posQty := e.positionQuantityFor(o)
		if !posQty.IsPositive() {
			return
		}
		if o.LeavesQuantity().GreaterThan(posQty) {
			o.Quantity = o.FilledQuantity.Add(posQty)
			e.publish(OrderUpdated{
				orderEventCore: e.orderCore(o),
				Quantity:       o.Quantity,
				Price:          o.Price,
				Trigger:        o.Trigger,
			})
		}
	}

	filledAny := false
	for i, allocation := range plan {
		if !o.LeavesQuantity().IsPositive() {
			break
		}
		px := allocation.Price
		if i == 0 && stopPx != nil {
			px = *stopPx
		}
		if book.BookType == BookL1TBBO && o.IsAggressive() && e.fillModel.IsSlipped() {
			if o.Side == SideBuy {
				px = px.Add(instrument.PriceIncrement)
			} else {
				px = px.Sub(instrument.PriceIncrement)
			}
		}
		qty := allocation.Size
		if qty.GreaterThan(o.LeavesQuantity()) {
			qty = o.LeavesQuantity()
		}
		if !qty.IsPositive() {
			continue
		}
		e.applyFill(o, instrument, px, qty, liquiditySide)
		filledAny = true
	}

	// With a top-of-book-only ladder an aggressive residual walks to the
	// next synthetic level one increment beyond the last plan price.
	if o.IsAggressive() && book.BookType == BookL1TBBO && o.LeavesQuantity().IsPositive() {
		lastPx := plan[len(plan)-1].Price
		var px decimal.Decimal
		if o.Side == SideBuy {
			px = lastPx.Add(instrument.PriceIncrement)
		} else {
			px = lastPx.Sub(instrument.PriceIncrement)
		}
		e.applyFill(o, instrument, px, o.LeavesQuantity(), LiquidityTaker)
		filledAny = true
	}

	if o.IsFilled() && e.index.Contains(o.ClientOrderID) {
		e.index.Remove(o)
	}

	if filledAny {
		e.processContingencies(o)
	}
}

func (e *SimulatedExchange) applyFill(o *Order, instrument *Instrument, px, qty decimal.Decimal, liquiditySide LiquiditySide) {
	if o.VenueOrderID == "" {
		o.VenueOrderID = e.ids.VenueOrderID(o.InstrumentID)
	}
	if o.VenuePositionID == "" {
		o.VenuePositionID = e.resolvePositionID(o)
		e.positions.BindOrder(o.ClientOrderID, o.VenuePositionID)
	}

	commission := e.account.Commission(instrument, qty, px, liquiditySide)

	o.Fill(qty)
	e.positions.ApplyFill(o.VenuePositionID, o.InstrumentID, o.Side, qty)

	e.publish(OrderFilled{
		orderEventCore:  e.orderCore(o),
		ExecutionID:     e.ids.ExecutionID(),
		VenuePositionID: o.VenuePositionID,
		Side:            o.Side,
		OrderType:       o.Type,
		LastQuantity:    qty,
		LastPrice:       px,
		Currency:        instrument.QuoteCurrency,
		Commission:      commission,
		LiquiditySide:   liquiditySide,
	})

	if !commission.Amount.IsZero() {
		if state, ok := e.account.Adjust(commission.Negate(), e.clock.TimeNs()); ok {
			e.publish(state)
		}
	}
}

// resolvePositionID maps an order to a venue position id under the
// configured OMS discipline. HEDGING opens a new position per order;
// NETTING reuses the instrument's single open position, generating an id at
// first fill when none is open.
func (e *SimulatedExchange) resolvePositionID(o *Order) string {
	if id, ok := e.positions.PositionIDForOrder(o.ClientOrderID); ok {
		return id
	}
	switch e.cfg.OmsType {
	case OmsHedging:
		return e.ids.VenuePositionID(o.InstrumentID)
	default:
		if open := e.positions.OpenPosition(o.InstrumentID); open != nil {
			return open.ID
		}
		return e.ids.VenuePositionID(o.InstrumentID)
	}
}

func (e *SimulatedExchange) positionQuantityFor(o *Order) decimal.Decimal {
	if id, ok := e.positions.PositionIDForOrder(o.ClientOrderID); ok {
		if pos := e.positions.Get(id); pos != nil {
			return pos.Quantity
		}
		return decimal.Zero
	}
	if pos := e.positions.OpenPosition(o.InstrumentID); pos != nil {
		return pos.Quantity
	}
	return decimal.Zero
}

// processContingencies runs the post-fill side effects: OTO child release,
// OCO sibling cancel or quantity sync, and reduce-only follow-ups against
// the mutated position.
func (e *SimulatedExchange) processContingencies(o *Order) {
	if o.Contingency == ContingencyOTO && o.IsFilled() {
		for _, childID := range o.ChildOrderIDs {
			e.releaseOTOChild(o, childID)
		}
	}

	if o.Contingency == ContingencyOCO {
		if o.IsFilled() {
			e.cancelOCOSiblings(o)
		} else {
			e.syncOCOLeaves(o)
		}
	}

	e.reduceOnlyFollowups(o)
}

func (e *SimulatedExchange) releaseOTOChild(parent *Order, childID string) {
	child, held := e.heldChildren[childID]
	if !held {
		child = e.index.Get(childID)
		if child == nil {
			if _, wasSeen := e.ledger[childID]; wasSeen {
				return // terminal or never held
			}
			return // not yet submitted; the submit path handles it
		}
	}
	if child.VenuePositionID == "" {
		child.VenuePositionID = parent.VenuePositionID
		e.positions.BindOrder(child.ClientOrderID, parent.VenuePositionID)
	}
	if held {
		delete(e.heldChildren, childID)
		e.acceptOrder(child)
	}
}

func (e *SimulatedExchange) reduceOnlyFollowups(o *Order) {
	pos := e.positions.Get(o.VenuePositionID)
	for _, w := range e.index.WorkingOrders(o.InstrumentID) {
		if !w.ReduceOnly || w.ClientOrderID == o.ClientOrderID || !w.IsWorking() {
			continue
		}
		if pos == nil || !pos.Quantity.IsPositive() {
			e.cancelOrder(w, false)
			continue
		}
		if w.LeavesQuantity().GreaterThan(pos.Quantity) {
			w.Quantity = w.FilledQuantity.Add(pos.Quantity)
			e.publish(OrderUpdated{
				orderEventCore: e.orderCore(w),
				Quantity:       w.Quantity,
				Price:          w.Price,
				Trigger:        w.Trigger,
			})
		}
	}
}

package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func (e *SimulatedExchange) executeCommand(cmd Command) {
	switch c := cmd.(type) {
	case SubmitOrder:
		e.submitOrder(c.Order)
	case SubmitOrderList:
		for _, o := range c.Orders {
			e.submitOrder(o)
		}
	case ModifyOrder:
		e.modifyOrder(c)
	case CancelOrder:
		e.cancelCommand(c)
	default:
		panic(fmt.Sprintf("simulated exchange: unsupported command %T", cmd))
	}
}

func (e *SimulatedExchange) submitOrder(o *Order) {
	// Resubmission of a known client order id is a no-op.
	if _, seen := e.ledger[o.ClientOrderID]; seen {
		return
	}
	e.ledger[o.ClientOrderID] = o
	o.Status = StatusSubmitted
	e.publish(OrderSubmitted{e.orderCore(o)})

	if o.Contingency == ContingencyOTO {
		for _, childID := range o.ChildOrderIDs {
			e.otoParents[childID] = o.ClientOrderID
		}
	}

	if o.ParentOrderID != "" {
		if parentID, ok := e.otoParents[o.ClientOrderID]; ok && parentID == o.ParentOrderID {
			parent := e.ledger[parentID]
			if parent != nil {
				if parent.Status == StatusRejected {
					e.rejectOrder(o, fmt.Sprintf("REJECT OTO from %s", parentID))
					return
				}
				if parent.IsWorking() && !parent.IsFilled() {
					// Held until the parent completes; no accept is emitted.
					e.heldChildren[o.ClientOrderID] = o
					return
				}
				if parent.Status == StatusFilled && o.VenuePositionID == "" {
					o.VenuePositionID = parent.VenuePositionID
					e.positions.BindOrder(o.ClientOrderID, parent.VenuePositionID)
				}
			}
		}
	}

	if o.ReduceOnly {
		if reason, ok := e.checkReduceOnly(o); !ok {
			e.rejectOrder(o, reason)
			return
		}
	}

	instrument, ok := e.instruments[o.InstrumentID]
	if !ok {
		e.rejectOrder(o, fmt.Sprintf("no instrument for %s", o.InstrumentID))
		return
	}
	book := e.books[o.InstrumentID]

	switch o.Type {
	case TypeMarket:
		if _, hasOpposite := e.oppositeBest(book, o.Side); !hasOpposite {
			e.rejectOrder(o, fmt.Sprintf("no market for %s", o.InstrumentID))
			return
		}
		e.fillMarketOrder(o, instrument, book, nil)

	case TypeLimit:
		if o.PostOnly && e.isMarketable(book, o.Side, o.Price) {
			e.rejectOrder(o, e.postOnlyReason(book, o, o.Price))
			return
		}
		e.acceptOrder(o)
		if e.isMarketable(book, o.Side, o.Price) {
			e.fillLimitOrder(o, instrument, book, LiquidityTaker)
		}

	case TypeStopMarket:
		if e.cfg.RejectStopOrders && e.isStopInMarket(book, o.Side, o.Price) {
			e.rejectOrder(o, e.stopInMarketReason(book, o, o.Price))
			return
		}
		e.acceptOrder(o)

	case TypeStopLimit:
		if e.isStopInMarket(book, o.Side, o.Trigger) {
			e.rejectOrder(o, e.stopInMarketReason(book, o, o.Trigger))
			return
		}
		e.acceptOrder(o)

	default:
		panic(fmt.Sprintf("simulated exchange: unsupported order type %s", o.Type))
	}
}

// checkReduceOnly validates that a reduce-only order decreases the open
// position for its instrument.
func (e *SimulatedExchange) checkReduceOnly(o *Order) (string, bool) {
	pos := e.positions.OpenPosition(o.InstrumentID)
	if pos == nil || pos.Side == PositionFlat || !pos.Quantity.IsPositive() {
		return fmt.Sprintf("REDUCE_ONLY %s %s order would have increased position (no open position)", o.Type, o.Side), false
	}
	increases := (o.Side == SideBuy && pos.Side == PositionLong) ||
		(o.Side == SideSell && pos.Side == PositionShort)
	if increases {
		return fmt.Sprintf("REDUCE_ONLY %s %s order would have increased position %s", o.Type, o.Side, pos.ID), false
	}
	return "", true
}

func (e *SimulatedExchange) acceptOrder(o *Order) {
	if o.VenueOrderID == "" {
		o.VenueOrderID = e.ids.VenueOrderID(o.InstrumentID)
	}
	o.Status = StatusAccepted
	e.index.Insert(o)
	e.publish(OrderAccepted{e.orderCore(o)})
}

func (e *SimulatedExchange) rejectOrder(o *Order, reason string) {
	o.Status = StatusRejected
	e.log.Debug().
		Str("client_order_id", o.ClientOrderID).
		Str("reason", reason).
		Msg("Order rejected")
	e.publish(OrderRejected{orderEventCore: e.orderCore(o), Reason: reason})
}

func (e *SimulatedExchange) modifyOrder(cmd ModifyOrder) {
	o := e.index.Get(cmd.ClientOrderID)
	if o == nil {
		e.publish(OrderModifyRejected{
			orderEventCore: orderEventCore{ClientOrderID: cmd.ClientOrderID, TsEventNs: e.clock.TimeNs()},
			Reason:         fmt.Sprintf("%s not found", cmd.ClientOrderID),
		})
		return
	}

	prior := o.Status
	o.Status = StatusPendingUpdate
	e.publish(OrderPendingUpdate{e.orderCore(o)})

	newQty := o.Quantity
	if cmd.Quantity != nil {
		newQty = *cmd.Quantity
	}
	newPrice := o.Price
	if cmd.Price != nil {
		newPrice = *cmd.Price
	}
	newTrigger := o.Trigger
	if cmd.Trigger != nil {
		newTrigger = *cmd.Trigger
	}

	instrument := e.instruments[o.InstrumentID]
	book := e.books[o.InstrumentID]

	modifyRejected := func(reason string) {
		o.Status = prior
		e.publish(OrderModifyRejected{orderEventCore: e.orderCore(o), Reason: reason})
	}

	applyUpdate := func() {
		quantityChanged := !newQty.Equal(o.Quantity)
		priceChanged := !newPrice.Equal(o.Price)
		o.Quantity = newQty
		o.Price = newPrice
		o.Trigger = newTrigger
		if priceChanged {
			e.index.Reposition(o)
		}
		o.Status = prior
		e.publish(OrderUpdated{
			orderEventCore: e.orderCore(o),
			Quantity:       o.Quantity,
			Price:          o.Price,
			Trigger:        o.Trigger,
		})
		if quantityChanged && o.Contingency == ContingencyOCO {
			e.syncOCOLeaves(o)
		}
	}

	limitLeg := func() {
		if e.isMarketable(book, o.Side, newPrice) {
			if o.PostOnly {
				modifyRejected(e.postOnlyReason(book, o, newPrice))
				return
			}
			applyUpdate()
			if o.IsWorking() {
				e.fillLimitOrder(o, instrument, book, LiquidityTaker)
			}
			return
		}
		applyUpdate()
	}

	switch o.Type {
	case TypeLimit:
		limitLeg()
	case TypeStopMarket:
		if e.isStopInMarket(book, o.Side, newPrice) {
			modifyRejected(e.stopInMarketReason(book, o, newPrice))
			return
		}
		applyUpdate()
	case TypeStopLimit:
		if !o.IsTriggered {
			if e.isStopInMarket(book, o.Side, newTrigger) {
				modifyRejected(e.stopInMarketReason(book, o, newTrigger))
				return
			}
			applyUpdate()
			return
		}
		limitLeg()
	default:
		panic(fmt.Sprintf("simulated exchange: cannot modify order type %s", o.Type))
	}
}

func (e *SimulatedExchange) cancelCommand(cmd CancelOrder) {
	o := e.index.Get(cmd.ClientOrderID)
	if o == nil {
		// Held OTO children are cancellable before they start working.
		if held, ok := e.heldChildren[cmd.ClientOrderID]; ok {
			delete(e.heldChildren, cmd.ClientOrderID)
			e.publish(OrderPendingCancel{e.orderCore(held)})
			held.Status = StatusCancelled
			e.publish(OrderCanceled{e.orderCore(held)})
			return
		}
		e.publish(OrderCancelRejected{
			orderEventCore: orderEventCore{ClientOrderID: cmd.ClientOrderID, TsEventNs: e.clock.TimeNs()},
			Reason:         fmt.Sprintf("%s not found", cmd.ClientOrderID),
		})
		return
	}
	e.publish(OrderPendingCancel{e.orderCore(o)})
	e.cancelOrder(o, false)
}

// cancelOrder removes a working order. fromContingency guards the OCO
// cascade to a single pass.
func (e *SimulatedExchange) cancelOrder(o *Order, fromContingency bool) {
	if o.IsClosed() {
		return
	}
	e.index.Remove(o)
	o.Status = StatusCancelled
	e.publish(OrderCanceled{e.orderCore(o)})

	if o.Contingency == ContingencyOCO && !fromContingency {
		e.cancelOCOSiblings(o)
	}
	if o.Contingency == ContingencyOTO {
		e.cancelHeldChildren(o)
	}
}

// cancelHeldChildren cancels OTO children that never started working because
// their parent terminated first.
func (e *SimulatedExchange) cancelHeldChildren(parent *Order) {
	for _, childID := range parent.ChildOrderIDs {
		child, held := e.heldChildren[childID]
		if !held {
			continue
		}
		delete(e.heldChildren, childID)
		child.Status = StatusCancelled
		e.publish(OrderCanceled{e.orderCore(child)})
	}
}

func (e *SimulatedExchange) cancelOCOSiblings(o *Order) {
	for _, siblingID := range o.ContingencyIDs {
		sibling := e.index.Get(siblingID)
		if sibling == nil {
			if _, wasSeen := e.ledger[siblingID]; wasSeen {
				continue // already terminal
			}
			panic(fmt.Sprintf("simulated exchange: OCO sibling %s not found", siblingID))
		}
		if sibling.IsWorking() {
			e.cancelOrder(sibling, true)
		}
	}
}

// syncOCOLeaves propagates an order's leaves quantity to its OCO siblings in
// a single pass.
func (e *SimulatedExchange) syncOCOLeaves(o *Order) {
	leaves := o.LeavesQuantity()
	for _, siblingID := range o.ContingencyIDs {
		sibling := e.index.Get(siblingID)
		if sibling == nil || !sibling.IsWorking() {
			continue
		}
		newQty := sibling.FilledQuantity.Add(leaves)
		if newQty.Equal(sibling.Quantity) {
			continue
		}
		sibling.Quantity = newQty
		e.publish(OrderUpdated{
			orderEventCore: e.orderCore(sibling),
			Quantity:       sibling.Quantity,
			Price:          sibling.Price,
			Trigger:        sibling.Trigger,
		})
	}
}

func (e *SimulatedExchange) expireOrder(o *Order) {
	e.index.Remove(o)
	o.Status = StatusExpired
	e.publish(OrderExpired{e.orderCore(o)})
	if o.Contingency == ContingencyOCO {
		e.cancelOCOSiblings(o)
	}
	if o.Contingency == ContingencyOTO {
		e.cancelHeldChildren(o)
	}
}

func (e *SimulatedExchange) sweepExpired(instrumentID string) {
	for _, o := range e.index.WorkingOrders(instrumentID) {
		if !e.index.Contains(o.ClientOrderID) || !o.IsWorking() {
			continue
		}
		if o.ExpireTimeNs > 0 && e.clock.TimeNs() >= o.ExpireTimeNs {
			e.expireOrder(o)
		}
	}
}

// oppositeBest returns the best price an order of the given side would trade
// against.
func (e *SimulatedExchange) oppositeBest(book *OrderBook, side OrderSide) (decimal.Decimal, bool) {
	if side == SideBuy {
		return book.BestAsk()
	}
	return book.BestBid()
}

// isMarketable reports whether a limit price would trade immediately.
func (e *SimulatedExchange) isMarketable(book *OrderBook, side OrderSide, price decimal.Decimal) bool {
	best, ok := e.oppositeBest(book, side)
	if !ok {
		return false
	}
	if side == SideBuy {
		return price.GreaterThanOrEqual(best)
	}
	return price.LessThanOrEqual(best)
}

// isStopInMarket reports whether a stop price would trigger against the
// current book (used at submit and modify time; the probabilistic touch test
// applies only during matching).
func (e *SimulatedExchange) isStopInMarket(book *OrderBook, side OrderSide, stop decimal.Decimal) bool {
	if side == SideBuy {
		best, ok := book.BestAsk()
		return ok && best.GreaterThanOrEqual(stop)
	}
	best, ok := book.BestBid()
	return ok && best.LessThanOrEqual(stop)
}

func (e *SimulatedExchange) postOnlyReason(book *OrderBook, o *Order, price decimal.Decimal) string {
	bid, _ := book.BestBid()
	ask, _ := book.BestAsk()
	return fmt.Sprintf("POST_ONLY %s %s order limit px of %s would have been a TAKER: bid=%s, ask=%s",
		o.Type, o.Side, price, bid, ask)
}

func (e *SimulatedExchange) stopInMarketReason(book *OrderBook, o *Order, stop decimal.Decimal) string {
	bid, _ := book.BestBid()
	ask, _ := book.BestAsk()
	return fmt.Sprintf("STOP %s %s stop px of %s was in the market: bid=%s, ask=%s",
		o.Type, o.Side, stop, bid, ask)
}

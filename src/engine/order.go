package engine

import (
	"github.com/shopspring/decimal"
)

// Order is the working representation of a client order inside the simulated
// venue. Price carries the limit price for LIMIT and STOP_LIMIT orders and
// the stop price for STOP_MARKET orders; Trigger is the stop trigger of a
// STOP_LIMIT order.
type Order struct {
	ClientOrderID   string
	VenueOrderID    string // assigned on accept, or at first fill for market orders
	VenuePositionID string
	StrategyID      string
	InstrumentID    string
	Side            OrderSide
	Type            OrderType
	Price           decimal.Decimal
	Trigger         decimal.Decimal
	Quantity        decimal.Decimal
	FilledQuantity  decimal.Decimal
	Status          OrderStatus
	PostOnly        bool
	ReduceOnly      bool
	IsTriggered     bool
	ExpireTimeNs    int64 // 0 = good-till-cancel
	Contingency     ContingencyType
	ParentOrderID   string
	ChildOrderIDs   []string
	ContingencyIDs  []string
	TsInitNs        int64
}

func NewOrder(clientOrderID, strategyID, instrumentID string, side OrderSide, orderType OrderType, price, quantity decimal.Decimal) *Order {
	return &Order{
		ClientOrderID:  clientOrderID,
		StrategyID:     strategyID,
		InstrumentID:   instrumentID,
		Side:           side,
		Type:           orderType,
		Price:          price,
		Quantity:       quantity,
		FilledQuantity: decimal.Zero,
		Status:         StatusInitialized,
		Contingency:    ContingencyNone,
	}
}

func (o *Order) LeavesQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

func (o *Order) IsFilled() bool {
	return o.FilledQuantity.GreaterThanOrEqual(o.Quantity)
}

// IsWorking reports whether the order is live in the venue and eligible for
// matching.
func (o *Order) IsWorking() bool {
	switch o.Status {
	case StatusAccepted, StatusPartialFill, StatusTriggered, StatusPendingUpdate, StatusPendingCancel:
		return true
	}
	return false
}

func (o *Order) IsClosed() bool {
	switch o.Status {
	case StatusFilled, StatusCancelled, StatusExpired, StatusRejected:
		return true
	}
	return false
}

// IsAggressive reports whether the order removes liquidity on arrival rather
// than resting in the venue.
func (o *Order) IsAggressive() bool {
	return o.Type == TypeMarket || o.Type == TypeStopMarket
}

func (o *Order) Fill(quantity decimal.Decimal) {
	o.FilledQuantity = o.FilledQuantity.Add(quantity)
	if o.IsFilled() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartialFill
	}
}

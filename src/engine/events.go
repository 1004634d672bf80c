package engine

import (
	"github.com/shopspring/decimal"
)

// Event is the outbound contract of the simulated venue. Every event carries
// the simulated timestamp it was emitted at.
type Event interface {
	EventType() string
	Timestamp() int64
}

// EventSink receives the venue's lifecycle events in emission order.
type EventSink interface {
	Publish(event Event)
}

type AccountBalance struct {
	Currency string
	Total    decimal.Decimal
	Locked   decimal.Decimal
	Free     decimal.Decimal
}

type AccountState struct {
	Venue       string
	AccountType AccountType
	Balances    []AccountBalance
	TsEventNs   int64
}

func (e AccountState) EventType() string { return "AccountState" }
func (e AccountState) Timestamp() int64  { return e.TsEventNs }

// orderEventCore holds the fields shared by every order lifecycle event.
type orderEventCore struct {
	StrategyID    string
	InstrumentID  string
	ClientOrderID string
	VenueOrderID  string
	TsEventNs     int64
}

func (e orderEventCore) Timestamp() int64 { return e.TsEventNs }

type OrderSubmitted struct{ orderEventCore }

func (e OrderSubmitted) EventType() string { return "OrderSubmitted" }

type OrderAccepted struct{ orderEventCore }

func (e OrderAccepted) EventType() string { return "OrderAccepted" }

type OrderRejected struct {
	orderEventCore
	Reason string
}

func (e OrderRejected) EventType() string { return "OrderRejected" }

type OrderPendingUpdate struct{ orderEventCore }

func (e OrderPendingUpdate) EventType() string { return "OrderPendingUpdate" }

type OrderPendingCancel struct{ orderEventCore }

func (e OrderPendingCancel) EventType() string { return "OrderPendingCancel" }

type OrderModifyRejected struct {
	orderEventCore
	Reason string
}

func (e OrderModifyRejected) EventType() string { return "OrderModifyRejected" }

type OrderCancelRejected struct {
	orderEventCore
	Reason string
}

func (e OrderCancelRejected) EventType() string { return "OrderCancelRejected" }

type OrderUpdated struct {
	orderEventCore
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Trigger  decimal.Decimal
}

func (e OrderUpdated) EventType() string { return "OrderUpdated" }

type OrderCanceled struct{ orderEventCore }

func (e OrderCanceled) EventType() string { return "OrderCanceled" }

type OrderTriggered struct{ orderEventCore }

func (e OrderTriggered) EventType() string { return "OrderTriggered" }

type OrderExpired struct{ orderEventCore }

func (e OrderExpired) EventType() string { return "OrderExpired" }

type OrderFilled struct {
	orderEventCore
	ExecutionID     string
	VenuePositionID string
	Side            OrderSide
	OrderType       OrderType
	LastQuantity    decimal.Decimal
	LastPrice       decimal.Decimal
	Currency        string
	Commission      Money
	LiquiditySide   LiquiditySide
}

func (e OrderFilled) EventType() string { return "OrderFilled" }

package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type OrderType string

const (
	TypeMarket     OrderType = "MARKET"
	TypeLimit      OrderType = "LIMIT"
	TypeStopMarket OrderType = "STOP_MARKET"
	TypeStopLimit  OrderType = "STOP_LIMIT"
)

type OrderStatus string

const (
	StatusInitialized   OrderStatus = "INITIALIZED"
	StatusSubmitted     OrderStatus = "SUBMITTED"
	StatusAccepted      OrderStatus = "ACCEPTED"
	StatusPendingUpdate OrderStatus = "PENDING_UPDATE"
	StatusPendingCancel OrderStatus = "PENDING_CANCEL"
	StatusRejected      OrderStatus = "REJECTED"
	StatusTriggered     OrderStatus = "TRIGGERED"
	StatusPartialFill   OrderStatus = "PARTIALLY_FILLED"
	StatusFilled        OrderStatus = "FILLED"
	StatusCancelled     OrderStatus = "CANCELLED"
	StatusExpired       OrderStatus = "EXPIRED"
)

type LiquiditySide string

const (
	LiquidityMaker LiquiditySide = "MAKER"
	LiquidityTaker LiquiditySide = "TAKER"
)

type ContingencyType string

const (
	ContingencyNone ContingencyType = "NONE"
	ContingencyOTO  ContingencyType = "OTO"
	ContingencyOCO  ContingencyType = "OCO"
)

type OmsType string

const (
	OmsHedging OmsType = "HEDGING"
	OmsNetting OmsType = "NETTING"
)

type AccountType string

const (
	AccountCash    AccountType = "CASH"
	AccountMargin  AccountType = "MARGIN"
	AccountBetting AccountType = "BETTING"
)

type BookType string

const (
	BookL1TBBO BookType = "L1_TBBO"
	BookL2MBP  BookType = "L2_MBP"
	BookL3MBO  BookType = "L3_MBO"
)

type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
	PositionFlat  PositionSide = "FLAT"
)

// Money is an amount denominated in a single currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency)
}

// Instrument metadata is immutable after the exchange is constructed.
type Instrument struct {
	ID             string
	QuoteCurrency  string
	PricePrecision int32
	PriceIncrement decimal.Decimal
	TickSize       decimal.Decimal
	MakerFeeRate   decimal.Decimal
	TakerFeeRate   decimal.Decimal
}

// BookLevel is one aggregated price level of a depth snapshot.
type BookLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// QuoteTick carries a top-of-book update for one instrument.
type QuoteTick struct {
	InstrumentID string
	BidPrice     decimal.Decimal
	AskPrice     decimal.Decimal
	BidSize      decimal.Decimal
	AskSize      decimal.Decimal
	TsEventNs    int64
}

// MarketDepth carries a full depth snapshot for one instrument.
type MarketDepth struct {
	InstrumentID string
	Bids         []BookLevel
	Asks         []BookLevel
	TsEventNs    int64
}

// Bar carries an aggregated candle. Bars advance the simulated clock only;
// bar-driven matching is not performed.
type Bar struct {
	InstrumentID string
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Volume       decimal.Decimal
	TsEventNs    int64
}

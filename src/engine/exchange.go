package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config holds everything the simulated exchange needs at construction.
type Config struct {
	Venue            string
	OmsType          OmsType
	AccountType      AccountType
	BaseCurrency     string
	StartingBalances []Money
	DefaultLeverage  decimal.Decimal
	Leverages        map[string]decimal.Decimal
	FrozenAccount    bool
	Instruments      []Instrument
	FillModel        *FillModel
	BookType         BookType
	BarExecution     bool
	RejectStopOrders bool
}

func (c *Config) validate() error {
	if c.Venue == "" {
		return errors.New("exchange config: venue is required")
	}
	if len(c.Instruments) == 0 {
		return errors.New("exchange config: at least one instrument is required")
	}
	if len(c.StartingBalances) == 0 {
		return errors.New("exchange config: at least one starting balance is required")
	}
	if c.BaseCurrency != "" && len(c.StartingBalances) != 1 {
		return fmt.Errorf("exchange config: single-currency account for base currency %s must have exactly one starting balance, got %d", c.BaseCurrency, len(c.StartingBalances))
	}
	for _, instr := range c.Instruments {
		if instr.ID == "" {
			return errors.New("exchange config: instrument with empty id")
		}
		if !instr.PriceIncrement.IsPositive() {
			return fmt.Errorf("exchange config: instrument %s price increment must be positive", instr.ID)
		}
	}
	if c.OmsType == "" {
		c.OmsType = OmsNetting
	}
	if c.AccountType == "" {
		c.AccountType = AccountCash
	}
	if c.BookType == "" {
		c.BookType = BookL1TBBO
	}
	if c.DefaultLeverage.IsZero() {
		c.DefaultLeverage = decimal.NewFromInt(1)
	}
	return nil
}

// SimulatedExchange replays market data against working orders and emits the
// exact event sequence a live venue would produce. All state is owned by the
// single driving goroutine; the mutex only serializes outside producers such
// as HTTP handlers.
type SimulatedExchange struct {
	cfg Config
	log zerolog.Logger
	mu  sync.Mutex

	clock     *SimClock
	fillModel *FillModel
	ids       *IDGenerator
	queue     *CommandQueue
	index     *OrderIndex
	account   *AccountAdapter
	positions *PositionTracker

	instruments     map[string]*Instrument
	instrumentOrder []string
	books           map[string]*OrderBook

	client EventSink

	// Every order ever submitted, for idempotency and contingency lookups.
	ledger map[string]*Order
	// OTO child client order id -> parent client order id.
	otoParents map[string]string
	// OTO children held until their parent completes.
	heldChildren map[string]*Order
}

func NewSimulatedExchange(cfg Config) (*SimulatedExchange, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	venueLog := log.With().Str("venue", cfg.Venue).Logger()

	fm := cfg.FillModel
	if fm == nil {
		var err error
		fm, err = NewFillModel(1, 1, 0, 0)
		if err != nil {
			return nil, err
		}
	}

	e := &SimulatedExchange{
		cfg:          cfg,
		log:          venueLog,
		clock:        NewSimClock(),
		fillModel:    fm,
		ids:          NewIDGenerator(),
		queue:        NewCommandQueue(),
		index:        NewOrderIndex(),
		positions:    NewPositionTracker(),
		instruments:  make(map[string]*Instrument),
		books:        make(map[string]*OrderBook),
		ledger:       make(map[string]*Order),
		otoParents:   make(map[string]string),
		heldChildren: make(map[string]*Order),
	}

	for i := range cfg.Instruments {
		instr := cfg.Instruments[i]
		if _, exists := e.instruments[instr.ID]; exists {
			return nil, fmt.Errorf("exchange config: duplicate instrument %s", instr.ID)
		}
		e.instruments[instr.ID] = &instr
		e.instrumentOrder = append(e.instrumentOrder, instr.ID)
		e.ids.RegisterInstrument(instr.ID)
		e.books[instr.ID] = NewOrderBook(instr.ID, cfg.BookType)
	}

	e.account = NewAccountAdapter(cfg.Venue, cfg.AccountType, cfg.BaseCurrency, cfg.StartingBalances, cfg.DefaultLeverage, cfg.Leverages, cfg.FrozenAccount, venueLog)

	venueLog.Info().
		Str("oms_type", string(cfg.OmsType)).
		Str("account_type", string(cfg.AccountType)).
		Str("book_type", string(cfg.BookType)).
		Int("instruments", len(cfg.Instruments)).
		Msg("Simulated exchange created")

	return e, nil
}

// RegisterClient binds the event sink. It must be called before any
// operation that emits events.
func (e *SimulatedExchange) RegisterClient(sink EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.client = sink
}

// SetFillModel swaps the probabilistic fill model between events.
func (e *SimulatedExchange) SetFillModel(fm *FillModel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fillModel = fm
}

// InitializeAccount emits the opening account state.
func (e *SimulatedExchange) InitializeAccount() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publish(e.account.Initialize(e.clock.TimeNs()))
}

// AdjustAccount applies a signed balance delta and emits the resulting
// account state. Frozen accounts and unknown currencies emit nothing.
func (e *SimulatedExchange) AdjustAccount(money Money) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if state, ok := e.account.Adjust(money, e.clock.TimeNs()); ok {
		e.publish(state)
	}
}

// Send enqueues a trading command. It never blocks.
func (e *SimulatedExchange) Send(cmd Command) {
	e.queue.Push(cmd)
}

// Process advances the clock, drains the command queue in FIFO order, then
// expires any working orders whose expiry has passed.
func (e *SimulatedExchange) Process(nowNs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.SetTime(nowNs)

	for _, cmd := range e.queue.Drain() {
		e.executeCommand(cmd)
	}

	for _, instrumentID := range e.instrumentOrder {
		e.sweepExpired(instrumentID)
	}
}

// ProcessQuoteTick updates the instrument's book from a top-of-book tick and
// runs a matching sweep.
func (e *SimulatedExchange) ProcessQuoteTick(tick QuoteTick) {
	e.mu.Lock()
	defer e.mu.Unlock()
	book := e.bookFor(tick.InstrumentID)
	if book == nil {
		return
	}
	e.clock.SetTime(tick.TsEventNs)
	book.ApplyQuote(tick)
	e.matchOrders(tick.InstrumentID)
}

// ProcessDepth rebuilds the instrument's book from a depth snapshot and runs
// a matching sweep.
func (e *SimulatedExchange) ProcessDepth(depth MarketDepth) {
	e.mu.Lock()
	defer e.mu.Unlock()
	book := e.bookFor(depth.InstrumentID)
	if book == nil {
		return
	}
	e.clock.SetTime(depth.TsEventNs)
	book.ApplyDepth(depth)
	e.matchOrders(depth.InstrumentID)
}

// ProcessBar advances the simulated clock from a bar. Bar-driven matching is
// not performed.
func (e *SimulatedExchange) ProcessBar(bar Bar) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.SetTime(bar.TsEventNs)
}

// Reset clears all venue state, re-arms identifier counters and re-emits the
// opening account state.
func (e *SimulatedExchange) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.Reset()
	e.ids.Reset()
	e.queue = NewCommandQueue()
	e.index.Reset()
	e.positions.Reset()
	e.account.Reset()
	e.ledger = make(map[string]*Order)
	e.otoParents = make(map[string]string)
	e.heldChildren = make(map[string]*Order)
	for _, book := range e.books {
		book.Clear()
	}

	e.log.Info().Msg("Exchange reset")
	e.publish(e.account.Initialize(e.clock.TimeNs()))
}

// Instruments returns instrument metadata in registration order.
func (e *SimulatedExchange) Instruments() []Instrument {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Instrument, 0, len(e.instrumentOrder))
	for _, id := range e.instrumentOrder {
		out = append(out, *e.instruments[id])
	}
	return out
}

// WorkingOrders returns the working orders for an instrument, bids before
// asks in price priority.
func (e *SimulatedExchange) WorkingOrders(instrumentID string) []*Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.WorkingOrders(instrumentID)
}

// BookSnapshot returns aggregated depth for an instrument.
func (e *SimulatedExchange) BookSnapshot(instrumentID string, depth int) (bids, asks []BookLevel, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	book := e.books[instrumentID]
	if book == nil {
		return nil, nil, false
	}
	bids, asks = book.Snapshot(depth)
	return bids, asks, true
}

// AccountSnapshot returns the current account state without emitting it.
func (e *SimulatedExchange) AccountSnapshot() AccountState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.account.snapshot(e.clock.TimeNs())
}

// TimeNs returns the current simulated time.
func (e *SimulatedExchange) TimeNs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.TimeNs()
}

func (e *SimulatedExchange) bookFor(instrumentID string) *OrderBook {
	book, ok := e.books[instrumentID]
	if !ok {
		e.log.Warn().Str("instrument", instrumentID).Msg("Market data for unknown instrument dropped")
		return nil
	}
	return book
}

func (e *SimulatedExchange) publish(event Event) {
	if e.client == nil {
		panic("simulated exchange: no execution client registered")
	}
	e.client.Publish(event)
}

func (e *SimulatedExchange) orderCore(o *Order) orderEventCore {
	return orderEventCore{
		StrategyID:    o.StrategyID,
		InstrumentID:  o.InstrumentID,
		ClientOrderID: o.ClientOrderID,
		VenueOrderID:  o.VenueOrderID,
		TsEventNs:     e.clock.TimeNs(),
	}
}

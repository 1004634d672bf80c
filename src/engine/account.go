package engine

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountAdapter owns the venue-side view of the trading account: balance
// totals per currency, leverage settings for margin accounts, and commission
// calculation. Every mutation produces a fresh AccountState snapshot.
type AccountAdapter struct {
	venue           string
	accountType     AccountType
	baseCurrency    string
	frozen          bool
	defaultLeverage decimal.Decimal
	leverages       map[string]decimal.Decimal

	balances      map[string]*AccountBalance
	currencyOrder []string
	starting      []Money

	log zerolog.Logger
}

func NewAccountAdapter(venue string, accountType AccountType, baseCurrency string, startingBalances []Money, defaultLeverage decimal.Decimal, leverages map[string]decimal.Decimal, frozen bool, log zerolog.Logger) *AccountAdapter {
	a := &AccountAdapter{
		venue:           venue,
		accountType:     accountType,
		baseCurrency:    baseCurrency,
		frozen:          frozen,
		defaultLeverage: defaultLeverage,
		leverages:       leverages,
		starting:        startingBalances,
		log:             log,
	}
	a.loadStartingBalances()
	return a
}

func (a *AccountAdapter) loadStartingBalances() {
	a.balances = make(map[string]*AccountBalance)
	a.currencyOrder = a.currencyOrder[:0]
	for _, money := range a.starting {
		a.balances[money.Currency] = &AccountBalance{
			Currency: money.Currency,
			Total:    money.Amount,
			Locked:   decimal.Zero,
			Free:     money.Amount,
		}
		a.currencyOrder = append(a.currencyOrder, money.Currency)
	}
}

// Initialize produces the opening AccountState. Margin accounts log their
// effective leverage per instrument in sorted order so startup output is
// deterministic.
func (a *AccountAdapter) Initialize(tsNs int64) AccountState {
	if a.accountType == AccountMargin {
		instruments := make([]string, 0, len(a.leverages))
		for id := range a.leverages {
			instruments = append(instruments, id)
		}
		sort.Strings(instruments)
		for _, id := range instruments {
			a.log.Info().
				Str("instrument", id).
				Str("leverage", a.leverages[id].String()).
				Msg("Applied instrument leverage")
		}
		a.log.Info().
			Str("default_leverage", a.defaultLeverage.String()).
			Msg("Margin account initialized")
	}
	return a.snapshot(tsNs)
}

// Adjust applies a signed money delta to the matching currency balance and
// returns the resulting snapshot. Frozen accounts ignore adjustments. A
// missing balance for the currency is logged and produces no event.
func (a *AccountAdapter) Adjust(money Money, tsNs int64) (AccountState, bool) {
	if a.frozen {
		return AccountState{}, false
	}
	balance, ok := a.balances[money.Currency]
	if !ok {
		a.log.Warn().
			Str("currency", money.Currency).
			Str("amount", money.Amount.String()).
			Msg("Cannot adjust account: no balance for currency")
		return AccountState{}, false
	}
	balance.Total = balance.Total.Add(money.Amount)
	balance.Free = balance.Free.Add(money.Amount)
	return a.snapshot(tsNs), true
}

// Commission charges the liquidity-side fee rate on fill notional, in the
// instrument's quote currency.
func (a *AccountAdapter) Commission(instrument *Instrument, quantity, price decimal.Decimal, liquiditySide LiquiditySide) Money {
	rate := instrument.MakerFeeRate
	if liquiditySide == LiquidityTaker {
		rate = instrument.TakerFeeRate
	}
	notional := quantity.Mul(price)
	return NewMoney(notional.Mul(rate).Round(8), instrument.QuoteCurrency)
}

// Leverage returns the effective leverage for an instrument.
func (a *AccountAdapter) Leverage(instrumentID string) decimal.Decimal {
	if lev, ok := a.leverages[instrumentID]; ok {
		return lev
	}
	return a.defaultLeverage
}

func (a *AccountAdapter) snapshot(tsNs int64) AccountState {
	balances := make([]AccountBalance, 0, len(a.currencyOrder))
	for _, currency := range a.currencyOrder {
		balances = append(balances, *a.balances[currency])
	}
	return AccountState{
		Venue:       a.venue,
		AccountType: a.accountType,
		Balances:    balances,
		TsEventNs:   tsNs,
	}
}

// Reset restores the starting balances.
func (a *AccountAdapter) Reset() {
	a.loadStartingBalances()
}

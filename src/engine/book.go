package engine

import (
	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

type depthLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

type bidLevelItem struct {
	Level *depthLevel
}

// Bids sort descending so the best bid is the tree minimum.
func (i *bidLevelItem) Less(than btree.Item) bool {
	other := than.(*bidLevelItem)
	return i.Level.Price.GreaterThan(other.Level.Price)
}

type askLevelItem struct {
	Level *depthLevel
}

func (i *askLevelItem) Less(than btree.Item) bool {
	other := than.(*askLevelItem)
	return i.Level.Price.LessThan(other.Level.Price)
}

// OrderBook is the venue's reconstructed public book for one instrument:
// aggregated depth per price, rebuilt from market data. It answers best
// prices and simulates the fills an incoming order would take against the
// opposing ladder.
type OrderBook struct {
	InstrumentID string
	BookType     BookType
	Bids         *btree.BTree
	Asks         *btree.BTree
}

func NewOrderBook(instrumentID string, bookType BookType) *OrderBook {
	return &OrderBook{
		InstrumentID: instrumentID,
		BookType:     bookType,
		Bids:         btree.New(32),
		Asks:         btree.New(32),
	}
}

// ApplyQuote replaces both ladders with the tick's top of book.
func (ob *OrderBook) ApplyQuote(tick QuoteTick) {
	ob.Bids.Clear(false)
	ob.Asks.Clear(false)
	// Zero-size levels still quote a price; they just yield no fills.
	if tick.BidPrice.IsPositive() {
		ob.Bids.ReplaceOrInsert(&bidLevelItem{Level: &depthLevel{Price: tick.BidPrice, Size: tick.BidSize}})
	}
	if tick.AskPrice.IsPositive() {
		ob.Asks.ReplaceOrInsert(&askLevelItem{Level: &depthLevel{Price: tick.AskPrice, Size: tick.AskSize}})
	}
}

// ApplyDepth rebuilds both ladders from a full snapshot.
func (ob *OrderBook) ApplyDepth(depth MarketDepth) {
	ob.Bids.Clear(false)
	ob.Asks.Clear(false)
	for _, level := range depth.Bids {
		if level.Price.IsPositive() {
			ob.Bids.ReplaceOrInsert(&bidLevelItem{Level: &depthLevel{Price: level.Price, Size: level.Size}})
		}
	}
	for _, level := range depth.Asks {
		if level.Price.IsPositive() {
			ob.Asks.ReplaceOrInsert(&askLevelItem{Level: &depthLevel{Price: level.Price, Size: level.Size}})
		}
	}
}

func (ob *OrderBook) BestBid() (decimal.Decimal, bool) {
	item := ob.Bids.Min()
	if item == nil {
		return decimal.Zero, false
	}
	return item.(*bidLevelItem).Level.Price, true
}

func (ob *OrderBook) BestAsk() (decimal.Decimal, bool) {
	item := ob.Asks.Min()
	if item == nil {
		return decimal.Zero, false
	}
	return item.(*askLevelItem).Level.Price, true
}

// SimulateFills walks the ladder opposing side until quantity is exhausted
// and returns the (price, qty) allocations an incoming order would take.
// A nil limit walks the full ladder; otherwise levels beyond the limit are
// not consumed.
func (ob *OrderBook) SimulateFills(side OrderSide, quantity decimal.Decimal, limit *decimal.Decimal) []BookLevel {
	fills := make([]BookLevel, 0, 4)
	remaining := quantity

	walk := func(price, size decimal.Decimal) bool {
		if !remaining.IsPositive() {
			return false
		}
		if limit != nil {
			if side == SideBuy && price.GreaterThan(*limit) {
				return false
			}
			if side == SideSell && price.LessThan(*limit) {
				return false
			}
		}
		qty := remaining
		if qty.GreaterThan(size) {
			qty = size
		}
		if qty.IsPositive() {
			fills = append(fills, BookLevel{Price: price, Size: qty})
			remaining = remaining.Sub(qty)
		}
		return remaining.IsPositive()
	}

	if side == SideBuy {
		ob.Asks.Ascend(func(item btree.Item) bool {
			level := item.(*askLevelItem).Level
			return walk(level.Price, level.Size)
		})
	} else {
		ob.Bids.Ascend(func(item btree.Item) bool {
			level := item.(*bidLevelItem).Level
			return walk(level.Price, level.Size)
		})
	}
	return fills
}

// Snapshot returns aggregated levels to the requested depth, bids descending
// and asks ascending.
func (ob *OrderBook) Snapshot(depth int) (bids []BookLevel, asks []BookLevel) {
	bids = make([]BookLevel, 0, depth)
	asks = make([]BookLevel, 0, depth)

	ob.Bids.Ascend(func(item btree.Item) bool {
		if len(bids) >= depth {
			return false
		}
		level := item.(*bidLevelItem).Level
		bids = append(bids, BookLevel{Price: level.Price, Size: level.Size})
		return true
	})
	ob.Asks.Ascend(func(item btree.Item) bool {
		if len(asks) >= depth {
			return false
		}
		level := item.(*askLevelItem).Level
		asks = append(asks, BookLevel{Price: level.Price, Size: level.Size})
		return true
	})
	return bids, asks
}

func (ob *OrderBook) Clear() {
	ob.Bids.Clear(false)
	ob.Asks.Clear(false)
}

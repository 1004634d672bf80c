package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBookBestPricesFromQuote(t *testing.T) {
	book := NewOrderBook("BTCUSDT", BookL1TBBO)

	if _, ok := book.BestBid(); ok {
		t.Fatalf("Expected no best bid on empty book")
	}
	if _, ok := book.BestAsk(); ok {
		t.Fatalf("Expected no best ask on empty book")
	}

	book.ApplyQuote(tick("BTCUSDT", "99.50", "10", "100.00", "5", 1))

	bid, ok := book.BestBid()
	if !ok || !bid.Equal(dec("99.50")) {
		t.Errorf("Expected best bid 99.50, got: %s (ok=%v)", bid, ok)
	}
	ask, ok := book.BestAsk()
	if !ok || !ask.Equal(dec("100.00")) {
		t.Errorf("Expected best ask 100.00, got: %s (ok=%v)", ask, ok)
	}
}

func TestBookDepthOrdering(t *testing.T) {
	book := NewOrderBook("BTCUSDT", BookL2MBP)
	book.ApplyDepth(MarketDepth{
		InstrumentID: "BTCUSDT",
		Bids: []BookLevel{
			{Price: dec("99.00"), Size: dec("5")},
			{Price: dec("99.50"), Size: dec("3")},
			{Price: dec("98.00"), Size: dec("7")},
		},
		Asks: []BookLevel{
			{Price: dec("100.50"), Size: dec("4")},
			{Price: dec("100.00"), Size: dec("2")},
		},
	})

	bids, asks := book.Snapshot(10)
	if len(bids) != 3 || len(asks) != 2 {
		t.Fatalf("Expected 3 bids and 2 asks, got: %d / %d", len(bids), len(asks))
	}
	if !bids[0].Price.Equal(dec("99.50")) || !bids[2].Price.Equal(dec("98.00")) {
		t.Errorf("Expected bids descending, got: %v", bids)
	}
	if !asks[0].Price.Equal(dec("100.00")) || !asks[1].Price.Equal(dec("100.50")) {
		t.Errorf("Expected asks ascending, got: %v", asks)
	}
}

func TestSimulateFillsWalksLevels(t *testing.T) {
	book := NewOrderBook("BTCUSDT", BookL2MBP)
	book.ApplyDepth(MarketDepth{
		InstrumentID: "BTCUSDT",
		Asks: []BookLevel{
			{Price: dec("100.00"), Size: dec("5")},
			{Price: dec("100.50"), Size: dec("5")},
			{Price: dec("101.00"), Size: dec("10")},
		},
	})

	fills := book.SimulateFills(SideBuy, dec("12"), nil)
	if len(fills) != 3 {
		t.Fatalf("Expected 3 allocations, got: %d", len(fills))
	}
	if !fills[0].Size.Equal(dec("5")) || !fills[1].Size.Equal(dec("5")) || !fills[2].Size.Equal(dec("2")) {
		t.Errorf("Expected allocations 5/5/2, got: %v", fills)
	}
	if !fills[2].Price.Equal(dec("101.00")) {
		t.Errorf("Expected last allocation at 101.00, got: %s", fills[2].Price)
	}
}

func TestSimulateFillsRespectsLimit(t *testing.T) {
	book := NewOrderBook("BTCUSDT", BookL2MBP)
	book.ApplyDepth(MarketDepth{
		InstrumentID: "BTCUSDT",
		Asks: []BookLevel{
			{Price: dec("100.00"), Size: dec("5")},
			{Price: dec("100.50"), Size: dec("5")},
		},
	})

	limit := dec("100.00")
	fills := book.SimulateFills(SideBuy, dec("12"), &limit)
	if len(fills) != 1 {
		t.Fatalf("Expected 1 allocation within limit, got: %d", len(fills))
	}
	if !fills[0].Size.Equal(dec("5")) || !fills[0].Price.Equal(dec("100.00")) {
		t.Errorf("Expected 5 @ 100.00, got: %v", fills[0])
	}
}

func TestSimulateFillsSkipsZeroSizeLevels(t *testing.T) {
	book := NewOrderBook("BTCUSDT", BookL1TBBO)
	book.ApplyQuote(QuoteTick{
		InstrumentID: "BTCUSDT",
		BidPrice:     dec("102.00"),
		BidSize:      decimal.Zero,
		AskPrice:     dec("103.00"),
		AskSize:      dec("10"),
	})

	if fills := book.SimulateFills(SideSell, dec("5"), nil); len(fills) != 0 {
		t.Errorf("Expected no allocations against zero-size level, got: %v", fills)
	}

	// The price is still quoted.
	bid, ok := book.BestBid()
	if !ok || !bid.Equal(dec("102.00")) {
		t.Errorf("Expected quoted bid 102.00, got: %s (ok=%v)", bid, ok)
	}
}

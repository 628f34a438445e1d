package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"tradewire/internal/domain/model"
)

func testCache() *MarketCache {
	return NewMarketCache(CacheConfig{
		TickerTTL:     5 * time.Second,
		BookTTL:       5 * time.Second,
		TradeTTL:      time.Minute,
		MaxEntries:    4,
		BookDepth:     3,
		TradeTapeSize: 10,
	})
}

func TestTickerNormalization(t *testing.T) {
	c := testCache()
	c.OnTickerPush(json.RawMessage(`{"symbol":"XBT/USD","bid":99.5,"ask":"100.5","last":100}`))

	got, err := c.Ticker("XBT/USD")
	if err != nil {
		t.Fatal(err)
	}
	if got.Bid != 99.5 || got.Ask != 100.5 || got.Last != 100 {
		t.Fatalf("got %+v", got)
	}
	if got.Volume24h != 0 {
		t.Fatalf("missing field defaulted to %v, want 0", got.Volume24h)
	}
	if got.Timestamp == 0 {
		t.Fatal("timestamp not set")
	}
}

func TestTickerStaleAfterTTL(t *testing.T) {
	c := testCache()
	base := time.Now()
	c.now = func() time.Time { return base }
	c.OnTickerPush(json.RawMessage(`{"symbol":"XBT/USD","last":100}`))

	c.now = func() time.Time { return base.Add(5 * time.Second) }
	if _, err := c.Ticker("XBT/USD"); err != nil {
		t.Fatalf("read at exactly TTL failed: %v", err)
	}

	c.now = func() time.Time { return base.Add(5*time.Second + time.Millisecond) }
	if _, err := c.Ticker("XBT/USD"); !errors.Is(err, model.ErrStaleData) {
		t.Fatalf("got %v, want ErrStaleData", err)
	}
}

func TestTickerUnknownSymbol(t *testing.T) {
	c := testCache()
	if _, err := c.Ticker("ETH/USD"); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}

func TestBookMergeAndZeroVolumeRemoval(t *testing.T) {
	c := testCache()
	c.OnBookPush(json.RawMessage(`{"symbol":"XBT/USD","snapshot":true,"bids":[[100,5],[99,3]],"asks":[[101,4]]}`))
	c.OnBookPush(json.RawMessage(`{"symbol":"XBT/USD","bids":[[99,0]]}`))

	book, err := c.OrderBook("XBT/USD", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(book.Bids) != 1 || book.Bids[0].Price != 100 || book.Bids[0].Volume != 5 {
		t.Fatalf("bids %+v, want [[100 5]]", book.Bids)
	}
	if len(book.Asks) != 1 || book.Asks[0].Price != 101 {
		t.Fatalf("asks %+v, want [[101 4]]", book.Asks)
	}
}

func TestBookSidesSortedAndTruncated(t *testing.T) {
	c := testCache() // depth 3
	c.OnBookPush(json.RawMessage(`{"symbol":"XBT/USD","snapshot":true,
		"bids":[[98,1],[100,1],[97,1],[99,1]],
		"asks":[[104,1],[101,1],[103,1],[102,1]]}`))

	book, err := c.OrderBook("XBT/USD", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(book.Bids) != 3 || len(book.Asks) != 3 {
		t.Fatalf("depth not enforced: %d bids, %d asks", len(book.Bids), len(book.Asks))
	}
	for i := 1; i < len(book.Bids); i++ {
		if book.Bids[i-1].Price < book.Bids[i].Price {
			t.Fatalf("bids not descending: %+v", book.Bids)
		}
	}
	for i := 1; i < len(book.Asks); i++ {
		if book.Asks[i-1].Price > book.Asks[i].Price {
			t.Fatalf("asks not ascending: %+v", book.Asks)
		}
	}
	if book.Bids[0].Price != 100 || book.Asks[0].Price != 101 {
		t.Fatalf("best levels wrong: bid %v ask %v", book.Bids[0].Price, book.Asks[0].Price)
	}
}

func TestBookLevelReplacement(t *testing.T) {
	c := testCache()
	c.OnBookPush(json.RawMessage(`{"symbol":"XBT/USD","snapshot":true,"bids":[[100,5]],"asks":[]}`))
	c.OnBookPush(json.RawMessage(`{"symbol":"XBT/USD","bids":[[100,2]]}`))

	book, _ := c.OrderBook("XBT/USD", 10)
	if len(book.Bids) != 1 || book.Bids[0].Volume != 2 {
		t.Fatalf("bids %+v, want volume replaced with 2", book.Bids)
	}
}

func TestTradesTapeBoundedAndLimited(t *testing.T) {
	c := testCache() // tape size 10
	for i := 0; i < 15; i++ {
		msg := fmt.Sprintf(`{"symbol":"XBT/USD","trades":[{"price":"%d","volume":1,"side":"buy"}]}`, 100+i)
		c.OnTradePush(json.RawMessage(msg))
	}

	all, err := c.Trades("XBT/USD", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 10 {
		t.Fatalf("tape holds %d, want 10", len(all))
	}
	if all[0].Price != 105 || all[9].Price != 114 {
		t.Fatalf("tape kept wrong window: first %v last %v", all[0].Price, all[9].Price)
	}

	last3, _ := c.Trades("XBT/USD", 3)
	if len(last3) != 3 || last3[2].Price != 114 {
		t.Fatalf("limit read wrong: %+v", last3)
	}
}

func TestEvictionDropsOldestWrite(t *testing.T) {
	c := testCache() // max entries 4
	base := time.Now()
	for i := 0; i < 5; i++ {
		i := i
		c.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		msg := fmt.Sprintf(`{"symbol":"SYM%d/USD","last":1}`, i)
		c.OnTickerPush(json.RawMessage(msg))
	}

	c.now = func() time.Time { return base.Add(5 * time.Second) }
	if _, err := c.Ticker("SYM0/USD"); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("oldest entry survived eviction: %v", err)
	}
	if _, err := c.Ticker("SYM4/USD"); err != nil {
		t.Fatalf("newest entry evicted: %v", err)
	}
}

func TestBookEvictionDropsOldestWrite(t *testing.T) {
	c := testCache() // max entries 4
	base := time.Now()
	for i := 0; i < 5; i++ {
		i := i
		c.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		msg := fmt.Sprintf(`{"symbol":"SYM%d/USD","snapshot":true,"bids":[[100,1]],"asks":[[101,1]]}`, i)
		c.OnBookPush(json.RawMessage(msg))
	}

	c.now = func() time.Time { return base.Add(5 * time.Second) }
	if _, err := c.OrderBook("SYM0/USD", 1); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("oldest book survived eviction: %v", err)
	}
	if _, err := c.OrderBook("SYM4/USD", 1); err != nil {
		t.Fatalf("newest book evicted: %v", err)
	}
}

func TestTradeEvictionDropsOldestWrite(t *testing.T) {
	c := testCache() // max entries 4
	base := time.Now()
	for i := 0; i < 5; i++ {
		i := i
		c.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		msg := fmt.Sprintf(`{"symbol":"SYM%d/USD","trades":[{"price":100,"volume":1,"side":"buy"}]}`, i)
		c.OnTradePush(json.RawMessage(msg))
	}

	c.now = func() time.Time { return base.Add(5 * time.Second) }
	if _, err := c.Trades("SYM0/USD", 1); !errors.Is(err, model.ErrNoData) {
		t.Fatalf("oldest tape survived eviction: %v", err)
	}
	got, err := c.Trades("SYM4/USD", 1)
	if err != nil {
		t.Fatalf("newest tape evicted: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("newest tape has %d trades, want 1", len(got))
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	c := testCache()
	base := time.Now()
	c.now = func() time.Time { return base }
	c.OnTickerPush(json.RawMessage(`{"symbol":"XBT/USD","last":1}`))
	c.OnBookPush(json.RawMessage(`{"symbol":"XBT/USD","snapshot":true,"bids":[[1,1]],"asks":[]}`))

	c.now = func() time.Time { return base.Add(time.Minute) }
	if removed := c.sweep(); removed != 2 {
		t.Fatalf("sweep removed %d, want 2", removed)
	}
	if len(c.tickers) != 0 || len(c.books) != 0 {
		t.Fatal("expired entries still present after sweep")
	}
}

func TestFlexFloatCoercion(t *testing.T) {
	var p tickerPayload
	if err := json.Unmarshal([]byte(`{"symbol":"S","bid":"12.5","ask":null,"last":"nonsense"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Bid != 12.5 {
		t.Fatalf("string number parsed as %v", p.Bid)
	}
	if p.Ask != 0 || p.Last != 0 {
		t.Fatalf("null/garbage did not default to zero: ask=%v last=%v", p.Ask, p.Last)
	}
}

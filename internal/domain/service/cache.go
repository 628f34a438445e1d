package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tradewire/internal/domain/model"
)

// CacheConfig holds the market data cache tunables.
type CacheConfig struct {
	TickerTTL     time.Duration
	BookTTL       time.Duration
	TradeTTL      time.Duration
	MaxEntries    int
	BookDepth     int
	TradeTapeSize int
	SweepInterval time.Duration
}

type tickerEntry struct {
	ticker  model.Ticker
	written time.Time
}

type bookEntry struct {
	bids    []model.BookLevel
	asks    []model.BookLevel
	written time.Time
}

type tradeEntry struct {
	tape    []model.Trade
	written time.Time
}

// MarketCache normalizes venue pushes and serves bounded, TTL-expiring
// reads. A read past TTL reports stale, never old data; a background
// sweep removes expired entries to bound memory.
type MarketCache struct {
	mu      sync.RWMutex
	cfg     CacheConfig
	tickers map[string]*tickerEntry
	books   map[string]*bookEntry
	trades  map[string]*tradeEntry

	now func() time.Time
}

func NewMarketCache(cfg CacheConfig) *MarketCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 256
	}
	if cfg.BookDepth <= 0 {
		cfg.BookDepth = 25
	}
	if cfg.TradeTapeSize <= 0 {
		cfg.TradeTapeSize = 200
	}
	return &MarketCache{
		cfg:     cfg,
		tickers: make(map[string]*tickerEntry),
		books:   make(map[string]*bookEntry),
		trades:  make(map[string]*tradeEntry),
		now:     time.Now,
	}
}

// OnTickerPush consumes a ticker channel push.
func (c *MarketCache) OnTickerPush(data json.RawMessage) {
	var p tickerPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Symbol == "" {
		return
	}
	now := c.now()
	t := model.Ticker{
		Symbol:    p.Symbol,
		Bid:       float64(p.Bid),
		Ask:       float64(p.Ask),
		Last:      float64(p.Last),
		Volume24h: float64(p.Volume24h),
		Timestamp: now.UnixMilli(),
	}

	c.mu.Lock()
	c.tickers[p.Symbol] = &tickerEntry{ticker: t, written: now}
	if len(c.tickers) > c.cfg.MaxEntries {
		delete(c.tickers, c.oldestTickerLocked())
	}
	c.mu.Unlock()
}

// OnBookPush consumes an order book push: a full snapshot or a batch of
// level updates. Zero volume removes the level; each side stays sorted
// (bids descending, asks ascending) and truncated to the configured depth.
func (c *MarketCache) OnBookPush(data json.RawMessage) {
	var p bookPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Symbol == "" {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.books[p.Symbol]
	if e == nil || p.Snapshot {
		e = &bookEntry{written: now}
		c.books[p.Symbol] = e
		if len(c.books) > c.cfg.MaxEntries {
			delete(c.books, c.oldestBookLocked())
		}
	}
	e.bids = mergeLevels(e.bids, p.Bids, true, c.cfg.BookDepth)
	e.asks = mergeLevels(e.asks, p.Asks, false, c.cfg.BookDepth)
	e.written = now
}

// OnTradePush consumes a public trade batch, appending to the symbol's
// bounded tape.
func (c *MarketCache) OnTradePush(data json.RawMessage) {
	var p tradePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Symbol == "" {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.trades[p.Symbol]
	if e == nil {
		e = &tradeEntry{written: now}
		c.trades[p.Symbol] = e
		if len(c.trades) > c.cfg.MaxEntries {
			delete(c.trades, c.oldestTradeLocked())
		}
	}
	for _, tr := range p.Trades {
		ts := int64(tr.Time)
		if ts == 0 {
			ts = now.UnixMilli()
		}
		e.tape = append(e.tape, model.Trade{
			Symbol:    p.Symbol,
			Price:     float64(tr.Price),
			Volume:    float64(tr.Volume),
			Side:      tr.Side,
			Timestamp: ts,
		})
	}
	if over := len(e.tape) - c.cfg.TradeTapeSize; over > 0 {
		e.tape = append([]model.Trade(nil), e.tape[over:]...)
	}
	e.written = now
}

// Ticker returns the cached ticker, or ErrNoData/ErrStaleData.
func (c *MarketCache) Ticker(symbol string) (model.Ticker, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.tickers[symbol]
	if !ok {
		return model.Ticker{}, model.ErrNoData
	}
	if c.expired(e.written, c.cfg.TickerTTL) {
		return model.Ticker{}, model.ErrStaleData
	}
	return e.ticker, nil
}

// OrderBook returns the book truncated to depth (capped by the stored
// depth), or ErrNoData/ErrStaleData.
func (c *MarketCache) OrderBook(symbol string, depth int) (model.OrderBook, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.books[symbol]
	if !ok {
		return model.OrderBook{}, model.ErrNoData
	}
	if c.expired(e.written, c.cfg.BookTTL) {
		return model.OrderBook{}, model.ErrStaleData
	}
	if depth <= 0 || depth > c.cfg.BookDepth {
		depth = c.cfg.BookDepth
	}
	return model.OrderBook{
		Symbol:    symbol,
		Bids:      cloneLevels(e.bids, depth),
		Asks:      cloneLevels(e.asks, depth),
		Timestamp: e.written.UnixMilli(),
	}, nil
}

// Trades returns up to limit most recent trades in chronological order,
// or ErrNoData/ErrStaleData.
func (c *MarketCache) Trades(symbol string, limit int) ([]model.Trade, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.trades[symbol]
	if !ok {
		return nil, model.ErrNoData
	}
	if c.expired(e.written, c.cfg.TradeTTL) {
		return nil, model.ErrStaleData
	}
	tape := e.tape
	if limit > 0 && len(tape) > limit {
		tape = tape[len(tape)-limit:]
	}
	out := make([]model.Trade, len(tape))
	copy(out, tape)
	return out, nil
}

// Run sweeps TTL-expired entries until ctx is done.
func (c *MarketCache) Run(ctx context.Context) {
	interval := c.cfg.SweepInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := c.sweep()
			if removed > 0 {
				log.Debug().Int("removed", removed).Msg("cache sweep")
			}
		}
	}
}

// sweep removes expired entries across all partitions and reports how
// many were dropped.
func (c *MarketCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for sym, e := range c.tickers {
		if c.expired(e.written, c.cfg.TickerTTL) {
			delete(c.tickers, sym)
			removed++
		}
	}
	for sym, e := range c.books {
		if c.expired(e.written, c.cfg.BookTTL) {
			delete(c.books, sym)
			removed++
		}
	}
	for sym, e := range c.trades {
		if c.expired(e.written, c.cfg.TradeTTL) {
			delete(c.trades, sym)
			removed++
		}
	}
	return removed
}

func (c *MarketCache) expired(written time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return c.now().Sub(written) > ttl
}

func (c *MarketCache) oldestTickerLocked() string {
	var sym string
	var oldest time.Time
	for s, e := range c.tickers {
		if sym == "" || e.written.Before(oldest) {
			sym, oldest = s, e.written
		}
	}
	return sym
}

func (c *MarketCache) oldestBookLocked() string {
	var sym string
	var oldest time.Time
	for s, e := range c.books {
		if sym == "" || e.written.Before(oldest) {
			sym, oldest = s, e.written
		}
	}
	return sym
}

func (c *MarketCache) oldestTradeLocked() string {
	var sym string
	var oldest time.Time
	for s, e := range c.trades {
		if sym == "" || e.written.Before(oldest) {
			sym, oldest = s, e.written
		}
	}
	return sym
}

// mergeLevels applies one batch of (price, volume) updates to a side:
// zero volume removes the level, otherwise insert or replace; then
// re-sort and truncate.
func mergeLevels(side []model.BookLevel, updates [][]flexFloat, bids bool, depth int) []model.BookLevel {
	for _, u := range updates {
		if len(u) < 2 {
			continue
		}
		price, volume := float64(u[0]), float64(u[1])
		idx := -1
		for i, lvl := range side {
			if lvl.Price == price {
				idx = i
				break
			}
		}
		switch {
		case volume == 0:
			if idx >= 0 {
				side = append(side[:idx], side[idx+1:]...)
			}
		case idx >= 0:
			side[idx].Volume = volume
		default:
			side = append(side, model.BookLevel{Price: price, Volume: volume})
		}
	}
	sort.Slice(side, func(i, j int) bool {
		if bids {
			return side[i].Price > side[j].Price
		}
		return side[i].Price < side[j].Price
	})
	if len(side) > depth {
		side = side[:depth]
	}
	return side
}

func cloneLevels(side []model.BookLevel, depth int) []model.BookLevel {
	if len(side) > depth {
		side = side[:depth]
	}
	out := make([]model.BookLevel, len(side))
	copy(out, side)
	return out
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tradewire/internal/domain/model"
)

// SignalConfig holds the signal engine tunables.
type SignalConfig struct {
	Interval           time.Duration
	Lookback           int // trades fetched per symbol per tick
	MinTrades          int // below this the symbol is skipped
	AutoTradeThreshold float64
	AutoTradeVolume    float64
}

// marketReader is the slice of the market cache the engine needs.
type marketReader interface {
	Trades(symbol string, limit int) ([]model.Trade, error)
}

// orderPlacer is the slice of the order executor the engine forwards
// auto-trade signals to.
type orderPlacer interface {
	Place(ctx context.Context, req model.OrderRequest) (*model.Order, error)
}

// ObserverToken identifies a registered signal observer.
type ObserverToken uint64

// SignalEngine runs the strategy analyzers on a fixed schedule and fuses
// their candidates into at most one signal per symbol per tick.
type SignalEngine struct {
	cfg       SignalConfig
	md        marketReader
	analyzers []Analyzer // fixed priority order: momentum, mean-reversion, breakout
	placer    orderPlacer

	mu      sync.Mutex
	watched map[string]struct{}
	auto    map[string]bool
	latest  map[string]*model.Signal
	obs     map[ObserverToken]func(model.Signal)
	obsNext ObserverToken

	now func() time.Time
}

func NewSignalEngine(cfg SignalConfig, md marketReader, analyzers []Analyzer, placer orderPlacer) *SignalEngine {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 50
	}
	if cfg.MinTrades <= 0 {
		cfg.MinTrades = 10
	}
	if cfg.AutoTradeThreshold <= 0 {
		cfg.AutoTradeThreshold = 0.7
	}
	return &SignalEngine{
		cfg:       cfg,
		md:        md,
		analyzers: analyzers,
		placer:    placer,
		watched:   make(map[string]struct{}),
		auto:      make(map[string]bool),
		latest:    make(map[string]*model.Signal),
		obs:       make(map[ObserverToken]func(model.Signal)),
		now:       time.Now,
	}
}

// Watch adds a symbol to the per-tick analysis set.
func (e *SignalEngine) Watch(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.watched[symbol] = struct{}{}
}

// Unwatch removes a symbol; its last signal remains readable.
func (e *SignalEngine) Unwatch(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.watched, symbol)
}

// SetAutoTrade toggles forwarding of high-confidence signals to the
// order executor.
func (e *SignalEngine) SetAutoTrade(symbol string, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auto[symbol] = enabled
}

// Latest returns the most recent signal for a symbol, if any.
func (e *SignalEngine) Latest(symbol string) (*model.Signal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.latest[symbol]
	if !ok {
		return nil, false
	}
	c := *s
	return &c, true
}

// OnSignal registers a signal observer and returns its removal token.
func (e *SignalEngine) OnSignal(fn func(model.Signal)) ObserverToken {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.obsNext++
	e.obs[e.obsNext] = fn
	return e.obsNext
}

// RemoveObserver drops an observer by its token.
func (e *SignalEngine) RemoveObserver(token ObserverToken) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.obs, token)
}

// Run ticks the engine on the configured interval until ctx is done.
func (e *SignalEngine) Run(ctx context.Context) {
	interval := e.cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick analyzes every watched symbol once.
func (e *SignalEngine) Tick(ctx context.Context) {
	e.mu.Lock()
	symbols := make([]string, 0, len(e.watched))
	for s := range e.watched {
		symbols = append(symbols, s)
	}
	e.mu.Unlock()

	for _, symbol := range symbols {
		e.tickSymbol(ctx, symbol)
	}
}

func (e *SignalEngine) tickSymbol(ctx context.Context, symbol string) {
	trades, err := e.md.Trades(symbol, e.cfg.Lookback)
	if err != nil || len(trades) < e.cfg.MinTrades {
		return
	}

	candidates := make([]*model.Candidate, 0, len(e.analyzers))
	for _, a := range e.analyzers {
		candidates = append(candidates, a.Analyze(symbol, trades))
	}
	winner := fuseCandidates(candidates)
	if winner == nil {
		return
	}

	sig := model.Signal{
		Symbol:     symbol,
		Direction:  winner.Direction,
		Confidence: winner.Confidence,
		Entry:      winner.Entry,
		StopLoss:   winner.StopLoss,
		TakeProfit: winner.TakeProfit,
		Strategy:   winner.Strategy,
		Rationale:  winner.Rationale,
		Timestamp:  e.now().UnixMilli(),
	}

	e.mu.Lock()
	e.latest[symbol] = &sig
	obs := make([]func(model.Signal), 0, len(e.obs))
	for _, fn := range e.obs {
		obs = append(obs, fn)
	}
	autoTrade := e.auto[symbol]
	e.mu.Unlock()

	log.Info().
		Str("symbol", symbol).
		Str("strategy", sig.Strategy).
		Str("direction", string(sig.Direction)).
		Float64("confidence", sig.Confidence).
		Msg("signal")

	for _, fn := range obs {
		fn(sig)
	}

	if autoTrade && sig.Confidence >= e.cfg.AutoTradeThreshold && e.placer != nil {
		e.forward(ctx, sig)
	}
}

// forward turns a high-confidence signal into a market order request.
func (e *SignalEngine) forward(ctx context.Context, sig model.Signal) {
	req := model.OrderRequest{
		Symbol: sig.Symbol,
		Side:   sig.Direction,
		Type:   model.OrderTypeMarket,
		Volume: e.cfg.AutoTradeVolume,
	}
	order, err := e.placer.Place(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("symbol", sig.Symbol).Msg("auto-trade order failed")
		return
	}
	log.Info().Str("symbol", sig.Symbol).Str("order", order.LocalID).Msg("auto-trade order placed")
}

package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tradewire/internal/application/port"
	domainservice "tradewire/internal/domain/service"
	"tradewire/internal/infrastructure/config"
	"tradewire/internal/infrastructure/credstore"
	"tradewire/internal/infrastructure/storage"
	"tradewire/internal/infrastructure/venue"
)

// ServiceContext owns every long-lived component and wires them together.
// It is the single entry point for application startup.
type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	Audit    port.AuditSink
	Creds    port.CredentialStore
	Venue    *venue.Manager
	Cache    *domainservice.MarketCache
	Executor *domainservice.OrderExecutor
	Engine   *domainservice.SignalEngine

	closerChain []func() error
}

// privateTransport adapts the venue manager to the executor's view of the
// private connection.
type privateTransport struct {
	mgr *venue.Manager
}

func (t *privateTransport) Request(ctx context.Context, method string, params any) domainservice.VenueReply {
	res := t.mgr.Send(ctx, venue.Private, method, params)
	return domainservice.VenueReply{OK: res.OK, Timeout: res.Timeout, Data: res.Data, Err: res.Err}
}

// New builds the full component graph in dependency order. A failure
// tears down whatever was already initialized.
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	if len(cfg.Symbols.List) == 0 {
		return nil, ErrNoSymbols
	}

	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		closerChain: make([]func() error, 0),
	}

	if err := sc.initStorage(); err != nil {
		_ = sc.Close()
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}
	if err := sc.initCredentials(); err != nil {
		_ = sc.Close()
		return nil, fmt.Errorf("%w: %v", ErrCredentialsUnavailable, err)
	}
	sc.initVenue()
	sc.initCache()
	sc.initExecutor()
	sc.initEngine()

	log.Info().Int("symbols", len(cfg.Symbols.List)).Msg("✓ all components initialized")
	return sc, nil
}

func (sc *ServiceContext) initStorage() error {
	sink, err := storage.Open(sc.Config.Storage)
	if err != nil {
		return err
	}
	sc.Audit = sink
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing audit sink")
		return sink.Close()
	})
	log.Info().Str("driver", sc.Config.Storage.Driver).Msg("✓ audit sink initialized")
	return nil
}

func (sc *ServiceContext) initCredentials() error {
	switch sc.Config.Credentials.Source {
	case "redis":
		rdb := redisclient.NewClient(&redisclient.Options{Addr: sc.Config.Credentials.RedisAddr})
		ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fmt.Errorf("redis ping failed: %w", err)
		}
		sc.Creds = credstore.NewRedis(rdb, sc.Config.Credentials.RedisKey)
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing credential store connection")
			return rdb.Close()
		})
	default:
		sc.Creds = credstore.NewMemory(map[string]string{
			sc.Config.Venue.Name: sc.Config.Credentials.Token,
		})
	}
	log.Info().Str("source", sc.Config.Credentials.Source).Msg("✓ credential store initialized")
	return nil
}

func (sc *ServiceContext) initVenue() {
	sc.Venue = venue.NewManager(venue.Config{
		Platform:       sc.Config.Venue.Name,
		PublicURL:      sc.Config.Venue.PublicWsURL,
		PrivateURL:     sc.Config.Venue.PrivateWsURL,
		BaseDelay:      sc.Config.ReconnectBaseDelay(),
		MaxDelay:       sc.Config.ReconnectMaxDelay(),
		MaxAttempts:    sc.Config.Venue.Reconnect.MaxAttempts,
		Budget:         sc.Config.Venue.RateLimit.Budget,
		Window:         sc.Config.RateLimitWindow(),
		MaxQueue:       sc.Config.Venue.RateLimit.MaxQueue,
		RequestTimeout: sc.Config.RequestTimeout(),
	}, sc.Creds)
}

func (sc *ServiceContext) initCache() {
	sc.Cache = domainservice.NewMarketCache(domainservice.CacheConfig{
		TickerTTL:     time.Duration(sc.Config.Cache.TickerTTLMs) * time.Millisecond,
		BookTTL:       time.Duration(sc.Config.Cache.BookTTLMs) * time.Millisecond,
		TradeTTL:      time.Duration(sc.Config.Cache.TradeTTLMs) * time.Millisecond,
		MaxEntries:    sc.Config.Cache.MaxEntries,
		BookDepth:     sc.Config.Cache.BookDepth,
		TradeTapeSize: sc.Config.Cache.TradeTapeSize,
		SweepInterval: sc.Config.CacheSweepInterval(),
	})

	sc.Venue.OnPush("ticker", func(p venue.Push) { sc.Cache.OnTickerPush(p.Data) })
	sc.Venue.OnPush("book", func(p venue.Push) { sc.Cache.OnBookPush(p.Data) })
	sc.Venue.OnPush("trade", func(p venue.Push) { sc.Cache.OnTradePush(p.Data) })
}

func (sc *ServiceContext) initExecutor() {
	sc.Executor = domainservice.NewOrderExecutor(&privateTransport{mgr: sc.Venue}, sc.Audit)

	risk := sc.Config.Risk
	if risk.MaxOrderNotional > 0 || risk.MaxOpenPerSymbol > 0 || risk.MaxOpenTotal > 0 || risk.CooldownMs > 0 {
		sc.Executor.SetRiskManager(domainservice.NewRiskManager(domainservice.RiskLimits{
			MaxOrderNotional: risk.MaxOrderNotional,
			MaxOpenPerSymbol: risk.MaxOpenPerSymbol,
			MaxOpenTotal:     risk.MaxOpenTotal,
			Cooldown:         time.Duration(risk.CooldownMs) * time.Millisecond,
		}))
	}

	sc.Venue.OnPush("own_trades", func(p venue.Push) { sc.Executor.OnOwnTradesPush(p.Data) })
	sc.Venue.OnPush("open_orders", func(p venue.Push) { sc.Executor.OnOpenOrdersPush(p.Data) })

	// reconcile venue-side open orders every time the private session
	// becomes usable again
	sc.Venue.OnStatus(func(s venue.Status) {
		if s.Kind != venue.Private || s.State != venue.StateAuthenticated {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(sc.Ctx, 30*time.Second)
			defer cancel()
			if err := sc.Executor.Recover(ctx); err != nil {
				log.Warn().Err(err).Msg("open-order recovery failed")
			}
		}()
	})
}

func (sc *ServiceContext) initEngine() {
	analyzers := []domainservice.Analyzer{
		&domainservice.Momentum{
			Window:    sc.Config.Signals.MomentumWindow,
			Threshold: sc.Config.Signals.MomentumThreshold,
		},
		&domainservice.MeanReversion{
			Window:     sc.Config.Signals.ZScoreWindow,
			ZThreshold: sc.Config.Signals.ZScoreThreshold,
		},
		&domainservice.Breakout{
			Window:   sc.Config.Signals.BreakoutWindow,
			Fraction: sc.Config.Signals.BreakoutFraction,
		},
	}
	sc.Engine = domainservice.NewSignalEngine(domainservice.SignalConfig{
		Interval:           sc.Config.SignalInterval(),
		Lookback:           sc.Config.Signals.Lookback,
		MinTrades:          sc.Config.Signals.MinTrades,
		AutoTradeThreshold: sc.Config.Signals.AutoTradeThreshold,
		AutoTradeVolume:    sc.Config.Signals.AutoTradeVolume,
	}, sc.Cache, analyzers, sc.Executor)

	for _, symbol := range sc.Config.Symbols.List {
		sc.Engine.Watch(symbol)
	}
}

// Start connects both venue sessions, registers the market data
// subscriptions and launches the background loops.
func (sc *ServiceContext) Start(ctx context.Context) error {
	if err := sc.Venue.Connect(ctx, venue.Public); err != nil {
		return fmt.Errorf("public connect: %w", err)
	}
	if err := sc.Venue.Connect(ctx, venue.Private); err != nil {
		return fmt.Errorf("private connect: %w", err)
	}

	symbols := sc.Config.Symbols.List
	subscriptions := []struct {
		kind    venue.Kind
		channel string
		symbols []string
		params  map[string]any
	}{
		{venue.Public, "ticker", symbols, nil},
		{venue.Public, "book", symbols, map[string]any{"depth": sc.Config.Cache.BookDepth}},
		{venue.Public, "trade", symbols, nil},
		{venue.Private, "own_trades", nil, nil},
		{venue.Private, "open_orders", nil, nil},
	}
	for _, sub := range subscriptions {
		if _, err := sc.Venue.Subscribe(ctx, sub.kind, sub.channel, sub.symbols, sub.params); err != nil {
			log.Warn().Err(err).Str("channel", sub.channel).Msg("subscription deferred")
		}
	}

	go sc.Cache.Run(ctx)
	go sc.Engine.Run(ctx)

	log.Info().Str("venue", sc.Config.Venue.Name).Msg("✓ engine started")
	return nil
}

// Close releases every resource in reverse initialization order.
func (sc *ServiceContext) Close() error {
	if sc.Venue != nil {
		_ = sc.Venue.Disconnect(venue.Private)
		_ = sc.Venue.Disconnect(venue.Public)
	}
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	return nil
}

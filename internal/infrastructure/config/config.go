package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App struct {
		LogLevel string `toml:"log_level"`
	} `toml:"app"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Venue struct {
		Name         string `toml:"name"`
		PublicWsURL  string `toml:"public_ws_url"`
		PrivateWsURL string `toml:"private_ws_url"`

		Reconnect struct {
			BaseDelayMs int `toml:"base_delay_ms"`
			MaxDelayMs  int `toml:"max_delay_ms"`
			MaxAttempts int `toml:"max_attempts"`
		} `toml:"reconnect"`

		RateLimit struct {
			Budget   int `toml:"budget"`
			WindowMs int `toml:"window_ms"`
			MaxQueue int `toml:"max_queue"`
		} `toml:"ratelimit"`

		RequestTimeoutMs int `toml:"request_timeout_ms"`
	} `toml:"venue"`

	Cache struct {
		TickerTTLMs     int `toml:"ticker_ttl_ms"`
		BookTTLMs       int `toml:"book_ttl_ms"`
		TradeTTLMs      int `toml:"trade_ttl_ms"`
		MaxEntries      int `toml:"max_entries"`
		SweepIntervalMs int `toml:"sweep_interval_ms"`
		BookDepth       int `toml:"book_depth"`
		TradeTapeSize   int `toml:"trade_tape_size"`
	} `toml:"cache"`

	Signals struct {
		IntervalMs         int     `toml:"interval_ms"`
		Lookback           int     `toml:"lookback"`
		MinTrades          int     `toml:"min_trades"`
		MomentumWindow     int     `toml:"momentum_window"`
		MomentumThreshold  float64 `toml:"momentum_threshold"`
		ZScoreWindow       int     `toml:"zscore_window"`
		ZScoreThreshold    float64 `toml:"zscore_threshold"`
		BreakoutWindow     int     `toml:"breakout_window"`
		BreakoutFraction   float64 `toml:"breakout_fraction"`
		AutoTradeThreshold float64 `toml:"auto_trade_threshold"`
		AutoTradeVolume    float64 `toml:"auto_trade_volume"`
	} `toml:"signals"`

	Risk struct {
		MaxOrderNotional float64 `toml:"max_order_notional"`
		MaxOpenPerSymbol int     `toml:"max_open_per_symbol"`
		MaxOpenTotal     int     `toml:"max_open_total"`
		CooldownMs       int     `toml:"cooldown_ms"`
	} `toml:"risk"`

	Storage     StorageConfig     `toml:"storage"`
	Credentials CredentialsConfig `toml:"credentials"`
}

// StorageConfig selects the audit-sink backend.
type StorageConfig struct {
	Driver      string `toml:"driver"` // "none", "memory", "sqlite", "postgres", "redis", "all"
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
	RedisAddr   string `toml:"redis_addr"`
	RedisPrefix string `toml:"redis_prefix"`
}

// CredentialsConfig selects where the venue API token comes from.
type CredentialsConfig struct {
	Source    string `toml:"source"` // "memory" or "redis"
	Token     string `toml:"token"`  // seed for the memory store
	RedisAddr string `toml:"redis_addr"`
	RedisKey  string `toml:"redis_key"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Venue.Name == "" {
		cfg.Venue.Name = "kraken"
	}
	if cfg.Venue.Reconnect.BaseDelayMs <= 0 {
		cfg.Venue.Reconnect.BaseDelayMs = 1000
	}
	if cfg.Venue.Reconnect.MaxDelayMs <= 0 {
		cfg.Venue.Reconnect.MaxDelayMs = 30000
	}
	if cfg.Venue.Reconnect.MaxAttempts <= 0 {
		cfg.Venue.Reconnect.MaxAttempts = 10
	}
	if cfg.Venue.RateLimit.Budget <= 0 {
		cfg.Venue.RateLimit.Budget = 50
	}
	if cfg.Venue.RateLimit.WindowMs <= 0 {
		cfg.Venue.RateLimit.WindowMs = 1000
	}
	if cfg.Venue.RateLimit.MaxQueue <= 0 {
		cfg.Venue.RateLimit.MaxQueue = 1024
	}
	if cfg.Venue.RequestTimeoutMs <= 0 {
		cfg.Venue.RequestTimeoutMs = 10000
	}
	if cfg.Cache.TickerTTLMs <= 0 {
		cfg.Cache.TickerTTLMs = 5000
	}
	if cfg.Cache.BookTTLMs <= 0 {
		cfg.Cache.BookTTLMs = 5000
	}
	if cfg.Cache.TradeTTLMs <= 0 {
		cfg.Cache.TradeTTLMs = 60000
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = 256
	}
	if cfg.Cache.SweepIntervalMs <= 0 {
		cfg.Cache.SweepIntervalMs = 10000
	}
	if cfg.Cache.BookDepth <= 0 {
		cfg.Cache.BookDepth = 25
	}
	if cfg.Cache.TradeTapeSize <= 0 {
		cfg.Cache.TradeTapeSize = 200
	}
	if cfg.Signals.IntervalMs <= 0 {
		cfg.Signals.IntervalMs = 5000
	}
	if cfg.Signals.Lookback <= 0 {
		cfg.Signals.Lookback = 50
	}
	if cfg.Signals.MinTrades <= 0 {
		cfg.Signals.MinTrades = 10
	}
	if cfg.Signals.MomentumWindow <= 0 {
		cfg.Signals.MomentumWindow = 10
	}
	if cfg.Signals.MomentumThreshold <= 0 {
		cfg.Signals.MomentumThreshold = 0.005
	}
	if cfg.Signals.ZScoreWindow <= 0 {
		cfg.Signals.ZScoreWindow = 20
	}
	if cfg.Signals.ZScoreThreshold <= 0 {
		cfg.Signals.ZScoreThreshold = 2.0
	}
	if cfg.Signals.BreakoutWindow <= 0 {
		cfg.Signals.BreakoutWindow = 20
	}
	if cfg.Signals.BreakoutFraction <= 0 {
		cfg.Signals.BreakoutFraction = 0.2
	}
	if cfg.Signals.AutoTradeThreshold <= 0 {
		cfg.Signals.AutoTradeThreshold = 0.7
	}
	if cfg.Signals.AutoTradeVolume <= 0 {
		cfg.Signals.AutoTradeVolume = 0.01
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "none"
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = "tradewire"
	}
	if cfg.Credentials.Source == "" {
		cfg.Credentials.Source = "memory"
	}
	if cfg.Credentials.RedisKey == "" {
		cfg.Credentials.RedisKey = "tradewire:credentials"
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}
	if strings.TrimSpace(cfg.Venue.PublicWsURL) == "" {
		return errors.New("venue.public_ws_url is empty")
	}
	if strings.TrimSpace(cfg.Venue.PrivateWsURL) == "" {
		return errors.New("venue.private_ws_url is empty")
	}
	switch cfg.Storage.Driver {
	case "none", "memory", "sqlite", "postgres", "redis", "all":
	default:
		return fmt.Errorf("storage.driver %q is not one of none/memory/sqlite/postgres/redis/all", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "sqlite" && strings.TrimSpace(cfg.Storage.SQLitePath) == "" {
		return errors.New("storage.sqlite_path empty but driver is sqlite")
	}
	if cfg.Storage.Driver == "postgres" && strings.TrimSpace(cfg.Storage.PostgresDSN) == "" {
		return errors.New("storage.postgres_dsn empty but driver is postgres")
	}
	if cfg.Storage.Driver == "redis" && strings.TrimSpace(cfg.Storage.RedisAddr) == "" {
		return errors.New("storage.redis_addr empty but driver is redis")
	}
	switch cfg.Credentials.Source {
	case "memory", "redis":
	default:
		return fmt.Errorf("credentials.source %q is not one of memory/redis", cfg.Credentials.Source)
	}
	if cfg.Credentials.Source == "redis" && strings.TrimSpace(cfg.Credentials.RedisAddr) == "" {
		return errors.New("credentials.redis_addr empty but source is redis")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Durations derived from the millisecond fields.

func (c *Config) ReconnectBaseDelay() time.Duration {
	return time.Duration(c.Venue.Reconnect.BaseDelayMs) * time.Millisecond
}

func (c *Config) ReconnectMaxDelay() time.Duration {
	return time.Duration(c.Venue.Reconnect.MaxDelayMs) * time.Millisecond
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Venue.RateLimit.WindowMs) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Venue.RequestTimeoutMs) * time.Millisecond
}

func (c *Config) SignalInterval() time.Duration {
	return time.Duration(c.Signals.IntervalMs) * time.Millisecond
}

func (c *Config) CacheSweepInterval() time.Duration {
	return time.Duration(c.Cache.SweepIntervalMs) * time.Millisecond
}

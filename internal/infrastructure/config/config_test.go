package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[symbols]
list = ["btc/usd", "BTC/USD", " eth/usd "]

[venue]
public_ws_url = "wss://example.test/public"
private_ws_url = "wss://example.test/private"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.App.LogLevel)
	}
	if cfg.Venue.Name != "kraken" {
		t.Errorf("venue name = %q, want kraken", cfg.Venue.Name)
	}
	if cfg.Venue.RateLimit.Budget != 50 {
		t.Errorf("budget = %d, want 50", cfg.Venue.RateLimit.Budget)
	}
	if cfg.ReconnectBaseDelay() != time.Second {
		t.Errorf("base delay = %s, want 1s", cfg.ReconnectBaseDelay())
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Errorf("request timeout = %s, want 10s", cfg.RequestTimeout())
	}
	if cfg.Signals.AutoTradeThreshold != 0.7 {
		t.Errorf("auto-trade threshold = %f, want 0.7", cfg.Signals.AutoTradeThreshold)
	}
	if cfg.Storage.Driver != "none" {
		t.Errorf("storage driver = %q, want none", cfg.Storage.Driver)
	}
	if cfg.Credentials.Source != "memory" {
		t.Errorf("credentials source = %q, want memory", cfg.Credentials.Source)
	}
}

func TestLoadNormalizesSymbols(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"BTC/USD", "ETH/USD"}
	if len(cfg.Symbols.List) != len(want) {
		t.Fatalf("symbols = %v, want %v", cfg.Symbols.List, want)
	}
	for i := range want {
		if cfg.Symbols.List[i] != want[i] {
			t.Fatalf("symbols = %v, want %v", cfg.Symbols.List, want)
		}
	}
}

func TestLoadRejectsEmptySymbols(t *testing.T) {
	body := `
[symbols]
list = []

[venue]
public_ws_url = "wss://example.test/public"
private_ws_url = "wss://example.test/private"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for empty symbol list")
	}
}

func TestLoadRejectsMissingURLs(t *testing.T) {
	body := `
[symbols]
list = ["BTC/USD"]
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for missing websocket urls")
	}
}

func TestLoadRejectsUnknownStorageDriver(t *testing.T) {
	body := minimalConfig + `
[storage]
driver = "cassandra"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestLoadRejectsSQLiteWithoutPath(t *testing.T) {
	body := minimalConfig + `
[storage]
driver = "sqlite"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for sqlite driver without path")
	}
}

func TestLoadRejectsRedisCredentialsWithoutAddr(t *testing.T) {
	body := minimalConfig + `
[credentials]
source = "redis"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for redis credentials without an address")
	}
}

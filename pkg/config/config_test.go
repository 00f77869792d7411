package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
server:
  port: 8080
scan:
  window_days: 14
  min_actors: 3
  min_notional: 300000
backtest:
  horizons: [5, 21, 63]
  cost_bps: 20
alerts:
  days: 7
ingest:
  time_field: filing
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.WindowDays != 14 || cfg.Scan.MinActors != 3 {
		t.Fatalf("scan config not parsed: %+v", cfg.Scan)
	}
	if cfg.ScanWindow() != 14*24*time.Hour {
		t.Fatalf("scan window %v", cfg.ScanWindow())
	}
	if cfg.AlertsWindow() != 7*24*time.Hour {
		t.Fatalf("alerts window %v", cfg.AlertsWindow())
	}
	if len(cfg.Backtest.Horizons) != 3 {
		t.Fatalf("horizons %v", cfg.Backtest.Horizons)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty environment", func(c *Config) { c.Environment = "" }},
		{"zero window", func(c *Config) { c.Scan.WindowDays = 0 }},
		{"zero actors", func(c *Config) { c.Scan.MinActors = 0 }},
		{"negative notional", func(c *Config) { c.Scan.MinNotional = -1 }},
		{"no horizons", func(c *Config) { c.Backtest.Horizons = nil }},
		{"zero horizon", func(c *Config) { c.Backtest.Horizons = []int{0} }},
		{"negative cost", func(c *Config) { c.Backtest.CostBPS = -5 }},
		{"zero alert days", func(c *Config) { c.Alerts.Days = 0 }},
		{"unknown time field", func(c *Config) { c.Ingest.TimeField = "guess" }},
	}
	for _, tc := range cases {
		cfg, err := Load(writeConfig(t, validYAML))
		if err != nil {
			t.Fatalf("%s: load: %v", tc.name, err)
		}
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("KAFKA_TRADES_TOPIC", "trades.env")
	t.Setenv("FEED_URL", "wss://feed.example/ws")
	t.Setenv("REDIS_ADDR", "redis.example:6379")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b2:9092" {
		t.Fatalf("brokers override %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.TradesTopic != "trades.env" {
		t.Fatalf("topic override %q", cfg.Kafka.TradesTopic)
	}
	if cfg.Ingest.FeedURL != "wss://feed.example/ws" {
		t.Fatalf("feed override %q", cfg.Ingest.FeedURL)
	}
	if cfg.Cache.Redis.Addr != "redis.example:6379" {
		t.Fatalf("redis override %q", cfg.Cache.Redis.Addr)
	}
}

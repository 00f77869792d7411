package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Scan struct {
		WindowDays            int           `yaml:"window_days"`
		MinActors             int           `yaml:"min_actors"`
		MinNotional           float64       `yaml:"min_notional"`
		ExcludeScheduledPlans bool          `yaml:"exclude_scheduled_plans"`
		Interval              time.Duration `yaml:"interval"` // background rescan period, 0 disables
	} `yaml:"scan"`
	Backtest struct {
		Horizons   []int   `yaml:"horizons"`
		CostBPS    float64 `yaml:"cost_bps"`
		ReportPath string  `yaml:"report_path"`
	} `yaml:"backtest"`
	Alerts struct {
		Days int `yaml:"days"`
	} `yaml:"alerts"`
	Ingest struct {
		// TimeField resolves the filing-vs-transaction timestamp ambiguity once,
		// at the boundary. The core never falls back between the two.
		TimeField      string        `yaml:"time_field"` // "filing" or "transaction"
		FeedURL        string        `yaml:"feed_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxRPS         int           `yaml:"max_rps"`
		BufferSize     int           `yaml:"buffer_size"`
	} `yaml:"ingest"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		TradesTopic  string   `yaml:"trades_topic"`
		SignalsTopic string   `yaml:"signals_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Prices struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"prices"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		PriceTTL time.Duration `yaml:"price_ttl"`
	} `yaml:"cache"`
}

// ScanWindow returns the clustering window as a duration.
func (c *Config) ScanWindow() time.Duration {
	return time.Duration(c.Scan.WindowDays) * 24 * time.Hour
}

// AlertsWindow returns the recent-activity window as a duration.
func (c *Config) AlertsWindow() time.Duration {
	return time.Duration(c.Alerts.Days) * 24 * time.Hour
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TRADES_TOPIC"); v != "" {
		c.Kafka.TradesTopic = v
	}
	if v := os.Getenv("KAFKA_SIGNALS_TOPIC"); v != "" {
		c.Kafka.SignalsTopic = v
	}
	if v := os.Getenv("FEED_URL"); v != "" {
		c.Ingest.FeedURL = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid. Threshold exhaustion fails
// here, before any processing begins.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Scan.WindowDays < 1 {
		return fmt.Errorf("scan.window_days must be >= 1, got %d", c.Scan.WindowDays)
	}
	if c.Scan.MinActors < 1 {
		return fmt.Errorf("scan.min_actors must be >= 1, got %d", c.Scan.MinActors)
	}
	if c.Scan.MinNotional < 0 {
		return fmt.Errorf("scan.min_notional must be >= 0, got %v", c.Scan.MinNotional)
	}
	if len(c.Backtest.Horizons) == 0 {
		return fmt.Errorf("backtest.horizons cannot be empty")
	}
	for _, h := range c.Backtest.Horizons {
		if h < 1 {
			return fmt.Errorf("backtest.horizons must be positive session counts, got %d", h)
		}
	}
	if c.Backtest.CostBPS < 0 {
		return fmt.Errorf("backtest.cost_bps must be >= 0, got %v", c.Backtest.CostBPS)
	}
	if c.Alerts.Days < 1 {
		return fmt.Errorf("alerts.days must be >= 1, got %d", c.Alerts.Days)
	}
	switch c.Ingest.TimeField {
	case "filing", "transaction":
	default:
		return fmt.Errorf("ingest.time_field must be 'filing' or 'transaction', got '%s'", c.Ingest.TimeField)
	}
	return nil
}

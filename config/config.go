package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Quoteflow QuoteflowConfig `yaml:"quoteflow"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Reader    ReaderConfig    `yaml:"reader"`
	Source    SourceConfig    `yaml:"source"`
	Storage   StorageConfig   `yaml:"storage"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type QuoteflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ReaderConfig struct {
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type SourceConfig struct {
	Bitkub    DepthSourceConfig  `yaml:"bitkub"`
	BinanceTH DepthSourceConfig  `yaml:"binance_th"`
	Maxbit    MaxbitSourceConfig `yaml:"maxbit"`
	FX        FXSourceConfig     `yaml:"fx"`
}

type DepthSourceConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Symbol  string `yaml:"symbol"`
	Limit   int    `yaml:"limit"`
}

type MaxbitSourceConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	Symbol    string `yaml:"symbol"`
	GroupID   string `yaml:"group_id"`
	SecretAPI string `yaml:"secret_api"`
	SecretKey string `yaml:"secret_key"`
}

type FXSourceConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Symbol   string `yaml:"symbol"`
	Currency string `yaml:"currency"`
}

type StorageConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type TelegramConfig struct {
	Enabled  bool                    `yaml:"enabled"`
	Token    string                  `yaml:"token"`
	ChatID   int64                   `yaml:"chat_id"`
	Triggers []string                `yaml:"triggers"`
	Markers  map[string]MarkerConfig `yaml:"markers"`
}

type MarkerConfig struct {
	Bid string `yaml:"bid"`
	Ask string `yaml:"ask"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Scheduler: SchedulerConfig{Interval: time.Second},
		Reader: ReaderConfig{
			Timeout:   5 * time.Second,
			RateLimit: RateLimitConfig{RequestsPerSecond: 5, BurstSize: 1},
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	applyEnvOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Bitkub.Limit <= 0 {
		cfg.Source.Bitkub.Limit = 5
	}
	if cfg.Source.BinanceTH.Limit <= 0 {
		cfg.Source.BinanceTH.Limit = 5
	}
	if len(cfg.Telegram.Triggers) == 0 {
		cfg.Telegram.Triggers = []string{"📌USDT", "📌USDC"}
	}
	if cfg.Storage.Postgres.Table == "" {
		cfg.Storage.Postgres.Table = "market_data"
	}
}

// applyEnvOverrides lets deployment secrets replace file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.Postgres.DSN = strings.TrimSpace(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = strings.TrimSpace(v)
	}
	if v := os.Getenv("TELEGRAM_GROUP_ID"); v != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("MAXBIT_SECRET_API"); v != "" {
		cfg.Source.Maxbit.SecretAPI = strings.TrimSpace(v)
	}
	if v := os.Getenv("MAXBIT_SECRET_KEY"); v != "" {
		cfg.Source.Maxbit.SecretKey = strings.TrimSpace(v)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Quoteflow.Name == "" {
		return fmt.Errorf("quoteflow.name is required")
	}
	if cfg.Quoteflow.Version == "" {
		return fmt.Errorf("quoteflow.version is required")
	}

	if cfg.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than 0")
	}
	if cfg.Reader.Timeout <= 0 {
		return fmt.Errorf("reader.timeout must be greater than 0")
	}

	if cfg.Storage.Postgres.DSN == "" {
		return fmt.Errorf("storage.postgres.dsn is required (or set DATABASE_URL)")
	}

	if cfg.Source.Bitkub.Enabled {
		if cfg.Source.Bitkub.URL == "" || cfg.Source.Bitkub.Symbol == "" {
			return fmt.Errorf("source.bitkub.url and source.bitkub.symbol are required when bitkub is enabled")
		}
	}
	if cfg.Source.BinanceTH.Enabled {
		if cfg.Source.BinanceTH.URL == "" || cfg.Source.BinanceTH.Symbol == "" {
			return fmt.Errorf("source.binance_th.url and source.binance_th.symbol are required when binance_th is enabled")
		}
	}
	if cfg.Source.Maxbit.Enabled {
		if cfg.Source.Maxbit.URL == "" || cfg.Source.Maxbit.Symbol == "" {
			return fmt.Errorf("source.maxbit.url and source.maxbit.symbol are required when maxbit is enabled")
		}
		if cfg.Source.Maxbit.SecretAPI == "" || cfg.Source.Maxbit.SecretKey == "" {
			return fmt.Errorf("source.maxbit credentials are required when maxbit is enabled (or set MAXBIT_SECRET_API / MAXBIT_SECRET_KEY)")
		}
	}
	if cfg.Source.FX.Enabled {
		if cfg.Source.FX.URL == "" || cfg.Source.FX.Currency == "" {
			return fmt.Errorf("source.fx.url and source.fx.currency are required when fx is enabled")
		}
	}

	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram is enabled (or set TELEGRAM_BOT_TOKEN)")
	}

	return nil
}

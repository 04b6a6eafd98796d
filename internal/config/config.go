package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
	Inventory InventoryConfig `yaml:"inventory"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Log       LogConfig       `yaml:"log"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig is optional; an empty Addr disables request deduplication and
// pub/sub alerts.
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`
	AlertChannel string `yaml:"alert_channel"`
}

type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type InventoryConfig struct {
	LowStockThreshold decimal.Decimal `yaml:"low_stock_threshold"`
}

type AlertsConfig struct {
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Development bool `yaml:"development"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:inventory.db?_pragma=busy_timeout(5000)",
		},
		Redis: RedisConfig{
			PoolSize: 100,
		},
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			GRPCAddr:        ":50051",
			ShutdownTimeout: 5 * time.Second,
		},
		Inventory: InventoryConfig{
			LowStockThreshold: decimal.NewFromInt(50),
		},
		Alerts: AlertsConfig{
			Workers:   4,
			QueueSize: 1000,
			Timeout:   5 * time.Second,
		},
	}
}

// Load reads path over the defaults, applies environment overrides, then
// validates the result. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be mysql or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Inventory.LowStockThreshold.IsNegative() {
		return fmt.Errorf("inventory.low_stock_threshold must not be negative, got %s", c.Inventory.LowStockThreshold)
	}
	if c.Alerts.Workers < 1 {
		return fmt.Errorf("alerts.workers must be at least 1, got %d", c.Alerts.Workers)
	}
	if c.Alerts.QueueSize < 1 {
		return fmt.Errorf("alerts.queue_size must be at least 1, got %d", c.Alerts.QueueSize)
	}
	if c.Alerts.Timeout <= 0 {
		return errors.New("alerts.timeout must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("INVENTORY_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("INVENTORY_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("GRPC_ADDR"); v != "" {
		cfg.Server.GRPCAddr = v
	}
	if v := os.Getenv("LOW_STOCK_THRESHOLD"); v != "" {
		threshold, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("LOW_STOCK_THRESHOLD: %w", err)
		}
		cfg.Inventory.LowStockThreshold = threshold
	}
	if v := os.Getenv("ALERT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ALERT_WORKERS: %w", err)
		}
		cfg.Alerts.Workers = n
	}
	return nil
}

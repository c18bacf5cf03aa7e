package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	Name string `yaml:"name" split_words:"true"`
	Port string `yaml:"port" split_words:"true"`
}

type APIConfig struct {
	// URL of the live storefront API. Empty means static mode.
	URL             string        `yaml:"url" split_words:"true"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
	ReprobeInterval time.Duration `yaml:"reprobe_interval" split_words:"true"`
}

type CatalogConfig struct {
	// DataDir overrides the snapshots embedded in the binary.
	DataDir string `yaml:"data_dir" split_words:"true"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver" split_words:"true"`
	BoltPath string `yaml:"bolt_path" split_words:"true"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            string        `yaml:"port" split_words:"true"`
	User            string        `yaml:"user" split_words:"true"`
	Password        string        `yaml:"password" split_words:"true"`
	Name            string        `yaml:"dbname" split_words:"true"`
	SSLMode         string        `yaml:"sslmode" envconfig:"SSLMODE"`
	MaxConns        int32         `yaml:"max_conns" split_words:"true"`
	MinConns        int32         `yaml:"min_conns" split_words:"true"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" split_words:"true"`
	AutoMigrate     bool          `yaml:"auto_migrate" split_words:"true"`
}

type PricingConfig struct {
	TaxRateBps        int64 `yaml:"tax_rate_bps" split_words:"true"`
	DeliveryFeeCents  int64 `yaml:"delivery_fee_cents" split_words:"true"`
	MinDepositPercent int64 `yaml:"min_deposit_percent" split_words:"true"`
}

type OrdersConfig struct {
	RecentLimit  int           `yaml:"recent_limit" split_words:"true"`
	CancelWindow time.Duration `yaml:"cancel_window" split_words:"true"`
	Timezone     string        `yaml:"timezone" split_words:"true"`

	// Idle checkout sessions are dropped after CheckoutTTL; at most
	// CheckoutLimit are held at once.
	CheckoutTTL   time.Duration `yaml:"checkout_ttl" split_words:"true"`
	CheckoutLimit int           `yaml:"checkout_limit" split_words:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Pretty bool   `yaml:"pretty" split_words:"true"`
}

type Config struct {
	App      AppConfig      `yaml:"app" envconfig:"APP"`
	API      APIConfig      `yaml:"api" envconfig:"API"`
	Catalog  CatalogConfig  `yaml:"catalog" envconfig:"STATIC"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Postgres PostgresConfig `yaml:"postgres" envconfig:"DB"`
	Pricing  PricingConfig  `yaml:"pricing" envconfig:"PRICING"`
	Orders   OrdersConfig   `yaml:"orders" envconfig:"ORDERS"`
	Log      LogConfig      `yaml:"log" envconfig:"LOG"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		App: AppConfig{Name: "storefront", Port: "8080"},
		API: APIConfig{
			ProbeTimeout:   time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{Driver: DriverBolt, BoltPath: "storefront.db"},
		Postgres: PostgresConfig{
			Port:            "5432",
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
		},
		Pricing: PricingConfig{
			TaxRateBps:        1010,
			DeliveryFeeCents:  1500,
			MinDepositPercent: 50,
		},
		Orders: OrdersConfig{
			RecentLimit:   10,
			CancelWindow:  24 * time.Hour,
			Timezone:      "America/Los_Angeles",
			CheckoutTTL:   30 * time.Minute,
			CheckoutLimit: 500,
		},
		Log: LogConfig{Level: "info", Pretty: true},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then the optional .env file, then the process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: invalid config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to load %s: %w", envFile, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverBolt:
		if c.Storage.BoltPath == "" {
			return errors.New("config: STORAGE_BOLT_PATH is required for the bolt driver")
		}
	case DriverPostgres:
		required := map[string]string{
			"DB_HOST":     c.Postgres.Host,
			"DB_PORT":     c.Postgres.Port,
			"DB_USER":     c.Postgres.User,
			"DB_PASSWORD": c.Postgres.Password,
			"DB_NAME":     c.Postgres.Name,
		}
		for key, value := range required {
			if value == "" {
				return fmt.Errorf("config: %s is required for the postgres driver", key)
			}
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if c.Pricing.TaxRateBps < 0 || c.Pricing.DeliveryFeeCents < 0 {
		return errors.New("config: pricing values must be non-negative")
	}
	if c.Pricing.MinDepositPercent < 0 || c.Pricing.MinDepositPercent > 100 {
		return fmt.Errorf("config: PRICING_MIN_DEPOSIT_PERCENT must be within 0..100, got %d", c.Pricing.MinDepositPercent)
	}
	if c.Orders.RecentLimit <= 0 {
		return fmt.Errorf("config: ORDERS_RECENT_LIMIT must be positive, got %d", c.Orders.RecentLimit)
	}
	if c.Orders.CheckoutTTL <= 0 || c.Orders.CheckoutLimit <= 0 {
		return errors.New("config: ORDERS_CHECKOUT_TTL and ORDERS_CHECKOUT_LIMIT must be positive")
	}
	if _, err := time.LoadLocation(c.Orders.Timezone); err != nil {
		return fmt.Errorf("config: invalid ORDERS_TIMEZONE %q: %w", c.Orders.Timezone, err)
	}

	return nil
}

// Location returns the shop's timezone for pickup scheduling.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Orders.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

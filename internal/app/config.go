package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/rpstreef/screencloud-challenge/internal/domain/measure"
	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
	"github.com/rpstreef/screencloud-challenge/internal/domain/product"
	"github.com/rpstreef/screencloud-challenge/internal/domain/shipping"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (FULFILLMENT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage     string `default:"postgres" usage:"Storage driver: postgres or memory"`
	DatabaseURL string `usage:"PostgreSQL connection URL (FULFILLMENT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Product     ProductConfig
	Shipping    ShippingConfig
	Fulfillment FulfillmentConfig
	Tx          TxConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// ProductConfig describes the product being sold.
type ProductConfig struct {
	ID              string `default:"SCOS_P1_PRO" usage:"Product identifier"`
	Name            string `default:"SCOS Station P1 Pro" usage:"Product name"`
	UnitPriceCents  int64  `default:"15000" usage:"Unit price in cents"`
	UnitWeightGrams int64  `default:"365" usage:"Unit weight in grams"`
	// Tiers is a comma separated list of minQuantity:percentage pairs, e.g.
	// "250:20,100:15". Empty selects the reference table.
	Tiers string `usage:"Volume discount tiers as min:percent pairs"`
}

// ShippingConfig controls the leg cost model.
type ShippingConfig struct {
	RatePerKgKm string `default:"0.01" usage:"Shipping rate in dollars per kilogram per kilometre"`
}

// FulfillmentConfig controls order validation.
type FulfillmentConfig struct {
	MaxShippingPercent int `default:"15" usage:"Maximum shipping cost as a percentage of the order price"`
}

// TxConfig controls retries of conflicting PostgreSQL transactions.
type TxConfig struct {
	MaxRetries int           `default:"3" usage:"Retries after serialization failures"`
	RetryBase  time.Duration `default:"100ms" usage:"Base backoff between retries"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max API requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FULFILLMENT",
		Files:     []string{"config.yaml", "/etc/fulfillment/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided DATABASE_URL and PORT to the
// FULFILLMENT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set FULFILLMENT_DATABASE_URL or DATABASE_URL")
		}
	case StorageMemory:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage)
	}

	if p := c.Fulfillment.MaxShippingPercent; p < 0 || p > 100 {
		return errors.Errorf("max shipping percent must be within [0, 100], got %d", p)
	}
	if _, err := c.Shipping.Rate(); err != nil {
		return err
	}
	if _, err := c.Product.Build(); err != nil {
		return err
	}
	if c.Tx.MaxRetries < 0 {
		return errors.Errorf("tx max retries must not be negative, got %d", c.Tx.MaxRetries)
	}
	if c.RateLimit.Max > 0 && c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	return nil
}

// Rate parses the shipping rate.
func (c ShippingConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.RatePerKgKm)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse shipping rate")
	}
	if rate.IsNegative() {
		return decimal.Decimal{}, errors.Errorf("shipping rate must not be negative, got %s", rate)
	}
	if rate.GreaterThan(shipping.MaxRate) {
		return decimal.Decimal{}, errors.Errorf("shipping rate must not exceed %s, got %s", shipping.MaxRate, rate)
	}
	return rate, nil
}

// Build returns the configured product.
func (c ProductConfig) Build() (*product.Product, error) {
	weight, err := measure.NewWeight(c.UnitWeightGrams)
	if err != nil {
		return nil, errors.Wrap(err, "product weight")
	}
	tiers, err := parseTiers(c.Tiers)
	if err != nil {
		return nil, err
	}
	p, err := product.New(c.ID, c.Name, money.FromCents(c.UnitPriceCents), weight, tiers)
	if err != nil {
		return nil, errors.Wrap(err, "product")
	}
	return p, nil
}

func parseTiers(s string) ([]product.Tier, error) {
	if strings.TrimSpace(s) == "" {
		return product.DefaultTiers(), nil
	}
	var tiers []product.Tier
	for _, pair := range strings.Split(s, ",") {
		minQty, pct, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, errors.Errorf("tier %q: want min:percent", pair)
		}
		m, err := strconv.Atoi(minQty)
		if err != nil {
			return nil, errors.Wrapf(err, "tier %q minimum", pair)
		}
		p, err := strconv.Atoi(pct)
		if err != nil {
			return nil, errors.Wrapf(err, "tier %q percentage", pair)
		}
		tiers = append(tiers, product.Tier{MinQuantity: m, Percentage: p})
	}
	return tiers, nil
}

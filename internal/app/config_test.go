package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpstreef/screencloud-challenge/internal/domain/product"
)

func validConfig() Config {
	return Config{
		Addr:        defaultAddr,
		Storage:     StorageMemory,
		Product:     ProductConfig{ID: product.DefaultID, Name: product.DefaultName, UnitPriceCents: 15000, UnitWeightGrams: 365},
		Shipping:    ShippingConfig{RatePerKgKm: "0.01"},
		Fulfillment: FulfillmentConfig{MaxShippingPercent: 15},
		Tx:          TxConfig{MaxRetries: 3, RetryBase: 100 * time.Millisecond},
		RateLimit:   RateLimitConfig{Max: 100, Window: time.Minute},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "memory", mutate: func(*Config) {}},
		{name: "postgres", mutate: func(c *Config) {
			c.Storage = StoragePostgres
			c.DatabaseURL = "postgres://localhost/fulfillment"
		}},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage = StoragePostgres }, wantErr: "database URL is required"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage = "redis" }, wantErr: "unknown storage driver"},
		{name: "percent above 100", mutate: func(c *Config) { c.Fulfillment.MaxShippingPercent = 101 }, wantErr: "max shipping percent"},
		{name: "bad rate", mutate: func(c *Config) { c.Shipping.RatePerKgKm = "cheap" }, wantErr: "parse shipping rate"},
		{name: "negative rate", mutate: func(c *Config) { c.Shipping.RatePerKgKm = "-0.01" }, wantErr: "must not be negative"},
		{name: "negative weight", mutate: func(c *Config) { c.Product.UnitWeightGrams = -1 }, wantErr: "product weight"},
		{name: "missing product id", mutate: func(c *Config) { c.Product.ID = "" }, wantErr: "product id required"},
		{name: "bad tiers", mutate: func(c *Config) { c.Product.Tiers = "100-15" }, wantErr: "want min:percent"},
		{name: "discounted base tier", mutate: func(c *Config) { c.Product.Tiers = "0:5" }, wantErr: "invalid discount tier"},
		{name: "decreasing tiers", mutate: func(c *Config) { c.Product.Tiers = "250:5,25:20" }, wantErr: "invalid discount tier"},
		{name: "heavy product", mutate: func(c *Config) { c.Product.UnitWeightGrams = product.MaxUnitWeightGrams + 1 }, wantErr: "unit weight"},
		{name: "expensive product", mutate: func(c *Config) { c.Product.UnitPriceCents = product.MaxUnitPriceCents + 1 }, wantErr: "unit price"},
		{name: "rate above max", mutate: func(c *Config) { c.Shipping.RatePerKgKm = "1.01" }, wantErr: "must not exceed"},
		{name: "negative retries", mutate: func(c *Config) { c.Tx.MaxRetries = -1 }, wantErr: "tx max retries"},
		{name: "rate limit without window", mutate: func(c *Config) { c.RateLimit.Window = 0 }, wantErr: "rate limit window"},
		{name: "rate limit disabled", mutate: func(c *Config) { c.RateLimit = RateLimitConfig{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProductConfig_Build(t *testing.T) {
	cfg := validConfig()

	p, err := cfg.Product.Build()
	require.NoError(t, err)
	assert.Equal(t, product.Default().Tiers(), p.Tiers())
	assert.Equal(t, int64(15000), p.UnitPrice().Cents())
	assert.Equal(t, int64(365), p.UnitWeight().Grams())
}

func TestProductConfig_CustomTiers(t *testing.T) {
	cfg := validConfig()
	cfg.Product.Tiers = "10:5, 100:30"

	p, err := cfg.Product.Build()
	require.NoError(t, err)
	assert.Equal(t, 0, p.DiscountPercentage(9))
	assert.Equal(t, 5, p.DiscountPercentage(10))
	assert.Equal(t, 30, p.DiscountPercentage(250))
}

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")

	cfg := validConfig()
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)

	cfg = validConfig()
	cfg.Addr = "127.0.0.1:7000"
	cfg.DatabaseURL = "postgres://explicit/db"
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}

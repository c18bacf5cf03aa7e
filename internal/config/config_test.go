package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyhutmarket/storefront/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, time.Second, cfg.API.ProbeTimeout)
	assert.Equal(t, int64(1010), cfg.Pricing.TaxRateBps)
	assert.Equal(t, int64(1500), cfg.Pricing.DeliveryFeeCents)
	assert.Equal(t, 10, cfg.Orders.RecentLimit)
	assert.Equal(t, 30*time.Minute, cfg.Orders.CheckoutTTL)
	assert.Equal(t, 500, cfg.Orders.CheckoutLimit)
	assert.Equal(t, config.DriverBolt, cfg.Storage.Driver)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
app:
  port: "9000"
api:
  url: http://yaml.example
  probe_timeout: 2s
storage:
  driver: memory
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("API_URL=http://dotenv.example\nORDERS_RECENT_LIMIT=5\n"), 0o600))

	t.Setenv("APP_PORT", "9100")
	t.Cleanup(func() {
		os.Unsetenv("API_URL")
		os.Unsetenv("ORDERS_RECENT_LIMIT")
	})

	cfg, err := config.Load(yamlPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port, "process env wins over yaml")
	assert.Equal(t, "http://dotenv.example", cfg.API.URL, ".env wins over yaml")
	assert.Equal(t, 2*time.Second, cfg.API.ProbeTimeout, "yaml wins over defaults")
	assert.Equal(t, 5, cfg.Orders.RecentLimit)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *config.Config)
		wantErrMsg string
	}{
		{
			name:       "unknown_driver",
			mutate:     func(c *config.Config) { c.Storage.Driver = "redis" },
			wantErrMsg: `config: unknown storage driver "redis"`,
		},
		{
			name:       "postgres_requires_host",
			mutate:     func(c *config.Config) { c.Storage.Driver = config.DriverPostgres },
			wantErrMsg: "required for the postgres driver",
		},
		{
			name:       "deposit_percent_range",
			mutate:     func(c *config.Config) { c.Pricing.MinDepositPercent = 150 },
			wantErrMsg: "PRICING_MIN_DEPOSIT_PERCENT must be within 0..100, got 150",
		},
		{
			name:       "bad_timezone",
			mutate:     func(c *config.Config) { c.Orders.Timezone = "Mars/Olympus" },
			wantErrMsg: "invalid ORDERS_TIMEZONE",
		},
		{
			name:       "checkout_limit_positive",
			mutate:     func(c *config.Config) { c.Orders.CheckoutLimit = 0 },
			wantErrMsg: "ORDERS_CHECKOUT_LIMIT must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrMsg)
		})
	}
}

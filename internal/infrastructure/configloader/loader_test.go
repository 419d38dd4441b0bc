package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("defaults_applied_to_empty_config", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "{}"))
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Port)
		assert.Equal(t, "g.alchemy.com", cfg.Provider.BaseDomain)
		assert.Equal(t, 3, cfg.Provider.MaxRetries)
		assert.Equal(t, 30, cfg.DEXScreener.MaxTokensPerBatchRequest)
		assert.Equal(t, "memory", cfg.Cache.Backend)
		assert.Equal(t, 15, cfg.Pipeline.PriceCacheTTLMinutes)
		assert.Equal(t, 20, cfg.Pipeline.MetadataBatchSize)
		assert.Equal(t, 10, cfg.Pipeline.LogoRetryBatchLimit)
		assert.InDelta(t, 0.000001, cfg.Pipeline.MinTokenBalance, 1e-12)
		assert.InDelta(t, 0.01, cfg.Pipeline.MinValueUsd, 1e-12)
	})

	t.Run("explicit_values_kept", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
server:
  port: ":9090"
pipeline:
  priceCacheTTLMinutes: 30
  walletCacheTTLMinutes: 10
`))
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Port)
		assert.Equal(t, 30, cfg.Pipeline.PriceCacheTTLMinutes)
		assert.Equal(t, 10, cfg.Pipeline.WalletCacheTTLMinutes)
	})

	t.Run("wallet_ttl_clamped_to_price_ttl", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
pipeline:
  priceCacheTTLMinutes: 5
  walletCacheTTLMinutes: 60
`))
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Pipeline.WalletCacheTTLMinutes)
	})

	t.Run("secrets_come_from_environment", func(t *testing.T) {
		t.Setenv("BALANCES_PROVIDER_API_KEY", "test-provider-key")
		t.Setenv("COINGECKO_API_KEY", "test-gecko-key")
		t.Setenv("REDIS_PASSWORD", "test-redis-pass")

		cfg, err := Load(writeConfig(t, "{}"))
		require.NoError(t, err)
		assert.Equal(t, "test-provider-key", cfg.Provider.APIKey)
		assert.Equal(t, "test-gecko-key", cfg.CoinGecko.APIKey)
		assert.Equal(t, "test-redis-pass", cfg.Cache.Redis.Password)
	})

	t.Run("api_key_never_read_from_yaml", func(t *testing.T) {
		t.Setenv("BALANCES_PROVIDER_API_KEY", "")
		cfg, err := Load(writeConfig(t, `
provider:
  apiKey: "should-be-ignored"
`))
		require.NoError(t, err)
		assert.Empty(t, cfg.Provider.APIKey)
	})
}

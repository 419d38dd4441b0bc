package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet_balances/internal/domain/entity"
)

const checksummedUSDT = "0xdAC17F958D2ee523a2206206994597C13D831ec7"

func TestAssetRegistryLogoURL(t *testing.T) {
	t.Run("listed_token_found_via_ranged_probe", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ethereum/assets/"+checksummedUSDT+"/logo.png", r.URL.Path)
			assert.Equal(t, "bytes=0-0", r.Header.Get("Range"))
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte{0x89})
		}))
		defer server.Close()

		client := NewAssetRegistryClient(server.URL, time.Second, zap.NewNop())
		url, found, err := client.LogoURL(context.Background(), entity.Ethereum, checksummedUSDT)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, server.URL+"/ethereum/assets/"+checksummedUSDT+"/logo.png", url)
	})

	t.Run("unlisted_token_is_not_found_not_error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		client := NewAssetRegistryClient(server.URL, time.Second, zap.NewNop())
		_, found, err := client.LogoURL(context.Background(), entity.Ethereum, checksummedUSDT)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unreachable_registry_is_an_error", func(t *testing.T) {
		client := NewAssetRegistryClient("http://127.0.0.1:1", 100*time.Millisecond, zap.NewNop())
		_, found, err := client.LogoURL(context.Background(), entity.Ethereum, checksummedUSDT)
		assert.Error(t, err)
		assert.False(t, found)
	})

	t.Run("chain_without_registry_dir_skips_probe", func(t *testing.T) {
		client := NewAssetRegistryClient("http://127.0.0.1:1", time.Second, zap.NewNop())
		chain := entity.ChainDefinition{Identifier: "custom"}
		_, found, err := client.LogoURL(context.Background(), chain, checksummedUSDT)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

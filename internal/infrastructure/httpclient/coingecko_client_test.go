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

func TestCoinGeckoGetUsdPrice(t *testing.T) {
	t.Run("quoted_token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/simple/token_price/ethereum", r.URL.Path)
			assert.Equal(t, tokenA, r.URL.Query().Get("contract_addresses"))
			_, _ = w.Write([]byte(`{"` + tokenA + `":{"usd":1.001}}`))
		}))
		defer server.Close()

		client := NewCoinGeckoClient(server.URL, "", time.Second, zap.NewNop())
		price, found, err := client.GetUsdPrice(context.Background(), entity.Ethereum, tokenA)
		require.NoError(t, err)
		require.True(t, found)
		assert.InDelta(t, 1.001, price, 1e-9)
	})

	t.Run("unquoted_token_is_not_found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewCoinGeckoClient(server.URL, "", time.Second, zap.NewNop())
		_, found, err := client.GetUsdPrice(context.Background(), entity.Ethereum, tokenA)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("zero_quote_is_not_found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"` + tokenA + `":{"usd":0}}`))
		}))
		defer server.Close()

		client := NewCoinGeckoClient(server.URL, "", time.Second, zap.NewNop())
		_, found, err := client.GetUsdPrice(context.Background(), entity.Ethereum, tokenA)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("api_key_header_sent_when_configured", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewCoinGeckoClient(server.URL, "demo-key", time.Second, zap.NewNop())
		_, _, err := client.GetUsdPrice(context.Background(), entity.Ethereum, tokenA)
		require.NoError(t, err)
	})
}

func TestCoinGeckoContractImage(t *testing.T) {
	t.Run("prefers_small_image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/coins/ethereum/contract/"+tokenA, r.URL.Path)
			_, _ = w.Write([]byte(`{"image":{"thumb":"https://img.example.com/t.png","small":"https://img.example.com/s.png","large":"https://img.example.com/l.png"}}`))
		}))
		defer server.Close()

		client := NewCoinGeckoClient(server.URL, "", time.Second, zap.NewNop())
		url, found, err := client.ContractImage(context.Background(), entity.Ethereum, tokenA)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "https://img.example.com/s.png", url)
	})

	t.Run("unknown_contract_404_is_not_found", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		client := NewCoinGeckoClient(server.URL, "", time.Second, zap.NewNop())
		_, found, err := client.ContractImage(context.Background(), entity.Ethereum, tokenA)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("missing_image_placeholder_skipped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"image":{"small":"missing_small.png"}}`))
		}))
		defer server.Close()

		client := NewCoinGeckoClient(server.URL, "", time.Second, zap.NewNop())
		_, found, err := client.ContractImage(context.Background(), entity.Ethereum, tokenA)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

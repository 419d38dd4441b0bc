package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
	"wallet_balances/internal/pkg/metrics"
)

// contractInfoResponse carries the slice of the /coins/{platform}/contract
// payload we care about.
type contractInfoResponse struct {
	Image struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
}

// CoinGeckoClient is the secondary price source and the last-resort logo
// source. Both lookups key on the token contract address and the chain's
// CoinGecko platform identifier.
type CoinGeckoClient struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new CoinGeckoClient. apiKey may be empty; the
// public tier works without one at a lower rate limit.
func NewCoinGeckoClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *CoinGeckoClient {
	return &CoinGeckoClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

// GetUsdPrice implements port.ContractPriceSource. found=false covers both
// unknown tokens and tokens CoinGecko quotes at zero.
func (c *CoinGeckoClient) GetUsdPrice(ctx context.Context, chain entity.ChainDefinition, contract string) (float64, bool, error) {
	if chain.CoinGeckoPlatform == "" {
		return 0, false, nil
	}
	contract = strings.ToLower(contract)
	requestURL := fmt.Sprintf("%s/simple/token_price/%s?contract_addresses=%s&vs_currencies=usd",
		c.baseURL, chain.CoinGeckoPlatform, contract)

	rawBody, err := c.get(ctx, requestURL)
	metrics.ObserveUpstream(metrics.SourceCoinGecko, err)
	if err != nil {
		return 0, false, err
	}

	var parsed map[string]map[string]float64
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal CoinGecko price response: %w", err)
	}
	quote, exists := parsed[contract]
	if !exists {
		return 0, false, nil
	}
	price := quote["usd"]
	if price <= 0 {
		return 0, false, nil
	}
	return price, true, nil
}

// ContractImage implements port.ContractImageSource. Small is preferred,
// then thumb, then large.
func (c *CoinGeckoClient) ContractImage(ctx context.Context, chain entity.ChainDefinition, contract string) (string, bool, error) {
	if chain.CoinGeckoPlatform == "" {
		return "", false, nil
	}
	requestURL := fmt.Sprintf("%s/coins/%s/contract/%s",
		c.baseURL, chain.CoinGeckoPlatform, strings.ToLower(contract))

	rawBody, err := c.get(ctx, requestURL)
	metrics.ObserveUpstream(metrics.SourceCoinGecko, err)
	if err != nil {
		return "", false, err
	}

	var info contractInfoResponse
	if err := json.Unmarshal(rawBody, &info); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal CoinGecko contract response: %w", err)
	}
	for _, candidate := range []string{info.Image.Small, info.Image.Thumb, info.Image.Large} {
		if candidate != "" && candidate != "missing_small.png" {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

func (c *CoinGeckoClient) get(ctx context.Context, requestURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Error("Failed to execute request to CoinGecko", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}
	if resp.StatusCode() == fasthttp.StatusNotFound {
		// Unknown contract, not a transport failure.
		return []byte("{}"), nil
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("CoinGecko API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("CoinGecko request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

var (
	_ port.ContractPriceSource = (*CoinGeckoClient)(nil)
	_ port.ContractImageSource = (*CoinGeckoClient)(nil)
)

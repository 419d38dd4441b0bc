// Package httpclient holds the REST clients for the optional upstreams:
// the DEX aggregator, the CoinGecko oracle and the community asset registry.
package httpclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
	"wallet_balances/internal/pkg/metrics"
	"wallet_balances/internal/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// dexPair is the slice element of the DEX Screener tokens/v1 response.
type dexPair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
	} `json:"baseToken"`
	PriceUsd  string `json:"priceUsd"`
	Liquidity struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
}

// DEXScreenerClient implements port.BatchPriceSource against the DEX Screener
// tokens API. One request covers up to maxTokensPerRequest addresses; larger
// inputs are split and fetched sequentially.
type DEXScreenerClient struct {
	client              *fasthttp.Client
	baseURL             string
	timeout             time.Duration
	logger              *zap.Logger
	maxTokensPerRequest int
}

// NewDEXScreenerClient creates a new DEXScreenerClient.
func NewDEXScreenerClient(baseURL string, timeout time.Duration, maxTokensPerRequest int, logger *zap.Logger) *DEXScreenerClient {
	return &DEXScreenerClient{
		client:              &fasthttp.Client{},
		baseURL:             strings.TrimRight(baseURL, "/"),
		timeout:             timeout,
		logger:              logger.Named("DEXScreenerClient"),
		maxTokensPerRequest: maxTokensPerRequest,
	}
}

// GetUsdPrices implements port.BatchPriceSource. For tokens quoted on several
// pairs the most liquid pair wins. Addresses without a usable quote are absent
// from the result.
func (c *DEXScreenerClient) GetUsdPrices(ctx context.Context, chain entity.ChainDefinition, contracts []string) (map[string]float64, error) {
	if len(contracts) == 0 {
		return map[string]float64{}, nil
	}

	prices := make(map[string]float64)
	liquidity := make(map[string]float64)

	for _, batch := range utils.BatchStrings(contracts, c.maxTokensPerRequest) {
		pairs, err := c.fetchPairs(ctx, chain.DEXScreenerChainID, batch)
		if err != nil {
			return nil, err
		}
		for _, pair := range pairs {
			address := strings.ToLower(pair.BaseToken.Address)
			price, parseErr := strconv.ParseFloat(pair.PriceUsd, 64)
			if parseErr != nil || price <= 0 {
				continue
			}
			if pair.Liquidity.Usd < liquidity[address] {
				continue
			}
			prices[address] = price
			liquidity[address] = pair.Liquidity.Usd
		}
	}

	c.logger.Debug("DEX Screener prices resolved",
		zap.String("chain", chain.Identifier),
		zap.Int("requested", len(contracts)),
		zap.Int("priced", len(prices)))
	return prices, nil
}

func (c *DEXScreenerClient) fetchPairs(ctx context.Context, dexChainID string, addresses []string) ([]dexPair, error) {
	requestURL := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, dexChainID, strings.Join(addresses, ","))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	err := c.doWithDeadline(ctx, req, resp)
	metrics.ObserveUpstream(metrics.SourceDEXScreener, err)
	if err != nil {
		c.logger.Error("Failed to execute request to DEX Screener", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("DEX Screener API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("DEX Screener API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	var pairs []dexPair
	if err := json.Unmarshal(rawBody, &pairs); err != nil {
		c.logger.Error("Failed to unmarshal DEX Screener response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal DEX Screener response from %s: %w", requestURL, err)
	}
	return pairs, nil
}

func (c *DEXScreenerClient) doWithDeadline(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.DoTimeout(req, resp, c.timeout)
}

var _ port.BatchPriceSource = (*DEXScreenerClient)(nil)

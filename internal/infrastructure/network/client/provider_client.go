// Package client implements the balances-provider client: the JSON-RPC
// token API that is the pipeline's one non-optional upstream.
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
	"wallet_balances/internal/infrastructure/configloader"
	"wallet_balances/internal/pkg/metrics"
)

// tokenBalancesResponse mirrors the provider's getTokenBalances payload.
type tokenBalancesResponse struct {
	Address       string `json:"address"`
	TokenBalances []struct {
		ContractAddress string  `json:"contractAddress"`
		TokenBalance    string  `json:"tokenBalance"`
		Error           *string `json:"error"`
	} `json:"tokenBalances"`
	PageKey string `json:"pageKey"`
}

// ProviderClient talks to the balances provider over JSON-RPC. One rpc.Client
// is dialed lazily per chain and reused; a shared limiter keeps the combined
// call rate under the provider's plan limits.
type ProviderClient struct {
	cfg     configloader.ProviderConfig
	logger  *zap.Logger
	limiter *rate.Limiter

	mu      sync.Mutex
	clients map[string]*rpc.Client
}

// NewProviderClient creates a provider client. Fails fast when no API key is
// configured, since every call would fail anyway.
func NewProviderClient(cfg configloader.ProviderConfig, logger *zap.Logger) (*ProviderClient, error) {
	if cfg.APIKey == "" {
		return nil, entity.ErrMissingProviderKey
	}
	return &ProviderClient{
		cfg:     cfg,
		logger:  logger.Named("ProviderClient"),
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		clients: make(map[string]*rpc.Client),
	}, nil
}

// clientFor returns the cached rpc.Client for a chain, dialing on first use.
func (c *ProviderClient) clientFor(ctx context.Context, chain entity.ChainDefinition) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, exists := c.clients[chain.Identifier]; exists {
		return client, nil
	}

	endpoint := fmt.Sprintf("https://%s.%s/v2/%s", chain.ProviderNetwork, c.cfg.BaseDomain, c.cfg.APIKey)
	dialCtx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	client, err := rpc.DialContext(dialCtx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial provider for %s: %w", chain.Identifier, err)
	}
	c.clients[chain.Identifier] = client
	c.logger.Info("Provider RPC client created", zap.String("chain", chain.Identifier))
	return client, nil
}

// GetTokenBalances fetches all ERC-20 balances for a wallet. This call is
// fatal on failure, so it is retried before the error propagates.
func (c *ProviderClient) GetTokenBalances(ctx context.Context, chain entity.ChainDefinition, wallet string) ([]entity.RawTokenBalance, error) {
	client, err := c.clientFor(ctx, chain)
	if err != nil {
		metrics.ObserveUpstream(metrics.SourceBalances, err)
		return nil, fmt.Errorf("%w: %v", entity.ErrBalanceFetch, err)
	}

	var resp tokenBalancesResponse
	err = retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout())
			defer cancel()
			return client.CallContext(callCtx, &resp, "alchemy_getTokenBalances", common.HexToAddress(wallet), "erc20")
		},
		retry.Attempts(uint(c.cfg.MaxRetries)),
		retry.Delay(200*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	metrics.ObserveUpstream(metrics.SourceBalances, err)
	if err != nil {
		c.logger.Error("Token balances fetch failed",
			zap.String("chain", chain.Identifier),
			zap.String("wallet", wallet),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", entity.ErrBalanceFetch, err)
	}

	balances := make([]entity.RawTokenBalance, 0, len(resp.TokenBalances))
	for _, tb := range resp.TokenBalances {
		if tb.Error != nil {
			c.logger.Debug("Provider reported per-token balance error",
				zap.String("contract", tb.ContractAddress),
				zap.String("error", *tb.Error))
			continue
		}
		balances = append(balances, entity.RawTokenBalance{
			ContractAddress: strings.ToLower(tb.ContractAddress),
			RawBalanceHex:   tb.TokenBalance,
		})
	}
	return balances, nil
}

// GetTokenMetadata fetches symbol/name/decimals/logo for one contract.
// Failures here degrade per token, so there is no retry loop.
func (c *ProviderClient) GetTokenMetadata(ctx context.Context, chain entity.ChainDefinition, contract string) (entity.ProviderTokenMetadata, error) {
	client, err := c.clientFor(ctx, chain)
	if err != nil {
		metrics.ObserveUpstream(metrics.SourceBalances, err)
		return entity.ProviderTokenMetadata{}, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return entity.ProviderTokenMetadata{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.MetadataTimeoutMillis)*time.Millisecond)
	defer cancel()

	var meta entity.ProviderTokenMetadata
	err = client.CallContext(callCtx, &meta, "alchemy_getTokenMetadata", common.HexToAddress(contract))
	metrics.ObserveUpstream(metrics.SourceBalances, err)
	if err != nil {
		return entity.ProviderTokenMetadata{}, fmt.Errorf("fetching metadata for %s: %w", contract, err)
	}
	return meta, nil
}

func (c *ProviderClient) requestTimeout() time.Duration {
	return time.Duration(c.cfg.RequestTimeoutMillis) * time.Millisecond
}

var _ port.BalancesProvider = (*ProviderClient)(nil)

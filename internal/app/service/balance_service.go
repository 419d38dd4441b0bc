package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond/v2"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
	"wallet_balances/internal/infrastructure/cachestore"
	"wallet_balances/internal/pkg/metrics"
	"wallet_balances/internal/pkg/utils"
)

// BalancePipelineConfig tunes the orchestrator.
type BalancePipelineConfig struct {
	WalletCacheTTL      time.Duration
	MetadataBatchSize   int
	LogoRetryBatchLimit int
	LogoRetryInterval   time.Duration
	MinTokenBalance     float64
	MinValueUsd         float64
}

// balanceService runs the full pipeline for one wallet: raw balances from the
// provider, metadata and logos from the permanent bulk cache with concurrent
// enrichment for unknown contracts, prices from the price service, then the
// dust filter and the display sort. Only the raw balance fetch can fail a
// request; every other stage degrades.
type balanceService struct {
	provider port.BalancesProvider
	prices   port.PriceService
	logos    port.LogoResolver
	store    port.CacheStore
	pool     pond.Pool
	cfg      BalancePipelineConfig
	logger   port.Logger
}

// holding is one nonzero raw balance awaiting enrichment.
type holding struct {
	contract string
	amount   *big.Int
}

// NewBalanceService creates a BalanceService. The internal worker pool caps
// concurrent metadata enrichment at cfg.MetadataBatchSize.
func NewBalanceService(provider port.BalancesProvider, prices port.PriceService, logos port.LogoResolver, store port.CacheStore, cfg BalancePipelineConfig, logger port.Logger) port.BalanceService {
	if cfg.MetadataBatchSize <= 0 {
		cfg.MetadataBatchSize = 20
	}
	return &balanceService{
		provider: provider,
		prices:   prices,
		logos:    logos,
		store:    store,
		pool:     pond.NewPool(cfg.MetadataBatchSize),
		cfg:      cfg,
		logger:   logger,
	}
}

// GetWalletBalances implements port.BalanceService.
func (s *balanceService) GetWalletBalances(ctx context.Context, chain entity.ChainDefinition, wallet string, forceRefresh bool) ([]entity.TokenBalance, error) {
	start := time.Now()
	walletKey := entity.WalletCacheKey(chain.Identifier, wallet)

	if !forceRefresh {
		snapshot, found := cachestore.Get[entity.CachedWalletBalances](ctx, s.store, s.logger, metrics.TierWallet, walletKey)
		if found && !snapshot.Expired(time.Now(), s.cfg.WalletCacheTTL) {
			metrics.CacheHits.WithLabelValues(metrics.TierWallet).Inc()
			metrics.RequestDuration.WithLabelValues(chain.Identifier, "hit").Observe(time.Since(start).Seconds())
			return snapshot.Tokens, nil
		}
		metrics.CacheMisses.WithLabelValues(metrics.TierWallet).Inc()
	}

	holdings, err := s.fetchHoldings(ctx, chain, wallet)
	if err != nil {
		return nil, err
	}

	catalog := s.loadMetadata(ctx, chain)
	s.enrich(ctx, chain, holdings, catalog)
	tokens := s.assemble(ctx, chain, holdings, catalog)

	snapshot := entity.CachedWalletBalances{Tokens: tokens, CachedAt: time.Now().UnixMilli()}
	bg := context.WithoutCancel(ctx)
	go cachestore.Put(bg, s.store, s.logger, metrics.TierWallet, walletKey, snapshot, s.cfg.WalletCacheTTL)

	metrics.RequestDuration.WithLabelValues(chain.Identifier, "miss").Observe(time.Since(start).Seconds())
	return tokens, nil
}

// fetchHoldings pulls raw balances and keeps only nonzero amounts. The
// zero check runs on the raw integer, before any float scaling.
func (s *balanceService) fetchHoldings(ctx context.Context, chain entity.ChainDefinition, wallet string) ([]holding, error) {
	raw, err := s.provider.GetTokenBalances(ctx, chain, wallet)
	if err != nil {
		return nil, err
	}

	holdings := make([]holding, 0, len(raw))
	for _, balance := range raw {
		// The zero address is the native-asset placeholder, not an ERC-20.
		if balance.ContractAddress == entity.ZeroAddress {
			continue
		}
		amount, parseErr := utils.ParseHexAmount(balance.RawBalanceHex)
		if parseErr != nil {
			s.logger.Debug("Skipping token with malformed balance",
				"chain", chain.Identifier, "contract", balance.ContractAddress, "error", parseErr)
			continue
		}
		if amount.Sign() == 0 {
			continue
		}
		holdings = append(holdings, holding{contract: balance.ContractAddress, amount: amount})
	}
	s.logger.Debug("Raw balances fetched",
		"chain", chain.Identifier, "wallet", wallet, "total", len(raw), "nonzero", len(holdings))
	return holdings, nil
}

// loadMetadata reads the chain's bulk metadata entry, returning an empty
// catalog on a miss.
func (s *balanceService) loadMetadata(ctx context.Context, chain entity.ChainDefinition) entity.BulkTokenMetadata {
	key := entity.MetadataCacheKey(chain.Identifier)
	catalog, found := cachestore.Get[entity.BulkTokenMetadata](ctx, s.store, s.logger, metrics.TierMetadata, key)
	if found {
		metrics.CacheHits.WithLabelValues(metrics.TierMetadata).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(metrics.TierMetadata).Inc()
	}
	if catalog.Tokens == nil {
		catalog.Tokens = make(map[string]entity.CachedTokenMetadata)
	}
	return catalog
}

// enrich fills the catalog for unknown contracts and re-probes a bounded
// number of logo-less known ones, then persists whatever it learned. Failed
// metadata fetches leave their contract out of the catalog; those tokens
// drop from this response and are retried on the next request.
func (s *balanceService) enrich(ctx context.Context, chain entity.ChainDefinition, holdings []holding, catalog entity.BulkTokenMetadata) {
	now := time.Now()
	var unknown, retryDue []string
	for _, h := range holdings {
		meta, known := catalog.Tokens[h.contract]
		switch {
		case !known:
			unknown = append(unknown, h.contract)
		case meta.LogoRetryDue(now, s.cfg.LogoRetryInterval) && len(retryDue) < s.cfg.LogoRetryBatchLimit:
			retryDue = append(retryDue, h.contract)
		}
	}
	if len(unknown) == 0 && len(retryDue) == 0 {
		return
	}

	updates := make(map[string]entity.CachedTokenMetadata)
	var mu sync.Mutex
	group := s.pool.NewGroupContext(ctx)

	for _, contract := range unknown {
		group.Submit(func() {
			meta, err := s.fetchCompleteMetadata(ctx, chain, contract)
			if err != nil {
				s.logger.Debug("Token metadata unavailable, skipping token",
					"chain", chain.Identifier, "contract", contract, "error", err)
				return
			}
			record := entity.CachedTokenMetadata{
				Symbol:        meta.Symbol,
				Name:          meta.Name,
				Decimals:      *meta.Decimals,
				LogoCheckedAt: time.Now().UnixMilli(),
			}
			if url, ok := s.logos.Resolve(ctx, chain, contract, meta.Logo); ok {
				record.LogoURL = url
			}
			mu.Lock()
			updates[contract] = record
			mu.Unlock()
		})
	}
	for _, contract := range retryDue {
		group.Submit(func() {
			record := catalog.Tokens[contract]
			record.LogoCheckedAt = time.Now().UnixMilli()
			if url, ok := s.logos.Resolve(ctx, chain, contract, ""); ok {
				record.LogoURL = url
			}
			mu.Lock()
			updates[contract] = record
			mu.Unlock()
		})
	}
	if err := group.Wait(); err != nil {
		s.logger.Warn("Metadata enrichment interrupted", "chain", chain.Identifier, "error", err)
	}

	if len(updates) == 0 {
		return
	}
	for contract, record := range updates {
		catalog.Tokens[contract] = record
	}
	s.persistMetadata(ctx, chain, updates)
}

// fetchCompleteMetadata pulls provider metadata for one contract, retrying
// once on a transient failure so a single flaky call does not drop a real
// balance. A record missing any of symbol, name or decimals is rejected
// with entity.ErrIncompleteMetadata.
func (s *balanceService) fetchCompleteMetadata(ctx context.Context, chain entity.ChainDefinition, contract string) (entity.ProviderTokenMetadata, error) {
	meta, err := s.provider.GetTokenMetadata(ctx, chain, contract)
	if err != nil {
		meta, err = s.provider.GetTokenMetadata(ctx, chain, contract)
	}
	if err != nil {
		return entity.ProviderTokenMetadata{}, err
	}
	if !meta.Complete() {
		return entity.ProviderTokenMetadata{}, fmt.Errorf("%w: %s", entity.ErrIncompleteMetadata, contract)
	}
	return meta, nil
}

// persistMetadata merges learned records into the stored bulk entry in the
// background. Merging against a re-read copy keeps records learned by
// concurrent requests; a resolved logo is never replaced with an empty one.
func (s *balanceService) persistMetadata(ctx context.Context, chain entity.ChainDefinition, updates map[string]entity.CachedTokenMetadata) {
	bg := context.WithoutCancel(ctx)
	go func() {
		key := entity.MetadataCacheKey(chain.Identifier)
		merged := entity.BulkTokenMetadata{Tokens: make(map[string]entity.CachedTokenMetadata)}
		if current, found := cachestore.Get[entity.BulkTokenMetadata](bg, s.store, s.logger, metrics.TierMetadata, key); found {
			for contract, record := range current.Tokens {
				merged.Tokens[contract] = record
			}
		}
		for contract, record := range updates {
			if existing, ok := merged.Tokens[contract]; ok && existing.HasLogo() && !record.HasLogo() {
				record.LogoURL = existing.LogoURL
			}
			merged.Tokens[contract] = record
		}
		cachestore.Put(bg, s.store, s.logger, metrics.TierMetadata, key, merged, 0)
	}()
}

// assemble prices the holdings, applies the dust filter and produces the
// final sorted list.
func (s *balanceService) assemble(ctx context.Context, chain entity.ChainDefinition, holdings []holding, catalog entity.BulkTokenMetadata) []entity.TokenBalance {
	contracts := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if _, known := catalog.Tokens[h.contract]; known {
			contracts = append(contracts, h.contract)
		}
	}
	prices := s.prices.GetUsdPrices(ctx, chain, contracts)

	type entry struct {
		token entity.TokenBalance
		human float64
	}
	entries := make([]entry, 0, len(holdings))
	for _, h := range holdings {
		meta, known := catalog.Tokens[h.contract]
		if !known {
			continue
		}
		token := entity.TokenBalance{
			ContractAddress:  h.contract,
			Symbol:           meta.Symbol,
			Name:             meta.Name,
			Decimals:         meta.Decimals,
			Balance:          h.amount.String(),
			BalanceFormatted: utils.FormatBigInt(h.amount, meta.Decimals),
			LogoURL:          meta.LogoURL,
		}
		if price, priced := prices[h.contract]; priced {
			token.PriceUsd = price
			token.BalanceUsd = utils.CalculateValueUSD(h.amount, meta.Decimals, price)
		}

		human := utils.HumanValue(h.amount, meta.Decimals)
		if human < s.cfg.MinTokenBalance {
			continue
		}
		if token.IsPriced() && token.BalanceUsd < s.cfg.MinValueUsd {
			continue
		}
		entries = append(entries, entry{token: token, human: human})
	}

	// Priced tokens first by USD value, unpriced after by display amount.
	// Stable keeps the provider's order between equals.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.token.IsPriced() != b.token.IsPriced() {
			return a.token.IsPriced()
		}
		if a.token.IsPriced() {
			return a.token.BalanceUsd > b.token.BalanceUsd
		}
		return a.human > b.human
	})

	tokens := make([]entity.TokenBalance, len(entries))
	for i, e := range entries {
		tokens[i] = e.token
	}
	return tokens
}

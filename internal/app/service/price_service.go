package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
	"wallet_balances/internal/infrastructure/cachestore"
	"wallet_balances/internal/pkg/metrics"
)

// PriceServiceConfig tunes the bulk price tier and the oracle fallback chain.
type PriceServiceConfig struct {
	CacheTTL             time.Duration
	BatchSourceTimeout   time.Duration
	ContractLookupLimit  int
	ContractQueryTimeout time.Duration
}

// priceService owns the per-chain bulk price cache. Unknown addresses go to
// the DEX aggregator in one batch, leftovers to CoinGecko one by one. Zero
// prices are never stored and never overwrite a cached positive price, so a
// flaky oracle can only ever make the cache less complete, not wrong.
type priceService struct {
	store     port.CacheStore
	batch     port.BatchPriceSource
	secondary port.ContractPriceSource
	cfg       PriceServiceConfig
	logger    port.Logger
}

// NewPriceService creates a PriceService.
func NewPriceService(store port.CacheStore, batch port.BatchPriceSource, secondary port.ContractPriceSource, cfg PriceServiceConfig, logger port.Logger) port.PriceService {
	if cfg.ContractLookupLimit <= 0 {
		cfg.ContractLookupLimit = 4
	}
	return &priceService{
		store:     store,
		batch:     batch,
		secondary: secondary,
		cfg:       cfg,
		logger:    logger,
	}
}

// GetUsdPrices implements port.PriceService. Pricing is best-effort
// throughout: oracle failures log and degrade, they never fail the request.
func (s *priceService) GetUsdPrices(ctx context.Context, chain entity.ChainDefinition, contracts []string) map[string]float64 {
	result := make(map[string]float64, len(contracts))
	if len(contracts) == 0 {
		return result
	}

	key := entity.PriceCacheKey(chain.Identifier)
	cached, found := cachestore.Get[entity.BulkPriceCache](ctx, s.store, s.logger, metrics.TierPrice, key)
	fresh := found && !cached.Expired(time.Now(), s.cfg.CacheTTL)
	if fresh {
		metrics.CacheHits.WithLabelValues(metrics.TierPrice).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(metrics.TierPrice).Inc()
	}

	var unknown []string
	for _, contract := range contracts {
		contract = strings.ToLower(contract)
		if fresh {
			if price, ok := cached.Prices[contract]; ok && price > 0 {
				result[contract] = price
				continue
			}
		}
		unknown = append(unknown, contract)
	}
	if len(unknown) == 0 {
		return result
	}

	fetched := s.fetchUnknown(ctx, chain, unknown)
	for contract, price := range fetched {
		result[contract] = price
	}
	if len(fetched) > 0 {
		s.persist(ctx, chain, fetched)
	}
	return result
}

// fetchUnknown runs the oracle fallback chain: one batch request first, then
// per-contract lookups for whatever the batch did not cover.
func (s *priceService) fetchUnknown(ctx context.Context, chain entity.ChainDefinition, unknown []string) map[string]float64 {
	fetched := make(map[string]float64, len(unknown))

	batchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchSourceTimeout)
	batchPrices, err := s.batch.GetUsdPrices(batchCtx, chain, unknown)
	cancel()
	if err != nil {
		s.logger.Warn("Batch price source failed, falling back to per-contract lookups",
			"chain", chain.Identifier, "contracts", len(unknown), "error", err)
	}
	for contract, price := range batchPrices {
		if price > 0 {
			fetched[strings.ToLower(contract)] = price
		}
	}

	var leftover []string
	for _, contract := range unknown {
		if _, ok := fetched[contract]; !ok {
			leftover = append(leftover, contract)
		}
	}
	if len(leftover) == 0 {
		return fetched
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.ContractLookupLimit)
	for _, contract := range leftover {
		group.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(groupCtx, s.cfg.ContractQueryTimeout)
			defer cancel()
			price, ok, err := s.secondary.GetUsdPrice(lookupCtx, chain, contract)
			if err != nil {
				s.logger.Debug("Secondary price lookup failed",
					"chain", chain.Identifier, "contract", contract, "error", err)
				return nil
			}
			if ok {
				mu.Lock()
				fetched[contract] = price
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()
	return fetched
}

// persist merges newly fetched prices into the bulk entry and writes it back
// in the background. Read-merge-write keeps prices learned by concurrent
// requests; the last writer's CachedAt wins, which only shifts expiry by
// seconds.
func (s *priceService) persist(ctx context.Context, chain entity.ChainDefinition, fetched map[string]float64) {
	bg := context.WithoutCancel(ctx)
	go func() {
		key := entity.PriceCacheKey(chain.Identifier)
		merged := entity.BulkPriceCache{
			Prices:   make(map[string]float64),
			CachedAt: time.Now().UnixMilli(),
		}
		// Merge only a still-fresh entry; folding an expired one in would
		// resurrect stale prices under the new CachedAt.
		if current, found := cachestore.Get[entity.BulkPriceCache](bg, s.store, s.logger, metrics.TierPrice, key); found && !current.Expired(time.Now(), s.cfg.CacheTTL) {
			for contract, price := range current.Prices {
				if price > 0 {
					merged.Prices[contract] = price
				}
			}
		}
		for contract, price := range fetched {
			merged.Prices[contract] = price
		}
		cachestore.Put(bg, s.store, s.logger, metrics.TierPrice, key, merged, s.cfg.CacheTTL)
	}()
}

// Package service contains the application services: the balance pipeline
// orchestrator and its price, logo and image-hosting collaborators.
package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
)

// LogoResolverConfig carries the per-source probe timeouts.
type LogoResolverConfig struct {
	RegistryTimeout  time.Duration
	ProviderTimeout  time.Duration
	CoinGeckoTimeout time.Duration
}

// logoResolver walks the logo sources in fixed order: the community registry
// first (curated, stable URLs), then the balances provider's token metadata,
// then the CoinGecko contract image. Each source gets its own timeout so one
// slow upstream cannot stall the whole enrichment batch.
type logoResolver struct {
	registry   port.LogoRegistry
	provider   port.BalancesProvider
	images     port.ContractImageSource
	imageCache port.ImageCache
	cfg        LogoResolverConfig
	logger     port.Logger
}

// NewLogoResolver creates a LogoResolver. imageCache re-hosts whatever URL
// wins; pass a NoopImageCache when re-hosting is disabled.
func NewLogoResolver(registry port.LogoRegistry, provider port.BalancesProvider, images port.ContractImageSource, imageCache port.ImageCache, cfg LogoResolverConfig, logger port.Logger) port.LogoResolver {
	return &logoResolver{
		registry:   registry,
		provider:   provider,
		images:     images,
		imageCache: imageCache,
		cfg:        cfg,
		logger:     logger,
	}
}

// Resolve implements port.LogoResolver. When the caller already holds the
// provider's logo candidate it is reused; otherwise the provider metadata
// endpoint is queried, keeping the source order intact on retry passes.
// Source errors are logged and treated as not-found; a missing logo is
// cosmetic.
func (r *logoResolver) Resolve(ctx context.Context, chain entity.ChainDefinition, contract, providerLogo string) (string, bool) {
	if url, ok := r.fromRegistry(ctx, chain, contract); ok {
		return r.rehost(ctx, url), true
	}
	if providerLogo == "" {
		providerLogo = r.fromProvider(ctx, chain, contract)
	}
	if providerLogo != "" {
		return r.rehost(ctx, providerLogo), true
	}
	if url, ok := r.fromCoinGecko(ctx, chain, contract); ok {
		return r.rehost(ctx, url), true
	}
	return "", false
}

func (r *logoResolver) fromRegistry(ctx context.Context, chain entity.ChainDefinition, contract string) (string, bool) {
	// The registry's asset paths use EIP-55 checksum casing.
	checksummed := common.HexToAddress(contract).Hex()

	probeCtx, cancel := context.WithTimeout(ctx, r.cfg.RegistryTimeout)
	defer cancel()

	url, found, err := r.registry.LogoURL(probeCtx, chain, checksummed)
	if err != nil {
		r.logger.Debug("Registry logo probe failed", "chain", chain.Identifier, "contract", contract, "error", err)
		return "", false
	}
	return url, found
}

// fromProvider asks the balances provider's token-metadata endpoint for a
// logo candidate. Used on logo retry passes, where no metadata round trip
// already holds one.
func (r *logoResolver) fromProvider(ctx context.Context, chain entity.ChainDefinition, contract string) string {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.ProviderTimeout)
	defer cancel()

	meta, err := r.provider.GetTokenMetadata(fetchCtx, chain, contract)
	if err != nil {
		r.logger.Debug("Provider logo lookup failed", "chain", chain.Identifier, "contract", contract, "error", err)
		return ""
	}
	return meta.Logo
}

func (r *logoResolver) fromCoinGecko(ctx context.Context, chain entity.ChainDefinition, contract string) (string, bool) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.cfg.CoinGeckoTimeout)
	defer cancel()

	url, found, err := r.images.ContractImage(lookupCtx, chain, contract)
	if err != nil {
		r.logger.Debug("CoinGecko logo lookup failed", "chain", chain.Identifier, "contract", contract, "error", err)
		return "", false
	}
	return url, found
}

// rehost funnels a resolved URL through the image cache. On any failure the
// original URL is served as-is.
func (r *logoResolver) rehost(ctx context.Context, originalURL string) string {
	hosted, err := r.imageCache.Cache(ctx, originalURL)
	if err != nil {
		r.logger.Debug("Logo re-hosting failed, serving original URL", "url", originalURL, "error", err)
		return originalURL
	}
	return hosted
}

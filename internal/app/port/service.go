package port

import (
	"context"

	"wallet_balances/internal/domain/entity"
)

// BalanceService is the orchestrator: raw balances in, display-ready token
// list out. forceRefresh skips the wallet-cache check but still reads the
// metadata and price tiers.
type BalanceService interface {
	GetWalletBalances(ctx context.Context, chain entity.ChainDefinition, wallet string, forceRefresh bool) ([]entity.TokenBalance, error)
}

// LogoResolver tries the ordered logo sources and returns the first hit.
// providerLogo is the candidate already returned by the balances provider, if
// any. found=false means every source was exhausted; that is a valid,
// cacheable terminal state.
type LogoResolver interface {
	Resolve(ctx context.Context, chain entity.ChainDefinition, contract, providerLogo string) (string, bool)
}

// ImageCache re-hosts a logo at a content-addressed location exactly once.
type ImageCache interface {
	// Cache returns the hosted URL for originalURL, uploading on first sight.
	// Errors mean the value is unusable; best-effort callers fall back to the
	// original URL.
	Cache(ctx context.Context, originalURL string) (string, error)
}

// PriceService owns the bulk price tier: cached reads plus the oracle
// fallback chain for unknown addresses. The result maps lowercased contract
// addresses to positive USD prices; unknown addresses are absent.
type PriceService interface {
	GetUsdPrices(ctx context.Context, chain entity.ChainDefinition, contracts []string) map[string]float64
}

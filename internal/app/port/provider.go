package port

import (
	"context"

	"wallet_balances/internal/domain/entity"
)

// BalancesProvider is the one non-optional upstream: the token-balances RPC
// provider. GetTokenBalances failing is fatal for a request; GetTokenMetadata
// failures degrade per token.
type BalancesProvider interface {
	GetTokenBalances(ctx context.Context, chain entity.ChainDefinition, wallet string) ([]entity.RawTokenBalance, error)
	GetTokenMetadata(ctx context.Context, chain entity.ChainDefinition, contract string) (entity.ProviderTokenMetadata, error)
}

// BatchPriceSource answers one multi-address USD price query. Addresses the
// source has no quote for are simply absent from the result; a present zero
// must be treated by callers as absent.
type BatchPriceSource interface {
	GetUsdPrices(ctx context.Context, chain entity.ChainDefinition, contracts []string) (map[string]float64, error)
}

// ContractPriceSource answers single-contract price lookups; it is the retry
// target for addresses the batch source did not cover.
type ContractPriceSource interface {
	GetUsdPrice(ctx context.Context, chain entity.ChainDefinition, contract string) (float64, bool, error)
}

// LogoRegistry probes a community asset registry for a token logo by
// checksummed address. found=false with nil error is the normal not-listed
// outcome.
type LogoRegistry interface {
	LogoURL(ctx context.Context, chain entity.ChainDefinition, checksummedAddress string) (string, bool, error)
}

// ContractImageSource looks a token up on a price oracle and extracts an
// image URL if the oracle carries one.
type ContractImageSource interface {
	ContractImage(ctx context.Context, chain entity.ChainDefinition, contract string) (string, bool, error)
}

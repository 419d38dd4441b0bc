package entity

// ZeroAddress represents the EVM zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ChainDefinition holds everything the pipeline needs to know about one
// supported chain: the balances-provider network slug, the asset-registry
// directory and the oracle platform identifiers.
type ChainDefinition struct {
	ChainID            uint64 `json:"chainId" yaml:"chainId"`
	Name               string `json:"name" yaml:"name"`
	Identifier         string `json:"identifier" yaml:"identifier"`
	NativeSymbol       string `json:"nativeSymbol" yaml:"nativeSymbol"`
	ProviderNetwork    string `json:"providerNetwork" yaml:"providerNetwork"`
	RegistryDir        string `json:"registryDir" yaml:"registryDir"`
	CoinGeckoPlatform  string `json:"coinGeckoPlatform" yaml:"coinGeckoPlatform"`
	DEXScreenerChainID string `json:"dexScreenerChainId" yaml:"dexScreenerChainId"`
	BlockExplorerURL   string `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
}

// Predefined chain definitions.
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = ChainDefinition{
		ChainID:            1,
		Name:               "Ethereum Mainnet",
		Identifier:         "ethereum",
		NativeSymbol:       "ETH",
		ProviderNetwork:    "eth-mainnet",
		RegistryDir:        "ethereum",
		CoinGeckoPlatform:  "ethereum",
		DEXScreenerChainID: "ethereum",
		BlockExplorerURL:   "https://etherscan.io",
	}
	Polygon = ChainDefinition{
		ChainID:            137,
		Name:               "Polygon PoS",
		Identifier:         "polygon",
		NativeSymbol:       "POL",
		ProviderNetwork:    "polygon-mainnet",
		RegistryDir:        "polygon",
		CoinGeckoPlatform:  "polygon-pos",
		DEXScreenerChainID: "polygon",
		BlockExplorerURL:   "https://polygonscan.com",
	}
	Arbitrum = ChainDefinition{
		ChainID:            42161,
		Name:               "Arbitrum One",
		Identifier:         "arbitrum",
		NativeSymbol:       "ETH",
		ProviderNetwork:    "arb-mainnet",
		RegistryDir:        "arbitrum",
		CoinGeckoPlatform:  "arbitrum-one",
		DEXScreenerChainID: "arbitrum",
		BlockExplorerURL:   "https://arbiscan.io",
	}
	Optimism = ChainDefinition{
		ChainID:            10,
		Name:               "OP Mainnet",
		Identifier:         "optimism",
		NativeSymbol:       "ETH",
		ProviderNetwork:    "opt-mainnet",
		RegistryDir:        "optimism",
		CoinGeckoPlatform:  "optimistic-ethereum",
		DEXScreenerChainID: "optimism",
		BlockExplorerURL:   "https://optimistic.etherscan.io",
	}
	Base = ChainDefinition{
		ChainID:            8453,
		Name:               "Base Mainnet",
		Identifier:         "base",
		NativeSymbol:       "ETH",
		ProviderNetwork:    "base-mainnet",
		RegistryDir:        "base",
		CoinGeckoPlatform:  "base",
		DEXScreenerChainID: "base",
		BlockExplorerURL:   "https://basescan.org",
	}
	BSC = ChainDefinition{
		ChainID:            56,
		Name:               "BNB Smart Chain",
		Identifier:         "bsc",
		NativeSymbol:       "BNB",
		ProviderNetwork:    "bnb-mainnet",
		RegistryDir:        "smartchain",
		CoinGeckoPlatform:  "binance-smart-chain",
		DEXScreenerChainID: "bsc",
		BlockExplorerURL:   "https://bscscan.com",
	}
)

// allKnownChains indexes the predefined definitions by identifier.
var allKnownChains = map[string]ChainDefinition{
	Ethereum.Identifier: Ethereum,
	Polygon.Identifier:  Polygon,
	Arbitrum.Identifier: Arbitrum,
	Optimism.Identifier: Optimism,
	Base.Identifier:     Base,
	BSC.Identifier:      BSC,
}

// ChainByIdentifier returns the definition for an identifier such as
// "ethereum", and false when the chain is not supported.
func ChainByIdentifier(identifier string) (ChainDefinition, bool) {
	def, ok := allKnownChains[identifier]
	return def, ok
}

// SupportedChains returns all predefined chain definitions.
func SupportedChains() []ChainDefinition {
	defs := make([]ChainDefinition, 0, len(allKnownChains))
	for _, def := range allKnownChains {
		defs = append(defs, def)
	}
	return defs
}

package entity

// RawTokenBalance is one entry of the balances-provider response: a contract
// address plus the raw balance as a hex quantity string ("0x0" and "0x" both
// mean zero).
type RawTokenBalance struct {
	ContractAddress string `json:"contractAddress"`
	RawBalanceHex   string `json:"tokenBalance"`
}

// ProviderTokenMetadata is the balances-provider token metadata response.
// Decimals is a pointer because the provider omits the field for contracts it
// cannot decode; absence must stay distinguishable from zero.
type ProviderTokenMetadata struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals *uint8 `json:"decimals"`
	Logo     string `json:"logo,omitempty"`
}

// Complete reports whether the core metadata triple is present. Symbol, name
// and decimals are mandatory; an incomplete record must never be cached.
func (m ProviderTokenMetadata) Complete() bool {
	return m.Symbol != "" && m.Name != "" && m.Decimals != nil
}

package entity

import (
	"math"
	"math/big"
	"strings"
	"time"
)

// TokenBalance is the response-shaped view of one token held by a wallet.
// Balance carries the raw integer amount as a decimal string; it is never
// stored as a float. BalanceFormatted is the decimal-scaled display string.
// PriceUsd == 0 means "price unknown", not "worthless".
type TokenBalance struct {
	ContractAddress  string  `json:"contractAddress"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Decimals         uint8   `json:"decimals"`
	Balance          string  `json:"balance"`
	BalanceFormatted string  `json:"balanceFormatted"`
	PriceUsd         float64 `json:"priceUsd,omitempty"`
	BalanceUsd       float64 `json:"balanceUsd,omitempty"`
	LogoURL          string  `json:"logoUrl,omitempty"`
}

// RawAmount parses the decimal Balance string back into a big.Int.
// Returns zero for an empty or malformed balance.
func (t TokenBalance) RawAmount() *big.Int {
	amount, ok := new(big.Int).SetString(t.Balance, 10)
	if !ok {
		return new(big.Int)
	}
	return amount
}

// HumanBalance returns the display amount scaled by 10^decimals. This is a
// display quantity; threshold comparisons on it are acceptable, balance
// accounting is not.
func (t TokenBalance) HumanBalance() float64 {
	amount, ok := new(big.Float).SetString(t.Balance)
	if !ok {
		return 0
	}
	scaled := new(big.Float).Quo(amount, big.NewFloat(math.Pow10(int(t.Decimals))))
	value, _ := scaled.Float64()
	return value
}

// IsPriced reports whether a usable price is attached.
func (t TokenBalance) IsPriced() bool {
	return t.PriceUsd > 0
}

// CachedTokenMetadata is the durable per-contract metadata record.
// Symbol, Name and Decimals are immutable once written; only LogoURL and
// LogoCheckedAt may be rewritten by later logo retries.
type CachedTokenMetadata struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Decimals      uint8  `json:"decimals"`
	LogoURL       string `json:"logoUrl,omitempty"`
	LogoCheckedAt int64  `json:"logoCheckedAt,omitempty"`
}

// HasLogo reports whether a logo URL has been resolved for this token.
func (m CachedTokenMetadata) HasLogo() bool {
	return m.LogoURL != ""
}

// LogoRetryDue reports whether a logo-less record is old enough to re-probe.
// A record that was never checked is always due.
func (m CachedTokenMetadata) LogoRetryDue(now time.Time, retryInterval time.Duration) bool {
	if m.HasLogo() {
		return false
	}
	if m.LogoCheckedAt == 0 {
		return true
	}
	return now.Sub(time.UnixMilli(m.LogoCheckedAt)) >= retryInterval
}

// BulkTokenMetadata is the single cache entry holding all known token
// metadata for one chain. One entry per chain keeps cache I/O at O(1) per
// request regardless of wallet size.
type BulkTokenMetadata struct {
	Tokens map[string]CachedTokenMetadata `json:"tokens"`
}

// BulkPriceCache is the single cache entry holding all known USD prices for
// one chain. Prices of zero are never stored.
type BulkPriceCache struct {
	Prices   map[string]float64 `json:"prices"`
	CachedAt int64              `json:"cachedAt"`
}

// Expired reports whether the entry is older than ttl.
func (p BulkPriceCache) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(time.UnixMilli(p.CachedAt)) >= ttl
}

// CachedWalletBalances is the top-level memo: a full enriched snapshot for
// one (chain, wallet) pair.
type CachedWalletBalances struct {
	Tokens   []TokenBalance `json:"tokens"`
	CachedAt int64          `json:"cachedAt"`
}

// Expired reports whether the snapshot is older than ttl.
func (w CachedWalletBalances) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(time.UnixMilli(w.CachedAt)) >= ttl
}

// Cache key builders. All keys embed the chain identifier; wallet addresses
// are lowercased so checksum casing never splits cache entries.

// MetadataCacheKey returns the bulk metadata key for a chain.
func MetadataCacheKey(chain string) string {
	return "metadata:" + chain
}

// PriceCacheKey returns the bulk price key for a chain.
func PriceCacheKey(chain string) string {
	return "prices:" + chain
}

// WalletCacheKey returns the wallet snapshot key for a (chain, wallet) pair.
func WalletCacheKey(chain, wallet string) string {
	return "wallet:" + chain + ":" + strings.ToLower(wallet)
}

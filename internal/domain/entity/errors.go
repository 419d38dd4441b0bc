package entity

import "errors"

// Sentinel errors for the fatal (surfaced) branch of the error taxonomy.
// Optional-stage failures never travel through these; they degrade in place.
var (
	// ErrUnsupportedChain is returned for a chain identifier with no definition.
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrInvalidAddress is returned for a malformed wallet address.
	ErrInvalidAddress = errors.New("invalid wallet address")
	// ErrMissingProviderKey is returned when the balances-provider credential
	// is not configured.
	ErrMissingProviderKey = errors.New("balances provider API key is not configured")
	// ErrBalanceFetch wraps a raw-balance fetch failure, the one upstream
	// call with no cached fallback.
	ErrBalanceFetch = errors.New("raw balance fetch failed")
	// ErrIncompleteMetadata marks a provider metadata response missing the
	// mandatory symbol/name/decimals triple.
	ErrIncompleteMetadata = errors.New("token metadata incomplete")
)

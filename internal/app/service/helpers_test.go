package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// memStore is a plain map-backed CacheStore for tests.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, found := s.data[key]
	return raw, found, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

var _ port.CacheStore = (*memStore)(nil)

// fakeProvider serves canned balances and metadata and counts calls.
// metadataFailures[contract] makes that many metadata calls fail before the
// canned record is served.
type fakeProvider struct {
	mu               sync.Mutex
	balances         []entity.RawTokenBalance
	balancesErr      error
	metadata         map[string]entity.ProviderTokenMetadata
	metadataFailures map[string]int
	balanceCalls     int
	metadataCalls    []string
}

func (p *fakeProvider) GetTokenBalances(_ context.Context, _ entity.ChainDefinition, _ string) ([]entity.RawTokenBalance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balanceCalls++
	if p.balancesErr != nil {
		return nil, p.balancesErr
	}
	return p.balances, nil
}

func (p *fakeProvider) GetTokenMetadata(_ context.Context, _ entity.ChainDefinition, contract string) (entity.ProviderTokenMetadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metadataCalls = append(p.metadataCalls, contract)
	if remaining := p.metadataFailures[contract]; remaining > 0 {
		p.metadataFailures[contract] = remaining - 1
		return entity.ProviderTokenMetadata{}, errors.New("metadata endpoint unavailable")
	}
	return p.metadata[contract], nil
}

// fakePriceService returns a fixed price map and records requests.
type fakePriceService struct {
	mu        sync.Mutex
	prices    map[string]float64
	requested [][]string
}

func (s *fakePriceService) GetUsdPrices(_ context.Context, _ entity.ChainDefinition, contracts []string) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requested = append(s.requested, contracts)
	result := make(map[string]float64)
	for _, contract := range contracts {
		if price, ok := s.prices[contract]; ok {
			result[contract] = price
		}
	}
	return result
}

// fakeLogoResolver returns a fixed URL per contract and records calls.
type fakeLogoResolver struct {
	mu    sync.Mutex
	logos map[string]string
	calls []string
}

func (r *fakeLogoResolver) Resolve(_ context.Context, _ entity.ChainDefinition, contract, providerLogo string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, contract)
	if url, ok := r.logos[contract]; ok {
		return url, true
	}
	if providerLogo != "" {
		return providerLogo, true
	}
	return "", false
}

func uint8Ptr(v uint8) *uint8 { return &v }

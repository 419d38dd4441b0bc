package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
)

type fakeRegistry struct {
	url    string
	found  bool
	err    error
	probed []string
}

func (r *fakeRegistry) LogoURL(_ context.Context, _ entity.ChainDefinition, checksummedAddress string) (string, bool, error) {
	r.probed = append(r.probed, checksummedAddress)
	return r.url, r.found, r.err
}

type fakeImageSource struct {
	url   string
	found bool
	err   error
	calls int
}

func (s *fakeImageSource) ContractImage(_ context.Context, _ entity.ChainDefinition, _ string) (string, bool, error) {
	s.calls++
	return s.url, s.found, s.err
}

type fakeImageCache struct {
	hostedPrefix string
	err          error
	cached       []string
}

func (c *fakeImageCache) Cache(_ context.Context, originalURL string) (string, error) {
	c.cached = append(c.cached, originalURL)
	if c.err != nil {
		return "", c.err
	}
	return c.hostedPrefix + originalURL, nil
}

var _ port.ImageCache = (*fakeImageCache)(nil)

func resolverConfig() LogoResolverConfig {
	return LogoResolverConfig{
		RegistryTimeout:  time.Second,
		ProviderTimeout:  time.Second,
		CoinGeckoTimeout: time.Second,
	}
}

func TestLogoResolver_RegistryWins(t *testing.T) {
	registry := &fakeRegistry{url: "https://assets.example.com/logo.png", found: true}
	images := &fakeImageSource{url: "https://gecko.example.com/logo.png", found: true}
	cache := &fakeImageCache{hostedPrefix: "hosted:"}

	resolver := NewLogoResolver(registry, &fakeProvider{}, images, cache, resolverConfig(), nopLogger{})
	url, found := resolver.Resolve(context.Background(), entity.Ethereum, usdcAddr, "https://provider.example.com/logo.png")

	require.True(t, found)
	assert.Equal(t, "hosted:https://assets.example.com/logo.png", url)
	assert.Zero(t, images.calls)
}

func TestLogoResolver_ChecksumsRegistryAddress(t *testing.T) {
	registry := &fakeRegistry{found: false}
	resolver := NewLogoResolver(registry, &fakeProvider{}, &fakeImageSource{}, &fakeImageCache{}, resolverConfig(), nopLogger{})

	resolver.Resolve(context.Background(), entity.Ethereum, "0xdac17f958d2ee523a2206206994597c13d831ec7", "")

	require.Len(t, registry.probed, 1)
	assert.Equal(t, "0xdAC17F958D2ee523a2206206994597C13D831ec7", registry.probed[0])
}

func TestLogoResolver_ProviderLogoSecond(t *testing.T) {
	registry := &fakeRegistry{found: false}
	provider := &fakeProvider{}
	images := &fakeImageSource{url: "https://gecko.example.com/logo.png", found: true}
	cache := &fakeImageCache{hostedPrefix: "hosted:"}

	resolver := NewLogoResolver(registry, provider, images, cache, resolverConfig(), nopLogger{})
	url, found := resolver.Resolve(context.Background(), entity.Ethereum, usdcAddr, "https://provider.example.com/logo.png")

	require.True(t, found)
	assert.Equal(t, "hosted:https://provider.example.com/logo.png", url)
	assert.Zero(t, images.calls)
	assert.Empty(t, provider.metadataCalls, "a supplied logo candidate skips the metadata round trip")
}

func TestLogoResolver_QueriesProviderWithoutCandidate(t *testing.T) {
	registry := &fakeRegistry{found: false}
	provider := &fakeProvider{metadata: map[string]entity.ProviderTokenMetadata{
		usdcAddr: {Logo: "https://provider.example.com/usdc.png"},
	}}
	images := &fakeImageSource{url: "https://gecko.example.com/logo.png", found: true}
	cache := &fakeImageCache{hostedPrefix: "hosted:"}

	resolver := NewLogoResolver(registry, provider, images, cache, resolverConfig(), nopLogger{})
	url, found := resolver.Resolve(context.Background(), entity.Ethereum, usdcAddr, "")

	require.True(t, found)
	assert.Equal(t, "hosted:https://provider.example.com/usdc.png", url)
	assert.Equal(t, []string{usdcAddr}, provider.metadataCalls)
	assert.Zero(t, images.calls)
}

func TestLogoResolver_CoinGeckoLast(t *testing.T) {
	registry := &fakeRegistry{found: false}
	provider := &fakeProvider{}
	images := &fakeImageSource{url: "https://gecko.example.com/logo.png", found: true}
	cache := &fakeImageCache{hostedPrefix: "hosted:"}

	resolver := NewLogoResolver(registry, provider, images, cache, resolverConfig(), nopLogger{})
	url, found := resolver.Resolve(context.Background(), entity.Ethereum, usdcAddr, "")

	require.True(t, found)
	assert.Equal(t, "hosted:https://gecko.example.com/logo.png", url)
	assert.Equal(t, 1, images.calls)
	assert.Len(t, provider.metadataCalls, 1, "the provider source runs before CoinGecko")
}

func TestLogoResolver_AllSourcesExhausted(t *testing.T) {
	resolver := NewLogoResolver(&fakeRegistry{}, &fakeProvider{}, &fakeImageSource{}, &fakeImageCache{}, resolverConfig(), nopLogger{})
	url, found := resolver.Resolve(context.Background(), entity.Ethereum, usdcAddr, "")
	assert.False(t, found)
	assert.Empty(t, url)
}

func TestLogoResolver_SourceErrorTreatedAsMiss(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("registry down")}
	images := &fakeImageSource{url: "https://gecko.example.com/logo.png", found: true}

	resolver := NewLogoResolver(registry, &fakeProvider{}, images, &fakeImageCache{hostedPrefix: "hosted:"}, resolverConfig(), nopLogger{})
	url, found := resolver.Resolve(context.Background(), entity.Ethereum, usdcAddr, "")

	require.True(t, found)
	assert.Equal(t, "hosted:https://gecko.example.com/logo.png", url)
}

func TestLogoResolver_RehostFailureServesOriginal(t *testing.T) {
	registry := &fakeRegistry{url: "https://assets.example.com/logo.png", found: true}
	cache := &fakeImageCache{err: errors.New("bucket unavailable")}

	resolver := NewLogoResolver(registry, &fakeProvider{}, &fakeImageSource{}, cache, resolverConfig(), nopLogger{})
	url, found := resolver.Resolve(context.Background(), entity.Ethereum, usdcAddr, "")

	require.True(t, found)
	assert.Equal(t, "https://assets.example.com/logo.png", url)
}

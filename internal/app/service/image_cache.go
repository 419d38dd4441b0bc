package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/infrastructure/cachestore"
	"wallet_balances/internal/pkg/metrics"
)

// contentTypes maps the image extensions we accept to their MIME types.
// Anything else is rejected rather than stored with a guessed type.
var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// defaultGatewayMirrors are the public IPFS gateways tried in order when an
// IPFS-path download fails on its original host.
var defaultGatewayMirrors = []string{
	"ipfs.io",
	"cloudflare-ipfs.com",
	"dweb.link",
}

// ImageCacheConfig tunes the re-hosting image cache. GatewayMirrors overrides
// the default IPFS gateway fallback list.
type ImageCacheConfig struct {
	KeyPrefix       string
	DownloadTimeout time.Duration
	MemoTTL         time.Duration
	GatewayMirrors  []string
}

// imageCache re-hosts external logo images under our own domain. The hosted
// key is the SHA-256 of the original URL string, so the same source URL maps
// to the same object forever and uploads happen at most once.
type imageCache struct {
	blob   port.BlobStore
	store  port.CacheStore
	client *fasthttp.Client
	cfg    ImageCacheConfig
	logger port.Logger
}

// NewImageCache creates an ImageCache backed by a blob store. store memoizes
// originalURL to hostedURL so repeat lookups skip the blob Head round trip.
func NewImageCache(blob port.BlobStore, store port.CacheStore, cfg ImageCacheConfig, logger port.Logger) port.ImageCache {
	if cfg.GatewayMirrors == nil {
		cfg.GatewayMirrors = defaultGatewayMirrors
	}
	return &imageCache{
		blob:   blob,
		store:  store,
		client: &fasthttp.Client{},
		cfg:    cfg,
		logger: logger,
	}
}

// Cache implements port.ImageCache.
func (c *imageCache) Cache(ctx context.Context, originalURL string) (string, error) {
	// URLs already under our domain never loop back through the cache.
	if strings.HasPrefix(originalURL, c.blob.BaseURL()) {
		return originalURL, nil
	}

	objectPath, contentType, err := c.objectPath(originalURL)
	if err != nil {
		return "", err
	}

	memoKey := "image:" + objectPath
	if hosted, found := cachestore.Get[string](ctx, c.store, c.logger, metrics.TierImage, memoKey); found {
		metrics.CacheHits.WithLabelValues(metrics.TierImage).Inc()
		return hosted, nil
	}
	metrics.CacheMisses.WithLabelValues(metrics.TierImage).Inc()

	hosted, exists, err := c.blob.Head(ctx, objectPath)
	if err != nil {
		metrics.ObserveUpstream(metrics.SourceBlobStore, err)
		return "", fmt.Errorf("checking hosted image %s: %w", objectPath, err)
	}
	if !exists {
		data, err := c.download(ctx, originalURL)
		if err != nil {
			return "", err
		}
		hosted, err = c.blob.Put(ctx, objectPath, data, contentType)
		metrics.ObserveUpstream(metrics.SourceBlobStore, err)
		if err != nil {
			return "", fmt.Errorf("uploading image %s: %w", objectPath, err)
		}
		c.logger.Info("Logo image re-hosted", "originalUrl", originalURL, "hostedUrl", hosted)
	}

	cachestore.Put(ctx, c.store, c.logger, metrics.TierImage, memoKey, hosted, c.cfg.MemoTTL)
	return hosted, nil
}

// objectPath derives the content-addressed blob key and content type from the
// original URL. The hash covers the full URL string: two URLs serving the
// same bytes get two objects, which is fine, while one URL changing its bytes
// keeps its address, which is the dedupe property we need.
func (c *imageCache) objectPath(originalURL string) (string, string, error) {
	parsed, err := url.Parse(originalURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing image URL %q: %w", originalURL, err)
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	contentType, supported := contentTypes[ext]
	if !supported {
		return "", "", fmt.Errorf("unsupported image extension %q in %s", ext, originalURL)
	}
	digest := sha256.Sum256([]byte(originalURL))
	return c.cfg.KeyPrefix + hex.EncodeToString(digest[:]) + ext, contentType, nil
}

// download fetches the image, walking the gateway mirror list when the
// original host fails. The last error is returned once every candidate is
// exhausted.
func (c *imageCache) download(ctx context.Context, originalURL string) ([]byte, error) {
	var lastErr error
	for _, candidate := range c.downloadCandidates(originalURL) {
		data, err := c.fetch(ctx, candidate)
		if err == nil {
			return data, nil
		}
		lastErr = err
		c.logger.Debug("Image download failed", "url", candidate, "error", err)
	}
	return nil, lastErr
}

// downloadCandidates returns the original URL followed by gateway-mirror
// rewrites for IPFS paths. Non-IPFS URLs get a single candidate.
func (c *imageCache) downloadCandidates(originalURL string) []string {
	candidates := []string{originalURL}
	parsed, err := url.Parse(originalURL)
	if err != nil || !strings.Contains(parsed.Path, "/ipfs/") {
		return candidates
	}
	for _, mirror := range c.cfg.GatewayMirrors {
		if parsed.Host == mirror {
			continue
		}
		rewritten := *parsed
		rewritten.Host = mirror
		candidates = append(candidates, rewritten.String())
	}
	return candidates
}

func (c *imageCache) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(imageURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.cfg.DownloadTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("downloading image %s: %w", imageURL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("downloading image %s: status %d", imageURL, resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// NoopImageCache serves every URL as-is. Used when blob hosting is disabled.
type NoopImageCache struct{}

// Cache implements port.ImageCache.
func (NoopImageCache) Cache(_ context.Context, originalURL string) (string, error) {
	return originalURL, nil
}

var _ port.ImageCache = NoopImageCache{}

package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/domain/entity"
	"wallet_balances/internal/pkg/metrics"
)

// AssetRegistryClient probes the community asset registry for token logos.
// Logo paths are deterministic, so existence is checked with a one-byte
// ranged GET instead of downloading the image.
type AssetRegistryClient struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewAssetRegistryClient creates a new AssetRegistryClient.
func NewAssetRegistryClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AssetRegistryClient {
	return &AssetRegistryClient{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("AssetRegistryClient"),
	}
}

// LogoURL implements port.LogoRegistry. The address must already be in its
// checksummed form; the registry's paths are case-sensitive.
func (c *AssetRegistryClient) LogoURL(ctx context.Context, chain entity.ChainDefinition, checksummedAddress string) (string, bool, error) {
	if chain.RegistryDir == "" {
		return "", false, nil
	}
	logoURL := fmt.Sprintf("%s/%s/assets/%s/logo.png", c.baseURL, chain.RegistryDir, checksummedAddress)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(logoURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Range", "bytes=0-0")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	metrics.ObserveUpstream(metrics.SourceRegistry, err)
	if err != nil {
		c.logger.Debug("Asset registry probe failed", zap.String("url", logoURL), zap.Error(err))
		return "", false, fmt.Errorf("probing registry logo at %s: %w", logoURL, err)
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK, fasthttp.StatusPartialContent:
		return logoURL, true, nil
	default:
		return "", false, nil
	}
}

var _ port.LogoRegistry = (*AssetRegistryClient)(nil)

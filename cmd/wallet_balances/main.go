package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wallet_balances/internal/app/port"
	"wallet_balances/internal/app/service"
	"wallet_balances/internal/infrastructure/blobstore"
	"wallet_balances/internal/infrastructure/cachestore"
	"wallet_balances/internal/infrastructure/configloader"
	"wallet_balances/internal/infrastructure/httpclient"
	"wallet_balances/internal/infrastructure/network/client"
	"wallet_balances/internal/infrastructure/restapi"
	"wallet_balances/internal/pkg/logger"
	"wallet_balances/internal/pkg/metrics"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", "path", cfgPath, "error", err)
	}

	zapLogger := logger.Init(cfg.Logging.Level)
	defer func() { _ = zapLogger.Sync() }()
	portLogger := logger.NewAdapter()

	metrics.MustRegister()

	store, closeStore, err := buildCacheStore(cfg, zapLogger)
	if err != nil {
		logger.Fatal("Failed to initialize cache store", "backend", cfg.Cache.Backend, "error", err)
	}
	defer closeStore()

	provider, err := client.NewProviderClient(cfg.Provider, zapLogger)
	if err != nil {
		logger.Fatal("Failed to initialize balances provider client", "error", err)
	}

	dexScreener := httpclient.NewDEXScreenerClient(
		cfg.DEXScreener.BaseURL,
		time.Duration(cfg.DEXScreener.RequestTimeoutMillis)*time.Millisecond,
		cfg.DEXScreener.MaxTokensPerBatchRequest,
		zapLogger,
	)
	coinGecko := httpclient.NewCoinGeckoClient(
		cfg.CoinGecko.BaseURL,
		cfg.CoinGecko.APIKey,
		time.Duration(cfg.CoinGecko.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	registry := httpclient.NewAssetRegistryClient(
		cfg.Registry.BaseURL,
		time.Duration(cfg.Registry.ProbeTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	imageCache := buildImageCache(cfg, store, portLogger)

	logoResolver := service.NewLogoResolver(registry, provider, coinGecko, imageCache, service.LogoResolverConfig{
		RegistryTimeout:  time.Duration(cfg.Registry.ProbeTimeoutMillis) * time.Millisecond,
		ProviderTimeout:  time.Duration(cfg.Provider.MetadataTimeoutMillis) * time.Millisecond,
		CoinGeckoTimeout: time.Duration(cfg.CoinGecko.RequestTimeoutMillis) * time.Millisecond,
	}, portLogger)

	priceService := service.NewPriceService(store, dexScreener, coinGecko, service.PriceServiceConfig{
		CacheTTL:             time.Duration(cfg.Pipeline.PriceCacheTTLMinutes) * time.Minute,
		BatchSourceTimeout:   time.Duration(cfg.DEXScreener.RequestTimeoutMillis) * time.Millisecond,
		ContractQueryTimeout: time.Duration(cfg.CoinGecko.RequestTimeoutMillis) * time.Millisecond,
	}, portLogger)

	balanceService := service.NewBalanceService(provider, priceService, logoResolver, store, service.BalancePipelineConfig{
		WalletCacheTTL:      time.Duration(cfg.Pipeline.WalletCacheTTLMinutes) * time.Minute,
		MetadataBatchSize:   cfg.Pipeline.MetadataBatchSize,
		LogoRetryBatchLimit: cfg.Pipeline.LogoRetryBatchLimit,
		LogoRetryInterval:   time.Duration(cfg.Pipeline.LogoRetryIntervalHours) * time.Hour,
		MinTokenBalance:     cfg.Pipeline.MinTokenBalance,
		MinValueUsd:         cfg.Pipeline.MinValueUsd,
	}, portLogger)

	balanceHandler := restapi.NewBalanceHandler(balanceService, zapLogger)
	router := restapi.SetupRouter(balanceHandler, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

// buildCacheStore selects the cache backend. Redis when configured, the
// in-process store otherwise.
func buildCacheStore(cfg *configloader.Config, zapLogger *zap.Logger) (port.CacheStore, func(), error) {
	if cfg.Cache.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := cachestore.NewRedisStore(ctx,
			cfg.Cache.Redis.Address,
			cfg.Cache.Redis.Username,
			cfg.Cache.Redis.Password,
			cfg.Cache.Redis.DB,
			"wallet_balances:")
		if err != nil {
			return nil, nil, err
		}
		zapLogger.Info("Redis cache store initialized", zap.String("address", cfg.Cache.Redis.Address))
		return store, func() { _ = store.Close() }, nil
	}

	store := cachestore.NewMemoryStore(
		time.Duration(cfg.Cache.DefaultExpirationMinutes)*time.Minute,
		time.Duration(cfg.Cache.CleanupIntervalMinutes)*time.Minute,
	)
	zapLogger.Info("In-memory cache store initialized")
	return store, func() {}, nil
}

// buildImageCache wires the S3-backed logo re-hosting, or a pass-through when
// blob hosting is disabled.
func buildImageCache(cfg *configloader.Config, store port.CacheStore, portLogger port.Logger) port.ImageCache {
	if !cfg.Blob.Enabled {
		logger.Info("Blob hosting disabled, logos served from their original URLs")
		return service.NoopImageCache{}
	}
	blob, err := blobstore.NewS3Store(cfg.Blob.Region, cfg.Blob.Bucket, cfg.Blob.PublicBaseURL)
	if err != nil {
		logger.Warn("Blob store unavailable, logos served from their original URLs", "error", err)
		return service.NoopImageCache{}
	}
	return service.NewImageCache(blob, store, service.ImageCacheConfig{
		KeyPrefix:       cfg.Blob.KeyPrefix,
		DownloadTimeout: time.Duration(cfg.Blob.UploadTimeoutMillis) * time.Millisecond,
		MemoTTL:         24 * time.Hour,
	}, portLogger)
}

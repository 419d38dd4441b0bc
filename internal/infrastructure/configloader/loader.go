package configloader

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// ProviderConfig holds the balances-provider configuration. The API key is
// taken from the BALANCES_PROVIDER_API_KEY environment variable; requests go
// to https://{network}.{baseDomain}/v2/{key}.
type ProviderConfig struct {
	BaseDomain            string `yaml:"baseDomain"`
	APIKey                string `yaml:"-"`
	RequestTimeoutMillis  int64  `yaml:"requestTimeoutMillis"`
	MetadataTimeoutMillis int64  `yaml:"metadataTimeoutMillis"`
	MaxRetries            int    `yaml:"maxRetries"`
}

// RegistryConfig holds the community asset-registry configuration.
type RegistryConfig struct {
	BaseURL            string `yaml:"baseURL"`
	ProbeTimeoutMillis int64  `yaml:"probeTimeoutMillis"`
}

// CoinGeckoConfig holds the CoinGecko client configuration. The optional API
// key comes from COINGECKO_API_KEY.
type CoinGeckoConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"-"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// DEXScreenerConfig holds the DEX Screener client configuration.
type DEXScreenerConfig struct {
	BaseURL                  string `yaml:"baseURL"`
	RequestTimeoutMillis     int64  `yaml:"requestTimeoutMillis"`
	MaxTokensPerBatchRequest int    `yaml:"maxTokensPerBatchRequest"`
}

// RedisConfig holds connection parameters for the Redis cache backend.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

// CacheConfig selects and tunes the cache store backend.
type CacheConfig struct {
	Backend                  string      `yaml:"backend"` // "memory" or "redis"
	Redis                    RedisConfig `yaml:"redis"`
	DefaultExpirationMinutes int         `yaml:"defaultExpirationMinutes"`
	CleanupIntervalMinutes   int         `yaml:"cleanupIntervalMinutes"`
}

// BlobConfig holds the S3 blob store configuration for logo re-hosting.
// Credentials resolve through the SDK default chain.
type BlobConfig struct {
	Enabled             bool   `yaml:"enabled"`
	Bucket              string `yaml:"bucket"`
	Region              string `yaml:"region"`
	PublicBaseURL       string `yaml:"publicBaseURL"`
	KeyPrefix           string `yaml:"keyPrefix"`
	UploadTimeoutMillis int64  `yaml:"uploadTimeoutMillis"`
}

// PipelineConfig tunes the balance pipeline: cache TTLs, enrichment batch
// sizes and the dust thresholds.
type PipelineConfig struct {
	WalletCacheTTLMinutes  int     `yaml:"walletCacheTTLMinutes"`
	PriceCacheTTLMinutes   int     `yaml:"priceCacheTTLMinutes"`
	MetadataBatchSize      int     `yaml:"metadataBatchSize"`
	LogoRetryBatchLimit    int     `yaml:"logoRetryBatchLimit"`
	LogoRetryIntervalHours int     `yaml:"logoRetryIntervalHours"`
	MinTokenBalance        float64 `yaml:"minTokenBalance"`
	MinValueUsd            float64 `yaml:"minValueUsd"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Provider    ProviderConfig    `yaml:"provider"`
	Registry    RegistryConfig    `yaml:"registry"`
	CoinGecko   CoinGeckoConfig   `yaml:"coingecko"`
	DEXScreener DEXScreenerConfig `yaml:"dexScreener"`
	Cache       CacheConfig       `yaml:"cache"`
	Blob        BlobConfig        `yaml:"blob"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
}

// Load reads the YAML configuration, applies defaults and pulls secrets from
// the environment (.env is honored when present).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Failed to load .env file: %v", err)
	}

	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	cfg.Provider.APIKey = os.Getenv("BALANCES_PROVIDER_API_KEY")
	cfg.CoinGecko.APIKey = os.Getenv("COINGECKO_API_KEY")
	cfg.Cache.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Provider.APIKey == "" {
		logrus.Warn("BALANCES_PROVIDER_API_KEY is not set; balance requests will fail")
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}

	if cfg.Provider.BaseDomain == "" {
		cfg.Provider.BaseDomain = "g.alchemy.com"
	}
	if cfg.Provider.RequestTimeoutMillis == 0 {
		cfg.Provider.RequestTimeoutMillis = 10000
	}
	if cfg.Provider.MetadataTimeoutMillis == 0 {
		cfg.Provider.MetadataTimeoutMillis = 5000
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = 3
	}

	if cfg.Registry.BaseURL == "" {
		cfg.Registry.BaseURL = "https://raw.githubusercontent.com/trustwallet/assets/master/blockchains"
	}
	if cfg.Registry.ProbeTimeoutMillis == 0 {
		cfg.Registry.ProbeTimeoutMillis = 2000
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.CoinGecko.RequestTimeoutMillis == 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 3000
	}

	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
	}
	if cfg.DEXScreener.RequestTimeoutMillis == 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 10000
	}
	if cfg.DEXScreener.MaxTokensPerBatchRequest == 0 {
		cfg.DEXScreener.MaxTokensPerBatchRequest = 30 // DEXScreener limit
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.DefaultExpirationMinutes == 0 {
		cfg.Cache.DefaultExpirationMinutes = 60
	}
	if cfg.Cache.CleanupIntervalMinutes == 0 {
		cfg.Cache.CleanupIntervalMinutes = 10
	}

	if cfg.Blob.KeyPrefix == "" {
		cfg.Blob.KeyPrefix = "token-logos/"
	}
	if cfg.Blob.UploadTimeoutMillis == 0 {
		cfg.Blob.UploadTimeoutMillis = 10000
	}

	if cfg.Pipeline.PriceCacheTTLMinutes == 0 {
		cfg.Pipeline.PriceCacheTTLMinutes = 15
	}
	if cfg.Pipeline.WalletCacheTTLMinutes == 0 {
		cfg.Pipeline.WalletCacheTTLMinutes = 15
	}
	// The wallet snapshot denormalizes prices, so it must never outlive them.
	if cfg.Pipeline.WalletCacheTTLMinutes > cfg.Pipeline.PriceCacheTTLMinutes {
		logrus.Infof("walletCacheTTLMinutes %d exceeds priceCacheTTLMinutes %d, clamping",
			cfg.Pipeline.WalletCacheTTLMinutes, cfg.Pipeline.PriceCacheTTLMinutes)
		cfg.Pipeline.WalletCacheTTLMinutes = cfg.Pipeline.PriceCacheTTLMinutes
	}
	if cfg.Pipeline.MetadataBatchSize == 0 {
		cfg.Pipeline.MetadataBatchSize = 20
	}
	if cfg.Pipeline.LogoRetryBatchLimit == 0 {
		cfg.Pipeline.LogoRetryBatchLimit = 10
	}
	if cfg.Pipeline.LogoRetryIntervalHours == 0 {
		cfg.Pipeline.LogoRetryIntervalHours = 24
	}
	if cfg.Pipeline.MinTokenBalance == 0 {
		cfg.Pipeline.MinTokenBalance = 0.000001
	}
	if cfg.Pipeline.MinValueUsd == 0 {
		cfg.Pipeline.MinValueUsd = 0.01
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "cartsync"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv        = "CARTSYNC_APP_ENV"
	EnvPort          = "CARTSYNC_APP_PORT"
	EnvRedisURL      = "CARTSYNC_REDIS_URL"
	EnvRemoteBaseURL = "CARTSYNC_REMOTE_BASE_URL"
	EnvRemoteToken   = "CARTSYNC_REMOTE_TOKEN"
	EnvSyncScope     = "CARTSYNC_SYNC_SCOPE"
)

type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Remote       RemoteConfig
	Catalog      CatalogConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Redis.ensureReachableOrDisabled(cfg.FeatureFlags.UseMemoryStore); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CARTSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTSYNC_REDIS_URL"`
	Address      string        `envconfig:"CARTSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"CARTSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RemoteConfig points the engine at the remote cart service.
type RemoteConfig struct {
	BaseURL string        `envconfig:"CARTSYNC_REMOTE_BASE_URL" required:"true"`
	Token   string        `envconfig:"CARTSYNC_REMOTE_TOKEN"`
	Timeout time.Duration `envconfig:"CARTSYNC_REMOTE_TIMEOUT" default:"10s"`
}

// CatalogConfig enables product enrichment when a base URL is set.
type CatalogConfig struct {
	BaseURL string        `envconfig:"CARTSYNC_CATALOG_BASE_URL"`
	Timeout time.Duration `envconfig:"CARTSYNC_CATALOG_TIMEOUT" default:"5s"`
}

type SyncConfig struct {
	Scope         string        `envconfig:"CARTSYNC_SYNC_SCOPE" default:"default"`
	Timeout       time.Duration `envconfig:"CARTSYNC_SYNC_TIMEOUT" default:"15s"`
	ClearOnLogout bool          `envconfig:"CARTSYNC_SYNC_CLEAR_ON_LOGOUT" default:"false"`
}

type FeatureFlagsConfig struct {
	UseMemoryStore bool `envconfig:"CARTSYNC_USE_MEMORY_STORE" default:"false"`
}

func (r *RedisConfig) ensureReachableOrDisabled(memoryStore bool) error {
	if memoryStore {
		return nil
	}
	if r.URL == "" && r.Address == "" {
		return fmt.Errorf("either %s or CARTSYNC_USE_MEMORY_STORE is required", EnvRedisURL)
	}
	return nil
}

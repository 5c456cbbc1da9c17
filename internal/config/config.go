package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const (
	EnvDev = "DEV"

	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config interface {
	EnvConfig
	TokenConfig
	StoreConfig
	SecurityConfig
	CorsConfig
}

type mainConfig struct {
	EnvVars
	Tokens
	Stores
	Security
	Cors
}

var _ Config = (*mainConfig)(nil)

// New reads the configuration from the process environment
func New() (Config, error) {
	return parse(env.Options{})
}

// NewFromMap reads the configuration from the given variables instead of the process environment
func NewFromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg := &mainConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, errors.Wrap(err, "[config.New] parse env")
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "[config.New]")
	}
	return cfg, nil
}

func (c *mainConfig) validate() error {
	if c.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return errors.New("REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}
	if c.OperationTimeout <= 0 {
		return errors.New("OPERATION_TIMEOUT must be positive")
	}
	if c.SigningSecret == "" && !c.IsDev() {
		return errors.New("SIGNING_SECRET is required outside DEV")
	}
	if c.SweepInterval < time.Second {
		return errors.New("REGISTRY_SWEEP_INTERVAL must be at least 1s")
	}

	switch c.UserStore {
	case StoreMemory, StorePostgres:
	default:
		return errors.Errorf("unknown USER_STORE %q", c.UserStore)
	}
	switch c.RegistryBackend {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return errors.Errorf("unknown REGISTRY_BACKEND %q", c.RegistryBackend)
	}
	if (c.UserStore == StorePostgres || c.RegistryBackend == StorePostgres) && c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required for the postgres store")
	}
	if c.SignInRateLimit < 0 || c.SignInRateBurst < 0 {
		return errors.New("sign-in rate limits cannot be negative")
	}
	if _, err := parseTrustedProxies(c.TrustedProxies); err != nil {
		return err
	}
	return nil
}

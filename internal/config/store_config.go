package config

import "time"

type StoreConfig interface {
	GetUserStore() string
	GetRegistryBackend() string
	GetDatabaseDSN() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
	GetRegistrySweepInterval() time.Duration
}

type Stores struct {
	UserStore       string        `env:"USER_STORE" envDefault:"memory"`
	RegistryBackend string        `env:"REGISTRY_BACKEND" envDefault:"memory"`
	DatabaseDSN     string        `env:"DATABASE_DSN"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix  string        `env:"REDIS_KEY_PREFIX" envDefault:"refresh"`
	SweepInterval   time.Duration `env:"REGISTRY_SWEEP_INTERVAL" envDefault:"1m"`
}

var _ StoreConfig = Stores{}

func (s Stores) GetUserStore() string {
	return s.UserStore
}

func (s Stores) GetRegistryBackend() string {
	return s.RegistryBackend
}

func (s Stores) GetDatabaseDSN() string {
	return s.DatabaseDSN
}

func (s Stores) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Stores) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Stores) GetRedisDB() int {
	return s.RedisDB
}

func (s Stores) GetRedisKeyPrefix() string {
	return s.RedisKeyPrefix
}

func (s Stores) GetRegistrySweepInterval() time.Duration {
	return s.SweepInterval
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string        `env:"PORT,             default=8080"`
	Env            string        `env:"ENV,              default=development"`
	JWTSecret      string        `env:"JWT_SECRET"`
	LogLevel       string        `env:"LOG_LEVEL,        default=info"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL, default=2h"`
	AuditWorkers   int           `env:"AUDIT_WORKERS,    default=4"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Lockout LockoutConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=account_system"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type LockoutConfig struct {
	MaxAttempts int           `env:"LOCKOUT_MAX_ATTEMPTS, default=5"`
	Window      time.Duration `env:"LOCKOUT_WINDOW,       default=15m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

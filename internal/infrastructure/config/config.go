package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT       JWTConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type JWTConfig struct {
	// Secret signs new tokens under KeyVersion. PreviousSecret, when set,
	// keeps tokens signed under KeyVersion-1 verifiable after a rotation.
	Secret         string        `env:"JWT_SECRET, required"`
	PreviousSecret string        `env:"JWT_PREVIOUS_SECRET"`
	KeyVersion     int           `env:"JWT_KEY_VERSION, default=1"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,       default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=accounts"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type RateLimitConfig struct {
	// RPS and Burst bound unauthenticated credential endpoints per client IP.
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=5"`
	Burst int     `env:"RATE_LIMIT_BURST, default=10"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// SigningKeys returns the version-keyed secret set for the token service.
func (c JWTConfig) SigningKeys() map[int]string {
	keys := map[int]string{c.KeyVersion: c.Secret}
	if c.PreviousSecret != "" && c.KeyVersion > 1 {
		keys[c.KeyVersion-1] = c.PreviousSecret
	}
	return keys
}

package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=5000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed when
	// resolving the client IP. Empty means the socket address is used.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET, required"`
	AdminEmail    string        `env:"ADMIN_EMAIL, required"`
	AdminPassword string        `env:"ADMIN_PASSWORD, required"`
	UserTokenTTL  time.Duration `env:"USER_TOKEN_TTL,  default=168h"`
	AdminTokenTTL time.Duration `env:"ADMIN_TOKEN_TTL, default=24h"`
	BcryptCost    int           `env:"BCRYPT_COST,     default=12"`

	LoginMaxAttempts int64         `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	LoginLockout     time.Duration `env:"LOGIN_LOCKOUT,      default=15m"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=internship"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

// RedisConfig is optional: an empty Addr disables the admin login throttle.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Auth.LoginMaxAttempts < 0 {
		return nil, errors.New("config: LOGIN_MAX_ATTEMPTS must not be negative")
	}
	return &cfg, nil
}

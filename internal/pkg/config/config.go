package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends.
const (
	StorageMongoRedis = "mongo-redis"
	StorageMemory     = "memory"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	Storage   string        `env:"STORAGE,   default=mongo-redis"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	// SuperadminEmails lists accounts granted access to every project.
	SuperadminEmails []string `env:"SUPERADMIN_EMAILS"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Repair RepairConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=link_dashboard"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// RepairConfig controls the background repair of interrupted renames.
// Grace must exceed the longest request so in-flight renames are left alone.
type RepairConfig struct {
	Interval time.Duration `env:"REPAIR_INTERVAL, default=30s"`
	Grace    time.Duration `env:"REPAIR_GRACE,    default=1m"`
	Workers  int           `env:"REPAIR_WORKERS,  default=4"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory, when present, is loaded first and
// never overrides variables already set.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Process(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Process resolves the configuration from an arbitrary lookuper and validates it.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	switch cfg.Storage {
	case StorageMongoRedis, StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMongoRedis, StorageMemory, cfg.Storage)
	}
	if cfg.Repair.Interval <= 0 || cfg.Repair.Grace <= 0 {
		return nil, fmt.Errorf("REPAIR_INTERVAL and REPAIR_GRACE must be positive")
	}
	return &cfg, nil
}

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	BackendFile  = "file"
	BackendMongo = "mongo"
)

type Config struct {
	Port      string        `env:"PORT,        default=8080"`
	Env       string        `env:"ENV,         default=development"`
	LogLevel  string        `env:"LOG_LEVEL,   default=info"`
	JWTSecret string        `env:"JWT_SECRET"`
	Session   time.Duration `env:"SESSION_TTL, default=24h"`

	Store    StoreConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Rollover RolloverConfig
}

type StoreConfig struct {
	Backend     string        `env:"STORE_BACKEND,      default=file"`
	Path        string        `env:"STORE_PATH,         default=data/quest_data.json"`
	Backups     int           `env:"STORE_BACKUPS,      default=3"`
	IOTimeout   time.Duration `env:"STORE_IO_TIMEOUT,   default=5s"`
	LockTimeout time.Duration `env:"STORE_LOCK_TIMEOUT, default=10s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=questd"`
}

// RedisConfig is optional: an empty address disables the cross-process lock.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type RolloverConfig struct {
	Interval  time.Duration `env:"ROLLOVER_INTERVAL, default=15m"`
	BatchSize int           `env:"QUEST_BATCH_SIZE,  default=5"`
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load reads a .env file when present and then the process environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Path == "" {
			return errors.New("config: STORE_PATH is required for the file backend")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return errors.New("config: MONGO_URI is required for the mongo backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("config: JWT_SECRET is required outside development")
	}
	if c.Session <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.Rollover.BatchSize <= 0 || c.Rollover.BatchSize > 10 {
		return fmt.Errorf("config: QUEST_BATCH_SIZE must be between 1 and 10, got %d", c.Rollover.BatchSize)
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends for the credential tiers.
const (
	StorageMemory = "memory"
	StorageRemote = "remote"
)

type Config struct {
	Port         string `env:"PORT,          default=8080"`
	Env          string `env:"ENV,           default=development"`
	LogLevel     string `env:"LOG_LEVEL,     default=info"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Storage      string `env:"STORAGE,       default=memory"`

	ManagementAppURL  string `env:"MANAGEMENT_APP_URL,  default=http://localhost:3001"`
	MarketplaceAPIURL string `env:"MARKETPLACE_API_URL, default=http://localhost:4000/api"`
	NavigationFile    string `env:"NAVIGATION_FILE"`

	Notifications NotificationConfig
	Session       SessionConfig

	Mongo MongoConfig
	Redis RedisConfig
}

type NotificationConfig struct {
	PollInterval time.Duration `env:"NOTIFICATION_POLL_INTERVAL,  default=30s"`
	PageSize     int           `env:"NOTIFICATION_PAGE_SIZE,      default=20"`
	FetchTimeout time.Duration `env:"NOTIFICATION_FETCH_TIMEOUT,  default=10s"`
}

type SessionConfig struct {
	HandoffCloseDelay time.Duration `env:"HANDOFF_CLOSE_DELAY,   default=500ms"`
	BeaconWorkers     int           `env:"BEACON_WORKERS,        default=4"`
	IdleTimeout       time.Duration `env:"SESSION_IDLE_TIMEOUT,  default=30m"`
	DeviceCookieTTL   time.Duration `env:"DEVICE_COOKIE_TTL,     default=8760h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=session_gateway"`
}

type RedisConfig struct {
	Addr         string        `env:"REDIS_ADDR,          default=localhost:6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB,            default=0"`
	EphemeralTTL time.Duration `env:"REDIS_EPHEMERAL_TTL, default=12h"`
}

// IsDevelopment reports whether the process runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory, StorageRemote:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StorageRemote, c.Storage)
	}
	if c.ClientSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("CLIENT_SECRET is required outside development")
	}
	if c.Notifications.PollInterval <= 0 {
		return fmt.Errorf("NOTIFICATION_POLL_INTERVAL must be positive")
	}
	if c.Notifications.PageSize <= 0 {
		return fmt.Errorf("NOTIFICATION_PAGE_SIZE must be positive")
	}
	return nil
}

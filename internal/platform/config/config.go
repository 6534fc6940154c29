package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers understood by the merge server.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// DefaultBootstrapURL is the fixed location of the bootstrap document that
// names the sync endpoint.
const DefaultBootstrapURL = "https://ledger-sync.example.com/bootstrap.txt"

// DefaultDebounceInterval is the quiet period before an automatic push.
const DefaultDebounceInterval = 3 * time.Second

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	LogLevel     string
	LogFormat    string

	// Merge server
	StoreDriver        string
	DatabaseURL        string
	EnableDBCheck      bool
	MigrationsPath     string
	RedisHost          string
	RedisPort          int
	RedisPassword      string
	RedisDB            int
	RateLimit          string
	CORSAllowedOrigins []string
	PublicBaseURL      string
	DeploymentID       string

	// Device host
	BootstrapURL         string
	LocalDBPath          string
	SyncDebounceInterval time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("ENABLE_DB_CHECK", true)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT", "600-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("PUBLIC_BASE_URL", "https://localhost:8080")
	v.SetDefault("DEPLOYMENT_ID", "local-deployment")
	v.SetDefault("BOOTSTRAP_URL", DefaultBootstrapURL)
	v.SetDefault("LOCAL_DB_PATH", "ledger_local.db")
	v.SetDefault("SYNC_DEBOUNCE_INTERVAL", DefaultDebounceInterval.String())

	v.AutomaticEnv()

	cfg := &Config{
		Port:          v.GetString("PORT"),
		IsProduction:  v.GetBool("IS_PRODUCTION"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:   v.GetString("PGSQL_URL"),
		EnableDBCheck: v.GetBool("ENABLE_DB_CHECK"),
		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetInt("REDIS_PORT"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		RateLimit:     v.GetString("RATE_LIMIT"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		DeploymentID:  v.GetString("DEPLOYMENT_ID"),
		BootstrapURL:  v.GetString("BOOTSTRAP_URL"),
		LocalDBPath:   v.GetString("LOCAL_DB_PATH"),
	}
	cfg.MigrationsPath = v.GetString("MIGRATIONS_PATH")

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.StoreDriver {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: STORE_DRIVER is postgres but PGSQL_URL is not set.")
		}
	default:
		log.Printf("Warning: Unknown STORE_DRIVER ('%s'). Defaulting to %s.\n", cfg.StoreDriver, StoreMemory)
		cfg.StoreDriver = StoreMemory
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	// Load debounce interval (e.g., "3s", "500ms")
	debounceStr := v.GetString("SYNC_DEBOUNCE_INTERVAL")
	debounce, err := time.ParseDuration(debounceStr)
	if err != nil || debounce <= 0 {
		debounce = DefaultDebounceInterval
		log.Printf("Warning: Invalid value for SYNC_DEBOUNCE_INTERVAL ('%s'). Defaulting to %s.\n", debounceStr, debounce.String())
	}
	cfg.SyncDebounceInterval = debounce

	if cfg.BootstrapURL == "" {
		cfg.BootstrapURL = DefaultBootstrapURL
	}

	return cfg, nil
}

// ExecURL is the sync endpoint this server answers on, as advertised in the
// bootstrap document.
func (c *Config) ExecURL() string {
	return c.PublicBaseURL + "/macros/s/" + c.DeploymentID + "/exec"
}

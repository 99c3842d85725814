package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	AllowedOrigin string
	// Catalog sources, checked in order: DB_DSN, CATALOG_OBJECT_KEY, CATALOG_FILE, embedded
	DBUrl            string
	CatalogObjectKey string
	CatalogFile      string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string
	R2DownloadTimeout time.Duration
	// Cache
	CacheProductTTL      time.Duration
	CacheCleanupInterval time.Duration
	// HTTP
	RateLimitRPS       float64
	RateLimitBurst     int
	RateLimitCleanup   time.Duration
	RateLimitClientTTL time.Duration
	// Comma-separated proxy IPs/CIDRs whose X-Forwarded-For is honored
	TrustedProxies  string
	EventsHeartbeat time.Duration
	ShutdownTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// Missing .env is normal outside local dev.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBUrl:            getEnv("DB_DSN", ""),
		CatalogObjectKey: getEnv("CATALOG_OBJECT_KEY", ""),
		CatalogFile:      getEnv("CATALOG_FILE", ""),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 10),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 1),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", 15*time.Minute),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		R2DownloadTimeout: getDurationEnv("R2_DOWNLOAD_TIMEOUT", 30*time.Second),

		// Catalog is read-only, so entries can live a while
		CacheProductTTL:      getDurationEnv("CACHE_PRODUCT_TTL", 10*time.Minute),
		CacheCleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		RateLimitRPS:       getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 100),
		RateLimitCleanup:   getDurationEnv("RATE_LIMIT_CLEANUP", time.Minute),
		RateLimitClientTTL: getDurationEnv("RATE_LIMIT_CLIENT_TTL", 3*time.Minute),
		TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),
		EventsHeartbeat: getDurationEnv("EVENTS_HEARTBEAT", 15*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive (rps=%v, burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.RateLimitCleanup <= 0 || c.RateLimitClientTTL <= 0 {
		return fmt.Errorf("RATE_LIMIT_CLEANUP (%s) and RATE_LIMIT_CLIENT_TTL (%s) must be positive", c.RateLimitCleanup, c.RateLimitClientTTL)
	}
	if c.EventsHeartbeat <= 0 {
		return errors.New("EVENTS_HEARTBEAT must be positive")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.CatalogObjectKey != "" && !c.R2Enabled() {
		return errors.New("CATALOG_OBJECT_KEY requires R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_ACCESS_KEY_SECRET and R2_BUCKET_NAME")
	}
	return nil
}

// R2Enabled reports whether enough credentials are present to build an object store client.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2BucketName != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

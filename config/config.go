package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Storage backend: "sqlite" (default) or "postgres".
	StorageBackend string
	SQLitePath     string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Browser session.
	ChromeBin       string
	SessionRetries  int
	ResultsTimeout  time.Duration
	SettleDelay     time.Duration
	ScrollDelay     time.Duration
	StableScrolls   int
	ExpandLocations bool

	// Website email enrichment.
	EnrichEmails   bool
	EnrichTimeout  time.Duration
	MaxConcurrency int
	RateLimitMs    int

	// Outputs.
	CSVOutputPath string
	HTTPPort      int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StorageBackend: getEnv("STORAGE_BACKEND", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "./leads.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "leadfinder"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "leadfinder123"),
		PostgresDB:       getEnv("POSTGRES_DB", "leads_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ChromeBin:       getEnv("CHROME_BIN", ""),
		SessionRetries:  getEnvInt("SESSION_RETRIES", 3),
		ResultsTimeout:  getEnvDuration("RESULTS_TIMEOUT_MS", 20000),
		SettleDelay:     getEnvDuration("SETTLE_DELAY_MS", 1500),
		ScrollDelay:     getEnvDuration("SCROLL_DELAY_MS", 1000),
		StableScrolls:   getEnvInt("STABLE_SCROLLS", 20),
		ExpandLocations: getEnvBool("EXPAND_LOCATIONS", true),

		EnrichEmails:   getEnvBool("ENRICH_EMAILS", false),
		EnrichTimeout:  getEnvDuration("ENRICH_TIMEOUT_MS", 15000),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/leads.csv"),
		HTTPPort:      getEnvInt("HTTP_PORT", 5000),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}

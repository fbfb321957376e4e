package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// AppConfig holds the runtime settings for the reference backend and the
// client stack. Loaded once at startup from the environment, with a .env
// file as a convenience for local development.
type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// BalanceEpsilon is the double-entry tolerance. A business setting,
	// not a hardcoded literal.
	BalanceEpsilon decimal.Decimal

	// NetworkTimeout bounds every backend request from the client side.
	NetworkTimeout time.Duration

	// CacheTTL expires cached record sets even without a local mutation,
	// so other users' changes eventually show up. Zero disables expiry.
	CacheTTL time.Duration
}

var Cfg *AppConfig

// LoadConfig reads the environment (and an optional .env file) into Cfg.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found. Relying on OS environment variables and defaults.")
	}

	epsilonStr := getEnv("BALANCE_EPSILON", "0.01")
	epsilon, err := decimal.NewFromString(epsilonStr)
	if err != nil || !epsilon.IsPositive() {
		log.Printf("WARNING: Invalid BALANCE_EPSILON '%s'. Using default 0.01.", epsilonStr)
		epsilon = decimal.NewFromFloat(0.01)
	}

	Cfg = &AppConfig{
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./trade.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		BalanceEpsilon: epsilon,
		NetworkTimeout: getEnvAsDuration("NETWORK_TIMEOUT", 30*time.Second),
		CacheTTL:       getEnvAsDuration("CACHE_TTL", 5*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Host   string
	Port   int
	Domain string

	// Database configuration
	DatabasePath string

	// Strava API configuration
	StravaClientID     string
	StravaClientSecret string
	StravaVerifyToken  string

	// Ethereum configuration
	SignerPrivateKey string
	ContractAddress  string
	EthRPCURL        string

	// How long issuance waits before the first oracle read, to absorb
	// block-confirmation latency. Applied once, never in a loop.
	OracleConfirmationDelay time.Duration

	// Notification configuration
	SendgridAPIKey     string
	SenderEmailAddress string

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int

	// Logging configuration
	LogLevel string
}

// Load reads configuration from environment variables
// It fails fast if required variables are missing
func Load() (*Config, error) {
	cfg := &Config{
		// Optional values with defaults
		Host:                    getEnv("HOST", "localhost"),
		Port:                    getEnvInt("PORT", 4201),
		Domain:                  getEnv("DOMAIN", "localhost"),
		DatabasePath:            getEnv("DATABASE_PATH", "./data.db"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		EthRPCURL:               getEnv("ETH_RPC_URL", "https://polygon-rpc.com"),
		OracleConfirmationDelay: time.Duration(getEnvInt("ORACLE_CONFIRMATION_DELAY_SECONDS", 5)) * time.Second,
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", false),
		MetricsHost:             getEnv("METRICS_HOST", "localhost"),
		MetricsPort:             getEnvInt("METRICS_PORT", 4202),
	}

	// Required values
	var missingVars []string

	cfg.StravaClientID = os.Getenv("STRAVA_CLIENT_ID")
	if cfg.StravaClientID == "" {
		missingVars = append(missingVars, "STRAVA_CLIENT_ID")
	}

	cfg.StravaClientSecret = os.Getenv("STRAVA_CLIENT_SECRET")
	if cfg.StravaClientSecret == "" {
		missingVars = append(missingVars, "STRAVA_CLIENT_SECRET")
	}

	cfg.StravaVerifyToken = os.Getenv("STRAVA_VERIFY_TOKEN")
	if cfg.StravaVerifyToken == "" {
		missingVars = append(missingVars, "STRAVA_VERIFY_TOKEN")
	}

	cfg.SignerPrivateKey = os.Getenv("SIGNER_PRIVATE_KEY")
	if cfg.SignerPrivateKey == "" {
		missingVars = append(missingVars, "SIGNER_PRIVATE_KEY")
	}

	cfg.ContractAddress = os.Getenv("CONTRACT_ADDRESS")
	if cfg.ContractAddress == "" {
		missingVars = append(missingVars, "CONTRACT_ADDRESS")
	}

	cfg.SendgridAPIKey = os.Getenv("SENDGRID_API_KEY")
	if cfg.SendgridAPIKey == "" {
		missingVars = append(missingVars, "SENDGRID_API_KEY")
	}

	cfg.SenderEmailAddress = os.Getenv("SENDER_EMAIL_ADDRESS")
	if cfg.SenderEmailAddress == "" {
		missingVars = append(missingVars, "SENDER_EMAIL_ADDRESS")
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

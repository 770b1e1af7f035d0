package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// BatchProfile tunes one named bulk-classification operation: window size
// against external rate-limit headroom.
type BatchProfile struct {
	BatchSize  int
	Delay      time.Duration
	MaxRetries int
}

// Named batch profiles. Unknown names resolve to "default".
const (
	ProfileDefault    = "default"
	ProfileCSVImport  = "csv_import"
	ProfileReanalysis = "reanalysis"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string
	DirectURL   string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int
	LLMMaxRetries  int
	LLMRetryBaseMS int

	// Cache
	CacheResultTTLMin int

	// Performance ledger
	LedgerMaxEntries int

	// CORS
	AllowedOrigins []string

	batchProfiles map[string]BatchProfile
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DirectURL:   getEnv("DIRECT_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "feedbacksense"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 30),
		LLMMaxRetries:  getEnvInt("LLM_MAX_RETRIES", 3),
		LLMRetryBaseMS: getEnvInt("LLM_RETRY_BASE_MS", 1000),

		// Cache
		CacheResultTTLMin: getEnvInt("CACHE_RESULT_TTL_MIN", 30),

		// Performance ledger
		LedgerMaxEntries: getEnvInt("LEDGER_MAX_ENTRIES", 1000),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		batchProfiles: map[string]BatchProfile{
			ProfileDefault:    {BatchSize: 5, Delay: time.Second, MaxRetries: 3},
			ProfileCSVImport:  {BatchSize: 10, Delay: 2 * time.Second, MaxRetries: 3},
			ProfileReanalysis: {BatchSize: 3, Delay: 1500 * time.Millisecond, MaxRetries: 2},
		},
	}, nil
}

// GetBatchConfig looks up a named batch profile. Unknown names fall back
// to the default profile.
func (c *Config) GetBatchConfig(name string) BatchProfile {
	if profile, ok := c.batchProfiles[name]; ok {
		return profile
	}
	return c.batchProfiles[ProfileDefault]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

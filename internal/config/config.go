package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env  string
	Port string

	// InternalAPIKey guards the direct ledger endpoints.
	InternalAPIKey string
	AllowedOrigins []string

	// AI collaborator
	AIProvider         string // perplexity | gemini | none
	PerplexityAPIKey   string
	PerplexityBaseURL  string
	PerplexityModel    string
	SearchContextSize  string
	GeminiModel        string
	GeminiVisionModel  string
	GeminiAPIKey       string
	AIMaxTokens        int
	AITimeout          time.Duration
	AIMaxRetries       int
	AIRetryInitialWait time.Duration

	// Record storage
	StorageBackend string // sql | gcs
	GCSBucket      string
	GCSPrefix      string
	GCSCredentials string

	// Conversation state
	PendingActionTTL time.Duration
	HistoryRetention int

	// Telegram
	TelegramToken       string
	TelegramPollTimeout time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		AIProvider:        getEnv("AI_PROVIDER", "perplexity"),
		PerplexityAPIKey:  getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityBaseURL: getEnv("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
		PerplexityModel:   getEnv("SOFIA_MODEL", "sonar"),
		SearchContextSize: getEnv("SOFIA_SEARCH_CONTEXT_SIZE", "low"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiVisionModel: getEnv("GEMINI_VISION_MODEL", "gemini-2.0-flash"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),

		StorageBackend: getEnv("STORAGE_BACKEND", "sql"),
		GCSBucket:      getEnv("GCS_BUCKET", ""),
		GCSPrefix:      getEnv("GCS_PREFIX", "users"),
		GCSCredentials: getEnv("GCS_CREDENTIALS_FILE", ""),

		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
	}

	config.AIMaxTokens = getInt("SOFIA_MAX_TOKENS", 1500)
	config.AIMaxRetries = getInt("AI_MAX_RETRIES", 2)
	config.HistoryRetention = getInt("HISTORY_RETENTION", 100)

	config.AITimeout = getDuration("AI_TIMEOUT", 20*time.Second)
	config.AIRetryInitialWait = getDuration("AI_RETRY_INITIAL_DELAY", time.Second)
	config.PendingActionTTL = getDuration("PENDING_ACTION_TTL", 30*time.Minute)
	config.TelegramPollTimeout = getDuration("TELEGRAM_POLL_TIMEOUT", 10*time.Second)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// AIConfigured reports whether the selected provider has credentials.
func (c *Config) AIConfigured() bool {
	switch c.AIProvider {
	case "perplexity":
		return c.PerplexityAPIKey != ""
	case "gemini":
		return c.GeminiAPIKey != ""
	default:
		return false
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

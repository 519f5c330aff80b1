package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// API server settings
	APIAddr string
	APIKey  string
	DevMode bool

	// X API settings
	XBearerToken string
	PollInterval time.Duration

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// OpenRouter / hosted model settings
	OpenRouterAPIKey string
	SentimentModel   string

	// Solana settings for on-chain registration
	SolanaRPCURL     string
	WalletPrivateKey string

	// Telegram bot settings
	TelegramBotToken string
	APIBaseURL       string
}

func Load() *Config {
	return &Config{
		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// X API
		XBearerToken: getEnv("X_BEARER_TOKEN", ""),
		PollInterval: getDurationEnv("POLL_INTERVAL", 15*time.Minute),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "social"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// Hosted model
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		SentimentModel:   getEnv("SENTIMENT_MODEL", "openai/gpt-4.1-mini"),

		// Solana
		SolanaRPCURL:     getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),

		// Telegram
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		APIBaseURL:       getEnv("API_BASE_URL", "http://127.0.0.1:8090"),
	}
}

// Validate checks settings that every service needs. Service-specific
// requirements (bearer token, bot token, wallet key) are checked by the
// service that uses them.
func (c *Config) Validate() error {
	if c.APIAddr == "" {
		return fmt.Errorf("API_ADDR must not be empty")
	}
	if c.PollInterval < time.Minute {
		return fmt.Errorf("POLL_INTERVAL below 1m would exhaust the search quota")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

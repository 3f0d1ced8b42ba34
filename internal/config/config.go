// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	QuoteModel      string
	ChatTimeout     time.Duration

	// Pinning (Pinata)
	PinataJWT string

	// Chain settings
	EthRPCURL        string
	ChainID          int64
	QuoteNFTContract string
	MinterPrivateKey string
	MintGasLimit     uint64

	// NFT indexer (Alchemy NFT API, key included in the URL)
	NFTAPIURL string

	// Mint pipeline
	StageTimeout   time.Duration
	PublishRetries int

	// Rate limiting: the per-identifier quote window plus a coarse
	// per-IP ceiling in front of every route.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	GlobalRateLimit   int

	// NATS settings
	NATSURL   string
	NATSToken string

	// JWT settings
	JWTSecret string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		QuoteModel:      getEnv("QUOTE_MODEL", ""),
		ChatTimeout:     getDurationEnv("CHAT_TIMEOUT", 30*time.Second),

		// Pinning
		PinataJWT: getEnv("PINATA_JWT", ""),

		// Chain
		EthRPCURL:        getEnv("ETH_RPC_URL", ""),
		ChainID:          int64(getIntEnv("CHAIN_ID", 11155111)),
		QuoteNFTContract: getEnv("QUOTE_NFT_CONTRACT", ""),
		MinterPrivateKey: getEnv("MINTER_PRIVATE_KEY", ""),
		MintGasLimit:     uint64(getIntEnv("MINT_GAS_LIMIT", 250000)),

		// NFT indexer
		NFTAPIURL: getEnv("NFT_API_URL", ""),

		// Mint pipeline
		StageTimeout:   getDurationEnv("STAGE_TIMEOUT", 20*time.Second),
		PublishRetries: getIntEnv("PUBLISH_RETRIES", 2),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 5),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		GlobalRateLimit:   getIntEnv("GLOBAL_RATE_LIMIT", 100),

		// NATS; empty URL disables event publishing.
		NATSURL:   getEnv("NATS_URL", ""),
		NATSToken: getEnv("NATS_TOKEN", ""),

		// JWT; empty secret disables wallet auth on /mint.
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Provider selection. One of auto, claude, openai, gemini, groq,
	// openrouter, bedrock, local.
	ProviderMode string

	// Provider credentials and endpoints.
	AnthropicAPIKey  string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	GeminiAPIKey     string
	GroqAPIKey       string
	OpenRouterAPIKey string
	OllamaBaseURL    string
	OllamaModel      string

	// Bedrock-hosted Claude (optional, registered when enabled or when a
	// pinned model id is set; an empty model id lets the provider tier by
	// profile completeness).
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	BedrockEnabled     bool
	BedrockModelID     string

	// Request handling.
	RequestTimeout  time.Duration
	ConversationTTL time.Duration
	KeepRecentTurns int

	// Quota windows. Zero disables the corresponding limit.
	GeminiRPM int
	GeminiRPD int
	GroqRPM   int

	// HTTP surface.
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ProviderMode: strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER_MODE", "auto"))),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "llama3"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		BedrockEnabled:     getEnvAsBool("BEDROCK_ENABLED", false),
		BedrockModelID:     getEnv("BEDROCK_MODEL_ID", ""),

		RequestTimeout:  getEnvAsDuration("AI_REQUEST_TIMEOUT", 60*time.Second),
		ConversationTTL: getEnvAsDuration("CONVERSATION_TTL", 0),
		KeepRecentTurns: getEnvAsInt("CONVERSATION_KEEP_RECENT_TURNS", 6),

		GeminiRPM: getEnvAsInt("GEMINI_RPM_LIMIT", 15),
		GeminiRPD: getEnvAsInt("GEMINI_RPD_LIMIT", 1500),
		GroqRPM:   getEnvAsInt("GROQ_RPM_LIMIT", 30),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnvAsSlice splits a comma-separated environment variable, dropping
// empty entries.
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

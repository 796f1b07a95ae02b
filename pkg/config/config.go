package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultEligibleLenders is the fixed set of lenders shown by the eligible-only filter
const DefaultEligibleLenders = "SoFi,Earnest,Laurel Road"

// Config holds application configuration
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string
	// Security configuration
	AllowedOrigins     string
	TrustedProxies     string
	EnableRateLimit    bool
	RateLimitPerMinute int
	MaxRequestSize     int64
	// Sessions
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	// Hosted account backend
	IdentityAPIKey      string
	IdentityEndpoint    string
	DocumentStoreURL    string
	DocumentStoreAPIKey string
	// Hosted chat assistant
	AssistantAPIKey   string
	AssistantName     string
	AssistantEndpoint string
	AssistantModel    string
	// Lender quotes
	QuotesEndpoint    string
	QuotesUseFallback bool
	EligibleLenders   string
	UpstreamTimeout   time.Duration
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
		// Security configuration
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit:    getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		MaxRequestSize:     getEnvAsInt64("MAX_REQUEST_SIZE", 1024*1024), // 1MB default
		// Sessions
		RedisAddress:  getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		// Hosted account backend
		IdentityAPIKey:      getEnv("IDENTITY_API_KEY", ""),
		IdentityEndpoint:    getEnv("IDENTITY_ENDPOINT", "https://identitytoolkit.googleapis.com/v1"),
		DocumentStoreURL:    getEnv("DOCUMENT_STORE_URL", ""),
		DocumentStoreAPIKey: getEnv("DOCUMENT_STORE_API_KEY", ""),
		// Hosted chat assistant
		AssistantAPIKey:   getEnv("ASSISTANT_API_KEY", ""),
		AssistantName:     getEnv("ASSISTANT_NAME", ""),
		AssistantEndpoint: getEnv("ASSISTANT_ENDPOINT", "https://prod-1-data.ke.pinecone.io/assistant/chat"),
		AssistantModel:    getEnv("ASSISTANT_MODEL", "gpt-4o"),
		// Lender quotes
		QuotesEndpoint:    getEnv("QUOTES_ENDPOINT", ""),
		QuotesUseFallback: getEnvAsBool("QUOTES_USE_FALLBACK", false),
		EligibleLenders:   getEnv("ELIGIBLE_LENDERS", DefaultEligibleLenders),
		UpstreamTimeout:   getEnvAsDuration("UPSTREAM_TIMEOUT", 30*time.Second),
	}
}

// Validate checks settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required in %s", c.Environment)
		}
		c.JWTSecret = "development-secret"
	}
	if !c.UsesHostedIdentity() && c.DatabaseURL == "" {
		return fmt.Errorf("either IDENTITY_API_KEY or DATABASE_URL must be set")
	}
	if !c.UsesHostedDocuments() && c.DatabaseURL == "" {
		return fmt.Errorf("either DOCUMENT_STORE_URL or DATABASE_URL must be set")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesHostedIdentity returns true if accounts live in the hosted identity backend
func (c *Config) UsesHostedIdentity() bool {
	return c.IdentityAPIKey != ""
}

// UsesHostedDocuments returns true if user documents live in the hosted document store
func (c *Config) UsesHostedDocuments() bool {
	return c.DocumentStoreURL != ""
}

// HasAssistantCredentials returns true if the chat assistant is configured
func (c *Config) HasAssistantCredentials() bool {
	return c.AssistantAPIKey != "" && c.AssistantName != ""
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	return splitAndTrim(c.AllowedOrigins)
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return splitAndTrim(c.TrustedProxies)
}

// GetEligibleLenders returns the lender names kept by the eligible-only filter
func (c *Config) GetEligibleLenders() []string {
	return splitAndTrim(c.EligibleLenders)
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

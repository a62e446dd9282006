package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string // GSI1 - sparse partitions and reverse lookups by user
	EventBusName  string
	MediaBucket   string
	StagingPrefix string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Notifications
	SESFromEmail string
	BaseURL      string

	// Extraction service
	OpenAIAPIKey          string
	OpenAIModel           string
	ExtractAttempts       int
	ExtractAttemptTimeout time.Duration

	// Ingestion limits
	IngestMaxFiles      int
	IngestMaxFileBytes  int64
	IngestMaxTotalBytes int64
	IngestLockTTL       time.Duration

	// HTTP
	AllowedOrigins []string

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "holdthatthought"),
		IndexName:     getEnv("INDEX_NAME", "GSI1"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "holdthatthought-events"),
		MediaBucket:   getEnv("MEDIA_BUCKET", ""),
		StagingPrefix: getEnv("STAGING_PREFIX", "staging"),

		IsLambda:           os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "",
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		BaseURL:      getEnv("BASE_URL", "http://localhost:5173"),

		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o"),
		ExtractAttempts:       getEnvInt("EXTRACT_ATTEMPTS", 4),
		ExtractAttemptTimeout: getEnvDuration("EXTRACT_ATTEMPT_TIMEOUT", 90*time.Second),

		IngestMaxFiles:      getEnvInt("INGEST_MAX_FILES", 20),
		IngestMaxFileBytes:  getEnvInt64("INGEST_MAX_FILE_BYTES", 10<<20),
		IngestMaxTotalBytes: getEnvInt64("INGEST_MAX_TOTAL_BYTES", 40<<20),
		IngestLockTTL:       getEnvDuration("INGEST_LOCK_TTL", 10*time.Minute),

		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
		if c.MediaBucket == "" {
			return fmt.Errorf("MEDIA_BUCKET is required")
		}
		if c.SESFromEmail == "" {
			return fmt.Errorf("SES_FROM_EMAIL is required")
		}
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt64 gets a 64-bit integer environment variable with a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

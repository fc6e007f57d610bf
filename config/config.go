package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Extraction provider names accepted by EXTRACTION_PROVIDER.
const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Contest configuration
	Contest ContestConfig

	// Screenshot extraction configuration
	Extraction ExtractionConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// AWS Bedrock configuration
	Bedrock BedrockConfig

	// Payout provider configuration
	Payout PayoutConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// ContestConfig holds defaults applied to new contests
type ContestConfig struct {
	DefaultStartingBalance decimal.Decimal
}

// ExtractionConfig selects the vision provider used for screenshots
type ExtractionConfig struct {
	Provider string // openai or bedrock
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// BedrockConfig holds AWS Bedrock configuration
type BedrockConfig struct {
	Region    string
	ModelID   string
	MaxTokens int
}

// PayoutConfig holds payments provider configuration
type PayoutConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port               int
	CORSAllowedOrigins string
	RequestTimeoutSec  int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Contest: ContestConfig{
			DefaultStartingBalance: getEnvDecimal("CONTEST_DEFAULT_STARTING_BALANCE", decimal.NewFromInt(10_000)),
		},
		Extraction: ExtractionConfig{
			Provider: getEnvString("EXTRACTION_PROVIDER", ProviderOpenAI),
		},
		OpenAI: OpenAIConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     getEnvString("OPENAI_MODEL", "gpt-4o"),
			MaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 1024),
		},
		Bedrock: BedrockConfig{
			Region:    getEnvString("AWS_REGION", "us-east-1"),
			ModelID:   getEnvString("BEDROCK_MODEL_ID", "anthropic.claude-3-5-sonnet-20241022-v2:0"),
			MaxTokens: getEnvInt("BEDROCK_MAX_TOKENS", 1024),
		},
		Payout: PayoutConfig{
			APIKey:    os.Getenv("PAYOUT_API_KEY"),
			APISecret: os.Getenv("PAYOUT_API_SECRET"),
			BaseURL:   getEnvString("PAYOUT_BASE_URL", "https://api.payments.example.com"),
		},
		HTTP: HTTPConfig{
			Port:               getEnvInt("HTTP_PORT", 8080),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeoutSec:  getEnvInt("HTTP_REQUEST_TIMEOUT_SEC", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Extraction.Provider != ProviderOpenAI && c.Extraction.Provider != ProviderBedrock {
		return fmt.Errorf("EXTRACTION_PROVIDER must be %q or %q, got %q",
			ProviderOpenAI, ProviderBedrock, c.Extraction.Provider)
	}
	if c.Contest.DefaultStartingBalance.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("CONTEST_DEFAULT_STARTING_BALANCE must be positive, got %s",
			c.Contest.DefaultStartingBalance)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT_SEC must be positive, got %d", c.HTTP.RequestTimeoutSec)
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasOpenAI returns true if OpenAI configuration is available
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasPayout returns true if payments provider configuration is available
func (c *Config) HasPayout() bool {
	return c.Payout.APIKey != "" && c.Payout.APISecret != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if parsed, err := decimal.NewFromString(val); err == nil && parsed.IsPositive() {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "",
		},
		Contest: ContestConfig{
			DefaultStartingBalance: decimal.NewFromInt(10_000),
		},
		Extraction: ExtractionConfig{
			Provider: ProviderOpenAI,
		},
		OpenAI: OpenAIConfig{
			APIKey:    "",
			Model:     "gpt-4o",
			MaxTokens: 1024,
		},
		Bedrock: BedrockConfig{
			Region:    "us-east-1",
			ModelID:   "anthropic.claude-3-5-sonnet-20241022-v2:0",
			MaxTokens: 1024,
		},
		Payout: PayoutConfig{
			APIKey:    "",
			APISecret: "",
			BaseURL:   "https://api.payments.example.com",
		},
		HTTP: HTTPConfig{
			Port:               8080,
			CORSAllowedOrigins: "*",
			RequestTimeoutSec:  60,
		},
	}
}

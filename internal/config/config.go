package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Host        string `mapstructure:"HOST"`
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	GinMode     string `mapstructure:"GIN_MODE"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Auth
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	JWTExpireMinutes int    `mapstructure:"JWT_EXPIRE_MINUTES"`

	// LLM (OpenAI compatible)
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	ChatModel     string `mapstructure:"CHAT_MODEL"`

	// Embeddings
	EmbeddingModel      string `mapstructure:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `mapstructure:"EMBEDDING_DIMENSIONS"`

	// File storage
	StoragePath   string `mapstructure:"STORAGE_PATH"`
	MaxUploadSize int64  `mapstructure:"MAX_UPLOAD_SIZE"`

	// Background ingestion
	IngestQueueSize int `mapstructure:"INGEST_QUEUE_SIZE"`

	// Delay between map-step model calls during summarization, in
	// milliseconds. Kept above zero to stay under provider rate limits.
	SummaryStepDelayMs int `mapstructure:"SUMMARY_STEP_DELAY_MS"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8089")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DATABASE_URL", "postgres://localhost:5432/sage?sslmode=disable")
	viper.SetDefault("JWT_EXPIRE_MINUTES", 24*60)
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("CHAT_MODEL", "gpt-4o-mini")
	viper.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	viper.SetDefault("EMBEDDING_DIMENSIONS", 1536)
	viper.SetDefault("STORAGE_PATH", "./storage")
	viper.SetDefault("MAX_UPLOAD_SIZE", 50*1024*1024)
	viper.SetDefault("INGEST_QUEUE_SIZE", 64)
	viper.SetDefault("SUMMARY_STEP_DELAY_MS", 1000)

	// The .env file is optional.
	_ = viper.ReadInConfig()

	for _, key := range []string{
		"HOST", "PORT", "ENVIRONMENT", "GIN_MODE", "DATABASE_URL",
		"JWT_SECRET", "JWT_EXPIRE_MINUTES",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "CHAT_MODEL",
		"EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS",
		"STORAGE_PATH", "MAX_UPLOAD_SIZE", "INGEST_QUEUE_SIZE",
		"SUMMARY_STEP_DELAY_MS",
	} {
		if val := os.Getenv(key); val != "" {
			viper.Set(key, val)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

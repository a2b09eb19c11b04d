package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"tutorai-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Generation providers, tried in ProviderOrder. Each provider carries
	// a comma-separated credential pool walked in declaration order.
	ProviderOrder     []string      `envconfig:"PROVIDER_ORDER" default:"openai,dashscope"`
	OpenAIAPIKeys     []string      `envconfig:"OPENAI_API_KEYS"`
	OpenAIBaseURL     string        `envconfig:"OPENAI_BASE_URL"`
	OpenAIChatModel   string        `envconfig:"OPENAI_CHAT_MODEL"`
	DashScopeAPIKeys  []string      `envconfig:"DASHSCOPE_API_KEYS"`
	DashScopeBaseURL  string        `envconfig:"DASHSCOPE_BASE_URL"`
	DashScopeModel    string        `envconfig:"DASHSCOPE_MODEL"`
	AttemptTimeout    time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"30s"`
	EmbeddingAPIKey   string        `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingBaseURL  string        `envconfig:"EMBEDDING_BASE_URL"`
	BackfillInterval  time.Duration `envconfig:"BACKFILL_INTERVAL" default:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("TUTOR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return len(c.OpenAIAPIKeys) > 0
}

func (c *Config) HasDashScope() bool {
	return len(c.DashScopeAPIKeys) > 0
}

func (c *Config) HasEmbeddings() bool {
	return c.EmbeddingAPIKey != ""
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Gemini   GeminiConfig
	Redis    RedisConfig
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Port       string `envconfig:"PORT" default:"8080"`
	AppVersion string `envconfig:"APP_VERSION" default:"dev"`
	Env        string `envconfig:"ENV" default:"development"`
	// BodyLimit caps request bodies, scanner photos included.
	BodyLimit int `envconfig:"BODY_LIMIT" default:"10485760"`
}

// GeminiConfig holds the model credential. Either APIKey (Gemini API) or
// Project (Vertex AI) must be set.
type GeminiConfig struct {
	APIKey   string `envconfig:"GEMINI_API_KEY"`
	Model    string `envconfig:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
	Project  string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	Location string `envconfig:"GOOGLE_CLOUD_LOCATION" default:"us-central1"`
}

// UseVertex reports whether the Vertex AI backend should be used.
func (g GeminiConfig) UseVertex() bool {
	return g.APIKey == "" && g.Project != ""
}

// RedisConfig configures the in-flight guard. An empty Addr selects the
// in-process guard.
type RedisConfig struct {
	Addr        string        `envconfig:"REDIS_ADDR"`
	Password    string        `envconfig:"REDIS_PASSWORD"`
	DB          int           `envconfig:"REDIS_DB" default:"0"`
	InFlightTTL time.Duration `envconfig:"INFLIGHT_TTL" default:"60s"`
}

// Load reads the optional env file and then the process environment.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env.dev"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Warnf("%s file not found, using system environment variables", envFile)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if cfg.Gemini.APIKey == "" && cfg.Gemini.Project == "" {
		return nil, fmt.Errorf("either GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT must be set")
	}
	if cfg.Redis.InFlightTTL <= 0 {
		return nil, fmt.Errorf("INFLIGHT_TTL must be positive, got %s", cfg.Redis.InFlightTTL)
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration. It is read once at startup and never mutated.
type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Session  SessionConfig  `envconfig:"SESSION"`
	Backend  BackendConfig  `envconfig:"BACKEND"`
	Playback PlaybackConfig `envconfig:"PLAYBACK"`
	Storage  StorageConfig  `envconfig:"STORAGE"`
	Redis    RedisConfig    `envconfig:"REDIS"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string      `split_words:"true" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// SessionConfig describes the single meeting this process owns
type SessionConfig struct {
	MeetingID string `split_words:"true"`
	Title     string `default:"Untitled meeting"`
	// Live enables dual writes to the backend for participant and transcript actions
	Live bool `default:"false"`
	// Demo seeds the store with the demo meeting
	Demo bool `default:"false"`
}

// BackendConfig holds the remote meeting service settings
type BackendConfig struct {
	URL string `split_words:"true" default:"http://localhost:8000"`
	// DisableAPI turns off every remote call process-wide
	DisableAPI      bool          `envconfig:"DISABLE_API" default:"false"`
	AnalysisPath    string        `split_words:"true" default:"/meetings/demo"`
	Timeout         time.Duration `default:"30s"`
	AnalysisTimeout time.Duration `split_words:"true" default:"5m"`
	MaxRetries      uint64        `envconfig:"SYNC_MAX_RETRIES" default:"2"`
}

// PlaybackConfig holds demo playback settings
type PlaybackConfig struct {
	Period time.Duration `default:"1200ms"`
}

// StorageConfig holds the recording archive configuration
type StorageConfig struct {
	Enabled         bool   `default:"false"`
	Endpoint        string `default:"localhost:9000"`
	AccessKeyID     string `split_words:"true" default:"minioadmin"`
	SecretAccessKey string `split_words:"true" default:"minioadmin"`
	BucketName      string `split_words:"true" default:"levelus-recordings"`
	UseSSL          bool   `envconfig:"USE_SSL" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled       bool   `default:"false"`
	Host          string `default:"localhost"`
	Port          string `default:"6379"`
	Password      string
	DB            int    `default:"0"`
	ChannelPrefix string `split_words:"true" default:"levelus:meeting:"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Playback.Period <= 0 {
		return fmt.Errorf("PLAYBACK_PERIOD must be positive, got %s", c.Playback.Period)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout)
	}
	u, err := url.ParseRequestURI(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("BACKEND_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("BACKEND_URL must be http or https, got %q", u.Scheme)
	}
	if c.Storage.Enabled && c.Storage.BucketName == "" {
		return fmt.Errorf("STORAGE_BUCKET_NAME is required when storage is enabled")
	}
	return nil
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

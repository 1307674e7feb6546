package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Download   DownloadConfig   `yaml:"download"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Upload     UploadConfig     `yaml:"upload"`
	Generation GenerationConfig `yaml:"generation"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"7860"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"15m"`
	RateLimit    int           `yaml:"rate_limit" envconfig:"SERVER_RATE_LIMIT" default:"30"` // requests per minute per client
	MaxUpload    int64         `yaml:"max_upload" envconfig:"SERVER_MAX_UPLOAD" default:"2147483648"`
}

// StorageConfig holds local filesystem configuration.
type StorageConfig struct {
	DownloadsDir string `yaml:"downloads_dir" envconfig:"DOWNLOADS_DIR" default:"downloads"`
	ScriptsDir   string `yaml:"scripts_dir" envconfig:"SCRIPTS_DIR" default:"data"`
	SettingsPath string `yaml:"settings_path" envconfig:"SETTINGS_PATH" default:"config.json"`
	TempDir      string `yaml:"temp_dir" envconfig:"TEMP_DIR"`
}

// ResolverConfig holds share URL resolution configuration.
type ResolverConfig struct {
	BaseURL  string        `yaml:"base_url" envconfig:"RESOLVER_BASE_URL" default:"https://api.suxun.site"`
	Platform string        `yaml:"platform" envconfig:"RESOLVER_PLATFORM" default:"douyin"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"RESOLVER_TIMEOUT" default:"30s"`
}

// DownloadConfig holds video download configuration.
type DownloadConfig struct {
	Timeout     time.Duration `yaml:"timeout" envconfig:"DOWNLOAD_TIMEOUT" default:"60s"`
	ReadTimeout time.Duration `yaml:"read_timeout" envconfig:"DOWNLOAD_READ_TIMEOUT" default:"60s"`
	ChunkSize   int           `yaml:"chunk_size" envconfig:"DOWNLOAD_CHUNK_SIZE" default:"8192"`
	UserAgent   string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
}

// GeminiConfig holds AI backend configuration.
type GeminiConfig struct {
	APIKey        string        `yaml:"api_key" envconfig:"GEMINI_API_KEY"`
	BaseURL       string        `yaml:"base_url" envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	APIVersion    string        `yaml:"api_version" envconfig:"GEMINI_API_VERSION" default:"v1beta"`
	Model         string        `yaml:"model" envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"GEMINI_TIMEOUT" default:"5m"`
	UploadTimeout time.Duration `yaml:"upload_timeout" envconfig:"GEMINI_UPLOAD_TIMEOUT" default:"10m"`
}

// UploadConfig holds asset polling configuration.
type UploadConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"UPLOAD_POLL_INTERVAL" default:"2s"`
	PollTimeout  time.Duration `yaml:"poll_timeout" envconfig:"UPLOAD_POLL_TIMEOUT" default:"300s"`
}

// GenerationConfig holds retry and pacing configuration for generation calls.
type GenerationConfig struct {
	MaxAttempts int           `yaml:"max_attempts" envconfig:"GENERATION_MAX_ATTEMPTS" default:"5"`
	BaseDelay   time.Duration `yaml:"base_delay" envconfig:"GENERATION_BASE_DELAY" default:"2s"`
	MaxDelay    time.Duration `yaml:"max_delay" envconfig:"GENERATION_MAX_DELAY" default:"60s"`
	ChainPause  time.Duration `yaml:"chain_pause" envconfig:"GENERATION_CHAIN_PAUSE" default:"1s"`
}

// Load reads configuration from environment variables and an optional file.
// envconfig fills defaults and environment values first; keys present in the
// YAML file then take precedence, since envconfig would otherwise overwrite
// file values with tag defaults.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Storage.DownloadsDir == "" {
		return fmt.Errorf("DOWNLOADS_DIR is required")
	}
	if c.Storage.ScriptsDir == "" {
		return fmt.Errorf("SCRIPTS_DIR is required")
	}
	if c.Storage.SettingsPath == "" {
		return fmt.Errorf("SETTINGS_PATH is required")
	}
	if c.Resolver.BaseURL == "" {
		return fmt.Errorf("RESOLVER_BASE_URL is required")
	}
	if c.Gemini.BaseURL == "" {
		return fmt.Errorf("GEMINI_BASE_URL is required")
	}
	if c.Download.ChunkSize <= 0 {
		return fmt.Errorf("DOWNLOAD_CHUNK_SIZE must be positive")
	}
	if c.Upload.PollInterval <= 0 {
		return fmt.Errorf("UPLOAD_POLL_INTERVAL must be positive")
	}
	if c.Generation.MaxAttempts < 1 {
		return fmt.Errorf("GENERATION_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TempDirOrDefault returns the configured temp directory or the system default.
func (c *StorageConfig) TempDirOrDefault() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return os.TempDir()
}

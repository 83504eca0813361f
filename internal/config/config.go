package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   Server   `yaml:"server"`
	Auth     Auth     `yaml:"auth"`
	Storage  S3Config `yaml:"storage"`
	Upload   Upload   `yaml:"upload"`
	History  History  `yaml:"history"`
	LogLevel string   `yaml:"log_level"`
}

// Server holds HTTP listener configuration
type Server struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Auth holds the static user table and session cookie settings
type Auth struct {
	Users  map[string]User `yaml:"users"`
	Cookie Cookie          `yaml:"cookie"`
}

// User is one entry of the static credential table
type User struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// Cookie configures the signed session cookie
type Cookie struct {
	Name       string `yaml:"name"`
	Key        string `yaml:"key"`
	ExpiryDays int    `yaml:"expiry_days"`
}

// S3Config represents S3-compatible storage configuration
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
	Bucket    string `yaml:"bucket"`
}

// Upload represents upload-specific configuration
type Upload struct {
	RateLimit       int   `yaml:"rate_limit"`
	PresignExpiry   int   `yaml:"presign_expiry"`
	MaxRequestBytes int64 `yaml:"max_request_bytes"`
}

// History configures the upload journal
type History struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// Load loads configuration from file and command line flags
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{
		LogLevel: "info",
		Server: Server{
			Addr:        ":8080",
			MetricsAddr: ":9090",
		},
		Auth: Auth{
			Cookie: Cookie{
				Name:       "bucketdrop_session",
				ExpiryDays: 30,
			},
		},
		Upload: Upload{
			RateLimit:       8,
			PresignExpiry:   86400, // 24h
			MaxRequestBytes: 1 << 30,
		},
		History: History{
			Path:    "./history.db",
			Enabled: true,
		},
	}

	// Load from YAML file if provided
	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with command line flags
	if err := loadFromFlags(cfg, flags); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func loadFromFlags(cfg *Config, flags *pflag.FlagSet) error {
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("metrics-addr") {
		cfg.Server.MetricsAddr, _ = flags.GetString("metrics-addr")
	}

	if flags.Changed("s3-endpoint") {
		cfg.Storage.Endpoint, _ = flags.GetString("s3-endpoint")
	}
	if flags.Changed("s3-access-key") {
		cfg.Storage.AccessKey, _ = flags.GetString("s3-access-key")
	}
	if flags.Changed("s3-secret-key") {
		cfg.Storage.SecretKey, _ = flags.GetString("s3-secret-key")
	}
	if flags.Changed("s3-secure") {
		cfg.Storage.Secure, _ = flags.GetBool("s3-secure")
	}
	if flags.Changed("bucket") {
		cfg.Storage.Bucket, _ = flags.GetString("bucket")
	}

	if flags.Changed("rate-limit") {
		cfg.Upload.RateLimit, _ = flags.GetInt("rate-limit")
	}
	if flags.Changed("presign-expiry") {
		cfg.Upload.PresignExpiry, _ = flags.GetInt("presign-expiry")
	}
	if flags.Changed("max-request-bytes") {
		cfg.Upload.MaxRequestBytes, _ = flags.GetInt64("max-request-bytes")
	}

	if flags.Changed("history") {
		cfg.History.Path, _ = flags.GetString("history")
	}
	if flags.Changed("no-history") {
		disabled, _ := flags.GetBool("no-history")
		cfg.History.Enabled = !disabled
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	return nil
}

func (c *Config) validate() error {
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("storage endpoint is required")
	}
	if c.Storage.AccessKey == "" {
		return fmt.Errorf("storage access key is required")
	}
	if c.Storage.SecretKey == "" {
		return fmt.Errorf("storage secret key is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}

	if len(c.Auth.Users) == 0 {
		return fmt.Errorf("at least one user is required")
	}
	for username, u := range c.Auth.Users {
		if u.PasswordHash == "" {
			return fmt.Errorf("user %q has no password hash", username)
		}
	}

	if c.Auth.Cookie.Name == "" {
		return fmt.Errorf("cookie name is required")
	}
	if c.Auth.Cookie.Key == "" {
		return fmt.Errorf("cookie signing key is required")
	}
	if c.Auth.Cookie.ExpiryDays <= 0 {
		return fmt.Errorf("cookie expiry days must be positive")
	}

	if c.Upload.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.Upload.PresignExpiry <= 0 {
		return fmt.Errorf("presign expiry must be positive")
	}

	return nil
}

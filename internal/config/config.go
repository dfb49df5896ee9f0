package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the admin API the dashboard was built against.
const DefaultBaseURL = "http://tnm-test-api.dhanwis.com/api"

// Config represents the complete tutoradmin configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

// APIConfig controls how the admin REST API is reached
type APIConfig struct {
	// BaseURL is prefixed to every endpoint path, e.g. "https://host/api"
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSeconds bounds every single request (default: 15)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// AuthScheme prefixes the token in the Authorization header (default: "Token")
	AuthScheme string `mapstructure:"auth_scheme"`
}

// AuthConfig controls where the login token is kept
type AuthConfig struct {
	// TokenFile is the path of the stored token.
	// If empty, defaults to "token" inside the config directory.
	TokenFile string `mapstructure:"token_file"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory the log file is written to.
	// If empty, defaults to "logs" inside the config directory.
	Dir string `mapstructure:"dir"`
}

// OutputConfig controls how list commands print their results
type OutputConfig struct {
	// Format is one of "table", "json", "yaml" (default: "table")
	Format string `mapstructure:"format"`
}

// CatalogConfig controls the local course catalog
type CatalogConfig struct {
	// File is the YAML file holding categories and courses.
	// If empty, defaults to "catalog.yaml" inside the config directory.
	File string `mapstructure:"file"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			TimeoutSeconds: 15,
			AuthScheme:     "Token",
		},
		Auth: AuthConfig{
			TokenFile: "",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
		Output: OutputConfig{
			Format: "table",
		},
		Catalog: CatalogConfig{
			File: "",
		},
	}
}

// Timeout returns the per-request timeout as a time.Duration
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolveTokenFile returns the token path, falling back to the config directory
func (c *AuthConfig) ResolveTokenFile() string {
	if c.TokenFile != "" {
		return expandHome(c.TokenFile)
	}
	return filepath.Join(ConfigDir(), "token")
}

// ResolveDir returns the log directory, falling back to the config directory
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir != "" {
		return expandHome(c.Dir)
	}
	return filepath.Join(ConfigDir(), "logs")
}

// ResolveFile returns the catalog path, falling back to the config directory
func (c *CatalogConfig) ResolveFile() string {
	if c.File != "" {
		return expandHome(c.File)
	}
	return filepath.Join(ConfigDir(), "catalog.yaml")
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// API defaults
	viper.SetDefault("api.base_url", defaults.API.BaseURL)
	viper.SetDefault("api.timeout_seconds", defaults.API.TimeoutSeconds)
	viper.SetDefault("api.auth_scheme", defaults.API.AuthScheme)

	// Auth defaults
	viper.SetDefault("auth.token_file", defaults.Auth.TokenFile)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)

	// Catalog defaults
	viper.SetDefault("catalog.file", defaults.Catalog.File)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tutoradmin")
	}
	// Fall back to ~/.config/tutoradmin
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tutoradmin"
	}
	return filepath.Join(home, ".config", "tutoradmin")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

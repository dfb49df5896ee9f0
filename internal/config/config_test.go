package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.TimeoutSeconds != 15 {
		t.Errorf("API.TimeoutSeconds = %d, want 15", cfg.API.TimeoutSeconds)
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Output.Format != "table" {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, "table")
	}
}

func TestAPIConfig_Timeout(t *testing.T) {
	cfg := APIConfig{TimeoutSeconds: 30}
	if got := cfg.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout() = %v, want %v", got, 30*time.Second)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		xdg := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdg)

		want := filepath.Join(xdg, "tutoradmin")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
		if got := ConfigFile(); got != filepath.Join(want, "config.yaml") {
			t.Errorf("ConfigFile() = %q, want %q", got, filepath.Join(want, "config.yaml"))
		}
	})
}

func TestResolvePaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	base := filepath.Join(xdg, "tutoradmin")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"token default", (&AuthConfig{}).ResolveTokenFile(), filepath.Join(base, "token")},
		{"token explicit", (&AuthConfig{TokenFile: "/tmp/tok"}).ResolveTokenFile(), "/tmp/tok"},
		{"logs default", (&LoggingConfig{}).ResolveDir(), filepath.Join(base, "logs")},
		{"catalog default", (&CatalogConfig{}).ResolveFile(), filepath.Join(base, "catalog.yaml")},
		{"catalog explicit", (&CatalogConfig{File: "/srv/catalog.yaml"}).ResolveFile(), "/srv/catalog.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads defaults", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.API.BaseURL != DefaultBaseURL {
			t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)
		SetDefaults()
		viper.Set("output.format", "csv")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want validation error")
		}
		errs, ok := err.(ValidationErrors)
		if !ok {
			t.Fatalf("Load() error type = %T, want ValidationErrors", err)
		}
		if len(errs) != 1 || errs[0].Field != "output.format" {
			t.Errorf("Load() errors = %v, want one output.format error", errs)
		}
	})
}

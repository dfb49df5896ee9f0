// Package config provides CLI commands for managing tutoradmin configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appconfig "github.com/dhanwis/tutoradmin/internal/config"
	"github.com/dhanwis/tutoradmin/internal/fileutil"
)

// validKeys maps each settable key to the type its value is parsed as.
var validKeys = map[string]string{
	"api.base_url":        "string",
	"api.timeout_seconds": "int",
	"api.auth_scheme":     "string",
	"auth.token_file":     "string",
	"logging.enabled":     "bool",
	"logging.level":       "string",
	"logging.dir":         "string",
	"output.format":       "string",
	"catalog.file":        "string",
}

// Register adds all config-related commands to the given parent command.
// This is the main entry point for integrating the config subpackage with
// the root command.
func Register(parent *cobra.Command) {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify tutoradmin configuration",
		Long: `View or modify tutoradmin configuration.

Use 'config show' to display the effective configuration.
Use subcommands to modify settings or create a config file.`,
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	configSetCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  tutoradmin config set api.base_url https://example.com/api
  tutoradmin config set output.format json

Valid keys:
  api.base_url         - Admin API base URL
  api.timeout_seconds  - Per-request timeout in seconds
  api.auth_scheme      - Authorization header scheme (Token, Bearer)
  auth.token_file      - Where the login token is stored
  logging.enabled      - Write a log file (true/false)
  logging.level        - debug, info, warn or error
  logging.dir          - Directory of the log file
  output.format        - table, json or yaml
  catalog.file         - YAML file holding the course catalog`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	}

	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Long:  `Create a default config file at ~/.config/tutoradmin/config.yaml with all available options.`,
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}

	configCmd.AddCommand(configShowCmd, configSetCmd, configInitCmd, configPathCmd)
	parent.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		_, _ = fmt.Fprintf(out, "Config file: %s\n\n", viper.ConfigFileUsed())
	} else {
		_, _ = fmt.Fprintf(out, "Config file: (none - using defaults)\n\n")
	}

	data, err := yaml.Marshal(map[string]any{
		"api": map[string]any{
			"base_url":        cfg.API.BaseURL,
			"timeout_seconds": cfg.API.TimeoutSeconds,
			"auth_scheme":     cfg.API.AuthScheme,
		},
		"auth": map[string]any{
			"token_file": cfg.Auth.ResolveTokenFile(),
		},
		"logging": map[string]any{
			"enabled": cfg.Logging.Enabled,
			"level":   cfg.Logging.Level,
			"dir":     cfg.Logging.ResolveDir(),
		},
		"output": map[string]any{
			"format": cfg.Output.Format,
		},
		"catalog": map[string]any{
			"file": cfg.Catalog.ResolveFile(),
		},
	})
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'tutoradmin config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue any
	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typedValue = intVal
	default:
		typedValue = value
	}

	viper.Set(key, typedValue)
	if _, err := appconfig.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = appconfig.ConfigFile()
	}

	// Write only the keys a file or set supplied, so defaults stay defaults
	settings := map[string]any{}
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("failed to parse %s: %w", configFile, err)
		}
		if settings == nil {
			settings = map[string]any{}
		}
	}
	setNested(settings, strings.Split(key, "."), typedValue)

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fileutil.WriteAtomic(configFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

func setNested(m map[string]any, path []string, value any) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[path[0]] = child
	}
	setNested(child, path[1:], value)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'tutoradmin config set' to modify values", configFile)
	}

	defaults := appconfig.Default()
	configContent := fmt.Sprintf(`# tutoradmin configuration

# Admin REST API
api:
  # Prefixed to every endpoint path
  base_url: %s
  # Upper bound for a single request, in seconds
  timeout_seconds: %d
  # Authorization header scheme sent before the token
  auth_scheme: %s

# Login token storage (empty = "token" in the config directory)
auth:
  token_file: ""

# Debug log file
logging:
  enabled: %t
  # debug, info, warn or error
  level: %s
  # Empty = "logs" in the config directory
  dir: ""

# Default output of list commands: table, json or yaml
output:
  format: %s

# Course catalog file (empty = "catalog.yaml" in the config directory)
catalog:
  file: ""
`, defaults.API.BaseURL, defaults.API.TimeoutSeconds, defaults.API.AuthScheme,
		defaults.Logging.Enabled, defaults.Logging.Level, defaults.Output.Format)

	if err := fileutil.WriteAtomic(configFile, []byte(configContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize tutoradmin's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		_, _ = fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		_, _ = fmt.Fprintf(out, "Default path: %s (not created)\n", appconfig.ConfigFile())
	}

	_, _ = fmt.Fprintln(out, "\nEnvironment variables: TUTORADMIN_* (e.g., TUTORADMIN_API_BASE_URL)")
	_, _ = fmt.Fprintln(out, "A .env file in the working directory is read as well.")
	return nil
}

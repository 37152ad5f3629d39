// Package config provides configuration management for mdserve using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the MDSERVE_ prefix, and validation. It manages the server
// binding, browser behavior, page theme, and logging options.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Themes lists the page color schemes the server can render. "auto" follows
// the browser's prefers-color-scheme setting.
var Themes = []string{"auto", "light", "dark"}

// LogFormats lists the supported log output encodings.
var LogFormats = []string{"text", "json"}

// LogLevels lists the accepted log verbosity names.
var LogLevels = []string{"debug", "info", "warn", "warning", "error", "fatal"}

type Config struct {
	Server     ServerConfig `yaml:"server"`
	Log        LogConfig    `yaml:"log"`
	TargetPath string       `yaml:"-"` // CLI argument, not from config file
}

type ServerConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Open  bool   `yaml:"open"`
	Theme string `yaml:"theme"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Apply default values for ServerConfig if not set
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 && !viper.IsSet("server.port") {
		config.Server.Port = 8080
	}
	if config.Server.Theme == "" {
		config.Server.Theme = "auto"
	}

	// Handle open set via viper (workaround for viper bool handling)
	if viper.IsSet("server.open") {
		config.Server.Open = viper.GetBool("server.open")
	}

	// Apply default values for LogConfig if not set
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Validate port range (allow 0 for system-assigned ports in testing)
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	// Validate host
	if config.Host != "" {
		// Basic validation - no dangerous characters
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	if !contains(Themes, config.Theme) {
		return fmt.Errorf("theme %q is not one of %s", config.Theme, strings.Join(Themes, ", "))
	}

	return nil
}

// validateLogConfig validates logging configuration values
func validateLogConfig(config *LogConfig) error {
	if !contains(LogLevels, strings.ToLower(config.Level)) {
		return fmt.Errorf("level %q is not one of %s", config.Level, strings.Join(LogLevels, ", "))
	}

	if !contains(LogFormats, strings.ToLower(config.Format)) {
		return fmt.Errorf("format %q is not one of %s", config.Format, strings.Join(LogFormats, ", "))
	}

	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

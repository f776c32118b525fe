package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the host:port the HTTP server binds to.
	Addr string `mapstructure:"addr" yaml:"addr"`

	// DBPath is the filesystem path of the SQLite database.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// AuthConfig holds OAuth and session settings.
type AuthConfig struct {
	// TwitchClientID and TwitchClientSecret identify the registered
	// Twitch application used for login.
	TwitchClientID     string `mapstructure:"twitch_client_id" yaml:"twitch_client_id"`
	TwitchClientSecret string `mapstructure:"twitch_client_secret" yaml:"twitch_client_secret"`

	// SessionTTLHours is how long an issued session stays valid.
	SessionTTLHours int `mapstructure:"session_ttl_hours" yaml:"session_ttl_hours"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig `mapstructure:"server" yaml:"server"`
	Auth     AuthConfig   `mapstructure:"auth" yaml:"auth"`
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/goaltracker/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "goaltracker", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:   ":8080",
			DBPath: "goaltracker.db",
		},
		Auth: AuthConfig{
			SessionTTLHours: 24 * 30,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.db_path", "goaltracker.db")
	v.SetDefault("auth.session_ttl_hours", 24*30)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

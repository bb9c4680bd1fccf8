// Package config loads mailtothings settings from defaults, an optional YAML
// file, a .env file, MAILTOTHINGS_* environment variables and flags, in
// increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "MAILTOTHINGS"

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	BaseURL         string        `mapstructure:"base_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig controls how add-on requests are authenticated. Mode "google"
// verifies Google-signed ID tokens; "insecure" trusts them unverified and is
// meant for local testing only.
type AuthConfig struct {
	Mode         string `mapstructure:"mode"`
	Audience     string `mapstructure:"audience"`
	UserAudience string `mapstructure:"user_audience"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	ConfigDir string       `mapstructure:"config_dir"`
	Server    ServerConfig `mapstructure:"server"`
	Auth      AuthConfig   `mapstructure:"auth"`
	Store     StoreConfig  `mapstructure:"store"`
	Log       LogConfig    `mapstructure:"log"`
}

// DefaultConfigDir returns ~/.config/mailtothings.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailtothings"
	}
	return filepath.Join(home, ".config", "mailtothings")
}

// Flags registers the command-line flags Load understands.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("mailtothings", pflag.ContinueOnError)
	fs.String("config", "", "path to config.yaml (default <config-dir>/config.yaml)")
	fs.String("config-dir", "", "directory holding client_secret.json, the database and logs")
	fs.String("addr", "", "HTTP listen address")
	fs.String("base-url", "", "public base URL of the add-on endpoints")
	fs.String("auth-mode", "", "request authentication: google or insecure")
	fs.String("db", "", "path to the preferences database")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text, json or logfmt")
	return fs
}

var flagKeys = map[string]string{
	"config-dir": "config_dir",
	"addr":       "server.addr",
	"base-url":   "server.base_url",
	"auth-mode":  "auth.mode",
	"db":         "store.path",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// Load resolves the configuration. fs may be nil; it must already be parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("config_dir", DefaultConfigDir())
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("auth.mode", "google")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.user_audience", "")
	v.SetDefault("store.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flagName, key := range flagKeys {
			if f := fs.Lookup(flagName); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
				}
			}
		}
	}

	path := ""
	if fs != nil {
		path, _ = fs.GetString("config")
	}
	explicit := path != ""
	if !explicit {
		path = filepath.Join(v.GetString("config_dir"), "config.yaml")
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &pathErr) || errors.As(err, &notFound)
		if !missing || explicit {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(cfg.ConfigDir, "mailtothings.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case "google", "insecure":
	default:
		return fmt.Errorf("auth.mode must be google or insecure, got %q", c.Auth.Mode)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

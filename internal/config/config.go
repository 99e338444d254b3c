// Package config loads server settings from flags, an optional YAML file and
// ROOMIES_* environment variables.
//
// Precedence, highest first: flags set on the command line, the config file,
// environment variables, built-in defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

type Config struct {
	Addr       string        `koanf:"addr"`
	DBPath     string        `koanf:"db-path"`
	LogLevel   string        `koanf:"log-level"`
	LogFormat  string        `koanf:"log-format"`
	SessionTTL time.Duration `koanf:"session-ttl"`
	BaseURL    string        `koanf:"base-url"`
	TrustProxy bool          `koanf:"trust-proxy"`
}

var logFormats = map[string]bool{"text": true, "json": true, "tint": true}

// RegisterFlags adds the server flags to fs. Defaults are read from the
// environment at registration time.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", envOr("ROOMIES_ADDR", ":8080"), "listen address")
	fs.String("db-path", envOr("ROOMIES_DB_PATH", "roomies.db"), "SQLite database file")
	fs.String("log-level", envOr("ROOMIES_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	fs.String("log-format", envOr("ROOMIES_LOG_FORMAT", "text"), "log format: text, json, tint")
	fs.Duration("session-ttl", envDuration("ROOMIES_SESSION_TTL", 24*time.Hour), "server-side session lifetime")
	fs.String("base-url", envOr("ROOMIES_BASE_URL", ""), "public URL, used to allow websocket origins behind a proxy")
	fs.Bool("trust-proxy", envBool("ROOMIES_TRUST_PROXY", false), "take client addresses from X-Forwarded-For and CF-Connecting-IP")
}

// Load merges the optional YAML file at path with the flags in fs. Flags
// left at their default do not override values from the file.
func Load(fs *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.With("path", path).Wrapf(err, "load config file")
		}
	}
	// Unchanged flags only fill keys the file left out.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Wrapf(err, "load flags")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Wrapf(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return oops.Errorf("addr must not be empty")
	}
	if c.DBPath == "" {
		return oops.Errorf("db-path must not be empty")
	}
	if c.SessionTTL <= 0 {
		return oops.With("session_ttl", c.SessionTTL).Errorf("session-ttl must be positive")
	}
	if !logFormats[c.LogFormat] {
		return oops.With("log_format", c.LogFormat).Errorf("unknown log format %q", c.LogFormat)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Host == "" {
			return oops.With("base_url", c.BaseURL).Errorf("base-url must be an absolute URL")
		}
	}
	return nil
}

// OriginHost returns the host of BaseURL, or "" when unset.
func (c *Config) OriginHost() string {
	if c.BaseURL == "" {
		return ""
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring invalid %s=%q: %v\n", key, v, err)
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring invalid %s=%q: %v\n", key, v, err)
		return fallback
	}
	return b
}

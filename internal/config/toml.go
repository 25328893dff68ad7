// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/verte-zerg/racetyper/internal/model"
)

// Defaults applied when neither the config file nor a flag sets a value.
const (
	DefaultAddr              = ":8080"
	DefaultPath              = "/ws/"
	DefaultLogLevel          = "info"
	DefaultSegments          = 10
	DefaultMaxEditEvents     = 20000
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultClientTimeout     = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultLineHeight        = 75
	DefaultLineWPM           = 100
	DefaultMessagesPerSecond = 100
	DefaultBurst             = 200
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Server    ServerSection    `toml:"server"`
	Session   SessionSection   `toml:"session"`
	Rendering RenderingSection `toml:"rendering"`
	RateLimit RateLimitSection `toml:"ratelimit"`
}

// ServerSection maps transport and process settings.
type ServerSection struct {
	Addr           *string  `toml:"addr"`
	Path           *string  `toml:"path"`
	LogLevel       *string  `toml:"log-level"`
	DB             *string  `toml:"db"`
	AllowedOrigins []string `toml:"allowed-origins"`
}

// SessionSection maps per-connection settings.
type SessionSection struct {
	Segments          *int    `toml:"segments"`
	MaxEditEvents     *int    `toml:"max-edit-events"`
	HeartbeatInterval *string `toml:"heartbeat-interval"`
	ClientTimeout     *string `toml:"client-timeout"`
	WriteTimeout      *string `toml:"write-timeout"`
}

// RenderingSection maps the relative metric constants.
type RenderingSection struct {
	LineHeight *int `toml:"line-height"`
	LineWPM    *int `toml:"line-wpm"`
}

// RateLimitSection maps the inbound message budget.
type RateLimitSection struct {
	Enabled           *bool    `toml:"enabled"`
	MessagesPerSecond *float64 `toml:"messages-per-second"`
	Burst             *int     `toml:"burst"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadEnv loads variables from a .env file if present. Existing variables win.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// DefaultServerConfig returns the built-in server configuration.
func DefaultServerConfig() model.ServerConfig {
	addr := DefaultAddr
	if v := os.Getenv("RACETYPER_ADDR"); v != "" {
		addr = v
	}
	return model.ServerConfig{
		Addr:              addr,
		Path:              DefaultPath,
		HeartbeatInterval: DefaultHeartbeatInterval,
		ClientTimeout:     DefaultClientTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		RateLimit: model.RateLimitConfig{
			Enabled:           true,
			MessagesPerSecond: DefaultMessagesPerSecond,
			Burst:             DefaultBurst,
		},
		Session: model.SessionConfig{
			Segments:      DefaultSegments,
			MaxEditEvents: DefaultMaxEditEvents,
			Rendering: model.Rendering{
				LineHeight: DefaultLineHeight,
				LineWPM:    DefaultLineWPM,
			},
		},
	}
}

// Apply overlays values set in the file onto cfg.
func (f FileConfig) Apply(cfg *model.ServerConfig) error {
	setString(&cfg.Addr, f.Server.Addr)
	setString(&cfg.Path, f.Server.Path)
	if len(f.Server.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = append([]string(nil), f.Server.AllowedOrigins...)
	}
	setInt(&cfg.Session.Segments, f.Session.Segments)
	setInt(&cfg.Session.MaxEditEvents, f.Session.MaxEditEvents)
	if err := setDuration(&cfg.HeartbeatInterval, f.Session.HeartbeatInterval, "heartbeat-interval"); err != nil {
		return err
	}
	if err := setDuration(&cfg.ClientTimeout, f.Session.ClientTimeout, "client-timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.WriteTimeout, f.Session.WriteTimeout, "write-timeout"); err != nil {
		return err
	}
	setInt(&cfg.Session.Rendering.LineHeight, f.Rendering.LineHeight)
	setInt(&cfg.Session.Rendering.LineWPM, f.Rendering.LineWPM)
	if f.RateLimit.Enabled != nil {
		cfg.RateLimit.Enabled = *f.RateLimit.Enabled
	}
	if f.RateLimit.MessagesPerSecond != nil {
		cfg.RateLimit.MessagesPerSecond = *f.RateLimit.MessagesPerSecond
	}
	setInt(&cfg.RateLimit.Burst, f.RateLimit.Burst)
	return nil
}

// Validate checks a resolved server configuration.
func Validate(cfg model.ServerConfig) error {
	if cfg.Session.Segments <= 0 {
		return fmt.Errorf("segments must be > 0")
	}
	if cfg.Session.MaxEditEvents <= 0 {
		return fmt.Errorf("max-edit-events must be > 0")
	}
	if cfg.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat-interval must be > 0")
	}
	if cfg.ClientTimeout <= cfg.HeartbeatInterval {
		return fmt.Errorf("client-timeout must be greater than heartbeat-interval")
	}
	if cfg.Session.Rendering.LineWPM <= 0 {
		return fmt.Errorf("line-wpm must be > 0")
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.MessagesPerSecond <= 0 || cfg.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires messages-per-second and burst > 0")
	}
	return nil
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func setDuration(target *time.Duration, value *string, name string) error {
	if value == nil {
		return nil
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*target = d
	return nil
}

// Package config handles configuration loading and validation for chime.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/chime/internal/core/notify"
)

// Foreign presentation modes. They control what happens when a
// notification chime does not own fires while the dispatcher is running.
const (
	ForeignPresent = "present"
	ForeignIgnore  = "ignore"
)

// Config holds the application configuration.
type Config struct {
	Database      Database      `yaml:"database"`
	Notifications Notifications `yaml:"notifications"`
	Dispatcher    Dispatcher    `yaml:"dispatcher"`
	DataDir       string        `yaml:"-"` // set by caller, not from config file
}

// Database holds connection settings for the reference center store.
type Database struct {
	MaxOpenConns  int `yaml:"max_open_conns"`
	MaxIdleConns  int `yaml:"max_idle_conns"`
	BusyTimeoutMS int `yaml:"busy_timeout_ms"`
}

// Notifications holds scheduling policy knobs.
type Notifications struct {
	// BackupSound is the sound name attached to backup notifications.
	BackupSound string `yaml:"backup_sound"`
	// ForeignPresentation selects how unowned notifications are shown:
	// "present" or "ignore".
	ForeignPresentation string `yaml:"foreign_presentation"`
}

// Dispatcher holds settings for the background delivery loop.
type Dispatcher struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: Database{
			MaxOpenConns:  10,
			MaxIdleConns:  5,
			BusyTimeoutMS: 5000,
		},
		Notifications: Notifications{
			BackupSound:         notify.SoundDefault,
			ForeignPresentation: ForeignPresent,
		},
		Dispatcher: Dispatcher{
			PollInterval: time.Second,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = defaults.Database.BusyTimeoutMS
	}
	if c.Notifications.ForeignPresentation == "" {
		c.Notifications.ForeignPresentation = defaults.Notifications.ForeignPresentation
	}
	if c.Dispatcher.PollInterval == 0 {
		c.Dispatcher.PollInterval = defaults.Dispatcher.PollInterval
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if c.Dispatcher.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("dispatcher.poll_interval must be at least 10ms")
	}

	switch c.Notifications.ForeignPresentation {
	case ForeignPresent, ForeignIgnore:
	default:
		return fmt.Errorf("notifications.foreign_presentation must be %q or %q", ForeignPresent, ForeignIgnore)
	}

	return nil
}

// ForeignOptions returns the presentation options applied to
// notifications chime does not own.
func (c *Config) ForeignOptions() notify.Options {
	if c.Notifications.ForeignPresentation == ForeignIgnore {
		return 0
	}
	return notify.OptionsAll
}

// DatabaseDir returns the path where the center database lives.
func (c *Config) DatabaseDir() string {
	return filepath.Join(c.DataDir, "db")
}

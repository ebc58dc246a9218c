// Package config loads questsync settings from a config file and QS_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/brendonchen/questsync/internal/migrate"
	"github.com/brendonchen/questsync/internal/rollover"
)

// Config holds all runtime settings.
type Config struct {
	// Endpoint is the sheet backend URL. Empty means offline mode.
	Endpoint string `mapstructure:"endpoint"`

	// StatePath is the local quest cache file.
	StatePath string `mapstructure:"state_path"`

	// SheetDBPath is the sqlite database backing the local sheet server.
	SheetDBPath string `mapstructure:"sheet_db_path"`

	// ResetHour is the local-time hour at which a new day begins.
	ResetHour int `mapstructure:"reset_hour"`

	// SyncInterval between periodic reconcile passes.
	SyncInterval time.Duration `mapstructure:"sync_interval"`

	// Debounce is the quiet period before a local mutation is pushed.
	Debounce time.Duration `mapstructure:"debounce"`

	// AppVersion is the schema version this client writes.
	AppVersion string `mapstructure:"app_version"`

	// RequiredBackendVersion is the minimum backend script version.
	RequiredBackendVersion string `mapstructure:"required_backend_version"`

	// DashboardPort for the daemon's WebSocket feed. 0 disables it.
	DashboardPort int `mapstructure:"dashboard_port"`

	// LogFile, when set, makes the daemon log to a rotating file instead of
	// stderr.
	LogFile string `mapstructure:"log_file"`
}

// Default returns the shipped configuration rooted under the user's home
// directory.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".questsync")

	return Config{
		StatePath:              filepath.Join(base, "state.json"),
		SheetDBPath:            filepath.Join(base, "sheet.db"),
		ResetHour:              rollover.DefaultResetHour,
		SyncInterval:           60 * time.Second,
		Debounce:               5 * time.Second,
		AppVersion:             migrate.CurrentVersion,
		RequiredBackendVersion: migrate.CurrentVersion,
		DashboardPort:          8484,
	}
}

// Load reads configuration from the given file (or, when path is empty, from
// questsync.yaml in ~/.questsync and the working directory), with QS_*
// environment variables overriding file values. A missing config file is not
// an error; defaults apply.
func Load(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("state_path", def.StatePath)
	v.SetDefault("sheet_db_path", def.SheetDBPath)
	v.SetDefault("reset_hour", def.ResetHour)
	v.SetDefault("sync_interval", def.SyncInterval)
	v.SetDefault("debounce", def.Debounce)
	v.SetDefault("app_version", def.AppVersion)
	v.SetDefault("required_backend_version", def.RequiredBackendVersion)
	v.SetDefault("dashboard_port", def.DashboardPort)
	v.SetDefault("log_file", def.LogFile)

	v.SetEnvPrefix("QS")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("questsync")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".questsync"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

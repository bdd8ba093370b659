package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all vmconsole configuration.
type Config struct {
	// RuntimeDir is where the hypervisor side drops per-VM console
	// records and sockets.
	RuntimeDir string `mapstructure:"runtime_dir"`

	// Viewer is the external graphical viewer binary.
	Viewer string `mapstructure:"viewer"`

	// RetryCeiling bounds the tunnel's reconnect backoff.
	RetryCeiling time.Duration `mapstructure:"retry_ceiling"`

	// FallbackPaths are the well-known locations of the out-of-process
	// text console attacher, tried in order.
	FallbackPaths []string `mapstructure:"fallback_paths"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RuntimeDir:   "/run/vmconsole",
		Viewer:       "remote-viewer",
		RetryCeiling: 5 * time.Second,
		FallbackPaths: []string{
			"/usr/lib/xen/bin/xenconsole",
			"/usr/local/lib/xen/bin/xenconsole",
		},
	}
}

// Global holds the loaded configuration.
var Global *Config

// Load reads configuration from file, environment, and defaults.
func Load() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to determine paths: %w", err)
	}

	// Set defaults
	defaults := DefaultConfig()
	viper.SetDefault("runtime_dir", defaults.RuntimeDir)
	viper.SetDefault("viewer", defaults.Viewer)
	viper.SetDefault("retry_ceiling", defaults.RetryCeiling)
	viper.SetDefault("fallback_paths", defaults.FallbackPaths)

	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(paths.ConfigDir)

	// Environment variable support: VMCONSOLE_RUNTIME_DIR, VMCONSOLE_VIEWER, etc.
	viper.SetEnvPrefix("VMCONSOLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional - not an error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK - we use defaults
	}

	// Unmarshal into struct
	Global = &Config{}
	if err := viper.Unmarshal(Global); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return Global.Validate()
}

// Validate rejects values the tunnel cannot work with.
func (c *Config) Validate() error {
	if c.RuntimeDir == "" {
		return fmt.Errorf("runtime_dir must not be empty")
	}
	if c.RetryCeiling <= 0 {
		return fmt.Errorf("retry_ceiling must be positive, got %s", c.RetryCeiling)
	}
	return nil
}

// ConfigFileUsed returns the path of the config file being used, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

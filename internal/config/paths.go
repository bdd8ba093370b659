// Package config provides configuration management for vmconsole.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths holds platform-specific directory paths for vmconsole.
type Paths struct {
	// ConfigDir is the directory searched for the config file.
	// macOS: ~/Library/Application Support/vmconsole
	// Linux: ~/.config/vmconsole (or XDG_CONFIG_HOME)
	ConfigDir string

	// ConfigFile is the path to the main config file.
	ConfigFile string
}

// GetPaths returns platform-aware paths for vmconsole.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	p := &Paths{}

	switch runtime.GOOS {
	case "darwin":
		p.ConfigDir = filepath.Join(home, "Library", "Application Support", "vmconsole")
	default:
		// Respect XDG_CONFIG_HOME if set
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			p.ConfigDir = filepath.Join(xdgConfig, "vmconsole")
		} else {
			p.ConfigDir = filepath.Join(home, ".config", "vmconsole")
		}
	}

	p.ConfigFile = filepath.Join(p.ConfigDir, "config.yaml")

	return p, nil
}

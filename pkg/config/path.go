package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns $XDG_CONFIG_HOME, or $HOME/.config when it is not
// set. Without HOME it falls back to /.config.
func XDGConfigHome() string {
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		return dir
	}
	return os.Getenv("HOME") + "/.config"
}

// DefaultPath is where the config file is read from unless --config is given.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), "battered", "config.toml")
}

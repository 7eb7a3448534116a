// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultDatabasePath returns the default location of the molino database.
func DefaultDatabasePath() string {
	return ExpandPath("~/.local/share/molino/molino.db")
}

// DefaultRulesDir returns the default directory searched for rule files
// (type_rules.yaml, counterparty_rules.yaml, noise_rules.yaml, entities.yaml).
func DefaultRulesDir() string {
	return ExpandPath("~/.config/molino/rules")
}

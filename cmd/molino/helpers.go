package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/molino/molino/internal/config"
	"github.com/molino/molino/internal/rules"
	"github.com/molino/molino/internal/storage"
)

// openStorage opens the configured database and brings the schema current.
func openStorage() (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	return storage.NewSQLiteStorage(dbPath)
}

// loadRules loads the configured rule set. Invalid rule files abort here,
// before any record is touched.
func loadRules() (*rules.Set, error) {
	dir := viper.GetString("rules.dir")
	if dir == "" {
		dir = config.DefaultRulesDir()
	} else {
		dir = config.ExpandPath(dir)
	}

	set, err := rules.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return set, nil
}

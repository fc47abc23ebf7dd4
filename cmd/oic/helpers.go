package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/oic-ledger/internal/config"
	"github.com/Veraticus/oic-ledger/internal/standards"
	"github.com/Veraticus/oic-ledger/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens and migrates the run history database.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadRegistry returns the built-in standards plus the configured file, if any.
func loadRegistry(file string) (*standards.Registry, error) {
	registry := standards.NewRegistry()
	if file == "" {
		return registry, nil
	}
	if _, err := registry.LoadFile(config.ExpandPath(file)); err != nil {
		return nil, fmt.Errorf("failed to load standards from %s: %w", file, err)
	}
	return registry, nil
}

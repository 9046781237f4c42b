package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/taskflow/internal/config"
	"github.com/iliyamo/taskflow/internal/database"
)

// loadConfig reads .env and the environment.
func loadConfig() (config.Config, error) {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openDB opens the MySQL pool described by cfg.
func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	return database.Open(ctx, database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fjod/thread-storefront/internal/config"
	"github.com/fjod/thread-storefront/internal/repository"
	"github.com/fjod/thread-storefront/pkg/circuitbreaker"
	"go.uber.org/zap"
)

// openStore connects the configured document store. Remote backends are
// wrapped in a circuit breaker.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.DocumentStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return repository.NewMemoryStore(), nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		store, err := repository.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(filepath.Join(cfg.MigrationsPath, config.DriverSQLite)); err != nil {
			store.Close()
			return nil, err
		}
		log.Info("sqlite store ready", zap.String("path", cfg.SQLitePath))
		return store, nil

	case config.DriverPostgres:
		store, err := repository.NewPostgresStore(cfg.DB.Postgres())
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(filepath.Join(cfg.MigrationsPath, config.DriverPostgres)); err != nil {
			store.Close()
			return nil, err
		}
		log.Info("postgres store ready", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))
		return repository.NewBreakerStore(store, circuitbreaker.DefaultConfig("postgres-store"), log), nil

	case config.DriverMongo:
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		store := repository.NewMongoStore(db)
		if err := store.CreateIndexes(ctx); err != nil {
			store.Close()
			return nil, err
		}
		log.Info("mongo store ready", zap.String("db", cfg.MongoDBName))
		return repository.NewBreakerStore(store, circuitbreaker.DefaultConfig("mongo-store"), log), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

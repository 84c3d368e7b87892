// File: cmd/server/providers.go
package main

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic_backend/internal/config"
	"clinic_backend/internal/platform/cache"
	"clinic_backend/internal/platform/database"
	platformElasticsearch "clinic_backend/internal/platform/elasticsearch"
	"clinic_backend/internal/platform/logger"
)

// provideLogger builds the zap logger with a cleanup that flushes
// buffered entries on shutdown.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Sync() }, nil
}

func provideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Database connection established", zap.String("db_name", cfg.DBName))
	return db, func() { database.CloseGORMDB(db) }, nil
}

// provideRedis returns a nil client when REDIS_ADDR is unset; the token
// blocklist and permission cache fall back to in-process storage.
func provideRedis(cfg *config.Config, log *zap.Logger) (*redis.Client, func(), error) {
	client, err := cache.NewRedisClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { cache.CloseRedisClient(client, log) }, nil
}

// provideElasticsearch returns the optional search client and makes sure
// the appointments index exists when search is enabled. A nil client
// disables indexing and the search endpoint.
func provideElasticsearch(cfg *config.Config, log *zap.Logger) (*platformElasticsearch.ESClientWrapper, error) {
	client, err := platformElasticsearch.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	if client != nil {
		if err := platformElasticsearch.CreateAppointmentsIndexIfNotExists(client, log); err != nil {
			// Search is optional: the server still starts, queries will
			// surface the failure as 503s until the index is fixed.
			log.Error("Failed to create/verify Elasticsearch appointments index", zap.Error(err))
		}
	}
	return client, nil
}

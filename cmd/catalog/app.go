package main

import (
	"context"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/alldopamine/catalog/internal/config"
	"github.com/alldopamine/catalog/internal/infra/cache"
	"github.com/alldopamine/catalog/internal/infra/database"
	"github.com/alldopamine/catalog/internal/infra/lock"
	"github.com/alldopamine/catalog/internal/infra/repository"
	"github.com/alldopamine/catalog/internal/service"
	"github.com/alldopamine/catalog/internal/usecase"
)

// app holds the wired dependency graph shared by every command.
type app struct {
	config config.Config
	logger *slog.Logger

	db    *gorm.DB
	redis *redis.Client
	mc    *memcache.Client

	ingest      *usecase.IngestUsecase
	source      *usecase.SourceUsecase
	integration *usecase.IntegrationUsecase
	configs     *usecase.ConfigUsecase
	mapping     *usecase.MappingUsecase
	maintenance *usecase.MaintenanceUsecase
	auth        *service.AuthService
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := database.NewPostgres(cfg.Server.PostgresDsn, cfg.Log.Level == "debug")
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}

	rdb, err := database.NewRedis(ctx, cfg.Server.RedisAddr, cfg.Server.RedisPassword, cfg.Server.RedisDB)
	if err != nil {
		return nil, err
	}
	mc := database.NewMemcached(cfg.Server.MemcachedAddr)

	a := &app{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  rdb,
		mc:     mc,
	}

	store := repository.NewStore(db)
	configRepo := cache.NewConfigRepository(repository.NewConfigRepository(db), mc, cfg.Cache.ConfigTTL, logger)

	var locker usecase.KeyLocker = lock.NewMemoryLocker()
	if cfg.Lock.Backend == "redis" {
		locker = lock.NewRedisLocker(rdb, cfg.Lock.TTL, logger)
	}

	var publisher usecase.EventPublisher
	if rdb != nil {
		publisher = service.NewSignalService(rdb)
	}

	registry := usecase.DefaultFieldRegistry()

	ingestOpts := []usecase.IngestOption{
		usecase.WithThreshold(cfg.Matching.SimilarityThreshold),
		usecase.WithMaxRetries(cfg.Matching.MaxRetries),
		usecase.WithIngestLogger(logger),
	}
	integrationOpts := []usecase.IntegrationOption{
		usecase.WithFieldRegistry(registry),
		usecase.WithIntegrationLogger(logger),
	}
	if publisher != nil {
		ingestOpts = append(ingestOpts, usecase.WithPublisher(publisher))
		integrationOpts = append(integrationOpts, usecase.WithIntegrationPublisher(publisher))
	}

	a.ingest = usecase.NewIngestUsecase(store, locker, ingestOpts...)
	a.source = usecase.NewSourceUsecase(store, logger)
	a.integration = usecase.NewIntegrationUsecase(store, configRepo, integrationOpts...)
	a.configs = usecase.NewConfigUsecase(configRepo, registry, logger)
	a.mapping = usecase.NewMappingUsecase(store, publisher, logger)
	a.maintenance = usecase.NewMaintenanceUsecase(store, logger)
	a.auth = service.NewAuthService(cfg.Server.AdminToken)

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// @title        Link Dashboard API
// @version      1.0
// @description  Project-scoped link queries and custom domain management.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/link-dashboard/internal/api"
	"github.com/99minutos/link-dashboard/internal/api/handler"
	"github.com/99minutos/link-dashboard/internal/core/ports"
	"github.com/99minutos/link-dashboard/internal/core/service"
	"github.com/99minutos/link-dashboard/internal/infrastructure/db/memory"
	mongodb "github.com/99minutos/link-dashboard/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/link-dashboard/internal/infrastructure/db/redis"
	"github.com/99minutos/link-dashboard/internal/infrastructure/queue"
	"github.com/99minutos/link-dashboard/internal/pkg/config"
	"github.com/99minutos/link-dashboard/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// backend groups the storage adapters selected by STORAGE.
type backend struct {
	links    ports.LinkStore
	registry ports.ProjectRegistry
	markers  ports.MigrationMarkers
	users    ports.AuthRepository
	checks   map[string]handler.Checker
	close    func(ctx context.Context)
}

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "link-dashboard",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.Storage).Msg("failed to open storage")
	}

	projects := service.NewProjectService(b.links, b.registry, b.markers, cfg.Repair.Grace, logger.Component("projects"))
	auth := service.NewAuthService(b.users, cfg.JWTSecret, cfg.TokenTTL, cfg.SuperadminEmails)

	dispatcher := queue.NewDispatcher(cfg.Repair.Workers, projects, logger.Component("repair"))
	dispatcher.Start(ctx)
	go dispatcher.RunSweeper(ctx, cfg.Repair.Interval, cfg.Repair.Grace)

	e := api.NewRouter(api.Deps{
		Projects:    projects,
		Auth:        auth,
		Repairer:    projects,
		JWTSecret:   cfg.JWTSecret,
		RepairGrace: cfg.Repair.Grace,
		Checks:      b.checks,
		Log:         logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	b.close(shutdownCtx)

	log.Info().Msg("server stopped")
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return &backend{
			links:    memory.NewLinkStore(),
			registry: memory.NewProjectRegistry(),
			markers:  memory.NewMigrationMarkers(),
			users:    memory.NewAuthRepository(),
			close:    func(context.Context) {},
		}, nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "link-dashboard",
	})
	if err != nil {
		return nil, err
	}

	registry := mongodb.NewProjectRegistry(db)
	if err := registry.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	users := mongodb.NewAuthRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &backend{
		links:    redisdb.NewLinkStore(rdb),
		registry: registry,
		markers:  redisdb.NewMigrationMarkers(rdb),
		users:    users,
		checks: map[string]handler.Checker{
			"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		close: func(ctx context.Context) {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		},
	}, nil
}

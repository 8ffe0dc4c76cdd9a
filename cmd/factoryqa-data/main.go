package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"factoryqa-data/internal/auth"
	"factoryqa-data/internal/config"
	httpapi "factoryqa-data/internal/http"
	"factoryqa-data/internal/importer"
	"factoryqa-data/internal/repository"
	"factoryqa-data/internal/service"
	"factoryqa-data/internal/session"
	kv "factoryqa-data/internal/store"
	"factoryqa-data/pkg/database"
	"factoryqa-data/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "factoryqa-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db, log); err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}

	store, err := repository.NewStore(ctx, db, log)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}

	var cache kv.KV = kv.NoopKV{}
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		cache = kv.NewRedisKV(redisClient)
	}

	registry := auth.NewRegistry()
	pipeline := importer.NewPipeline(store, log, cfg.Seed.Path, cfg.Seed.RemoteURL)
	manager := session.NewManager(store, cache, registry, log, cfg.Cache.TTL)

	seeded, err := pipeline.SeedIfEmpty(ctx)
	if err != nil {
		log.Fatal("failed to bootstrap seed data", zap.Error(err))
	}
	if seeded {
		log.Info("store bootstrapped from seed file", zap.String("path", cfg.Seed.Path))
	}

	gate := httpapi.NewPINGate(registry)
	router := httpapi.NewRouter(log)
	router.RegisterCatalogRoutes(httpapi.NewCatalogHandler(store, log))
	router.RegisterSessionRoutes(httpapi.NewSessionHandler(manager, log))
	router.RegisterImportRoutes(httpapi.NewImportHandler(pipeline, gate, log))
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(registry, log))
	router.RegisterHealthRoute()

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("http server exited", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

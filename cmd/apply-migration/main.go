package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"factoryqa-data/internal/config"
	"factoryqa-data/internal/repository"
	"factoryqa-data/pkg/database"
	"factoryqa-data/pkg/logger"
)

// apply-migration 将版本化迁移推进到最新 schema。
// 服务启动时也会自动迁移，这个工具用于部署前单独演练
func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, "console", "apply-migration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("cannot connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()

	before, err := repository.SchemaVersion(ctx, db)
	if err != nil {
		log.Fatal("failed to read schema version", zap.Error(err))
	}

	if err := repository.Migrate(ctx, db, log); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	after, err := repository.SchemaVersion(ctx, db)
	if err != nil {
		log.Fatal("failed to read schema version", zap.Error(err))
	}

	log.Info("migrations up to date",
		zap.Int("from_version", before),
		zap.Int("to_version", after))
}

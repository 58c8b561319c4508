package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	paymentsapp "github.com/propflow/backend/internal/application/payments"
	"github.com/propflow/backend/internal/domain/shared"
	"github.com/propflow/backend/internal/infrastructure/cache"
	"github.com/propflow/backend/internal/infrastructure/config"
	"github.com/propflow/backend/internal/infrastructure/logger"
	"github.com/propflow/backend/internal/infrastructure/persistence"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting PropFlow payment engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	propertyDirectory := persistence.NewGormPropertyDirectory(db.DB)

	// Agency settings, cached with a TTL
	settings := cache.NewSettingsCache(&cache.StaticSource{
		Settings: shared.AgencySettings{
			BatchPrefix:             cfg.Payments.BatchPrefix,
			DefaultCommissionRate:   cfg.Payments.DefaultCommissionRate,
			MinimumBalanceThreshold: cfg.Payments.MinimumBalanceThreshold,
		},
	}, cfg.Settings.CacheTTL)

	commissionService := paymentsapp.NewCommissionService(transactionRepo, propertyDirectory, settings, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runBackfillWorker(ctx, log, commissionService, cfg.Payments.BackfillLimit, cfg.Payments.BackfillInterval)

	log.Info("Shutting down")
}

// runBackfillWorker periodically computes net-to-owner amounts for
// transactions imported without one, until the context is cancelled
func runBackfillWorker(ctx context.Context, log *zap.Logger, service *paymentsapp.CommissionService, limit int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := service.Backfill(ctx, limit)
		if err != nil {
			log.Error("Net-to-owner backfill run failed", zap.Error(err))
		} else {
			log.Info("Net-to-owner backfill run finished",
				zap.Int("examined", result.Examined),
				zap.Int("computed", result.Computed),
				zap.Int("skipped", result.Skipped),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

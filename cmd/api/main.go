package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/joho/godotenv"

	"github.com/MAY0LPHI/Parking-simples/internal/config"
	"github.com/MAY0LPHI/Parking-simples/internal/database"
	"github.com/MAY0LPHI/Parking-simples/internal/domain"
	"github.com/MAY0LPHI/Parking-simples/internal/httpapi"
	"github.com/MAY0LPHI/Parking-simples/internal/logger"
	"github.com/MAY0LPHI/Parking-simples/internal/server"
	"github.com/MAY0LPHI/Parking-simples/internal/storage/memory"
	sqlstorage "github.com/MAY0LPHI/Parking-simples/internal/storage/postgres"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env)

	baseCtx := context.Background()

	var db *database.DB
	if cfg.DataBackend != "memory" {
		db, err = database.Connect(baseCtx, database.Options{
			Driver:          cfg.DatabaseDriver,
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
			Logger:          logr,
		})
		if err != nil {
			logr.Error("failed to connect database", "err", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logr.Error("error closing database", "err", cerr)
			}
		}()

		migrator := database.NewSQLMigrator(db.DB, database.MigrationsFS(), ".", logr)
		if err := db.RunMigrations(baseCtx, migrator); err != nil {
			logr.Error("database migrations failed", "err", err)
			os.Exit(1)
		}
	}

	domainContainer, err := buildDomainContainer(cfg, logr, db)
	if err != nil {
		logr.Error("failed to init domain container", "err", err)
		os.Exit(1)
	}

	srv := server.New(cfg, logr)

	httpapi.Register(srv.Mux(), logr, domainContainer)

	go func() {
		if err := srv.Run(); err != nil {
			logr.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", "err", err)
		os.Exit(1)
	}
}

func buildDomainContainer(cfg config.Config, logr *slog.Logger, db *database.DB) (domain.Container, error) {
	switch cfg.DataBackend {
	case "memory":
		logr.Info("using in-memory repositories (DATA_BACKEND=memory)")
		return domain.New(domain.Options{
			ParkingRepo:  memory.NewRecordRepository(),
			SettingsRepo: memory.NewSettingsRepository(),
		}), nil
	case "postgres", "sqlite":
		if db == nil {
			return domain.Container{}, fmt.Errorf("%s backend requires database connection", cfg.DataBackend)
		}
		logr.Info("using sql repositories", "backend", cfg.DataBackend)
		sqlDB := db.DB
		return domain.New(domain.Options{
			ParkingRepo:  sqlstorage.NewRecordRepository(sqlDB),
			SettingsRepo: sqlstorage.NewSettingsRepository(sqlDB),
		}), nil
	default:
		return domain.Container{}, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/MAY0LPHI/Parking-simples/internal/config"
	"github.com/MAY0LPHI/Parking-simples/internal/database"
	"github.com/MAY0LPHI/Parking-simples/internal/domain/parking"
	"github.com/MAY0LPHI/Parking-simples/internal/domain/tariff"
	"github.com/MAY0LPHI/Parking-simples/internal/logger"
	sqlstorage "github.com/MAY0LPHI/Parking-simples/internal/storage/postgres"
)

// Seeds a SQL backend with the default settings row and a few parked
// vehicles so the dashboard has something to show.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		fmt.Fprintln(os.Stderr, "seed requires DATA_BACKEND=postgres or sqlite")
		os.Exit(1)
	}

	logr := logger.New(cfg.Env)
	ctx := context.Background()

	db, err := database.Connect(ctx, database.Options{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseURL,
		Logger: logr,
	})
	if err != nil {
		logr.Error("connect database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	migrator := database.NewSQLMigrator(db.DB, database.MigrationsFS(), ".", logr)
	if err := db.RunMigrations(ctx, migrator); err != nil {
		logr.Error("run migrations", "err", err)
		os.Exit(1)
	}

	settingsRepo := sqlstorage.NewSettingsRepository(db.DB)
	if _, err := settingsRepo.Get(); err != nil {
		logr.Error("seed settings", "err", err)
		os.Exit(1)
	}
	logr.Info("settings present")

	recordRepo := sqlstorage.NewRecordRepository(db.DB)
	now := time.Now()
	samples := []parking.Record{
		{LicensePlate: "ABC-1234", VehicleClass: tariff.ClassCar, EntryTime: now.Add(-2 * time.Hour)},
		{LicensePlate: "XYZ-9B87", VehicleClass: tariff.ClassBike, EntryTime: now.Add(-45 * time.Minute)},
		{LicensePlate: "QWE-5C55", VehicleClass: tariff.ClassCar, EntryTime: now.Add(-10 * time.Minute)},
	}

	for _, rec := range samples {
		created, err := recordRepo.Create(rec)
		if err != nil {
			logr.Error("seed vehicle", "plate", rec.LicensePlate, "err", err)
			os.Exit(1)
		}
		logr.Info("vehicle seeded", "id", created.ID, "plate", created.LicensePlate)
	}

	logr.Info("seed complete")
}

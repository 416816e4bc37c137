package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stayline/hotel-admin-backend/internal/config"
	"github.com/stayline/hotel-admin-backend/internal/database"
	"github.com/stayline/hotel-admin-backend/internal/services"
	"github.com/stayline/hotel-admin-backend/pkg/storage"
)

// Runs the orphaned check-in document sweep once, outside the server's schedule.
func main() {
	grace := flag.Duration("grace", 0, "minimum age of an unreferenced document (defaults to DOCUMENT_SWEEP_GRACE)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store, err := storage.NewLocalStore(cfg.Storage.Directory)
	if err != nil {
		logger.Fatalf("Failed to open document storage: %v", err)
	}

	maintenanceConfig := services.DefaultMaintenanceConfig()
	maintenanceConfig.DocumentSweepGrace = cfg.Maintenance.DocumentSweepGrace
	if *grace > 0 {
		maintenanceConfig.DocumentSweepGrace = *grace
	}

	svc := services.NewMaintenanceService(maintenanceConfig, database.NewBookingLedger(db.DB), store, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), maintenanceConfig.JobTimeout)
	defer cancel()

	start := time.Now()
	result, err := svc.SweepOrphanedDocuments(ctx)
	if err != nil {
		logger.Fatalf("Document sweep failed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"scanned":     result.Scanned,
		"deleted":     result.Deleted,
		"failed":      result.Failed,
		"grace":       maintenanceConfig.DocumentSweepGrace.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Document sweep finished")
}

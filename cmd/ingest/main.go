// Package main provides the ingestion pipeline entry point. One
// invocation is one run: fetch every enabled source, merge into the
// snapshot, write, exit.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/job-scanner/internal/config"
	"github.com/job-scanner/internal/connector"
	"github.com/job-scanner/internal/logging"
	"github.com/job-scanner/internal/runtracker"
	"github.com/job-scanner/internal/service"
	"github.com/job-scanner/internal/storage"
)

// Exit codes: 0 run completed (even with failed sources), 1 unrecoverable
// error, 2 daily quota blocked the run.
const (
	exitOK      = 0
	exitFatal   = 1
	exitBlocked = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return exitFatal
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()
	logger.Info("Job scanner starting")

	store, err := storage.NewStore(cfg.Paths.DataDir)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize storage")
		return exitFatal
	}

	tracker := runtracker.New(store, cfg.Paths.HistoryFile,
		cfg.Quota.DailyRunLimit, cfg.Quota.RetentionDays, logger)
	client := connector.NewClient(cfg.HTTP.Timeout, cfg.HTTP.UserAgent)
	registry := connector.NewRegistry(client)

	pipeline := service.New(cfg, logger, registry, tracker, store)

	stats, err := pipeline.Run(context.Background())
	if err != nil {
		if errors.Is(err, service.ErrQuotaBlocked) {
			return exitBlocked
		}
		logger.WithError(err).Error("Ingestion run failed")
		return exitFatal
	}

	logger.WithFields(map[string]interface{}{
		"total": stats.Total,
		"new":   stats.New,
	}).Info("Job scanner finished")
	return exitOK
}

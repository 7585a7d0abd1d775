package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"planner/internal/amqp"
	"planner/internal/cli"
	"planner/internal/log"
	"planner/internal/services"
	"planner/internal/sheets"
	gsheet "planner/internal/sheets/google"
	sheetsmem "planner/internal/sheets/memory"
	"planner/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
	logger.Info("Starting planner-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	if err := cli.SeedRulesFromFile(context.Background(), logger, repo, cfg.CategoryRulesFile); err != nil {
		logger.Error("Failed to seed category rules", log.FieldError, err)
		os.Exit(1)
	}

	var exporter sheets.CashflowExporter
	if cfg.SheetsEnabled() {
		creds, err := cfg.ServiceAccountCredentials()
		if err != nil {
			logger.Error("Failed to read Google service account credentials", log.FieldError, err)
			os.Exit(1)
		}
		exp, err := gsheet.NewExporter(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, creds, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		exporter = exp
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided, keeping exports in memory")
		exporter = sheetsmem.New()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	// The server's summary caches expire on their own TTL; this process
	// has no handle on them.
	processor := services.NewCategorizeProcessor(repo, nil, logger)
	w := worker.NewCategorizeWorker(processor, exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		amqpClient.Close()
	})

	logger.Info("Performing startup categorize check...")
	if err := w.CategorizePending(ctx); err != nil {
		logger.Error("Failed startup categorize check", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeImportCompleted(gctx, w.HandleImportCompleted)
	})
	if cfg.CategorizeInterval > 0 {
		g.Go(func() error {
			return w.RunPeriodicSweep(gctx, cfg.CategorizeInterval)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

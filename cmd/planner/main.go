package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"planner/internal/amqp"
	"planner/internal/cache"
	"planner/internal/cli"
	apphttp "planner/internal/http"
	"planner/internal/log"
	"planner/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	if err := cli.SeedRulesFromFile(context.Background(), logger, repo, cfg.CategoryRulesFile); err != nil {
		logger.Error("Failed to seed category rules", log.FieldError, err)
		os.Exit(1)
	}

	// Without a broker, imports stay uncategorized until POST /categorize.
	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpClient
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	history := services.NewHistoryService(repo, cfg.SummaryCacheTTL, logger)
	caches := cache.NewManager(logger)
	history.RegisterCaches(caches)
	caches.StartCleanup(cfg.SummaryCacheTTL)

	statementArchive, err := cli.InitArchive(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize statement archive", log.FieldError, err)
		os.Exit(1)
	}
	imports := services.NewImportService(repo, publisher, history, logger)
	if statementArchive != nil {
		defer statementArchive.Close()
		imports.WithArchive(statementArchive)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Imports:             imports,
		Runs:                repo,
		Categorizer:         services.NewCategorizeProcessor(repo, history, logger),
		Categories:          repo,
		History:             history,
		Cashflows:           services.NewCashflowService(repo, history, logger),
		Ready:               repo,
		StatementDefaults:   cfg.StatementDefaults(),
		MaxUploadBytes:      cfg.MaxUploadBytes,
		UploadRatePerMinute: cfg.UploadRatePerMinute,
		HistoryStart:        cfg.HistoryStartMonth,
		Logger:              logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			amqpClient.Close()
		}
	})

	logger.Info("Starting planner server", "port", cfg.Port, "amqp", amqpClient != nil, "archive", statementArchive != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

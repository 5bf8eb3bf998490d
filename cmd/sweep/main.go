package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/application/settlement"
	"github.com/storefront/backend/internal/infrastructure/archive"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/supplier"
	"go.uber.org/zap"
)

// One-shot sweep runner for external cron or systemd timers. Runs a single
// settlement or retry sweep against the configured database and exits.
func main() {
	var (
		logLevel string
		timeout  time.Duration
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Maximum time for the sweep")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	commissionRepo := persistence.NewGormCommissionRepository(db.DB)
	queueRepo := persistence.NewGormFulfillmentQueueRepository(db.DB)

	invoker, err := supplier.NewHTTPInvoker(&supplier.Config{
		BaseURL:        cfg.Supplier.BaseURL,
		APIKey:         cfg.Supplier.APIKey,
		TimeoutSeconds: cfg.Supplier.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize supplier client", zap.Error(err))
	}

	retryService := appfulfillment.NewRetryService(
		queueRepo,
		invoker,
		cfg.Settlement.AttemptCeiling,
		cfg.Settlement.RetryBaseDelay,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch command {
	case "settlement":
		sweepService := settlement.NewService(
			commissionRepo,
			retryService,
			cfg.Settlement.HoldPeriod,
			log,
		)
		if cfg.Archive.Enabled {
			archiver, err := archive.NewS3Archiver(&cfg.Archive)
			if err != nil {
				log.Fatal("Failed to initialize sweep archiver", zap.Error(err))
			}
			sweepService.SetArchiver(archiver)
		}

		summary, err := sweepService.Run(ctx)
		if err != nil {
			log.Fatal("Settlement sweep failed", zap.Error(err))
		}
		printSummary(summary)

	case "retries":
		summary, err := retryService.RunSweep(ctx)
		if err != nil {
			log.Fatal("Retry sweep failed", zap.Error(err))
		}
		printSummary(summary)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printSummary(summary interface{}) {
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		fmt.Println(summary)
		return
	}
	fmt.Println(string(out))
}

func printUsage() {
	fmt.Println(`Usage: sweep [flags] <command>

Commands:
  settlement    Run one settlement sweep (commissions + due fulfillment retries)
  retries       Run one fulfillment retry sweep only

Flags:
  -log-level    Log level (default: info)
  -timeout      Maximum sweep duration (default: 30m)`)
}

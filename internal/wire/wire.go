// Package wire provides dependency injection for the shopsync application.
// It creates singleton services with lazy initialization.
package wire

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/example/shopsync/internal/adapters/filesystem"
	"github.com/example/shopsync/internal/adapters/remote"
	"github.com/example/shopsync/internal/adapters/sqlite"
	"github.com/example/shopsync/internal/app"
	"github.com/example/shopsync/internal/config"
	"github.com/example/shopsync/internal/db"
	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/primary"
	"github.com/example/shopsync/internal/ports/secondary"
	"github.com/example/shopsync/internal/worker"
	"github.com/example/shopsync/pkg/logging"
)

var (
	cfg         *config.Config
	logger      *zap.Logger
	ledgerRepo  secondary.LedgerRepository
	runRepo     secondary.SyncRunRepository
	cacheStore  secondary.DetailCache
	deadStore   secondary.DeadLetterStore
	mailbox     secondary.Mailbox
	supplier    secondary.SupplierClient
	storefront  secondary.StorefrontClient
	productSync primary.SyncService
	orderSync   primary.SyncService
	retrySvc    primary.RetryService
	reportSvc   primary.ReportService
	once        sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the shared structured logger.
func Logger() *zap.Logger {
	once.Do(initServices)
	return logger
}

// SyncService returns the singleton sync service for a kind.
func SyncService(kind models.ItemKind) (primary.SyncService, error) {
	once.Do(initServices)
	switch kind {
	case models.KindProduct:
		return productSync, nil
	case models.KindOrder:
		return orderSync, nil
	default:
		return nil, fmt.Errorf("no sync service for kind %q", kind)
	}
}

// RetryService returns the singleton RetryService instance.
func RetryService() primary.RetryService {
	once.Do(initServices)
	return retrySvc
}

// ReportService returns the singleton ReportService instance.
func ReportService() primary.ReportService {
	once.Do(initServices)
	return reportSvc
}

// Mailbox returns the chunk/result mailbox.
func Mailbox() secondary.Mailbox {
	once.Do(initServices)
	return mailbox
}

// DeadLetterStore returns the dead-letter store.
func DeadLetterStore() secondary.DeadLetterStore {
	once.Do(initServices)
	return deadStore
}

// NewRunner builds a worker runner for the given kind. Used by the hidden
// worker subcommand, which persists results through the given sink.
func NewRunner(kind models.ItemKind, persist func(*models.WorkerResult)) (*worker.Runner, error) {
	once.Do(initServices)

	var processor worker.ItemProcessor
	switch kind {
	case models.KindProduct:
		processor = worker.NewProductProcessor(ledgerRepo, cacheStore, supplier, storefront, logger)
	case models.KindOrder:
		processor = worker.NewOrderProcessor(ledgerRepo, supplier, storefront, logger)
	default:
		return nil, fmt.Errorf("no processor for kind %q", kind)
	}

	return worker.NewRunner(processor, deadStore, logger, worker.RunnerOptions{
		ProgressInterval: cfg.ProgressInterval.D(),
		ItemDelay:        cfg.ItemDelay.D(),
		Persist:          persist,
	}), nil
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to resolve working directory: %v", err)
	}

	cfg, err = config.Load(wd)
	if err != nil {
		log.Fatalf("failed to load configuration (run 'shopsync init' first): %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("failed to prepare data directories: %v", err)
	}

	logger, err = logging.New(filepath.Join(cfg.LogDir(), "shopsync.log"), cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}

	// Database connection plus sqlite adapters (secondary ports)
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	ledgerRepo = sqlite.NewLedgerRepository(database)
	runRepo = sqlite.NewSyncRunRepository(database)

	// Filesystem adapters
	cacheStore, err = filesystem.NewCacheStore(cfg.CacheDir(), cfg.CacheTTL.D())
	if err != nil {
		log.Fatalf("failed to initialize detail cache: %v", err)
	}
	deadStore, err = filesystem.NewDeadLetterStore(cfg.DeadLetterDir())
	if err != nil {
		log.Fatalf("failed to initialize dead-letter store: %v", err)
	}
	mailbox, err = filesystem.NewFileMailbox(cfg.WorkDir())
	if err != nil {
		log.Fatalf("failed to initialize work mailbox: %v", err)
	}

	// Remote clients
	supplier = remote.NewSupplier(cfg.Supplier.Endpoint, cfg.Supplier.APIKey, cfg.Supplier.RateLimit, logger)
	storefront = remote.NewStorefront(cfg.Storefront.Endpoint, cfg.Storefront.APIKey, cfg.Storefront.RateLimit, logger)

	// Application services (primary ports implementation)
	engineOpts := app.EngineOptions{
		Workers:          cfg.Workers,
		SerialThreshold:  cfg.SerialThreshold,
		PollInterval:     cfg.PollInterval.D(),
		ProgressInterval: cfg.ProgressInterval.D(),
		ItemDelay:        cfg.ItemDelay.D(),
	}
	productSync = app.NewProductSyncService(ledgerRepo, runRepo, deadStore, cacheStore, supplier, storefront, mailbox, logger, engineOpts)
	orderSync = app.NewOrderSyncService(ledgerRepo, runRepo, deadStore, supplier, storefront, mailbox, logger, engineOpts)
	retrySvc = app.NewRetryService(deadStore, map[models.ItemKind]primary.SyncService{
		models.KindProduct: productSync,
		models.KindOrder:   orderSync,
	}, cfg.RetryWindow.D(), logger)
	reportSvc = app.NewReportService(runRepo)
}

// Package app wires configuration, storage, clients, and services into the
// shared core used by cmd/folio-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mjcarson/folio/internal/clients/alphavantage"
	"github.com/mjcarson/folio/internal/common"
	"github.com/mjcarson/folio/internal/interfaces"
	"github.com/mjcarson/folio/internal/services/chart"
	"github.com/mjcarson/folio/internal/services/ledger"
	"github.com/mjcarson/folio/internal/services/marketdata"
	"github.com/mjcarson/folio/internal/storage"
)

// App holds all initialized services, clients, and storage.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Storage       interfaces.StorageManager
	MarketClient  interfaces.MarketDataClient
	MarketService interfaces.MarketDataService
	LedgerService interfaces.LedgerService
	ChartService  *chart.Service
	StartupTime   time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes all services, clients, and storage.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	// Get binary directory for self-contained operation
	binDir := getBinaryDir()

	// Load configuration - check provided path, FOLIO_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage paths to binary directory
	if config.Storage.Accounts.Path != "" && !filepath.IsAbs(config.Storage.Accounts.Path) {
		config.Storage.Accounts.Path = filepath.Join(binDir, config.Storage.Accounts.Path)
	}
	if config.Storage.Ledger.Path != "" && !filepath.IsAbs(config.Storage.Ledger.Path) {
		config.Storage.Ledger.Path = filepath.Join(binDir, config.Storage.Ledger.Path)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	// Initialize logger
	logger := common.NewLoggerFromConfig(config.Logging)

	// Initialize storage
	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Resolve the market data API key
	apiKey, err := common.ResolveAPIKey(config.Clients.AlphaVantage.APIKey)
	if err != nil {
		logger.Warn().Msg("Alpha Vantage API key not configured - market price lookups will fail")
	}

	marketClient := alphavantage.NewClient(apiKey,
		alphavantage.WithLogger(logger),
		alphavantage.WithBaseURL(config.Clients.AlphaVantage.BaseURL),
		alphavantage.WithRateLimit(config.Clients.AlphaVantage.RateLimit),
		alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
	)

	// Initialize services
	marketService := marketdata.NewService(marketClient, storageManager.PriceCacheStore(), logger)
	ledgerService := ledger.NewService(storageManager.AccountStore(), storageManager.LedgerStore(), marketService, logger)
	chartService := chart.NewService(marketService, logger)

	a := &App{
		Config:        config,
		Logger:        logger,
		Storage:       storageManager,
		MarketClient:  marketClient,
		MarketService: marketService,
		LedgerService: ledgerService,
		ChartService:  chartService,
		StartupTime:   startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

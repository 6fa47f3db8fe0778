// Package app wires configuration, storage, clients and services into a
// running application core shared by the server entrypoint.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yangbongclub/marketdesk/internal/clients/coingecko"
	"github.com/yangbongclub/marketdesk/internal/clients/feeds"
	"github.com/yangbongclub/marketdesk/internal/clients/kis"
	"github.com/yangbongclub/marketdesk/internal/clients/naver"
	"github.com/yangbongclub/marketdesk/internal/clients/stooq"
	"github.com/yangbongclub/marketdesk/internal/clients/yahoo"
	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
	"github.com/yangbongclub/marketdesk/internal/services/market"
	"github.com/yangbongclub/marketdesk/internal/services/news"
	"github.com/yangbongclub/marketdesk/internal/storage/newsdb"
	"github.com/yangbongclub/marketdesk/internal/storage/snapfs"
)

// App holds all initialized clients, stores and services.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	SnapshotStore interfaces.SnapshotStore
	NewsStore     interfaces.NewsStore
	MarketService interfaces.MarketService
	NewsService   interfaces.NewsService
	StartupTime   time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes the application core. configPath may be empty, in
// which case MARKETDESK_CONFIG and then the binary directory are tried.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	// Get binary directory for self-contained operation
	binDir := getBinaryDir()

	// Load configuration - check provided path, MARKETDESK_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("MARKETDESK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "marketdesk.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/marketdesk.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage paths to binary directory
	if config.Storage.Cache.Path != "" && !filepath.IsAbs(config.Storage.Cache.Path) {
		config.Storage.Cache.Path = filepath.Join(binDir, config.Storage.Cache.Path)
	}
	if config.Storage.News.Path != "" && !filepath.IsAbs(config.Storage.News.Path) {
		config.Storage.News.Path = filepath.Join(binDir, config.Storage.News.Path)
	}

	// Initialize logger
	logger := common.NewLogger(config.Logging.Level)

	// Initialize storage
	snapshotStore, err := snapfs.NewStore(logger, config.Storage.Cache.Path, config.Segments.GetCacheTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	newsStore, err := newsdb.NewStore(logger, config.Storage.News.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize news store: %w", err)
	}

	if config.Clients.KIS.AppKey == "" || config.Clients.KIS.AppSecret == "" {
		logger.Warn().Msg("KIS credentials not configured - KR quotes will rely on fallback providers")
	}

	// Initialize provider adapters, each wrapped with transient-error retry
	kisClient := kis.NewClient(config.Clients.KIS.AppKey, config.Clients.KIS.AppSecret,
		kis.WithBaseURL(config.Clients.KIS.BaseURL),
		kis.WithLogger(logger),
		kis.WithRateLimit(config.Clients.KIS.RateLimit),
		kis.WithTimeout(config.Clients.KIS.GetTimeout()),
	)

	naverClient := naver.NewClient(
		naver.WithBaseURL(config.Clients.Naver.BaseURL),
		naver.WithLogger(logger),
		naver.WithRateLimit(config.Clients.Naver.RateLimit),
		naver.WithTimeout(config.Clients.Naver.GetTimeout()),
	)

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)

	stooqClient := stooq.NewClient(
		stooq.WithBaseURL(config.Clients.Stooq.BaseURL),
		stooq.WithLogger(logger),
		stooq.WithTimeout(config.Clients.Stooq.GetTimeout()),
	)

	coingeckoClient := coingecko.NewClient(
		coingecko.WithBaseURL(config.Clients.CoinGecko.BaseURL),
		coingecko.WithLogger(logger),
		coingecko.WithRateLimit(config.Clients.CoinGecko.RateLimit),
		coingecko.WithTimeout(config.Clients.CoinGecko.GetTimeout()),
	)

	adapters := []interfaces.ProviderAdapter{
		market.WithRetry(kisClient, logger),
		market.WithRetry(naverClient, logger),
		market.WithRetry(yahooClient, logger),
		market.WithRetry(stooqClient, logger),
		market.WithRetry(coingeckoClient, logger),
	}

	// Initialize services
	orchestrator := market.NewOrchestrator(adapters, config.Segments.Priority, logger)
	marketService := market.NewService(orchestrator, snapshotStore, logger)

	feedClient := feeds.NewClient(feeds.WithLogger(logger))
	newsService := news.NewService(feedClient, newsStore,
		news.WithLogger(logger),
		news.WithRefreshTTL(config.News.GetRefreshTTL()),
		news.WithFetchLimit(config.News.FetchLimit),
	)

	a := &App{
		Config:        config,
		Logger:        logger,
		SnapshotStore: snapshotStore,
		NewsStore:     newsStore,
		MarketService: marketService,
		NewsService:   newsService,
		StartupTime:   startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, close news storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.NewsStore != nil {
		if err := a.NewsStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close news store")
		}
		a.NewsStore = nil
	}
}

// StartScheduler launches the background refresh goroutine when enabled.
func (a *App) StartScheduler() {
	if !a.Config.Scheduler.Enabled {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go runScheduler(ctx, a.MarketService, a.NewsService, a.Logger,
		a.Config.Scheduler.GetInterval(), a.Config.Scheduler.Segments)
}

// Package app wires configuration, clients, services, and storage into a
// ready-to-run application. Both binaries build on it.
package app

import (
	"context"
	"fmt"

	"github.com/rcabral/pse-advisor/internal/agents"
	"github.com/rcabral/pse-advisor/internal/clients/dragonfi"
	"github.com/rcabral/pse-advisor/internal/clients/gemini"
	"github.com/rcabral/pse-advisor/internal/clients/pseedge"
	"github.com/rcabral/pse-advisor/internal/clients/tavily"
	"github.com/rcabral/pse-advisor/internal/clients/tradingview"
	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/interfaces"
	"github.com/rcabral/pse-advisor/internal/services/advisor"
	"github.com/rcabral/pse-advisor/internal/services/stockdata"
	"github.com/rcabral/pse-advisor/internal/storage/reportstore"
)

// App holds the fully wired application
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Data    interfaces.StockDataService
	Advisor interfaces.AdvisorService
	Store   interfaces.ReportStore
}

// Options tweaks what NewApp wires up
type Options struct {
	// SkipLLM leaves the Gemini client out; Advisor stays nil and only
	// the data layer is available. Used by the data-only CLI mode.
	SkipLLM bool

	// SkipStore leaves report persistence out
	SkipStore bool
}

// NewApp loads configuration and wires the full application
func NewApp(ctx context.Context, configPath string, opts Options) (*App, error) {
	config, err := common.LoadConfig("config.toml", configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	profiles := dragonfi.NewClient(
		dragonfi.WithBaseURL(config.Clients.DragonFi.BaseURL),
		dragonfi.WithRateLimit(config.Clients.DragonFi.RateLimit),
		dragonfi.WithTimeout(config.Clients.DragonFi.GetTimeout()),
		dragonfi.WithLogger(logger),
	)
	ohlcv := pseedge.NewClient(
		pseedge.WithBaseURL(config.Clients.PSEEdge.BaseURL),
		pseedge.WithRateLimit(config.Clients.PSEEdge.RateLimit),
		pseedge.WithTimeout(config.Clients.PSEEdge.GetTimeout()),
		pseedge.WithLogger(logger),
	)
	scanner := tradingview.NewClient(
		tradingview.WithScannerURL(config.Clients.TradingView.ScannerURL),
		tradingview.WithTimeout(config.Clients.TradingView.GetTimeout()),
		tradingview.WithLogger(logger),
	)
	search := tavily.NewClient(
		tavily.WithBaseURL(config.Clients.Tavily.BaseURL),
		tavily.WithTimeout(config.Clients.Tavily.GetTimeout()),
		tavily.WithLogger(logger),
	)

	data := stockdata.NewService(profiles, ohlcv, scanner, search, config.Signals, logger)

	a := &App{
		Config: config,
		Logger: logger,
		Data:   data,
	}

	if !opts.SkipStore {
		store, err := reportstore.New(config.Storage.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open report store: %w", err)
		}
		a.Store = store
	}

	if !opts.SkipLLM {
		if config.Clients.Gemini.APIKey == "" {
			return nil, fmt.Errorf("no Gemini API key configured (set GEMINI_API_KEY)")
		}
		llm, err := gemini.NewClient(ctx, config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		runner := agents.NewRunner(llm, logger)
		a.Advisor = advisor.NewService(data, runner, a.Store, logger)
	}

	return a, nil
}

// Close releases held resources
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close report store")
		}
	}
}

package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/handlers"
	"github.com/ternarybob/prospectus/internal/marketdata"
	"github.com/ternarybob/prospectus/internal/services/convert"
	"github.com/ternarybob/prospectus/internal/services/llm"
	"github.com/ternarybob/prospectus/internal/services/report"
	"github.com/ternarybob/prospectus/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Core services
	MarketData      *marketdata.Service
	Generator       report.Generator
	Pipeline        *report.Pipeline
	ReportStore     *storage.ReportStore
	DocumentService *convert.DocumentService

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	WSHandler      *handlers.WebSocketHandler
	StockHandler   *handlers.StockHandler
	ConvertHandler *handlers.ConvertHandler

	sweeper *cron.Cron
}

// New wires all services and handlers from configuration
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHandlers()

	return app, nil
}

func (a *App) initServices() error {
	cfg := a.Config

	clientOpts := []marketdata.ClientOption{
		marketdata.WithLogger(a.Logger),
		marketdata.WithHTTPClient(&http.Client{Timeout: cfg.MarketData.RequestTimeout}),
	}
	if cfg.MarketData.BaseURL != "" {
		clientOpts = append(clientOpts, marketdata.WithBaseURL(cfg.MarketData.BaseURL))
	}
	if cfg.MarketData.RateLimit > 0 {
		rps := int(time.Second / cfg.MarketData.RateLimit)
		if rps < 1 {
			rps = 1
		}
		clientOpts = append(clientOpts, marketdata.WithRateLimit(rps))
	}
	client := marketdata.NewClient(cfg.MarketData.APIKey, clientOpts...)
	a.MarketData = marketdata.NewService(client, cfg.MarketData.CacheTTL, a.Logger)

	sanitizer := report.NewSanitizer()
	generator, err := llm.NewGenerator(cfg, sanitizer, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize generation backend: %w", err)
	}
	a.Generator = generator

	store, err := storage.NewReportStore(&cfg.Storage, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}
	a.ReportStore = store

	if cfg.Storage.SweepSchedule != "" && cfg.Storage.RetentionDays > 0 {
		sweeper, err := store.StartSweeper(cfg.Storage.SweepSchedule, cfg.Storage.RetentionDays)
		if err != nil {
			return fmt.Errorf("failed to start retention sweeper: %w", err)
		}
		a.sweeper = sweeper
	}

	criteria, err := report.LoadCriteria(cfg.Report.CriteriaFile)
	if err != nil {
		return fmt.Errorf("failed to load completion criteria: %w", err)
	}

	assembler := report.NewAssembler(cfg.Report.OutputDir, cfg.Report.TemplateFile, sanitizer, a.Logger)
	runner := report.NewPhaseRunner(generator, a.Logger, nil)
	a.Pipeline = report.NewPipeline(
		report.NewPromptAssembler(),
		runner,
		assembler,
		criteria,
		llm.GenerationConfigFor(cfg),
		cfg.Report.MaxRetries,
		store,
		a.Logger,
	)

	a.DocumentService = convert.NewDocumentService(&cfg.Convert, cfg.ConvertTimeout(), a.Logger)

	a.Logger.Info().
		Str("provider", string(cfg.LLM.DefaultProvider)).
		Str("model", llm.ModelFor(cfg)).
		Str("output_dir", cfg.Report.OutputDir).
		Msg("Services initialized")
	return nil
}

func (a *App) initHandlers() {
	cfg := a.Config

	a.WSHandler = handlers.NewWebSocketHandler(a.Pipeline, a.MarketData, a.DocumentService, &cfg.WebSocket, a.Logger)
	a.StockHandler = handlers.NewStockHandler(a.MarketData, a.Logger)
	a.ConvertHandler = handlers.NewConvertHandler(a.DocumentService, a.Logger)
	a.APIHandler = handlers.NewAPIHandler(a.WSHandler.Sessions(), a.ReportStore, a.Logger)
}

// Close releases application resources
func (a *App) Close() error {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.ReportStore != nil {
		if err := a.ReportStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close report store")
			return err
		}
	}
	a.Logger.Info().Msg("Application closed")
	return nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SlicerQC/internal/alert"
	"SlicerQC/internal/config"
	"SlicerQC/internal/dashboard"
	"SlicerQC/internal/domain"
	"SlicerQC/internal/extraction"
	"SlicerQC/internal/history"
	"SlicerQC/internal/infrastructure/email"
	"SlicerQC/internal/infrastructure/llm"
	"SlicerQC/internal/infrastructure/ocr"
	"SlicerQC/internal/infrastructure/parser"
	"SlicerQC/internal/infrastructure/scheduler"
	"SlicerQC/internal/infrastructure/slack"
	"SlicerQC/internal/infrastructure/storage"
	"SlicerQC/internal/infrastructure/telegram"
	"SlicerQC/internal/inspection"
	"SlicerQC/internal/logging"
	"SlicerQC/internal/ports"
	"SlicerQC/internal/specs"
	"SlicerQC/internal/usecase"
)

const memoryDriver = "memory"

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	specs     *specs.Registry
	lifecycle *usecase.Lifecycle
	dashboard *dashboard.Engine
	reporter  *usecase.ShiftReporter
	closers   []func() error
}

// New builds the application from configuration. Extraction providers and
// notifiers without credentials are left out.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry, err := buildSpecs(cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := buildExtractor(ctx, cfg.Extraction, baseLogger.With("component", "extraction"))
	if err != nil {
		return nil, err
	}

	dispatcher := alert.NewDispatcher(baseLogger.With("component", "alert"), buildNotifiers(cfg.Notifications)...)

	a := &Application{cfg: cfg, logger: baseLogger, specs: registry}

	store, err := a.openHistory(ctx)
	if err != nil {
		return nil, err
	}

	a.lifecycle = usecase.NewLifecycle(usecase.LifecycleDeps{
		Specs:     registry,
		Assembler: inspection.NewAssembler(registry, inspection.WithClock(a.Now)),
		Extractor: extractor,
		Alerts:    dispatcher,
		History:   store,
		Logger:    baseLogger.With("component", "lifecycle"),
	})

	a.dashboard = dashboard.NewEngine(store, cfg.Equipment)

	loc := cfg.Scheduler.Location()
	a.reporter = usecase.NewShiftReporter(usecase.ShiftReportDeps{
		Driver:    scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, loc),
		Boards:    a.dashboard,
		Publisher: dispatcher,
		Location:  loc,
		Logger:    baseLogger.With("component", "shift-report"),
	})

	return a, nil
}

func buildSpecs(cfg config.Config) (*specs.Registry, error) {
	entries, err := cfg.SpecEntries()
	if err != nil {
		return nil, fmt.Errorf("load specs: %w", err)
	}
	if entries == nil {
		return specs.MustDefault(), nil
	}
	registry, err := specs.New(entries)
	if err != nil {
		return nil, fmt.Errorf("load specs: %w", err)
	}
	return registry, nil
}

func buildExtractor(ctx context.Context, cfg config.ExtractionConfig, logger *slog.Logger) (*extraction.Router, error) {
	registry := extraction.NewRegistry()
	registry.Register(parser.NewHTMLReportExtractor())

	if cfg.Gemini.APIKey != "" {
		gemini, err := llm.NewGeminiExtractor(ctx, cfg.Gemini, cfg.SystemPrompt)
		if err != nil {
			return nil, err
		}
		registry.Register(gemini)
	}
	if cfg.Anthropic.APIKey != "" {
		claude, err := llm.NewClaudeExtractor(cfg.Anthropic, cfg.SystemPrompt)
		if err != nil {
			return nil, err
		}
		registry.Register(claude)
	}
	if cfg.ChatGPT.APIKey != "" {
		registry.Register(llm.NewChatGPTExtractor(cfg.ChatGPT, cfg.SystemPrompt))
	}
	if cfg.OCR.Endpoint != "" {
		registry.Register(ocr.NewClient(cfg.OCR.Endpoint, cfg.OCR.APIKey))
	}

	logger.Debug("extraction strategies", "registered", registry.Names(), "default", cfg.Provider)
	return extraction.NewRouter(registry, cfg.Routes, cfg.Provider, logger), nil
}

func buildNotifiers(cfg config.NotificationConfig) []ports.Notifier {
	var notifiers []ports.Notifier
	if cfg.Slack.BotToken != "" && cfg.Slack.ChannelID != "" {
		notifiers = append(notifiers, slack.NewNotifier(cfg.Slack.BotToken, cfg.Slack.ChannelID, cfg.Slack.APIURL))
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifiers = append(notifiers, telegram.NewNotifier(cfg.Telegram.APIBase, cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if cfg.Email.Host != "" && cfg.Email.To != "" && (cfg.Email.From != "" || cfg.Email.Username != "") {
		notifiers = append(notifiers, email.NewNotifier(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
		}, nil))
	}
	return notifiers
}

func (a *Application) openHistory(ctx context.Context) (ports.HistoryStore, error) {
	if a.cfg.Database.Driver == memoryDriver {
		return history.NewMemory(), nil
	}
	repo, err := storage.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	a.closers = append(a.closers, repo.Close)
	return repo, nil
}

// Specs exposes the tolerance table.
func (a *Application) Specs() *specs.Registry {
	return a.specs
}

// Lifecycle exposes the inspection workflow.
func (a *Application) Lifecycle() *usecase.Lifecycle {
	return a.lifecycle
}

// Dashboard exposes shift-window queries.
func (a *Application) Dashboard() *dashboard.Engine {
	return a.dashboard
}

// Equipment lists the configured equipment identifiers in display order.
func (a *Application) Equipment() []string {
	return append([]string(nil), a.cfg.Equipment...)
}

// Now returns the current time in the plant time zone.
func (a *Application) Now() time.Time {
	return time.Now().In(a.cfg.Scheduler.Location())
}

// DefaultSelection is the initial capture selection: first equipment, FlatCut,
// first solid range.
func (a *Application) DefaultSelection() domain.Selection {
	sel := domain.Selection{Variant: domain.FlatCut}
	if len(a.cfg.Equipment) > 0 {
		sel.EquipmentID = a.cfg.Equipment[0]
	}
	return a.specs.Normalize(sel)
}

// Run posts shift summaries on the configured schedule until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	if err := a.reporter.Start(ctx); err != nil {
		return fmt.Errorf("start shift reporter: %w", err)
	}
	a.logger.Info("shift reporter started", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.reporter.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop shift reporter: %w", err)
	}
	return nil
}

// Report publishes the summary for the shift that ended at or before at.
func (a *Application) Report(ctx context.Context, at time.Time) error {
	return a.reporter.Report(ctx, at)
}

// Close releases storage handles.
func (a *Application) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

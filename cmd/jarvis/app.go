package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/ai/gemini"
	"github.com/Lin-Jiong-HDU/jarvis/internal/ai/openai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/conversation"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/execution"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/history"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/planner"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/platform"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/script"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/security"
	"github.com/Lin-Jiong-HDU/jarvis/internal/logging"
	"github.com/Lin-Jiong-HDU/jarvis/internal/metrics"
	"github.com/Lin-Jiong-HDU/jarvis/internal/storage"
	"github.com/google/uuid"
)

const defaultOpenAIModel = "gpt-4o-mini"

// app is the wired pipeline shared by the subcommands.
type app struct {
	cfg        *storage.Config
	logger     *logging.Logger
	metrics    *metrics.Metrics
	planner    *planner.Planner
	policy     security.Policy
	synth      *script.Synthesizer
	dispatcher *execution.Dispatcher
	engine     *core.Engine
	responder  *conversation.Responder
	// history is nil when the journal is disabled.
	history *history.Journal
}

// loadApp reads the config and wires every component. Logs go to logOut.
func loadApp(logOut io.Writer) (*app, error) {
	cfg, err := storage.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logOut)
}

func newApp(cfg *storage.Config, logOut io.Writer) (*app, error) {
	logger := logging.New(logOut, logging.ParseLevel(cfg.Log.Level))
	m := metrics.New()

	if err := storage.EnsureOutputDir(cfg); err != nil {
		return nil, err
	}

	planProvider, err := newProvider(cfg.AI, cfg.AI.Model)
	if err != nil {
		return nil, err
	}
	chatProvider, err := newProvider(cfg.AI, cfg.AI.ChatModel)
	if err != nil {
		return nil, err
	}
	if planProvider == nil {
		logger.Warnf("no API key configured; commands use the fallback plan")
	}

	policy, err := security.NewPolicy(cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("failed to load security policy: %w", err)
	}

	win := script.NewAHKGenerator()
	if cfg.Automation.WindowsBrowser != "" {
		win.Browser = cfg.Automation.WindowsBrowser
	}
	mac := script.NewAppleScriptGenerator()
	if cfg.Automation.MacBrowser != "" {
		mac.Browser = cfg.Automation.MacBrowser
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		policy:  policy,
	}
	a.planner = planner.New(planProvider,
		planner.WithTimeout(cfg.AI.TimeoutDuration()),
		planner.WithLogger(logger),
		planner.WithMetrics(m),
	)
	a.synth = script.New(cfg.Automation.OutputDir,
		script.WithGenerator(platform.Windows, win),
		script.WithGenerator(platform.Mac, mac),
		script.WithLogger(logger),
	)
	a.dispatcher = execution.New(
		execution.Config{AHKPath: cfg.Automation.AHKPath, OsascriptPath: cfg.Automation.OsascriptPath},
		execution.WithLogger(logger),
		execution.WithMetrics(m),
	)
	if cfg.History.Enabled {
		if a.history, err = openHistory(cfg); err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
	}
	a.engine = a.newEngine()
	a.responder = conversation.NewResponder(chatProvider,
		conversation.WithTimeout(cfg.AI.TimeoutDuration()),
		conversation.WithLogger(logger),
	)
	return a, nil
}

// close releases the history backend.
func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warnf("failed to close history: %v", err)
		}
	}
}

// openHistory opens the configured journal backend under a new session ID.
func openHistory(cfg *storage.Config) (*history.Journal, error) {
	path, err := storage.HistoryPath(cfg)
	if err != nil {
		return nil, err
	}
	session := uuid.New().String()

	switch strings.ToLower(cfg.History.Backend) {
	case "", storage.HistoryBackendJSON:
		return history.Open(path, session, cfg.History.Limit)
	case storage.HistoryBackendSQLite:
		store, err := history.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		j, err := history.New(store, session, cfg.History.Limit)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.History.Backend)
	}
}

// newEngine builds an engine over the shared components with extra options.
func (a *app) newEngine(opts ...core.Option) *core.Engine {
	base := []core.Option{core.WithLogger(a.logger), core.WithMetrics(a.metrics)}
	if a.history != nil {
		base = append(base, core.WithRecorder(a.history))
	}
	opts = append(base, opts...)
	return core.NewEngine(a.planner, a.policy, a.synth, a.dispatcher, opts...)
}

// newProvider returns the interpretation client for cfg, or nil when no API
// key is configured.
func newProvider(cfg storage.AIConfig, model string) (ai.Provider, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "gemini", "google":
		return gemini.NewClient(cfg.APIKey, model, cfg.BaseURL, cfg.TimeoutDuration()), nil
	case "openai":
		if model == "" {
			model = defaultOpenAIModel
		}
		return openai.NewClient(cfg.APIKey, model, cfg.BaseURL, cfg.TimeoutDuration()), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

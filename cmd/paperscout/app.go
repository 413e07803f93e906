package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nugget/paperscout/internal/agent"
	"github.com/nugget/paperscout/internal/config"
	"github.com/nugget/paperscout/internal/credentials"
	"github.com/nugget/paperscout/internal/events"
	"github.com/nugget/paperscout/internal/llm"
	"github.com/nugget/paperscout/internal/opstate"
	"github.com/nugget/paperscout/internal/papers"
	"github.com/nugget/paperscout/internal/search"
	"github.com/nugget/paperscout/internal/tools"
	"github.com/nugget/paperscout/internal/usage"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// app holds the wired components shared by serve, ask, and key.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	bus      *events.Bus
	creds    *credentials.Store
	keys     *credentials.Provider
	llm      llm.Client
	usage    *usage.Store
	searches *search.Manager
	service  *agent.Service
}

// openApp opens the database and wires every component from cfg. The
// caller must call close.
func openApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := opstate.OpenDB(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db, bus: events.New()}
	if err := a.wire(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg

	state, err := opstate.NewStore(a.db)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	a.creds = credentials.NewStore(state, cfg.Credentials.KeyName, cfg.Credentials.Fallback, a.bus)
	a.keys = credentials.NewProvider(a.creds)

	if a.usage, err = usage.NewStore(a.db); err != nil {
		return fmt.Errorf("open usage store: %w", err)
	}

	a.llm = newLLMClient(cfg, a.keys.APIKey, a.logger)
	a.searches = newSearchManager(cfg, a.logger)

	reg := tools.NewRegistry(a.logger)
	if err := search.RegisterTools(reg, a.searches); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	deps := agent.Deps{
		Logger: a.logger,
		LLM:    a.llm,
		Tools:  reg,
		Events: a.bus,
		Usage:  a.usage,
	}
	if cfg.RequiresCredential() {
		deps.Keys = a.keys
	}
	a.service = agent.NewService(deps, agent.Config{
		MaxIterations:   cfg.Agent.MaxIterations,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})

	a.logger.Info("agent ready",
		"provider", a.llm.Provider(),
		"model", a.llm.Model(),
		"sources", a.searches.Providers(),
		"tools", reg.Names(),
		"max_iterations", a.service.MaxIterations(),
	)
	return nil
}

func (a *app) close() {
	if a.keys != nil {
		a.keys.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
}

// newLLMClient creates the client for the configured provider. Keyed
// providers read the key through key on every call.
func newLLMClient(cfg *config.Config, key llm.KeyFunc, logger *slog.Logger) llm.Client {
	timeout := cfg.LLM.Timeout()
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.OpenAI.BaseURL, cfg.LLM.Model, key, timeout, logger)
	case config.ProviderOllama:
		return llm.NewOllamaClient(cfg.Ollama.URL, cfg.LLM.Model, timeout, logger)
	default:
		return llm.NewGeminiClient(cfg.Gemini.BaseURL, cfg.LLM.Model, key, timeout, logger)
	}
}

// newSearchManager registers the paper sources enabled in cfg. arxiv and
// ieee are always present; scholar is a placeholder unless scraping is
// enabled; semantic and searxng are opt-in.
func newSearchManager(cfg *config.Config, logger *slog.Logger) *search.Manager {
	mgr := search.NewManager(logger, cfg.Search.AllSources, cfg.Search.Timeout())

	mgr.Register(search.NewArxiv(cfg.Search.Arxiv.URL, papers.MaxResults))
	mgr.Register(search.NewIEEEPlaceholder())

	if cfg.Search.Scholar.Mode == config.ScholarScrape {
		mgr.Register(search.NewScholarScraper(cfg.Search.Scholar.URL, papers.MaxResults))
	} else {
		mgr.Register(search.NewScholarPlaceholder())
	}

	if cfg.Search.SemanticScholar.Enabled {
		s := cfg.Search.SemanticScholar
		mgr.Register(search.NewSemanticScholar(s.URL, s.APIKey, papers.MaxResults))
	}
	if cfg.Search.SearXNG.Configured() {
		mgr.Register(search.NewSearXNG(cfg.Search.SearXNG.URL, papers.MaxResults))
	}
	return mgr
}

// pinger is implemented by clients with a cheap connectivity check.
type pinger interface {
	Ping(ctx context.Context) error
}

// testModel makes one small call to verify the key and endpoint.
func testModel(ctx context.Context, client llm.Client) error {
	if p, ok := client.(pinger); ok {
		return p.Ping(ctx)
	}
	_, err := client.Generate(ctx, llm.Request{Prompt: "Hello", MaxOutputTokens: 10})
	return err
}

// describeModelError turns a failed test call into a user-facing hint.
func describeModelError(err error) string {
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, credentials.ErrCredentialMissing):
		return err.Error()
	case errors.As(err, &apiErr) && (apiErr.StatusCode == 400 || apiErr.StatusCode == 401 || apiErr.StatusCode == 403):
		return fmt.Sprintf("the API key was rejected (%v)", err)
	case errors.As(err, &apiErr) && apiErr.Retryable():
		return fmt.Sprintf("the provider is unavailable or rate limited (%v)", err)
	}
	return err.Error()
}

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/wealthsense/ai/agents/sqlagent"
	"github.com/hrygo/wealthsense/ai/core/llm"
	"github.com/hrygo/wealthsense/ai/core/retrieval"
	"github.com/hrygo/wealthsense/ai/metrics"
	"github.com/hrygo/wealthsense/ai/query"
	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/store"
	"github.com/hrygo/wealthsense/store/db"
	"github.com/hrygo/wealthsense/store/db/mongo"
)

const (
	mongoConnectTimeout = 10 * time.Second
	schemaTimeout       = 15 * time.Second
	warmupTimeout       = 10 * time.Second
)

// app holds the collaborators created once at process start.
type app struct {
	store        *store.Store
	llm          llm.Service
	agent        *sqlagent.Agent
	agentDB      store.Driver
	metrics      *metrics.PrometheusExporter
	orchestrator *query.Orchestrator
}

// newApp opens the stores and builds the query pipeline. Only the relational
// store is mandatory; the document store, the language model and the SQL
// agent degrade to disabled with a warning.
func newApp(ctx context.Context, p *profile.Profile) (*app, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	if err := driver.GetDB().PingContext(ctx); err != nil {
		slog.Warn("relational store not reachable at startup", "driver", p.Driver, "error", err)
	}

	a := &app{
		store:   store.New(driver, openDocuments(ctx, p), p),
		metrics: metrics.NewPrometheusExporter(metrics.DefaultConfig()),
	}

	a.llm = newLanguageModel(p)
	if a.llm != nil {
		// Warmup is best-effort and does not block startup.
		go func() {
			warmupCtx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
			defer cancel()
			a.llm.Warmup(warmupCtx)
		}()
	}

	mode, err := query.ParseAgentMode(p.AgentMode)
	if err != nil {
		return nil, err
	}
	if a.llm != nil && mode != query.AgentOff {
		a.agent, a.agentDB = newAgent(ctx, p, a.llm)
	}

	var agent query.Agent
	if a.agent != nil {
		agent = a.agent
	}
	composer := query.NewComposer(agent, mode, a.metrics)

	var completer llm.Completer
	if a.llm != nil {
		completer = a.llm
	}
	a.orchestrator = query.NewOrchestrator(
		retrieval.NewContextAssembler(a.store),
		completer,
		composer,
		query.WithRecorder(a.metrics),
		query.WithMaxConcurrent(p.QueryConcurrency),
	)
	return a, nil
}

func openDocuments(ctx context.Context, p *profile.Profile) store.DocumentDriver {
	if p.MongoURI == "" {
		slog.Warn("document store not configured, client context and dashboard client views are disabled")
		return nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	documents, err := mongo.NewDB(connectCtx, p.MongoURI, p.MongoDatabase)
	if err != nil {
		slog.Warn("document store unavailable", "database", p.MongoDatabase, "error", err)
		return nil
	}
	slog.Info("document store connected", "database", p.MongoDatabase)
	return documents
}

func newLanguageModel(p *profile.Profile) llm.Service {
	if !p.IsAIEnabled() {
		slog.Warn("LLM API key not configured, queries will return an error narrative",
			"provider", p.LLMProvider,
		)
		return nil
	}
	service, err := llm.NewService(&llm.Config{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   p.LLMMaxTokens,
		Temperature: p.LLMTemperature,
		Timeout:     p.LLMTimeout,
		Referer:     p.LLMReferer,
		Title:       p.LLMTitle,
	})
	if err != nil {
		slog.Warn("Failed to initialize LLM service", "provider", p.LLMProvider, "error", err)
		return nil
	}
	slog.Info("LLM service initialized", "provider", p.LLMProvider, "model", p.LLMModel)
	return service
}

// newAgent opens the agent's own connection and caches the schema. The
// agent is disabled when either step fails.
func newAgent(ctx context.Context, p *profile.Profile, model llm.ToolCaller) (*sqlagent.Agent, store.Driver) {
	driver, err := db.NewAgentDBDriver(p)
	if err != nil {
		slog.Warn("SQL agent disabled", "error", err)
		return nil, nil
	}

	schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	agent, err := sqlagent.New(schemaCtx, model, driver, sqlagent.Config{
		MaxRounds: p.AgentMaxRounds,
		MaxRows:   p.AgentMaxRows,
	})
	if err != nil {
		_ = driver.Close()
		slog.Warn("SQL agent disabled", "error", err)
		return nil, nil
	}
	slog.Info("SQL agent ready", "tables", agent.Tables(), "max_rounds", p.AgentMaxRounds)
	return agent, driver
}

// closeAgent releases the agent connection. The main stores are closed by
// the server on shutdown.
func (a *app) closeAgent() {
	if a.agentDB != nil {
		if err := a.agentDB.Close(); err != nil {
			slog.Error("failed to close agent connection", "error", err)
		}
	}
}

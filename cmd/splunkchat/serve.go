package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/matiasleandrokruk/splunkchat/internal/api"
	"github.com/matiasleandrokruk/splunkchat/internal/api/handlers"
	"github.com/matiasleandrokruk/splunkchat/internal/domain/audit"
	"github.com/matiasleandrokruk/splunkchat/internal/domain/chat"
	"github.com/matiasleandrokruk/splunkchat/internal/domain/intent"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/config"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/eventbus"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/llm"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/logging"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/mcpclient"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/metrics"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/sqlite"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/toolserver"
	"github.com/matiasleandrokruk/splunkchat/internal/server"
	"github.com/matiasleandrokruk/splunkchat/internal/version"
)

const shutdownTimeout = 15 * time.Second

// app is the fully wired process, ready to serve.
type app struct {
	handler  http.Handler
	server   *server.Server
	client   *chat.Client
	recorder *audit.Recorder
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.Start(ctx) }()

	select {
	case err := <-errCh:
		// A listener failed before any shutdown was requested.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(err, a.server.Shutdown(shutdownCtx))
	case <-ctx.Done():
		logger.Info("shutdown.signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// build wires every component from cfg. Resources opened before a failure are
// closed before returning the error.
func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	var closers []io.Closer
	defer func() {
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	bus := eventbus.New(eventbus.WithDropHandler(m.EventDropped))

	a := &app{}

	if cfg.Audit.DBPath != "" {
		db, err := sqlite.Open(ctx, cfg.Audit.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open audit db: %w", err)
		}
		closers = append(closers, db)
		a.recorder = audit.NewRecorder(bus, audit.NewService(db), logging.Component(logger, "audit"))
		logger.Info("audit.enabled", "path", cfg.Audit.DBPath)
	}

	session, err := mcpclient.Connect(ctx, cfg.MCP, logging.Component(logger, "mcp"))
	if err != nil {
		return nil, err
	}
	closers = append(closers, session)

	provider := newProvider(cfg.LLM)
	chatLogger := logging.Component(logger, "chat")
	builder := chat.NewBuilder(provider).
		Model(cfg.LLM.Model).
		Temperature(cfg.LLM.Temperature).
		MaxTokens(cfg.LLM.MaxTokens).
		MaxToolRounds(cfg.LLM.MaxToolRounds).
		Logger(chatLogger).
		OnToolInvocation(func(_ context.Context, inv chat.ToolInvocation) {
			m.ObserveToolInvocation(inv.Tool, inv.Err)
			bus.Publish(eventbus.TopicToolInvoked, toolInvocationRecord(inv))
		})
	a.client = chat.Bootstrap(builder, session, chatLogger)
	m.SetRegisteredTools(len(a.client.Tools()))

	chatHandler := handlers.NewChatHandler(handlers.ChatHandlerConfig{
		Mode:     cfg.Chat.Mode,
		Answerer: newAnswerer(cfg, a.client, logger),
		Timeout:  cfg.Chat.Timeout,
		Events:   bus,
		Observer: m,
		Logger:   chatLogger,
	})
	a.handler = api.NewRouter(api.RouterDeps{
		Chat:          chatHandler,
		AllowedOrigin: cfg.CORS.AllowedOrigin,
		Logger:        logging.Component(logger, "http"),
	})

	opts := []server.Option{
		server.WithLogger(logging.Component(logger, "server")),
		server.WithOps(cfg.Metrics.Addr, reg, provider.HealthCheck),
	}
	if a.recorder != nil {
		// Stopped after the listeners and before the audit DB is closed.
		opts = append(opts, server.WithWorker(a.recorder.Run))
	}
	for _, c := range closers {
		opts = append(opts, server.WithCloser(c))
	}
	a.server = server.NewServer(a.handler, server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, opts...)

	logger.Info("splunkchat.ready",
		"version", version.Version,
		"mode", cfg.Chat.Mode,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"tools", len(a.client.Tools()),
	)
	return a, nil
}

func newProvider(cfg config.LLMConfig) *llm.Router {
	var p llm.ChatProvider
	switch cfg.Provider {
	case config.ProviderOpenAI:
		p = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		p = llm.NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Timeout)
	}
	return llm.NewRouter(map[string]llm.ChatProvider{cfg.Provider: p}, cfg.Provider)
}

// newAnswerer picks the /chat strategy. Agent mode lets the model call MCP tools
// under the Splunk system prompt; router mode maps the message to a tool-server
// REST call by keyword and asks the model only when nothing matches.
func newAnswerer(cfg config.Config, client *chat.Client, logger *slog.Logger) handlers.Answerer {
	if cfg.Chat.Mode == config.ModeRouter {
		tools := toolserver.New(cfg.ToolServer.BaseURL, cfg.ToolServer.Timeout)
		dispatcher := intent.NewDispatcher(tools, intent.FallbackFunc(client.Plain), logging.Component(logger, "router"))
		return handlers.TextAnswerer(dispatcher.Dispatch)
	}
	return chat.NewAgent(client, chat.SplunkSystemPrompt)
}

func toolInvocationRecord(inv chat.ToolInvocation) *audit.ToolInvocation {
	rec := &audit.ToolInvocation{
		ExchangeID: inv.ExchangeID,
		Tool:       inv.Tool,
		Arguments:  inv.Arguments,
		Result:     inv.Result,
		Outcome:    audit.OutcomeOf(inv.Err),
		Duration:   inv.Duration,
	}
	if inv.Err != nil {
		rec.Error = inv.Err.Error()
	}
	return rec
}

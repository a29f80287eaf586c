// Package main contains the entrypoint for the VHouse conversation service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vhouse/vhouse/internal/config"
	"github.com/vhouse/vhouse/internal/conversation"
	"github.com/vhouse/vhouse/internal/database"
	"github.com/vhouse/vhouse/internal/logger"
	"github.com/vhouse/vhouse/internal/notify"
	"github.com/vhouse/vhouse/internal/server"
	"github.com/vhouse/vhouse/internal/tasks"
	"github.com/vhouse/vhouse/internal/textgen"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, db, gateway, orchestrator,
// server, scheduler), serves until the context is cancelled, and returns an
// exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	providers, err := buildProviders(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize text generation providers", "error", err)
		return 1
	}
	gateway := textgen.NewGateway(providers, cfg.AI.Primary, cfg.AI.Timeout, log)

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram, log)
	if err != nil {
		log.Error("Failed to initialize telegram notifier", "error", err)
		return 1
	}

	orchestrator := conversation.NewOrchestrator(
		store,
		gateway,
		conversation.NewContextBuilder(store, cfg.Business.RecentOrderWindow, log),
		conversation.NewPromptEngine(),
		conversation.NewParser(log, nil),
		conversation.NewValidator(log),
		conversation.NewRuleEvaluator(cfg.Business.LargeOrderMultiplier),
		conversation.NewSummarizer(cfg.Business.TaxRate, cfg.Business.Currency),
		notifierOrNil(notifier),
		conversation.Options{MaxTokens: cfg.AI.MaxTokens},
		log,
	)

	scheduler, err := tasks.NewScheduler(log, &cfg.Scheduler, tasks.Registry(tasks.Deps{
		Logger:  log,
		Store:   store,
		Gateway: gateway,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	if err := scheduler.Start(); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		return 1
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error("Scheduler shutdown error", "error", err)
		}
	}()

	srv := server.New(cfg.Server, server.Deps{
		Logger:       log,
		Orchestrator: orchestrator,
		Store:        store,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server error", "error", err)
		return 1
	}

	log.Info("Shutdown complete")
	return 0
}

// buildProviders constructs every provider with credentials configured. At
// least one is required; the gateway handles preference and fallback.
func buildProviders(ctx context.Context, cfg *config.Config, log *slog.Logger) ([]textgen.Provider, error) {
	var providers []textgen.Provider

	if cfg.AI.Gemini.APIKey != "" {
		gemini, err := textgen.NewGeminiProvider(ctx, cfg.AI.Gemini, log)
		if err != nil {
			return nil, err
		}
		providers = append(providers, gemini)
	}
	if cfg.AI.OpenAI.APIKey != "" {
		openai, err := textgen.NewOpenAIProvider(cfg.AI.OpenAI, log)
		if err != nil {
			return nil, err
		}
		providers = append(providers, openai)
	}

	if len(providers) == 0 {
		return nil, errors.New("no text generation provider configured, set ai.gemini.api_key or ai.openai.api_key")
	}
	return providers, nil
}

// notifierOrNil avoids handing the orchestrator a non-nil interface wrapping
// a nil notifier when Telegram alerts are disabled.
func notifierOrNil(n *notify.TelegramNotifier) conversation.Notifier {
	if n == nil {
		return nil
	}
	return n
}

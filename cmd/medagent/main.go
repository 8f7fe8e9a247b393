package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/clinicops/medagent/internal/audit"
	"github.com/clinicops/medagent/internal/classify"
	"github.com/clinicops/medagent/internal/config"
	"github.com/clinicops/medagent/internal/engine"
	"github.com/clinicops/medagent/internal/llm/groq"
	"github.com/clinicops/medagent/internal/notify"
	"github.com/clinicops/medagent/internal/pipeline"
	"github.com/clinicops/medagent/internal/schema"
	"github.com/clinicops/medagent/internal/server"
	"github.com/clinicops/medagent/internal/session"
	"github.com/clinicops/medagent/internal/storage/sqlite"
	"github.com/clinicops/medagent/internal/synth"
	"github.com/clinicops/medagent/internal/telemetry"
	"github.com/clinicops/medagent/internal/tokens"
	"github.com/clinicops/medagent/internal/validate"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("medagent", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.LLM.APIKey == "" {
		log.Fatal("llm.api_key is required (set MEDAGENT_LLM__API_KEY)")
	}

	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer db.Close()

	if err := sqlite.Seed(context.Background(), db); err != nil {
		log.Fatalf("Failed to seed storage: %v", err)
	}

	registry := schema.Default()

	counter, err := tokens.NewCounter()
	if err != nil {
		log.Fatalf("Failed to load tokenizer: %v", err)
	}
	sessions := session.NewStore(counter, cfg.Session.MaxHistoryTokens)

	var completerOpts []groq.ClientOption
	if cfg.LLM.BaseURL != "" {
		completerOpts = append(completerOpts, groq.WithBaseURL(cfg.LLM.BaseURL))
	}
	completer := groq.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, completerOpts...)

	hub := notify.NewHub(cfg.Notify.Buffer, logger)

	// One write gate for the store: the engine's mutation transactions
	// and the recorder's audit inserts take turns instead of hitting
	// SQLite's single-writer lock.
	var writeMu sync.Mutex
	recorder := audit.NewRecorder(db, &writeMu)
	exec := engine.New(db, &writeMu, logger)

	pipe := pipeline.New(pipeline.Config{
		Classifier:  classify.New(completer, registry, logger),
		Synthesizer: synth.New(completer, registry, logger),
		Validator:   validate.New(registry),
		Executor:    exec,
		Recorder:    recorder,
		Notifier:    hub,
		Sessions:    sessions,
		Logger:      logger,
	})

	srv := server.New(cfg.Server.Port, logger)
	handler := server.NewHandler(pipe, exec, recorder, sessions, registry, logger)
	handler.Mount(srv.Router)
	srv.Router.Get("/ws", server.NewWSHandler(hub, logger).ServeHTTP)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigChan:
		logger.Info("shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/config"
	"portfolio-cms/internal/content"
	"portfolio-cms/internal/storage"
	"portfolio-cms/internal/templating"
	"portfolio-cms/internal/upload"
)

// application holds the application-wide dependencies.
type application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.JSONStore
	guard    *auth.Guard
	content  *content.Service
	uploads  *upload.Gateway
	renderer *templating.Engine
}

// newApplication wires the services for cfg around one JSONStore.
func newApplication(cfg config.Config, sessions auth.SessionStore, logger *slog.Logger) (*application, error) {
	store, err := storage.NewJSONStore(cfg.Storage.Root, cfg.Storage.PublicPrefix, logger)
	if err != nil {
		return nil, err
	}

	svc := content.NewService(store, logger)
	renderer, err := templating.NewEngine(svc, cfg.Storage.Root, logger)
	if err != nil {
		return nil, err
	}

	guard := auth.NewGuard(cfg.Auth.Password, auth.Options{
		TTL:            cfg.Auth.SessionTTL,
		VerifySessions: cfg.Auth.VerifySessions,
		Sessions:       sessions,
		Logger:         logger,
	})

	return &application{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		guard:    guard,
		content:  svc,
		uploads:  upload.NewGateway(store, logger),
		renderer: renderer,
	}, nil
}

func main() {
	// 1. Flags and config
	cfgFile := flag.String("config", "", "config file (default is ./portfolio.yaml)")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	loader, err := config.NewLoader(*cfgFile, logger)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	cfg, err := loader.Load()
	if err != nil {
		logger.Error("Failed to decode config", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())
	if cfg.Auth.Password == "" {
		logger.Warn("No admin password configured; login will fail until ADMIN_PASSWORD is set")
	}

	// 2. Session store
	var sessions auth.SessionStore
	if strings.TrimSpace(cfg.Redis.URL) != "" {
		logger.Info("Using Redis for session storage")
		redisStore, err := auth.NewRedisSessionStore(cfg.Redis.URL)
		if err != nil {
			logger.Error("Redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		sessions = redisStore
	}

	// 3. Services
	app, err := newApplication(cfg, sessions, logger)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	logger.Info("Serving case studies", "root", cfg.Storage.Root, "prefix", cfg.Storage.PublicPrefix)

	loader.Watch(func(next config.Config) {
		level.Set(next.Log.SlogLevel())
		app.guard.SetSecret(next.Auth.Password)
	})

	// 4. Start the HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "address", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/daybook/internal/api"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/mcpserver"
	"github.com/starford/daybook/internal/outline"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/storage"
)

// Runtime is an opened journal: storage, index and the service over them.
type Runtime struct {
	Service *journal.Service
	Store   *storage.FS
	DB      *index.DB
	Logger  *slog.Logger
}

// Close releases the index.
func (rt *Runtime) Close() error {
	return rt.DB.Close()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Open prepares storage, the index and the journal service without starting
// any background work. pub may be nil.
func Open(opts ...Option) (*Runtime, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	return app.open(nil)
}

func (a *application) open(pub journal.Publisher) (*Runtime, error) {
	cfg := a.config

	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Journal.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Journal.Dir, cfg.Journal.Extension)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	opts := []journal.Option{
		journal.WithRegistry(cfg.Journal.Files),
		journal.WithDefaultFile(cfg.Journal.DefaultFile),
		journal.WithWeekStart(cfg.Journal.Weekday()),
		journal.WithGrammar(outline.NewGrammar(cfg.Journal.Keywords)),
		journal.WithLogger(logger),
	}
	if pub != nil {
		opts = append(opts, journal.WithPublisher(pub))
	}
	svc := journal.NewService(store, db, opts...)
	svc.Engine().AfterPlace.Register("log", 100, func(k calendar.Key) {
		logger.Info("entry placed", slog.String("date", k.String()))
	})

	return &Runtime{Service: svc, Store: store, DB: db, Logger: logger}, nil
}

// Run starts the HTTP server, the file watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := app.open(broker)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.Logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("journal_dir", cfg.Journal.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := rt.Service.Reindex(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(rt.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher feeds the index and the SSE stream.
	g.Go(func() error {
		return index.Watch(gCtx, rt.DB, rt.Store, rt.Service.Grammar(), logger, broker.PublishFileEvent)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdio. Logs go to stderr unless redirected.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.open(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Service.Reindex(ctx); err != nil {
		rt.Logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	rt.Logger.Info("Starting MCP server", slog.String("version", app.version))
	return mcpserver.New(rt.Service, app.version).ServeStdio()
}

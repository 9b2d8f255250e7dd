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

	"github.com/starford/procforge/internal/api"
	"github.com/starford/procforge/internal/archive"
	"github.com/starford/procforge/internal/inbox"
	"github.com/starford/procforge/internal/mcpserver"
	"github.com/starford/procforge/internal/metrics"
	"github.com/starford/procforge/internal/session"
	"github.com/starford/procforge/internal/sse"
	"github.com/starford/procforge/internal/storage"
)

// Runtime is an opened workspace: the session and the stores behind it.
type Runtime struct {
	Session *session.Session
	Files   *storage.FS
	Archive *archive.DB
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Close releases the archive database.
func (rt *Runtime) Close() error {
	return rt.Archive.Close()
}

// Open prepares the workspace, the archive and the session, restoring the
// autosaved procedure when there is one.
func Open(opts ...Option) (*Runtime, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_path", cfg.Workspace.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure workspace directory exists.
	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	files, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := archive.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}

	// Record export files written while the archive was unavailable.
	if err := archive.Sync(db, files, logger); err != nil {
		logger.Warn("initial archive sync failed", slog.String("error", err.Error()))
	}

	m := metrics.New()
	sess := session.New(storage.NewFileState(files),
		session.WithLogger(logger),
		session.WithFiles(files),
		session.WithArchive(db),
		session.WithMetrics(m),
		session.WithLogoPolicy(cfg.Logo.Policy()),
	)
	if !sess.RestoreAutosave() && cfg.App.LoadExample {
		sess.LoadExample()
	}

	return &Runtime{Session: sess, Files: files, Archive: db, Metrics: m, Logger: logger}, nil
}

// Run starts the HTTP server, the autosave loop and the inbox watcher.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := Open(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := newApplication(opts).config
	logger := rt.Logger
	sess := rt.Session

	// SSE broker fed by session changes.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	sess.OnChange(broker.PublishChange)

	apiRouter := api.NewRouter(sess, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		if err := rt.Archive.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", rt.Metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Periodic autosave.
	g.Go(func() error {
		return sess.RunAutosave(gCtx, cfg.Autosave.Interval)
	})

	// Import directory.
	if cfg.Inbox.Enabled {
		in, err := newInbox(cfg, sess, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return in.Watch(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
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

		logger.Info("Shutting down server...")

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

// errShutdown cancels the group once the server has been shut down, so the
// autosave loop and the inbox watcher stop too.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdio until the client disconnects.
// Changes are autosaved in the background.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	rt, err := Open(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = rt.Session.RunAutosave(ctx, app.config.Autosave.Interval)
		close(done)
	}()

	err = mcpserver.New(rt.Session, app.version).ServeStdio()
	cancel()
	<-done
	return err
}

func newInbox(cfg *Config, sess *session.Session, logger *slog.Logger) (*inbox.Inbox, error) {
	if err := os.MkdirAll(cfg.Inbox.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Inbox.Path)
	if err != nil {
		return nil, fmt.Errorf("init inbox storage: %w", err)
	}
	return inbox.New(cfg.Inbox.Path, store, sess,
		inbox.WithPatterns(cfg.Inbox.Patterns...),
		inbox.WithLogger(logger),
	)
}

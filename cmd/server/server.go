package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// runServer builds the application from configuration and serves until ctx
// is canceled.
func runServer(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadAppConfig(opts)
	if err != nil {
		return err
	}
	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}
	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	windows, closeWindows, err := setupRateLimitStore(ctx, cfg.Redis, logger)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := closeWindows(); err != nil {
			logger.Error("Error closing redis connection", "error", err)
		}
	}()

	app, err := newApplication(cfg, logger, db, windows)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}

// Run starts the workers and the HTTP server and blocks until ctx is
// canceled or the server fails. In-flight requests get the configured
// shutdown timeout to finish.
func (app *application) Run(ctx context.Context) error {
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	app.logger.Info("Server shutdown completed")
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout bounds how long in-flight requests get to finish once a
// termination signal arrives. Pipeline drain happens afterwards in cleanup,
// so slow classifier calls do not count against this budget.
const shutdownTimeout = 10 * time.Second

// startHTTPServer serves the router until SIGINT/SIGTERM or a listener
// failure, then drains requests and runs application cleanup. It blocks for
// the server's whole lifetime and returns only a fatal serve or shutdown
// error.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: router,
	}

	serveCtx, stopServing := context.WithCancel(ctx)
	defer stopServing()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("HTTP server listening", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stopServing()
		}
	}()

	select {
	case sig := <-signals:
		app.logger.Info("Termination signal received, shutting down", "signal", sig.String())
	case <-serveCtx.Done():
		app.logger.Info("Serve context ended, shutting down")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelDrain()

	if err := server.Shutdown(drainCtx); err != nil {
		app.logger.Error("HTTP server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cleanup()

	select {
	case err := <-serveErr:
		app.logger.Error("HTTP server exited with error", "error", err)
		return fmt.Errorf("server failed: %w", err)
	default:
	}

	app.logger.Info("Server shutdown completed")
	return nil
}

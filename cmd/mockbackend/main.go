// Command mockbackend runs the simulated inference backend, serving
// deterministic 1997 Wrocław flood fixtures for console development and demos.
//
// Usage:
//
//	go run ./cmd/mockbackend -addr :8000 -delay 2s
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
	"time"

	"github.com/floodwatch/opsconsole/internal/mockbackend"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	delay := flag.Duration("delay", 0, "simulated processing delay for analyze/predict")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv := &http.Server{
		Addr:        *addr,
		Handler:     mockbackend.NewHandler(*delay, logger),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("mock backend starting", "addr", *addr, "delay", *delay)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mock backend error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

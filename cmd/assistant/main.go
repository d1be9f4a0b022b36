// Command assistant starts the personal coordination assistant's HTTP
// and voice surface (spec §6): /text, /voice, the Calendly/WhatsApp
// webhooks, the event-approval endpoints, and the operational
// /healthz, /tools and /metrics views.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/config"
	"github.com/ivanintech/agentic-assistant/internal/httpapi"
	"github.com/ivanintech/agentic-assistant/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	container, cleanup, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("building service container: %w", err)
	}
	defer cleanup()

	httpServer := httpapi.NewServer(container.Log, cfg.HTTPAddr, container.HTTP)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		container.Log.Info().Str("addr", cfg.HTTPAddr).Msg("assistant listening")
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		container.Log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"festivalcore/internal/adapters/httpapi"
	"festivalcore/internal/config"
)

func runServe(ctx context.Context, cfg config.Config, args []string, _, stderr io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: serve takes no arguments", errUsage)
	}
	a, err := openApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			a.logger.Error("shutdown", "error", err)
		}
	}()

	if cfg.SeedFile != "" {
		if _, err := a.applySeedFile(ctx, cfg.SeedFile); err != nil {
			return err
		}
	}

	handler := httpapi.NewHandler(a.service,
		httpapi.WithMetricsHandler(a.metricsHandler),
		httpapi.WithLogger(a.logger),
	)
	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	return serve(ctx, a, listener, handler)
}

func serve(ctx context.Context, a *app, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("http api listening", "addr", listener.Addr().String(), "storage", a.cfg.Storage.Driver)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down http api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

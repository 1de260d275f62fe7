package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"net/http"
	"os"

	"festivalcore/internal/blob"
	"festivalcore/internal/config"
	"festivalcore/internal/core"
	"festivalcore/internal/telemetry"
)

const serviceName = "festivalcore"

// app holds the wired service and the resources that must be released when
// a command finishes.
type app struct {
	cfg     config.Config
	logger  *core.ZerologLogger
	store   core.StateStore
	service *core.Service
	// metricsHandler serves the configured metrics backend.
	metricsHandler http.Handler

	traceFile         *os.File
	shutdownTelemetry telemetry.ShutdownFunc
}

func openApp(ctx context.Context, cfg config.Config, logOutput io.Writer) (*app, error) {
	logger := core.NewZerologLogger(logOutput, cfg.LogLevel)

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, err
	}

	store, err := core.OpenPersistentStore(ctx, cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}

	a := &app{
		cfg:               cfg,
		logger:            logger,
		store:             store,
		shutdownTelemetry: shutdown,
	}
	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithAuditRecorder(core.NewLogAuditRecorder(logger)),
	}

	switch cfg.Metrics {
	case config.MetricsExpvar:
		opts = append(opts, core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("")))
		a.metricsHandler = expvar.Handler()
	default:
		metrics := core.NewPrometheusMetricsRecorder(nil)
		opts = append(opts, core.WithMetricsRecorder(metrics))
		a.metricsHandler = metrics.Handler()
	}

	switch {
	case cfg.OTelEndpoint != "":
		opts = append(opts, core.WithTracer(core.NewOTelTracer(nil)))
	case cfg.TraceFile != "":
		f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		a.traceFile = f
		opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
	}

	a.service = core.NewService(store, opts...)
	return a, nil
}

func (a *app) openBlobs(ctx context.Context) (blob.Store, error) {
	blobs, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open %s blob store: %w", a.cfg.Blob.Driver, err)
	}
	return blobs, nil
}

// applySeedFile loads path and creates every record it names that is not
// present yet.
func (a *app) applySeedFile(ctx context.Context, path string) (core.SeedReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.SeedReport{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	seed, err := core.LoadSeed(f)
	if err != nil {
		return core.SeedReport{}, err
	}
	report, err := a.service.ApplySeed(ctx, core.SystemCaller(), seed)
	if err != nil {
		return report, err
	}
	a.logger.Info("seed applied", "file", path, "created", report.Created, "skipped", report.Skipped)
	return report, nil
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	if closer, ok := a.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.traceFile != nil {
		if err := a.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trace file: %w", err))
		}
	}
	if err := a.shutdownTelemetry(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
	}
	return errors.Join(errs...)
}

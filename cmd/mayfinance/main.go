package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"mayfinance/internal/backend"
	"mayfinance/internal/cli"
	apphttp "mayfinance/internal/http"
	applog "mayfinance/internal/log"
	"mayfinance/internal/session"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(applog.New(applog.DefaultConfig()), "Invalid configuration", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentApp)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to create backend configuration", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	sessions := session.NewManager(res.Stores, res.Deps, session.Config{TTL: cfg.SessionTTL, MaxSessions: cfg.MaxSessions})

	srv, err := apphttp.NewServer(":"+cfg.Port, sessions, apphttp.Options{
		Logger:             logger,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              res.Ping,
		Settings: apphttp.Settings{
			Backend:       res.Info.Backend.String(),
			OCREngine:     res.Info.OCREngine,
			EventsEnabled: res.Info.EventsEnabled,
			SheetsEnabled: res.Info.SheetsEnabled,
			SessionTTL:    cfg.SessionTTL,
		},
	})
	if err != nil {
		cli.Fatal(logger, "Failed to create HTTP server", err)
	}
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting MayFinance server",
			"port", cfg.Port,
			"backend", res.Info.Backend,
			"ocr_engine", res.Info.OCREngine,
			"events", res.Info.EventsEnabled,
			"sheets", res.Info.SheetsEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()

	sessions.Stop()
	if err := res.Cleanup(); err != nil {
		logger.Error("Backend cleanup failed", applog.FieldError, err)
	}
	if runErr != nil {
		logger.Error("Server error", applog.FieldError, runErr)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

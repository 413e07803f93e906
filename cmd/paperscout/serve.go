package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/nugget/paperscout/internal/api"
	"github.com/nugget/paperscout/internal/buildinfo"
)

// shutdownTimeout bounds how long in-flight queries may finish after a
// signal.
const shutdownTimeout = 30 * time.Second

// runServe handles "paperscout serve". It blocks until SIGINT or SIGTERM.
func runServe(ctx context.Context, stderr io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := configuredLogger(stderr, cfg)
	logger.Info("starting Paperscout", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)
	logger.Info("config loaded", "path", cfgPath, "port", cfg.Listen.Port, "data_dir", cfg.DataDir)

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.RequiresCredential() {
		if status, err := a.creds.Status(ctx); err == nil && !status.Configured {
			logger.Warn("no API key configured; queries will fail until one is set",
				"key", a.creds.KeyName())
		}
	}

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, api.Deps{
		Query:       a.service,
		Credentials: a.creds,
		Usage:       a.usage,
		Events:      a.bus,
	}, logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Paperscout stopped")
	return nil
}

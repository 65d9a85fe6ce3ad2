package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/degixdaw/filebrowser/frontend/internal/router"
	"github.com/degixdaw/filebrowser/frontend/internal/setup"
	"github.com/degixdaw/filebrowser/shared/config"
	"github.com/degixdaw/filebrowser/shared/domain"
	"github.com/degixdaw/filebrowser/shared/logger"
)

const (
	readTimeout      = 5 * time.Second
	writeTimeout     = 30 * time.Second
	autoLoginTimeout = 15 * time.Second
	shutdownTimeout  = 10 * time.Second
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "frontend/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	lc := cfg.Public.Log
	logger.InitializeWithFile(logger.Options{
		Level:      lc.Level,
		JSON:       lc.JSON,
		File:       lc.File,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	})

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to set up dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), autoLoginTimeout)
	if err := deps.AutoLogin(ctx); err != nil {
		logger.Log.Warn("continuing signed out", "error", err)
	}
	if err := deps.Cache.OnFilterChange(ctx, domain.FilterAll); err != nil {
		logger.Log.Warn("initial listing failed", "error", err)
	}
	cancel()

	server := &http.Server{
		Addr:         cfg.Public.ListenAddr,
		Handler:      router.SetupRouter(deps),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Info("starting file browser", "addr", server.Addr, "backend", cfg.Public.Supabase.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Log.Info("shutting down", "signal", sig.String())
	case err, ok := <-serverErr:
		if ok {
			logger.Log.Error("server failed", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
	logger.Log.Info("stopped")
}

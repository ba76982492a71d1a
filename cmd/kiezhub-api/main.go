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

	"github.com/kiezhub-dev/kiezhub/internal/router"
	"github.com/kiezhub-dev/kiezhub/internal/setup"
	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
)

const eventCompletionInterval = 15 * time.Minute

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Storage.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Keeps recently deactivated accounts visible to the auth middleware.
	deps.SuspensionCache.StartBackgroundUpdate(ctx, cfg.JwtTTL()/2)

	// Promotes registrations to attended after events end and reminds
	// participants of events starting soon.
	go func() {
		ticker := time.NewTicker(eventCompletionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := deps.Events.ProcessCompletedEvents(); err != nil {
					logger.Log.Error("event completion job failed", "error", err)
				}
				if _, err := deps.Events.SendEventReminders(); err != nil {
					logger.Log.Error("event reminder job failed", "error", err)
				}
			}
		}
	}()

	httpPort := os.Getenv("PORT")
	if httpPort == "" {
		httpPort = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      router.New(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("server started", "port", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ai9campus/smarttutor/internal/api"
	"github.com/ai9campus/smarttutor/internal/config"
	"github.com/ai9campus/smarttutor/internal/events"
	"github.com/ai9campus/smarttutor/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tutor over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadFrom(v)
	logger := setupLogging(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	logger.Info("smarttutor starting", "version", version, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	sessions := session.NewManager(a.template, cfg.SessionIdleTTL, logger)
	go sessions.Run(ctx, time.Minute)

	var transcripts api.TranscriptReader
	if a.archive != nil {
		transcripts = a.archive
	}
	srv := api.NewServer(api.Config{
		Port:        cfg.Port,
		APIToken:    cfg.APIToken,
		Sessions:    sessions,
		Index:       a.index,
		Feedback:    a.journal,
		Transcripts: transcripts,
		Info:        api.Info{Version: version, Provider: cfg.Provider, Model: cfg.Model},
		Logger:      logger,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	if a.bus != nil {
		if err := a.bus.Publish(events.SubjectServiceRegistered, events.RegisteredEvent{
			Port:      strconv.Itoa(cfg.Port),
			Provider:  cfg.Provider,
			Model:     cfg.Model,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			logger.Warn("failed to publish registration", "error", err)
		}
	}

	logger.Info("smarttutor ready", "port", cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	logger.Info("smarttutor stopped")
	return nil
}

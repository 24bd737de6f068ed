package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/server"
	"github.com/hyperjump/triage/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when configured, the dictation inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	var inbox *watcher.Inbox
	if cfg.Watch.Enabled() {
		userID := cfg.Watch.UserID
		inbox = watcher.NewInbox(cfg.Watch.Directory,
			func(ctx context.Context, path, text string) error {
				res, err := components.Pipeline.Run(ctx, &models.CaptureRequest{UserID: userID, Text: text})
				if err != nil {
					return err
				}
				logger.Info("inbox run finished",
					zap.String("path", path),
					zap.String("run_id", res.RunID),
					zap.Int("items", len(res.Items)),
					zap.Bool("degraded", res.Degraded))
				return nil
			},
			watcher.WithLogger(logger),
			watcher.WithDebounce(cfg.Watch.Debounce),
			watcher.WithExtensions(cfg.Watch.Extensions),
		)
		if err := inbox.Start(ctx); err != nil {
			return err
		}
		defer inbox.Stop()
		if err := inbox.SyncExisting(); err != nil {
			logger.Warn("inbox sync failed", zap.String("dir", inbox.Dir()), zap.Error(err))
		}
	}

	srv := server.NewServer(components.Pipeline, components.Learner, components.Storage, components.Index, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	if inbox != nil {
		inbox.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/config"
	"github.com/hyperjump/triage/internal/feedback"
	"github.com/hyperjump/triage/internal/index"
	"github.com/hyperjump/triage/internal/oracle"
	"github.com/hyperjump/triage/internal/pipeline"
	"github.com/hyperjump/triage/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Storage  *storage.SQLiteStorage
	Index    *index.BleveIndex
	Pipeline *pipeline.Pipeline
	Learner  *feedback.Learner
}

// Close releases storage and index resources.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	if dir := filepath.Dir(cfg.Storage.IndexPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	idx, err := index.NewBleveIndex(cfg.Storage.IndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize item index: %w", err)
	}
	c.Index = idx

	stage1, err := oracle.New(ctx, cfg.Oracle.Settings(cfg.Oracle.Stage1), logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize stage-1 oracle: %w", err)
	}
	stage2, err := oracle.New(ctx, cfg.Oracle.Settings(cfg.Oracle.Stage2), logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize stage-2 oracle: %w", err)
	}

	learnerOpts := []feedback.Option{feedback.WithLogger(logger)}
	if cfg.Oracle.Provider != oracle.ProviderOffline {
		learning, err := oracle.New(ctx, cfg.Oracle.Settings(cfg.Oracle.Learning), logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize learning oracle: %w", err)
		}
		learnerOpts = append(learnerOpts, feedback.WithOracle(learning, cfg.Oracle.Learning.MaxOutputTokens))
	}
	learner, err := feedback.NewLearner(store, learnerOpts...)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Learner = learner

	p, err := pipeline.New(store, store,
		pipeline.Stage{Oracle: stage1, MaxOutputTokens: cfg.Oracle.Stage1.MaxOutputTokens},
		pipeline.Stage{Oracle: stage2, MaxOutputTokens: cfg.Oracle.Stage2.MaxOutputTokens},
		&cfg.Pipeline,
		pipeline.WithLogger(logger),
		pipeline.WithIndex(idx),
		pipeline.WithMentionObserver(learner),
		pipeline.WithRouterConfig(&cfg.Router),
		pipeline.WithScoringConfig(&cfg.Suggestions),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	c.Pipeline = p

	logger.Info("components initialized",
		zap.String("oracle_provider", cfg.Oracle.Provider),
		zap.String("database", cfg.Storage.DatabasePath),
		zap.String("index", cfg.Storage.IndexPath))
	return c, nil
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/index"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/storage"
	"github.com/hyperjump/triage/pkg/utils"
)

// WriteReport is what the Writer managed to persist.
type WriteReport struct {
	// Failures holds one PersistenceError per item or suggestion that could not be stored.
	Failures []error
	Warnings []string
}

// Writer maps validated items to sink records and indexes them for search.
type Writer struct {
	sink   storage.Sink
	index  index.ItemIndex
	logger *zap.Logger
}

// NewWriter creates a Writer. idx may be nil.
func NewWriter(sink storage.Sink, idx index.ItemIndex, logger *zap.Logger) *Writer {
	return &Writer{sink: sink, index: idx, logger: utils.OrNop(logger)}
}

// Write persists every item and suggestion independently: one failure never undoes
// another record of the same run. Items and suggestions receive IDs in place.
func (w *Writer) Write(ctx context.Context, runID, userID string, items []models.Item, suggestions []models.ProactiveSuggestion) *WriteReport {
	report := &WriteReport{}
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		var err error
		if it.Kind == models.KindNote {
			err = w.sink.CreateNote(ctx, runID, userID, it)
		} else {
			err = w.sink.CreateTask(ctx, runID, userID, it)
		}
		if err != nil {
			perr := &models.PersistenceError{Op: "item", Index: i, Err: err}
			report.Failures = append(report.Failures, perr)
			report.Warnings = append(report.Warnings, fmt.Sprintf("item %d (%s) was not saved", i, utils.Truncate(it.Label(), 40)))
			w.logger.Error("Failed to persist item", zap.String("run_id", runID), zap.Int("index", i), zap.Error(err))
			continue
		}
		if w.index != nil {
			if err := w.index.IndexItem(ctx, userID, it); err != nil {
				w.logger.Warn("Failed to index item", zap.String("item_id", it.ID), zap.Error(err))
			}
		}
	}

	for i := range suggestions {
		sg := &suggestions[i]
		if sg.ID == "" {
			sg.ID = uuid.New().String()
		}
		sg.RunID = runID
		sg.UserID = userID
		if err := w.sink.CreateSuggestion(ctx, sg); err != nil {
			perr := &models.PersistenceError{Op: "suggestion", Index: i, Err: err}
			report.Failures = append(report.Failures, perr)
			report.Warnings = append(report.Warnings, fmt.Sprintf("suggestion %d was not saved", i))
			w.logger.Error("Failed to persist suggestion", zap.String("run_id", runID), zap.Int("index", i), zap.Error(err))
		}
	}
	return report
}

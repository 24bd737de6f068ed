// Package storage defines the persistence interfaces for captures, grounding context and learning.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/triage/internal/models"
)

// ErrNotFound is returned when a run, suggestion or item does not exist.
var ErrNotFound = errors.New("not found")

// ContextStore serves the per-user grounding context read before each run.
type ContextStore interface {
	GetActiveProjects(ctx context.Context, userID string) ([]string, error)
	GetTags(ctx context.Context, userID string) ([]string, error)
	GetTeamMembers(ctx context.Context, userID string) ([]string, error)
	// GetProfile returns an empty profile for unknown users.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	// GetRecentCorrections returns the newest corrections first.
	GetRecentCorrections(ctx context.Context, userID string, limit int) ([]models.CorrectionRecord, error)
	// GetLearnedEntities returns the most frequent entities first.
	GetLearnedEntities(ctx context.Context, userID string, limit int) ([]models.LearnedEntity, error)
}

// Sink receives the output of a run. Tasks and events go through CreateTask.
type Sink interface {
	CreateTask(ctx context.Context, runID, userID string, item *models.Item) error
	CreateNote(ctx context.Context, runID, userID string, item *models.Item) error
	CreateSuggestion(ctx context.Context, s *models.ProactiveSuggestion) error
	RecordRunOutcome(ctx context.Context, m *models.RunMetrics) error
}

// FeedbackStore persists corrections and learned entities.
type FeedbackStore interface {
	GetRunOutcome(ctx context.Context, runID string) (*models.RunMetrics, error)
	SaveCorrection(ctx context.Context, rec *models.CorrectionRecord) error
	// UpsertLearnedEntity adds e.Frequency to an existing entity of the same user, type and
	// name (case-insensitive) and merges aliases, or inserts e.
	UpsertLearnedEntity(ctx context.Context, e *models.LearnedEntity) (*models.LearnedEntity, error)
}

// SuggestionStore manages the suggestion lifecycle.
type SuggestionStore interface {
	GetSuggestion(ctx context.Context, id string) (*models.ProactiveSuggestion, error)
	ListSuggestions(ctx context.Context, userID string, status models.SuggestionStatus) ([]models.ProactiveSuggestion, error)
	UpdateSuggestionStatus(ctx context.Context, id string, status models.SuggestionStatus) (*models.ProactiveSuggestion, error)
	// PurgeSuggestions deletes dismissed suggestions last updated before the cutoff.
	PurgeSuggestions(ctx context.Context, before time.Time) (int64, error)
}

// ItemStore reads persisted items back.
type ItemStore interface {
	GetItems(ctx context.Context, ids []string) ([]models.Item, error)
	ListItemsByDate(ctx context.Context, userID, date string) ([]models.Item, error)
}

// Storage is the full persistence surface.
type Storage interface {
	ContextStore
	Sink
	FeedbackStore
	SuggestionStore
	ItemStore

	// Seeding
	AddProject(ctx context.Context, userID, name string) error
	AddTag(ctx context.Context, userID, name string) error
	AddMember(ctx context.Context, userID, name string) error
	SaveProfile(ctx context.Context, p *models.Profile) error

	Close() error
}

// Package contextload gathers the per-user grounding context read before each run.
package contextload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/router"
	"github.com/hyperjump/triage/internal/storage"
	"github.com/hyperjump/triage/pkg/utils"
)

// Default read limits.
const (
	DefaultCorrectionLimit = 20
	DefaultEntityLimit     = 50
)

// Snapshot is the grounding context of one run. Slices are never nil.
type Snapshot struct {
	UserID      string
	Projects    []string
	Tags        []string
	Members     []string
	Profile     *models.Profile
	Corrections []models.CorrectionRecord
	Entities    []models.LearnedEntity
}

// Counts returns the sizes the router uses as its rich-context signal.
func (s *Snapshot) Counts() router.Counts {
	return router.Counts{Projects: len(s.Projects), Tags: len(s.Tags), Members: len(s.Members)}
}

// Empty returns a snapshot with no grounding data.
func Empty(userID string) *Snapshot {
	return &Snapshot{
		UserID:      userID,
		Projects:    []string{},
		Tags:        []string{},
		Members:     []string{},
		Profile:     &models.Profile{UserID: userID, Vocabulary: map[string]string{}},
		Corrections: []models.CorrectionRecord{},
		Entities:    []models.LearnedEntity{},
	}
}

// Option configures a Loader.
type Option func(*Loader)

// WithLimits sets how many corrections and learned entities are read.
func WithLimits(corrections, entities int) Option {
	return func(l *Loader) {
		if corrections > 0 {
			l.correctionLimit = corrections
		}
		if entities > 0 {
			l.entityLimit = entities
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = utils.OrNop(logger) }
}

// Loader reads a Snapshot from a ContextStore.
type Loader struct {
	store           storage.ContextStore
	correctionLimit int
	entityLimit     int
	logger          *zap.Logger
}

// New creates a Loader.
func New(store storage.ContextStore, opts ...Option) *Loader {
	l := &Loader{
		store:           store,
		correctionLimit: DefaultCorrectionLimit,
		entityLimit:     DefaultEntityLimit,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load issues all reads concurrently and waits for them jointly. A failed read leaves its
// part of the snapshot empty; the returned snapshot is always usable and the error joins
// every read failure.
func (l *Loader) Load(ctx context.Context, userID string) (*Snapshot, error) {
	snap := Empty(userID)

	var mu sync.Mutex
	var errs []error
	fail := func(what string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("failed to load %s: %w", what, err))
		mu.Unlock()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	names := func(what string, read func(context.Context, string) ([]string, error), dst *[]string) {
		eg.Go(func() error {
			v, err := read(egCtx, userID)
			if err != nil {
				fail(what, err)
				return nil
			}
			if v != nil {
				*dst = v
			}
			return nil
		})
	}
	names("projects", l.store.GetActiveProjects, &snap.Projects)
	names("tags", l.store.GetTags, &snap.Tags)
	names("members", l.store.GetTeamMembers, &snap.Members)

	eg.Go(func() error {
		p, err := l.store.GetProfile(egCtx, userID)
		if err != nil {
			fail("profile", err)
			return nil
		}
		if p != nil {
			if p.Vocabulary == nil {
				p.Vocabulary = map[string]string{}
			}
			snap.Profile = p
		}
		return nil
	})
	eg.Go(func() error {
		recs, err := l.store.GetRecentCorrections(egCtx, userID, l.correctionLimit)
		if err != nil {
			fail("corrections", err)
			return nil
		}
		if recs != nil {
			snap.Corrections = recs
		}
		return nil
	})
	eg.Go(func() error {
		ents, err := l.store.GetLearnedEntities(egCtx, userID, l.entityLimit)
		if err != nil {
			fail("learned entities", err)
			return nil
		}
		if ents != nil {
			snap.Entities = ents
		}
		return nil
	})

	_ = eg.Wait()

	if err := errors.Join(errs...); err != nil {
		l.logger.Warn("Context loaded partially", zap.String("user_id", userID), zap.Error(err))
		return snap, err
	}
	l.logger.Debug("Context loaded",
		zap.String("user_id", userID),
		zap.Int("projects", len(snap.Projects)),
		zap.Int("tags", len(snap.Tags)),
		zap.Int("members", len(snap.Members)),
		zap.Int("corrections", len(snap.Corrections)),
		zap.Int("entities", len(snap.Entities)))
	return snap, nil
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/triage/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (user_id, name)
	);

	CREATE TABLE IF NOT EXISTS tags (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (user_id, name)
	);

	CREATE TABLE IF NOT EXISTS members (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (user_id, name)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		locale TEXT,
		timezone TEXT,
		vocabulary TEXT,
		vips TEXT
	);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		date TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_user_date ON items(user_id, date);
	CREATE INDEX IF NOT EXISTS idx_items_run ON items(run_id);

	CREATE TABLE IF NOT EXISTS suggestions (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		suggestion_type TEXT NOT NULL,
		trigger_item_index INTEGER NOT NULL,
		suggested_task TEXT NOT NULL,
		suggested_date TEXT,
		priority_score REAL NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_suggestions_user_status ON suggestions(user_id, status);

	CREATE TABLE IF NOT EXISTS run_outcomes (
		run_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		route TEXT,
		complexity_score REAL,
		oracle_calls INTEGER,
		stage1_ok INTEGER,
		stage2_ok INTEGER,
		fallback INTEGER,
		items INTEGER,
		suggestions INTEGER,
		persist_failures INTEGER,
		duration_ms INTEGER,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS corrections (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		run_id TEXT NOT NULL,
		field TEXT NOT NULL,
		original TEXT,
		corrected TEXT NOT NULL,
		comment TEXT,
		rule TEXT,
		scope TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_corrections_user_created ON corrections(user_id, created_at);

	CREATE TABLE IF NOT EXISTS learned_entities (
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		name_key TEXT NOT NULL,
		name TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		aliases TEXT,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, type, name_key)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// AddProject marks a project active for a user.
func (s *SQLiteStorage) AddProject(ctx context.Context, userID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (user_id, name, active) VALUES (?, ?, 1)
		 ON CONFLICT(user_id, name) DO UPDATE SET active = 1`, userID, name)
	return err
}

// AddTag registers a tag for a user.
func (s *SQLiteStorage) AddTag(ctx context.Context, userID, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO tags (user_id, name) VALUES (?, ?)`, userID, name)
	return err
}

// AddMember registers a team member for a user.
func (s *SQLiteStorage) AddMember(ctx context.Context, userID, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO members (user_id, name) VALUES (?, ?)`, userID, name)
	return err
}

// SaveProfile inserts or replaces a user profile.
func (s *SQLiteStorage) SaveProfile(ctx context.Context, p *models.Profile) error {
	vocab, err := json.Marshal(p.Vocabulary)
	if err != nil {
		return fmt.Errorf("failed to marshal vocabulary: %w", err)
	}
	vips, err := json.Marshal(p.VIPs)
	if err != nil {
		return fmt.Errorf("failed to marshal vips: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO profiles (user_id, locale, timezone, vocabulary, vips)
		 VALUES (?, ?, ?, ?, ?)`,
		p.UserID, p.Locale, p.Timezone, string(vocab), string(vips),
	)
	return err
}

// GetActiveProjects returns the names of the user's active projects.
func (s *SQLiteStorage) GetActiveProjects(ctx context.Context, userID string) ([]string, error) {
	return s.names(ctx, `SELECT name FROM projects WHERE user_id = ? AND active = 1 ORDER BY name`, userID)
}

// GetTags returns the user's tags.
func (s *SQLiteStorage) GetTags(ctx context.Context, userID string) ([]string, error) {
	return s.names(ctx, `SELECT name FROM tags WHERE user_id = ? ORDER BY name`, userID)
}

// GetTeamMembers returns the user's team members.
func (s *SQLiteStorage) GetTeamMembers(ctx context.Context, userID string) ([]string, error) {
	return s.names(ctx, `SELECT name FROM members WHERE user_id = ? ORDER BY name`, userID)
}

func (s *SQLiteStorage) names(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetProfile returns the user's profile, or an empty one.
func (s *SQLiteStorage) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{UserID: userID, Vocabulary: map[string]string{}}
	var locale, tz, vocab, vips sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT locale, timezone, vocabulary, vips FROM profiles WHERE user_id = ?`, userID,
	).Scan(&locale, &tz, &vocab, &vips)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	p.Locale = locale.String
	p.Timezone = tz.String
	if vocab.String != "" && vocab.String != "null" {
		if err := json.Unmarshal([]byte(vocab.String), &p.Vocabulary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vocabulary: %w", err)
		}
	}
	if vips.String != "" && vips.String != "null" {
		if err := json.Unmarshal([]byte(vips.String), &p.VIPs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vips: %w", err)
		}
	}
	return p, nil
}

// CreateTask persists a task or event.
func (s *SQLiteStorage) CreateTask(ctx context.Context, runID, userID string, item *models.Item) error {
	if item.Kind == models.KindNote {
		return fmt.Errorf("create task: item is a note")
	}
	return s.insertItem(ctx, runID, userID, item)
}

// CreateNote persists a note.
func (s *SQLiteStorage) CreateNote(ctx context.Context, runID, userID string, item *models.Item) error {
	if item.Kind != models.KindNote {
		return fmt.Errorf("create note: item is a %s", item.Kind)
	}
	return s.insertItem(ctx, runID, userID, item)
}

func (s *SQLiteStorage) insertItem(ctx context.Context, runID, userID string, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (id, run_id, user_id, kind, date, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, runID, userID, string(item.Kind), item.Date, string(payload), s.now(),
	)
	return err
}

// GetItems returns the items with the given ids, in the order given. Unknown ids are skipped.
func (s *SQLiteStorage) GetItems(ctx context.Context, ids []string) ([]models.Item, error) {
	if len(ids) == 0 {
		return []models.Item{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM items WHERE id IN (?`+strings.Repeat(",?", len(ids)-1)+`)`, args...)
	if err != nil {
		return nil, err
	}
	byID, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(byID))
	for _, id := range ids {
		for i := range byID {
			if byID[i].ID == id {
				items = append(items, byID[i])
				break
			}
		}
	}
	return items, nil
}

// ListItemsByDate returns the user's items dated date, oldest first.
func (s *SQLiteStorage) ListItemsByDate(ctx context.Context, userID, date string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM items WHERE user_id = ? AND date = ? ORDER BY created_at, rowid`, userID, date)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]models.Item, error) {
	defer rows.Close()
	items := []models.Item{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var it models.Item
		if err := json.Unmarshal([]byte(payload), &it); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateSuggestion persists a suggestion.
func (s *SQLiteStorage) CreateSuggestion(ctx context.Context, sg *models.ProactiveSuggestion) error {
	if sg.ID == "" {
		sg.ID = uuid.New().String()
	}
	if sg.Status == "" {
		sg.Status = models.StatusPending
	}
	now := s.now()
	sg.CreatedAt = now
	sg.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suggestions (id, run_id, user_id, suggestion_type, trigger_item_index, suggested_task,
		 suggested_date, priority_score, reason, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sg.ID, sg.RunID, sg.UserID, string(sg.Type), sg.TriggerItemIndex, sg.SuggestedTask,
		sg.SuggestedDate, sg.PriorityScore, sg.Reason, string(sg.Status), sg.CreatedAt, sg.UpdatedAt,
	)
	return err
}

const suggestionColumns = `id, run_id, user_id, suggestion_type, trigger_item_index, suggested_task,
	suggested_date, priority_score, reason, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuggestion(row rowScanner) (*models.ProactiveSuggestion, error) {
	var sg models.ProactiveSuggestion
	var typ, status string
	var date, reason sql.NullString
	if err := row.Scan(&sg.ID, &sg.RunID, &sg.UserID, &typ, &sg.TriggerItemIndex, &sg.SuggestedTask,
		&date, &sg.PriorityScore, &reason, &status, &sg.CreatedAt, &sg.UpdatedAt); err != nil {
		return nil, err
	}
	sg.Type = models.SuggestionType(typ)
	sg.Status = models.SuggestionStatus(status)
	sg.SuggestedDate = date.String
	sg.Reason = reason.String
	return &sg, nil
}

// GetSuggestion returns a suggestion by ID.
func (s *SQLiteStorage) GetSuggestion(ctx context.Context, id string) (*models.ProactiveSuggestion, error) {
	sg, err := scanSuggestion(s.db.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("suggestion %s: %w", id, ErrNotFound)
	}
	return sg, err
}

// ListSuggestions returns the user's suggestions, best first. An empty status lists all.
func (s *SQLiteStorage) ListSuggestions(ctx context.Context, userID string, status models.SuggestionStatus) ([]models.ProactiveSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY priority_score DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.ProactiveSuggestion{}
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *sg)
	}
	return list, rows.Err()
}

// UpdateSuggestionStatus moves a suggestion to status if the transition is allowed.
func (s *SQLiteStorage) UpdateSuggestionStatus(ctx context.Context, id string, status models.SuggestionStatus) (*models.ProactiveSuggestion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sg, err := scanSuggestion(tx.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("suggestion %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := models.CheckTransition(sg.Status, status); err != nil {
		return nil, err
	}

	sg.Status = status
	sg.UpdatedAt = s.now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE suggestions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), sg.UpdatedAt, id); err != nil {
		return nil, err
	}
	return sg, tx.Commit()
}

// PurgeSuggestions deletes dismissed suggestions last updated before the cutoff.
func (s *SQLiteStorage) PurgeSuggestions(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM suggestions WHERE status = ? AND updated_at < ?`,
		string(models.StatusDismissed), before.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RecordRunOutcome stores the metrics of one run.
func (s *SQLiteStorage) RecordRunOutcome(ctx context.Context, m *models.RunMetrics) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_outcomes (run_id, user_id, route, complexity_score, oracle_calls,
		 stage1_ok, stage2_ok, fallback, items, suggestions, persist_failures, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RunID, m.UserID, m.Route, m.ComplexityScore, m.OracleCalls,
		m.Stage1OK, m.Stage2OK, m.Fallback, m.Items, m.Suggestions, m.PersistFailures, m.DurationMS, m.CreatedAt.UTC(),
	)
	return err
}

// GetRunOutcome returns the metrics recorded for a run.
func (s *SQLiteStorage) GetRunOutcome(ctx context.Context, runID string) (*models.RunMetrics, error) {
	var m models.RunMetrics
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, user_id, route, complexity_score, oracle_calls, stage1_ok, stage2_ok, fallback,
		 items, suggestions, persist_failures, duration_ms, created_at
		 FROM run_outcomes WHERE run_id = ?`, runID,
	).Scan(&m.RunID, &m.UserID, &m.Route, &m.ComplexityScore, &m.OracleCalls, &m.Stage1OK, &m.Stage2OK,
		&m.Fallback, &m.Items, &m.Suggestions, &m.PersistFailures, &m.DurationMS, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveCorrection appends a correction record.
func (s *SQLiteStorage) SaveCorrection(ctx context.Context, rec *models.CorrectionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	var rule []byte
	if rec.Rule != nil {
		var err error
		if rule, err = json.Marshal(rec.Rule); err != nil {
			return fmt.Errorf("failed to marshal rule: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO corrections (id, user_id, run_id, field, original, corrected, comment, rule, scope, state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.RunID, rec.Field, rec.Original, rec.Corrected, rec.Comment,
		string(rule), string(rec.Scope), string(rec.State), rec.CreatedAt.UTC(),
	)
	return err
}

// GetRecentCorrections returns the user's newest corrections first.
func (s *SQLiteStorage) GetRecentCorrections(ctx context.Context, userID string, limit int) ([]models.CorrectionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, run_id, field, original, corrected, comment, rule, scope, state, created_at
		 FROM corrections WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.CorrectionRecord{}
	for rows.Next() {
		var rec models.CorrectionRecord
		var original, comment, rule sql.NullString
		var scope, state string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.RunID, &rec.Field, &original, &rec.Corrected,
			&comment, &rule, &scope, &state, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Original = original.String
		rec.Comment = comment.String
		rec.Scope = models.RuleScope(scope)
		rec.State = models.CorrectionState(state)
		if rule.String != "" {
			rec.Rule = &models.CorrectionRule{}
			if err := json.Unmarshal([]byte(rule.String), rec.Rule); err != nil {
				return nil, fmt.Errorf("failed to unmarshal rule: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertLearnedEntity adds e.Frequency to the stored entity and merges aliases, or inserts e.
func (s *SQLiteStorage) UpsertLearnedEntity(ctx context.Context, e *models.LearnedEntity) (*models.LearnedEntity, error) {
	key := strings.ToLower(strings.TrimSpace(e.Name))
	if key == "" {
		return nil, fmt.Errorf("learned entity: empty name")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	merged := models.LearnedEntity{
		UserID:    e.UserID,
		Name:      strings.TrimSpace(e.Name),
		Type:      e.Type,
		Frequency: e.Frequency,
		Aliases:   []string{},
		UpdatedAt: s.now(),
	}
	var name string
	var freq int
	var aliases sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT name, frequency, aliases FROM learned_entities WHERE user_id = ? AND type = ? AND name_key = ?`,
		e.UserID, string(e.Type), key,
	).Scan(&name, &freq, &aliases)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		merged.Name = name
		merged.Frequency += freq
		if aliases.String != "" {
			if err := json.Unmarshal([]byte(aliases.String), &merged.Aliases); err != nil {
				return nil, fmt.Errorf("failed to unmarshal aliases: %w", err)
			}
		}
	}
	merged.Aliases = mergeAliases(merged.Name, merged.Aliases, e.Aliases)

	raw, err := json.Marshal(merged.Aliases)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal aliases: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO learned_entities (user_id, type, name_key, name, frequency, aliases, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		merged.UserID, string(merged.Type), key, merged.Name, merged.Frequency, string(raw), merged.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &merged, tx.Commit()
}

func mergeAliases(name string, existing, added []string) []string {
	seen := map[string]bool{strings.ToLower(name): true}
	out := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, a := range list {
			a = strings.TrimSpace(a)
			k := strings.ToLower(a)
			if a == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, a)
		}
	}
	return out
}

// GetLearnedEntities returns the user's most frequent entities first.
func (s *SQLiteStorage) GetLearnedEntities(ctx context.Context, userID string, limit int) ([]models.LearnedEntity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, name, type, frequency, aliases, updated_at FROM learned_entities
		 WHERE user_id = ? ORDER BY frequency DESC, updated_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []models.LearnedEntity{}
	for rows.Next() {
		var e models.LearnedEntity
		var typ string
		var aliases sql.NullString
		if err := rows.Scan(&e.UserID, &e.Name, &typ, &e.Frequency, &aliases, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Type = models.EntityType(typ)
		e.Aliases = []string{}
		if aliases.String != "" {
			if err := json.Unmarshal([]byte(aliases.String), &e.Aliases); err != nil {
				return nil, fmt.Errorf("failed to unmarshal aliases: %w", err)
			}
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

var _ Storage = (*SQLiteStorage)(nil)

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/triage/internal/index"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/storage"
	"github.com/hyperjump/triage/internal/temporal"
	"github.com/hyperjump/triage/internal/validate"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// Stream frame types.
const (
	frameStage1 = "stage1"
	frameFinal  = "final"
	frameError  = "error"
)

type streamFrame struct {
	Type   string                `json:"type"`
	Result *models.CaptureResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req models.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("capture request", zap.String("user_id", req.UserID), zap.Int("text_len", len(req.Text)))

	if stream, _ := strconv.ParseBool(r.URL.Query().Get("stream")); stream {
		s.streamCapture(w, r, &req)
		return
	}

	res, err := s.pipeline.RunStream(r.Context(), &req, nil)
	if err != nil {
		s.respondErr(w, "capture", err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

// streamCapture writes NDJSON: a stage1 frame as soon as Stage-1 validates, then the final
// frame. Errors before the first frame get a regular status code.
func (s *Server) streamCapture(w http.ResponseWriter, r *http.Request, req *models.CaptureRequest) {
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	started := false
	write := func(f streamFrame) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(f); err != nil {
			s.logger.Debug("stream write failed", zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	res, err := s.pipeline.RunStream(r.Context(), req, func(stage1 *models.CaptureResult) {
		write(streamFrame{Type: frameStage1, Result: stage1})
	})
	if err != nil {
		if !started {
			s.respondErr(w, "capture", err)
			return
		}
		write(streamFrame{Type: frameError, Error: err.Error()})
		return
	}
	write(streamFrame{Type: frameFinal, Result: res})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	var sub models.FeedbackSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("feedback request", zap.String("run_id", runID), zap.Int("corrections", len(sub.Corrections)))
	res, err := s.learner.Submit(r.Context(), runID, &sub)
	if err != nil && res == nil {
		s.respondErr(w, "feedback", err)
		return
	}
	if err != nil {
		s.logger.Warn("feedback partially stored", zap.String("run_id", runID), zap.Error(err))
	}
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	status := models.SuggestionStatus(r.URL.Query().Get("status"))
	if status != "" && !knownStatus(status) {
		s.respondError(w, http.StatusBadRequest, "unknown status")
		return
	}
	list, err := s.storage.ListSuggestions(r.Context(), userID, status)
	if err != nil {
		s.respondErr(w, "list suggestions", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": list})
}

type statusUpdate struct {
	Status models.SuggestionStatus `json:"status"`
}

func (s *Server) handleUpdateSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body statusUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !knownStatus(body.Status) {
		s.respondError(w, http.StatusBadRequest, "unknown status")
		return
	}
	s.logger.Debug("update suggestion request", zap.String("id", id), zap.String("status", string(body.Status)))
	sg, err := s.storage.UpdateSuggestionStatus(r.Context(), id, body.Status)
	if err != nil {
		s.respondErr(w, "update suggestion", err)
		return
	}
	s.respondJSON(w, http.StatusOK, sg)
}

func knownStatus(st models.SuggestionStatus) bool {
	switch st {
	case models.StatusPending, models.StatusAccepted, models.StatusDismissed, models.StatusSnoozed:
		return true
	}
	return false
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	date := r.URL.Query().Get("date")
	if date == "" {
		tc, err := temporal.Resolve(time.Now(), s.config.Pipeline.DefaultTimezone, s.config.Pipeline.DefaultLocale)
		if err != nil {
			s.respondErr(w, "list items", err)
			return
		}
		date = tc.Today.Date
	} else if !temporal.ValidDate(date) {
		s.respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	items, err := s.storage.ListItemsByDate(r.Context(), userID, date)
	if err != nil {
		s.respondErr(w, "list items", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"date": date, "items": items})
}

type searchHit struct {
	Item  models.Item `json:"item"`
	Score float64     `json:"score"`
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.respondError(w, http.StatusNotImplemented, "search not enabled")
		return
	}
	userID := chi.URLParam(r, "user")
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := defaultSearchLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxSearchLimit)
	}
	var opts *index.SearchOptions
	if fuzzy, _ := strconv.ParseBool(q.Get("fuzzy")); fuzzy {
		opts = &index.SearchOptions{FuzzyEnabled: true}
	}

	s.logger.Debug("search request", zap.String("user_id", userID), zap.String("query", query), zap.Int("limit", limit))
	hits, err := s.index.Search(r.Context(), userID, query, limit, opts)
	if err != nil {
		s.respondErr(w, "search", err)
		return
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	items, err := s.storage.GetItems(r.Context(), ids)
	if err != nil {
		s.respondErr(w, "search", err)
		return
	}
	byID := make(map[string]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	results := make([]searchHit, 0, len(hits))
	for _, h := range hits {
		if it, ok := byID[h.ID]; ok {
			results = append(results, searchHit{Item: it, Score: h.Score})
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": query, "hits": results})
}

func (s *Server) handleTemporal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tz := q.Get("tz")
	if tz == "" {
		tz = s.config.Pipeline.DefaultTimezone
	}
	locale := q.Get("locale")
	if locale == "" {
		locale = s.config.Pipeline.DefaultLocale
	}
	tc, err := temporal.Resolve(time.Now(), tz, locale)
	if err != nil {
		s.respondErr(w, "temporal", err)
		return
	}
	s.respondJSON(w, http.StatusOK, tc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"oracle_provider": s.config.Oracle.Provider,
		"stage1_model":    s.config.Oracle.Stage1.Model,
		"stage2_model":    s.config.Oracle.Stage2.Model,
		"force_route":     s.config.Router.ForceRoute,
		"timezone":        s.config.Pipeline.DefaultTimezone,
		"locale":          s.config.Pipeline.DefaultLocale,
	}
	if s.index != nil {
		if n, err := s.index.DocCount(); err == nil {
			resp["indexed_items"] = n
		}
	}
	if fp, err := storage.MeasureFootprint(s.config.Storage.DatabasePath, s.config.Storage.IndexPath); err == nil {
		resp["disk_usage_bytes"] = fp.Total()
		resp["database_bytes"] = fp.DatabaseBytes
		resp["index_bytes"] = fp.IndexBytes
	} else {
		s.logger.Debug("status: footprint unavailable", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var cfgErr *models.ConfigurationError
	var valErr *validate.ValidationError
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) respondErr(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

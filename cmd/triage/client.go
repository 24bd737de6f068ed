package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/triage/internal/cli"
	"github.com/hyperjump/triage/internal/models"
)

// apiClient talks to a running triage server. Commands use it by default so the CLI does
// not contend with the server for the Bleve index lock.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string, timeout time.Duration) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/") + "/api/v1",
		http: &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) Capture(ctx context.Context, req *models.CaptureRequest) (*models.CaptureResult, error) {
	var res models.CaptureResult
	if err := c.do(ctx, http.MethodPost, "/captures", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *apiClient) Feedback(ctx context.Context, runID string, sub *models.FeedbackSubmission) (*models.FeedbackResult, error) {
	var res models.FeedbackResult
	if err := c.do(ctx, http.MethodPost, "/runs/"+url.PathEscape(runID)+"/feedback", sub, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *apiClient) ListSuggestions(ctx context.Context, userID string, status models.SuggestionStatus) ([]models.ProactiveSuggestion, error) {
	path := "/users/" + url.PathEscape(userID) + "/suggestions"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var res struct {
		Suggestions []models.ProactiveSuggestion `json:"suggestions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Suggestions, nil
}

func (c *apiClient) UpdateSuggestion(ctx context.Context, id string, status models.SuggestionStatus) (*models.ProactiveSuggestion, error) {
	var sg models.ProactiveSuggestion
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPatch, "/suggestions/"+url.PathEscape(id), body, &sg); err != nil {
		return nil, err
	}
	return &sg, nil
}

func (c *apiClient) ListItems(ctx context.Context, userID, date string) ([]models.Item, error) {
	path := "/users/" + url.PathEscape(userID) + "/items"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var res struct {
		Items []models.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *apiClient) Search(ctx context.Context, userID, query string, limit int, fuzzy bool) ([]cli.SearchHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	if fuzzy {
		q.Set("fuzzy", "true")
	}
	var res struct {
		Hits []cli.SearchHit `json:"hits"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/items/search?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return res.Hits, nil
}

func (c *apiClient) Status(ctx context.Context) (map[string]interface{}, error) {
	var res map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/status", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/triage/internal/cli"
	"github.com/hyperjump/triage/internal/index"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/storage"
	"github.com/hyperjump/triage/internal/temporal"
)

func searchCmd(a *app) *cobra.Command {
	var (
		userID string
		limit  int
		fuzzy  bool
	)
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Full-text search over captured items",
		Long: `Full-text search over captured items.

The query is all remaining arguments joined by spaces. Accents are ignored, so
"reunion" finds "réunion". When nothing matches, the search is retried with
typo tolerance.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query is required")
			}
			search := func(ctx context.Context, fuzzy bool) ([]cli.SearchHit, error) {
				return newAPIClient(a.serverURL, a.cfg.Server.RequestTimeout).Search(ctx, userID, query, limit, fuzzy)
			}
			if !a.remote() {
				c, err := initializeComponents(cmd.Context(), a.cfg, a.logger)
				if err != nil {
					return err
				}
				defer c.Close()
				search = func(ctx context.Context, fuzzy bool) ([]cli.SearchHit, error) {
					return searchLocal(ctx, c.Index, c.Storage, userID, query, limit, fuzzy)
				}
			}

			hits, err := search(cmd.Context(), fuzzy)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			// Auto-retry with fuzzy if no results and fuzzy not already enabled
			if !fuzzy && len(hits) == 0 {
				if fuzzyHits, fuzzyErr := search(cmd.Context(), true); fuzzyErr == nil && len(fuzzyHits) > 0 {
					hits = fuzzyHits
					if a.format() == cli.OutputText {
						fmt.Fprintln(cmd.OutOrStdout(), "No exact matches; showing typo-tolerant results.")
					}
				}
			}
			return cli.WriteSearchHits(cmd.OutOrStdout(), query, hits, a.format())
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of results")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "enable fuzzy matching for typo tolerance")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// searchLocal queries the index and loads the matching items, keeping hit order.
func searchLocal(ctx context.Context, idx index.ItemIndex, items storage.ItemStore, userID, query string, limit int, fuzzy bool) ([]cli.SearchHit, error) {
	var opts *index.SearchOptions
	if fuzzy {
		opts = &index.SearchOptions{FuzzyEnabled: true}
	}
	hits, err := idx.Search(ctx, userID, query, limit, opts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	found, err := items.GetItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Item, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	out := make([]cli.SearchHit, 0, len(hits))
	for _, h := range hits {
		if it, ok := byID[h.ID]; ok {
			out = append(out, cli.SearchHit{Item: it, Score: h.Score})
		}
	}
	return out, nil
}

func todayCmd(a *app) *cobra.Command {
	var userID, date string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "List the items dated today, or on --date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date == "" {
				tc, err := temporal.Resolve(time.Now(), a.cfg.Pipeline.DefaultTimezone, a.cfg.Pipeline.DefaultLocale)
				if err != nil {
					return err
				}
				date = tc.Today.Date
			} else if !temporal.ValidDate(date) {
				return fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
			}

			var items []models.Item
			var err error
			if a.remote() {
				items, err = newAPIClient(a.serverURL, a.cfg.Server.RequestTimeout).ListItems(cmd.Context(), userID, date)
			} else {
				items, err = withStorage(a, func(s *storage.SQLiteStorage) ([]models.Item, error) {
					return s.ListItemsByDate(cmd.Context(), userID, date)
				})
			}
			if err != nil {
				return fmt.Errorf("list items failed: %w", err)
			}
			return cli.WriteItems(cmd.OutOrStdout(), date, items, a.format())
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today in the configured timezone)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show oracle configuration and storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var status map[string]interface{}
			if a.remote() {
				res, err := newAPIClient(a.serverURL, a.cfg.Server.RequestTimeout).Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("status failed: %w", err)
				}
				status = res
			} else {
				status = a.localStatus()
			}
			if a.format() == cli.OutputJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), status)
			}
			keys := make([]string, 0, len(status))
			for k := range status {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %v\n", k+":", status[k])
			}
			return nil
		},
	}
}

// localStatus mirrors GET /api/v1/status without opening the item index.
func (a *app) localStatus() map[string]interface{} {
	cfg := a.cfg
	status := map[string]interface{}{
		"oracle_provider": cfg.Oracle.Provider,
		"stage1_model":    cfg.Oracle.Stage1.Model,
		"stage2_model":    cfg.Oracle.Stage2.Model,
		"force_route":     cfg.Router.ForceRoute,
		"timezone":        cfg.Pipeline.DefaultTimezone,
		"locale":          cfg.Pipeline.DefaultLocale,
	}
	if fp, err := storage.MeasureFootprint(cfg.Storage.DatabasePath, cfg.Storage.IndexPath); err == nil {
		status["disk_usage_bytes"] = fp.Total()
		status["database_bytes"] = fp.DatabaseBytes
		status["index_bytes"] = fp.IndexBytes
	}
	return status
}

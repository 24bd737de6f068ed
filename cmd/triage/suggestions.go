package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/triage/internal/cli"
	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/storage"
)

// openStorage opens only the database. Commands that never touch the item index use it
// so they can run next to a live server.
func (a *app) openStorage() (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(a.cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func suggestionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "List and update proactive suggestions",
	}
	cmd.AddCommand(suggestionsListCmd(a), suggestionsSetCmd(a), suggestionsPurgeCmd(a))
	return cmd
}

func suggestionsListCmd(a *app) *cobra.Command {
	var userID, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List suggestions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := models.SuggestionStatus(status)
			var list []models.ProactiveSuggestion
			var err error
			if a.remote() {
				list, err = newAPIClient(a.serverURL, a.cfg.Server.RequestTimeout).ListSuggestions(cmd.Context(), userID, st)
			} else {
				list, err = withStorage(a, func(s *storage.SQLiteStorage) ([]models.ProactiveSuggestion, error) {
					return s.ListSuggestions(cmd.Context(), userID, st)
				})
			}
			if err != nil {
				return fmt.Errorf("list suggestions failed: %w", err)
			}
			return cli.WriteSuggestions(cmd.OutOrStdout(), list, a.format())
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID (required)")
	cmd.Flags().StringVar(&status, "status", string(models.StatusPending), "pending, accepted, dismissed, snoozed, or empty for all")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func suggestionsSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set ID STATUS",
		Short: "Accept, dismiss, snooze or reopen a suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, st := args[0], models.SuggestionStatus(args[1])
			var sg *models.ProactiveSuggestion
			var err error
			if a.remote() {
				sg, err = newAPIClient(a.serverURL, a.cfg.Server.RequestTimeout).UpdateSuggestion(cmd.Context(), id, st)
			} else {
				sg, err = withStorage(a, func(s *storage.SQLiteStorage) (*models.ProactiveSuggestion, error) {
					return s.UpdateSuggestionStatus(cmd.Context(), id, st)
				})
			}
			if err != nil {
				return fmt.Errorf("update suggestion failed: %w", err)
			}
			return cli.WriteSuggestions(cmd.OutOrStdout(), []models.ProactiveSuggestion{*sg}, a.format())
		},
	}
}

func suggestionsPurgeCmd(a *app) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete dismissed suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cutoff := time.Now().Add(-olderThan)
			n, err := withStorage(a, func(s *storage.SQLiteStorage) (int64, error) {
				return s.PurgeSuggestions(cmd.Context(), cutoff)
			})
			if err != nil {
				return fmt.Errorf("purge failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d dismissed suggestions\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "only purge suggestions dismissed before this age")
	return cmd
}

// withStorage opens the database, runs fn and closes it.
func withStorage[T any](a *app, fn func(*storage.SQLiteStorage) (T, error)) (T, error) {
	var zero T
	store, err := a.openStorage()
	if err != nil {
		return zero, err
	}
	defer store.Close()
	return fn(store)
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/triage/internal/models"
	"github.com/hyperjump/triage/internal/storage"
	"github.com/hyperjump/triage/internal/temporal"
	"github.com/hyperjump/triage/pkg/utils"
)

// seedInput is the grounding context registered by the seed command.
type seedInput struct {
	userID   string
	projects []string
	tags     []string
	members  []string
	vips     []string
	vocab    []string
	timezone string
	locale   string
}

func seedCmd(a *app) *cobra.Command {
	var in seedInput
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Register projects, tags, team members and profile settings for a user",
		Long: `Register the grounding context a user's captures are matched against.

Repeat a flag to add several values. Existing values are kept.

Example:
  triage seed -u u1 --project Apollo --tag tech --member "Jean-Pierre" \
    --vip Marie --vocab "JP=Jean-Pierre" --timezone Europe/Paris --locale fr`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := seed(cmd.Context(), store, &in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded user %s: %d projects, %d tags, %d members\n",
				in.userID, len(in.projects), len(in.tags), len(in.members))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in.userID, "user", "u", "", "user ID (required)")
	f.StringArrayVar(&in.projects, "project", nil, "active project (repeatable)")
	f.StringArrayVar(&in.tags, "tag", nil, "tag (repeatable)")
	f.StringArrayVar(&in.members, "member", nil, "team member (repeatable)")
	f.StringArrayVar(&in.vips, "vip", nil, "person whose items rank higher (repeatable)")
	f.StringArrayVar(&in.vocab, "vocab", nil, "vocabulary entry as alias=meaning (repeatable)")
	f.StringVar(&in.timezone, "timezone", "", "IANA timezone for this user")
	f.StringVar(&in.locale, "locale", "", "locale for this user")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func seed(ctx context.Context, store storage.Storage, in *seedInput) error {
	for _, p := range in.projects {
		if err := store.AddProject(ctx, in.userID, strings.TrimSpace(p)); err != nil {
			return fmt.Errorf("add project %q: %w", p, err)
		}
	}
	for _, t := range in.tags {
		if err := store.AddTag(ctx, in.userID, strings.TrimSpace(t)); err != nil {
			return fmt.Errorf("add tag %q: %w", t, err)
		}
	}
	for _, m := range in.members {
		if err := store.AddMember(ctx, in.userID, strings.TrimSpace(m)); err != nil {
			return fmt.Errorf("add member %q: %w", m, err)
		}
	}
	if len(in.vips) == 0 && len(in.vocab) == 0 && in.timezone == "" && in.locale == "" {
		return nil
	}

	profile, err := store.GetProfile(ctx, in.userID)
	if err != nil {
		return err
	}
	if in.timezone != "" {
		if _, err := temporal.Resolve(time.Now(), in.timezone, ""); err != nil {
			return err
		}
		profile.Timezone = in.timezone
	}
	if in.locale != "" {
		profile.Locale = temporal.NormalizeLocale(in.locale)
	}
	profile.VIPs = utils.Dedupe(append(profile.VIPs, in.vips...))
	if profile.Vocabulary == nil {
		profile.Vocabulary = map[string]string{}
	}
	for _, entry := range in.vocab {
		alias, meaning, ok := strings.Cut(entry, "=")
		alias, meaning = strings.TrimSpace(alias), strings.TrimSpace(meaning)
		if !ok || alias == "" || meaning == "" {
			return &models.ConfigurationError{Field: "vocab", Reason: fmt.Sprintf("want alias=meaning, got %q", entry)}
		}
		profile.Vocabulary[alias] = meaning
	}
	return store.SaveProfile(ctx, profile)
}

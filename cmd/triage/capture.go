package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/triage/internal/cli"
	"github.com/hyperjump/triage/internal/models"
)

func captureCmd(a *app) *cobra.Command {
	var (
		userID   string
		timezone string
		locale   string
		file     string
	)
	cmd := &cobra.Command{
		Use:   "capture [text...]",
		Short: "Extract tasks, events and notes from a dump",
		Long: `Extract tasks, events and notes from a free-form dump.

The text is all remaining arguments joined by spaces. With no arguments the text is
read from --file, or from standard input.

Examples:
  triage capture --user u1 "RDV dentiste demain 14h30"
  pbpaste | triage capture --user u1 --tz Europe/Paris`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := captureText(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			req := &models.CaptureRequest{UserID: userID, Text: text, Timezone: timezone, Locale: locale}
			if err := req.Validate(); err != nil {
				return err
			}

			var res *models.CaptureResult
			if a.remote() {
				res, err = newAPIClient(a.serverURL, a.cfg.Server.RequestTimeout).Capture(cmd.Context(), req)
			} else {
				var c *Components
				c, err = initializeComponents(cmd.Context(), a.cfg, a.logger)
				if err != nil {
					return err
				}
				defer c.Close()
				res, err = c.Pipeline.Run(cmd.Context(), req)
			}
			if err != nil {
				return fmt.Errorf("capture failed: %w", err)
			}
			return cli.WriteCaptureResult(cmd.OutOrStdout(), res, a.format())
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID (required)")
	cmd.Flags().StringVar(&timezone, "tz", "", "IANA timezone (default: profile, then config)")
	cmd.Flags().StringVar(&locale, "locale", "", "locale such as fr or en (default: profile, then config)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the text from this file")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// maxStdinBytes bounds a capture piped on stdin.
const maxStdinBytes = 1 << 20

// captureText picks the dump from args, then file, then stdin.
func captureText(stdin io.Reader, args []string, file string) (string, error) {
	if text := strings.TrimSpace(strings.Join(args, " ")); text != "" {
		return text, nil
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	b, err := io.ReadAll(io.LimitReader(stdin, maxStdinBytes))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func feedbackCmd(a *app) *cobra.Command {
	var (
		verdict string
		rating  int
		fixes   []string
		comment string
	)
	cmd := &cobra.Command{
		Use:   "feedback RUN_ID",
		Short: "Send corrections for a run so later runs learn from them",
		Long: `Send corrections for a run so later runs learn from them.

Each --fix is field:original->corrected. Prefix the field with an item index to
name the item, as in 2.owner:JP->Jean-Pierre.

Examples:
  triage feedback 5f0c... --verdict partial --fix "owner:JP->Jean-Pierre"
  triage feedback 5f0c... --verdict incorrect --fix "kind:task->event" --comment "c'est un RDV"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub := &models.FeedbackSubmission{
				Feedback: models.FeedbackVerdict(verdict),
				Rating:   rating,
			}
			for _, raw := range fixes {
				c, err := parseCorrection(raw)
				if err != nil {
					return err
				}
				c.Comment = comment
				sub.Corrections = append(sub.Corrections, c)
			}
			if err := sub.Validate(); err != nil {
				return err
			}

			var res *models.FeedbackResult
			var err error
			if a.remote() {
				res, err = newAPIClient(a.serverURL, a.cfg.Server.RequestTimeout).Feedback(cmd.Context(), args[0], sub)
			} else {
				var c *Components
				c, err = initializeComponents(cmd.Context(), a.cfg, a.logger)
				if err != nil {
					return err
				}
				defer c.Close()
				res, err = c.Learner.Submit(cmd.Context(), args[0], sub)
			}
			if res != nil {
				if werr := cli.WriteFeedbackResult(cmd.OutOrStdout(), res, a.format()); werr != nil {
					return werr
				}
			}
			if err != nil {
				return fmt.Errorf("feedback failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&verdict, "verdict", string(models.FeedbackPartial), "correct, incorrect or partial")
	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringArrayVar(&fixes, "fix", nil, "correction as field:original->corrected (repeatable)")
	cmd.Flags().StringVar(&comment, "comment", "", "comment attached to every correction")
	return cmd
}

// parseCorrection parses "[index.]field:original->corrected".
func parseCorrection(raw string) (models.FieldCorrection, error) {
	var c models.FieldCorrection
	field, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return c, fmt.Errorf("invalid correction %q: want field:original->corrected", raw)
	}
	original, corrected, ok := strings.Cut(rest, "->")
	if !ok {
		return c, fmt.Errorf("invalid correction %q: missing ->", raw)
	}
	field = strings.TrimSpace(field)
	if idx, name, found := strings.Cut(field, "."); found {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return c, fmt.Errorf("invalid correction %q: bad item index %q", raw, idx)
		}
		c.ItemIndex = n
		field = name
	}
	c.Field = field
	c.Original = strings.TrimSpace(original)
	c.Corrected = strings.TrimSpace(corrected)
	return c, nil
}

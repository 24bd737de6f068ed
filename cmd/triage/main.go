// Package main is the triage CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Embedded zone database so timezone resolution works on minimal hosts.
	_ "time/tzdata"

	"github.com/hyperjump/triage/internal/cli"
	"github.com/hyperjump/triage/internal/config"
	"github.com/hyperjump/triage/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/triage/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// app holds the state shared by all commands.
type app struct {
	configPath string
	debug      bool
	serverURL  string
	output     string

	cfg    *config.Config
	logger *zap.Logger
}

func (a *app) format() cli.OutputFormat {
	return cli.ParseFormat(a.output)
}

// remote reports whether commands go through the HTTP API.
func (a *app) remote() bool {
	return a.serverURL != ""
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, resolved, err := loadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	debug := cfg.Debug || a.debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "triage",
		Short:             "Turn free-form inbox dumps into dated tasks, events and notes",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", defaultConfigPath, "config file path")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.StringVar(&a.serverURL, "server", defaultServerURL, "server URL (empty = use direct storage when the server is not running)")
	flags.StringVarP(&a.output, "output", "o", "text", "output format: text or json")

	root.AddCommand(
		serveCmd(a),
		captureCmd(a),
		feedbackCmd(a),
		suggestionsCmd(a),
		searchCmd(a),
		todayCmd(a),
		seedCmd(a),
		statusCmd(a),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "triage version %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

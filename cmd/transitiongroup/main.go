package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vango-dev/transitiongroup/internal/config"
	"github.com/vango-dev/transitiongroup/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	configDir string
	verbose   bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "transitiongroup",
		Short: "Keyed child reconciler with exit transitions",
		Long: `transitiongroup keeps removed children of a keyed list in place
while their exit transition plays, and drops them once it ends.

Commands:
  replay   run reconcile passes from a TOML scenario
  serve    start the live dev server`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("transitiongroup %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&a.configDir, "config", "c", ".", "directory containing "+config.ConfigFileName)

	root.AddCommand(
		replayCmd(a),
		serveCmd(a),
		versionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(a.configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := charmlog.Level(cfg.LogLevel())
	if a.verbose {
		level = charmlog.DebugLevel
	}
	a.logger = slog.New(newLogger(cmd.ErrOrStderr(), level))
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/transitiongroup/internal/replay"
	"github.com/vango-dev/transitiongroup/pkg/reconcile"
)

func replayCmd(a *app) *cobra.Command {
	var keyAttribute string

	cmd := &cobra.Command{
		Use:   "replay <scenario.toml>",
		Short: "Run reconcile passes from a scenario file",
		Long: `Run reconcile passes from a TOML scenario and print each pass.

Retained children (kept in place while their exit plays) are shown in
brackets; unkeyed children as "_".

Examples:
  transitiongroup replay testdata/middle.toml
  transitiongroup replay -v scenario.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := replay.Load(args[0])
			if err != nil {
				return err
			}

			attr := a.cfg.Reconciler.KeyAttribute
			if cmd.Flags().Changed("key-attribute") {
				attr = keyAttribute
			}

			results, err := replay.Run(cmd.Context(), sc, a.logger, reconcile.WithKeyAttribute(attr))
			if err != nil {
				return err
			}
			return replay.Fprint(cmd.OutOrStdout(), sc, results)
		},
	}

	cmd.Flags().StringVar(&keyAttribute, "key-attribute", "", "attribute name carrying component keys (empty disables)")
	return cmd
}

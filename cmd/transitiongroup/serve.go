package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/transitiongroup/pkg/devserver"
)

func serveCmd(a *app) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the live dev server",
		Long: `Start the dev server. Items added and removed over HTTP are
reconciled live; removed items play their exit transition before they
leave. Render passes stream over /ws.

Examples:
  transitiongroup serve
  transitiongroup serve --port=8080
  transitiongroup serve --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				a.cfg.Dev.Port = port
			}
			if host != "" {
				a.cfg.Dev.Host = host
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := devserver.New(a.cfg, a.logger)
			defer srv.Close()

			a.logger.Info("serving", "addr", "http://"+a.cfg.DevAddress())
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from transitiongroup.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "host to bind to (default from transitiongroup.json)")
	return cmd
}

package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("Starting API server", "addr", s.cfg.Server.Addr, "database", s.store.Path())
			err = server.New(s.svc, server.WithAllowedOrigins(s.cfg.Server.AllowedOrigins...)).Run(ctx, server.Config{
				Addr:         s.cfg.Server.Addr,
				ReadTimeout:  s.cfg.Server.ReadTimeout,
				WriteTimeout: s.cfg.Server.WriteTimeout,
			})
			if err != nil {
				return err
			}
			slog.Info("API server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from config)")
	bindFlags(cmd.Flags(), map[string]string{"server.addr": "addr"})
	return cmd
}

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noirkit/noirkit/server"
)

func (a *app) serveCmd() *cobra.Command {
	var circuitName, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves proofs for a compiled circuit over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.env.GetCircuit(circuitName)
			if err != nil {
				return err
			}
			s, err := server.New(c, a.log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.Start(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&circuitName, "circuit", "", "circuit name (default: the main circuit)")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

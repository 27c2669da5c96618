package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve relationships and timelines over HTTP for the desktop UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				if addr == "" {
					addr = d.Config.Server.Addr
				}
				srv := server.New(server.Handlers{
					Relationships: d.RelationshipHandler,
					Timelines:     d.TimelineHandler,
					Story:         d.StoryHandler,
					Imports:       d.ImportHandler,
				}, d.Logger)
				return srv.Run(ctx, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}

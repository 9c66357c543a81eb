package main

import (
	"context"
	"fmt"

	"github.com/kairodev/kairo/internal/api"
	"github.com/kairodev/kairo/internal/config"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and SSE stream server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *components) error {
			server := api.NewServer(*c.cfg, c.agent, c.skills, c.timelines)
			server.Start()
			fmt.Printf("Listening on :%d\n", c.cfg.Server.Port)

			ctx, cancel := signalContext(context.Background())
			defer cancel()
			<-ctx.Done()

			shutdownTimeout, err := config.DurationOrDefault(c.cfg.Server.ShutdownTimeout, config.DefaultServerShutdownTimeout)
			if err != nil {
				shutdownTimeout = 0
			}
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			return server.Stop(shutdownCtx)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

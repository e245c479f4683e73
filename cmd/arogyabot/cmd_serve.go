package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"arogyabot/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot service (webhooks, admin API, telegram, digest)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := app.New(cfgPath)
		if err != nil {
			return err
		}
		return a.Run(ctx)
	},
}

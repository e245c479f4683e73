package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "arogyabot",
	Short: "Health advisory bot for regional outbreak alerts",
	Long: `arogyabot answers health commands (HELP, FIRSTAID, PREVENT, ALERT, STATS)
over SMS, WhatsApp and Telegram, and broadcasts localized outbreak alerts
to regional subscribers through a provider fallback chain.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	rootCmd.AddCommand(serveCmd, broadcastCmd, prefsCmd, outbreaksCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

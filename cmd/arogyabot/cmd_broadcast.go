package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arogyabot/internal/alert"
	"arogyabot/internal/app"
	"arogyabot/internal/config"
	"arogyabot/pkg/logx"
)

var (
	bcDisease  string
	bcLocation string
	bcSeverity string
	bcMessage  string
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Send a one-shot regional alert and print the delivery outcome",
	RunE: func(cmd *cobra.Command, _ []string) error {
		core, cleanup, err := loadCore()
		if err != nil {
			return err
		}
		defer cleanup()

		ev := alert.NewEvent(bcDisease, bcLocation, alert.ParseSeverity(bcSeverity), bcMessage)
		out, err := core.Broadcaster.Broadcast(cmd.Context(), ev)
		if err != nil {
			return err
		}
		if out.Errors == nil {
			out.Errors = []string{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	broadcastCmd.Flags().StringVar(&bcDisease, "disease", "", "disease name (required)")
	broadcastCmd.Flags().StringVar(&bcLocation, "location", "", "affected region (required)")
	broadcastCmd.Flags().StringVar(&bcSeverity, "severity", "medium", "low|medium|high|critical")
	broadcastCmd.Flags().StringVar(&bcMessage, "message", "", "custom advisory text (overrides the catalog body)")
	_ = broadcastCmd.MarkFlagRequired("disease")
	_ = broadcastCmd.MarkFlagRequired("location")
}

// loadCore builds storage, providers and the dispatcher for one-shot
// commands; the returned cleanup closes the store.
func loadCore() (*app.Core, func(), error) {
	cfg, err := config.NewManager(cfgPath).Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log := logx.NewConsole(cfg.Logging.Level)
	core, err := app.BuildCore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return core, func() { _ = core.Store.Close() }, nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var outbreaksLimit int

var outbreaksCmd = &cobra.Command{
	Use:   "outbreaks",
	Short: "List recent outbreak records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		core, cleanup, err := loadCore()
		if err != nil {
			return err
		}
		defer cleanup()

		rows, err := core.Store.RecentOutbreaks(cmd.Context(), outbreaksLimit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("no outbreaks on record")
			return nil
		}
		for _, o := range rows {
			fmt.Printf("%-10s  %-16s  %5d cases  %-8s  %s\n",
				strings.ToUpper(o.Disease), o.Location, o.Cases, o.Severity,
				o.Date.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	outbreaksCmd.Flags().IntVar(&outbreaksLimit, "limit", 20, "maximum rows to show")
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"arogyabot/internal/storage"
)

var (
	prefLanguage string
	prefContact  string
	prefMethod   string
	prefDisabled bool
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage regional delivery preferences",
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <region>",
	Short: "Create or replace the preference record for a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		method := storage.ContactMethod(prefMethod)
		switch method {
		case storage.MethodSMS, storage.MethodChat, storage.MethodBoth:
		default:
			return fmt.Errorf("invalid --method %q (want sms, chat or both)", prefMethod)
		}

		core, cleanup, err := loadCore()
		if err != nil {
			return err
		}
		defer cleanup()

		pref := storage.Preference{
			Region:   args[0],
			Language: prefLanguage,
			Contact:  prefContact,
			Enabled:  !prefDisabled,
			Method:   method,
		}
		if err := core.Store.UpsertPreference(cmd.Context(), pref); err != nil {
			return err
		}
		fmt.Printf("preference saved for %s (lang=%s method=%s enabled=%t)\n",
			args[0], prefLanguage, method, pref.Enabled)
		return nil
	},
}

func init() {
	prefsSetCmd.Flags().StringVar(&prefLanguage, "language", "en", "message language (en, hi, or)")
	prefsSetCmd.Flags().StringVar(&prefContact, "contact", "", "delivery phone number (required)")
	prefsSetCmd.Flags().StringVar(&prefMethod, "method", "sms", "sms|chat|both")
	prefsSetCmd.Flags().BoolVar(&prefDisabled, "disabled", false, "store the preference in a paused state")
	_ = prefsSetCmd.MarkFlagRequired("contact")
	prefsCmd.AddCommand(prefsSetCmd)
}

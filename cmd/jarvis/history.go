package main

import (
	"errors"
	"fmt"

	"github.com/Lin-Jiong-HDU/jarvis/internal/terminal"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyClear   bool
	historySession string
)

// getHistoryCommand returns the history command
func getHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()
			if a.history == nil {
				return errors.New("history is disabled (history.enabled: false)")
			}

			if historyClear {
				if err := a.history.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ history cleared")
				return nil
			}

			entries := a.history.Recent(historyLimit)
			if historySession != "" {
				entries = a.history.BySession(historySession, historyLimit)
			}
			fmt.Fprint(cmd.OutOrStdout(), terminal.DefaultStyles().History(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show (0 for all)")
	cmd.Flags().StringVarP(&historySession, "session", "s", "", "only show entries from the session with this ID prefix")
	cmd.Flags().BoolVar(&historyClear, "clear", false, "delete every recorded entry")

	return cmd
}

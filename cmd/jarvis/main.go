package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jarvis",
		Short: "Natural-language desktop automation",
		Long: `jarvis turns plain-language commands like "Open Chrome and go to Gmail"
into AutoHotkey (Windows) or AppleScript (macOS) scripts and runs them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.jarvis/config.yaml)")

	root.AddCommand(getServeCommand())
	root.AddCommand(getDoCommand())
	root.AddCommand(getChatCommand())
	root.AddCommand(getShellCommand())
	root.AddCommand(getHistoryCommand())
	root.AddCommand(getInitCommand())

	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

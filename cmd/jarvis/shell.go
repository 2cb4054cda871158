package main

import (
	"context"

	"github.com/Lin-Jiong-HDU/jarvis/internal/conversation"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/Lin-Jiong-HDU/jarvis/internal/terminal"
	"github.com/spf13/cobra"
)

type shellOptions struct {
	platform string
	confirm  bool
	noRender bool
}

// getShellCommand returns the interactive shell command
func getShellCommand() *cobra.Command {
	opts := &shellOptions{}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive command prompt",
		Long: `Read commands line by line and run each through the pipeline.

Use /chat to talk without automating and /exit to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()
			return runShell(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "target platform: windows or mac (default: this machine)")
	cmd.Flags().BoolVar(&opts.confirm, "confirm", false, "ask before running each automation")
	cmd.Flags().BoolVar(&opts.noRender, "no-render", false, "print chat replies without markdown rendering")

	return cmd
}

func runShell(cmd *cobra.Command, a *app, opts *shellOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	prompter := terminal.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	engine := a.engine
	if opts.confirm {
		engine = a.newEngine(core.WithConfirmer(prompter))
	}

	repl := terminal.NewREPL(engine, a.responder, prompter, cmd.OutOrStdout())
	repl.SetPlatform(opts.platform)
	if a.history != nil {
		repl.SetHistory(a.history)
	}
	if !opts.noRender {
		if renderer, err := conversation.NewRenderer(80); err == nil {
			repl.SetRenderer(renderer)
		}
	}

	return repl.Run(ctx)
}

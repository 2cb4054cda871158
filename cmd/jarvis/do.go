package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/platform"
	"github.com/Lin-Jiong-HDU/jarvis/internal/terminal"
	"github.com/spf13/cobra"
)

type doOptions struct {
	platform string
	dryRun   bool
	wait     bool
	confirm  bool
}

// getDoCommand returns the do command
func getDoCommand() *cobra.Command {
	opts := &doOptions{}

	cmd := &cobra.Command{
		Use:   "do <command>",
		Short: "Run one natural-language command",
		Long: `Plan, check, generate and launch a script for one command.

With --dry-run the plan and the generated script are printed instead; nothing
is written or launched.`,
		Example: `  jarvis do "Open Chrome and go to Gmail"
  jarvis do --platform mac --dry-run "type hello world"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()
			return runDo(cmd, a, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "target platform: windows or mac (default: this machine)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the plan and script without writing or launching")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "wait for the launched script to exit")
	cmd.Flags().BoolVar(&opts.confirm, "confirm", false, "show the plan and ask before running it")

	return cmd
}

func runDo(cmd *cobra.Command, a *app, text string, opts *doOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.dryRun {
		return dryRun(ctx, cmd, a, text, opts.platform)
	}

	engine := a.engine
	if opts.confirm {
		engine = a.newEngine(core.WithConfirmer(terminal.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())))
	}

	outcome := engine.Process(ctx, core.Request{Text: text, Platform: opts.platform})
	fmt.Fprint(cmd.OutOrStdout(), terminal.DefaultStyles().Outcome(outcome))

	if opts.wait && outcome.ScriptPath != "" {
		a.dispatcher.Wait()
	}
	return nil
}

func dryRun(ctx context.Context, cmd *cobra.Command, a *app, text, hint string) error {
	out := cmd.OutOrStdout()
	st := terminal.DefaultStyles()

	target := platform.Resolve(hint)
	plan := a.planner.Interpret(ctx, text)
	fmt.Fprint(out, st.Plan(plan))

	if v := a.policy.Check(plan); !v.Safe {
		fmt.Fprintln(out, st.Danger.Render("✗ "+core.MessageBlocked))
		fmt.Fprintln(out, st.Subtle.Render("  "+v.Reason))
		return nil
	}

	source, ext, ok := a.synth.Render(plan, target)
	if !ok {
		fmt.Fprintln(out, st.Warning.Render("! "+core.MessageNoScript))
		return nil
	}

	fmt.Fprintln(out, st.Subtle.Render(fmt.Sprintf("%s script (%s):", target, ext)))
	fmt.Fprint(out, st.Script(source))
	return nil
}

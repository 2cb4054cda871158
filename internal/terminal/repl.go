package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/conversation"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/history"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/platform"
)

// ErrUserExit means the user asked to leave the REPL.
var ErrUserExit = errors.New("user requested exit")

// Processor runs one command through the pipeline.
type Processor interface {
	Process(ctx context.Context, req core.Request) core.Outcome
}

// Chatter answers chat messages.
type Chatter interface {
	Reply(ctx context.Context, text string) conversation.Reply
}

// HistoryLister lists recorded commands.
type HistoryLister interface {
	Recent(n int) []*history.Entry
}

// REPL reads commands line by line and runs them.
type REPL struct {
	engine   Processor
	chat     Chatter
	prompter *Prompter
	renderer *conversation.Renderer
	history  HistoryLister
	out      io.Writer
	styles   Styles

	platform string
	count    int
}

// NewREPL creates a REPL that reads through prompter and writes to out.
func NewREPL(engine Processor, chat Chatter, prompter *Prompter, out io.Writer) *REPL {
	return &REPL{
		engine:   engine,
		chat:     chat,
		prompter: prompter,
		out:      out,
		styles:   DefaultStyles(),
	}
}

// SetRenderer enables markdown rendering of chat replies.
func (r *REPL) SetRenderer(renderer *conversation.Renderer) {
	r.renderer = renderer
}

// SetHistory enables the /history command.
func (r *REPL) SetHistory(h HistoryLister) {
	r.history = h
}

// SetPlatform sets the target platform sent with every command.
func (r *REPL) SetPlatform(p string) {
	r.platform = p
}

// ProcessInput handles one line.
func (r *REPL) ProcessInput(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if strings.HasPrefix(input, "/") {
		shouldExit, err := r.HandleCommand(ctx, input)
		if err != nil {
			return err
		}
		if shouldExit {
			return ErrUserExit
		}
		return nil
	}

	r.count++
	out := r.engine.Process(ctx, core.Request{Text: input, Platform: r.platform})
	fmt.Fprint(r.out, r.styles.Outcome(out))
	return nil
}

// HandleCommand runs a slash command and reports whether to exit.
func (r *REPL) HandleCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/exit", "/quit":
		r.DisplayExitSummary()
		return true, nil

	case "/help":
		r.DisplayHelp()
		return false, nil

	case "/clear":
		fmt.Fprint(r.out, "\033[H\033[2J")
		return false, nil

	case "/platform":
		if len(parts) < 2 {
			current := r.platform
			if current == "" {
				current = string(platform.Host()) + " (host)"
			}
			fmt.Fprintf(r.out, "platform: %s\n", current)
			return false, nil
		}
		r.platform = string(platform.Parse(parts[1]))
		fmt.Fprintf(r.out, "✓ platform set to %s\n", r.platform)
		return false, nil

	case "/history":
		if r.history == nil {
			fmt.Fprintln(r.out, "history is disabled")
			return false, nil
		}
		n := 10
		if len(parts) > 1 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v <= 0 {
				fmt.Fprintln(r.out, "usage: /history [count]")
				return false, nil
			}
			n = v
		}
		fmt.Fprint(r.out, r.styles.History(r.history.Recent(n)))
		return false, nil

	case "/chat":
		text := strings.TrimSpace(strings.TrimPrefix(cmd, parts[0]))
		if text == "" {
			fmt.Fprintln(r.out, "usage: /chat <message>")
			return false, nil
		}
		r.displayReply(r.chat.Reply(ctx, text))
		return false, nil

	default:
		fmt.Fprintf(r.out, "unknown command: %s (try /help)\n", parts[0])
		return false, nil
	}
}

func (r *REPL) displayReply(reply conversation.Reply) {
	if r.renderer == nil {
		fmt.Fprintf(r.out, "%s: %s\n", reply.From, reply.Message)
		return
	}
	fmt.Fprintln(r.out, r.styles.Title.Render(reply.From))
	fmt.Fprint(r.out, r.renderer.Render(reply.Message))
}

// DisplayHelp prints the slash commands.
func (r *REPL) DisplayHelp() {
	help := `
Type a command such as "Open Chrome and go to Gmail".

  /chat <message>    chat without automating
  /platform [name]   show or set the target platform (windows, mac)
  /history [count]   show recent commands
  /clear             clear the screen
  /help              show this help
  /exit, /quit       leave
`
	fmt.Fprintln(r.out, help)
}

// DisplayExitSummary prints how many commands ran.
func (r *REPL) DisplayExitSummary() {
	fmt.Fprintf(r.out, "Bye. %d command(s) this session.\n", r.count)
}

// Run reads lines until /exit or end of input.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, r.styles.Title.Render("jarvis")+r.styles.Subtle.Render("  /help for commands"))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := r.prompter.ReadLine("› ")
		if errors.Is(err, ErrInputClosed) {
			fmt.Fprintln(r.out)
			r.DisplayExitSummary()
			return nil
		}
		if err != nil {
			return err
		}

		if err := r.ProcessInput(ctx, line); err != nil {
			if errors.Is(err, ErrUserExit) {
				return nil
			}
			return err
		}
	}
}

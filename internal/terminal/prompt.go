// Package terminal holds the interactive front end: styled output, the
// confirmation prompt and the REPL.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/platform"
)

// ErrInputClosed is returned by ReadLine at end of input.
var ErrInputClosed = errors.New("input closed")

// Prompter reads answers from a terminal. The REPL and confirmations share
// one Prompter so they do not race for buffered input.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	styles  Styles
}

// NewPrompter creates a prompter. nil in or out means stdin or stdout.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
		styles:  DefaultStyles(),
	}
}

// ReadLine prints prompt and returns the next trimmed line.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Confirm shows the plan and asks whether to run it. Anything but y/yes, and
// end of input, declines.
func (p *Prompter) Confirm(plan ai.Plan, target platform.Platform) bool {
	fmt.Fprintf(p.out, "\n%s\n", p.styles.Warning.Render(fmt.Sprintf("Run this on %s?", target)))
	fmt.Fprint(p.out, p.styles.Plan(plan))

	for {
		answer, err := p.ReadLine("[y] run  [n] cancel > ")
		if err != nil {
			fmt.Fprintln(p.out)
			return false
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true
		case "n", "no", "":
			fmt.Fprintln(p.out, p.styles.Subtle.Render("cancelled"))
			return false
		default:
			fmt.Fprint(p.out, "Please answer y or n. ")
		}
	}
}

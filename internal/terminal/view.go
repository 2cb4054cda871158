package terminal

import (
	"fmt"
	"strings"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/history"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the terminal colours for command output.
type Styles struct {
	Title   lipgloss.Style
	Subtle  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
	Code    lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Code: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
	}
}

// Outcome renders a pipeline result.
func (s Styles) Outcome(out core.Outcome) string {
	var b strings.Builder

	switch {
	case out.Blocked:
		b.WriteString(s.Danger.Render("✗ " + out.Message))
		b.WriteString("\n")
		b.WriteString(s.Subtle.Render("  " + out.Reason))
	case out.Message == core.MessageExecuted:
		b.WriteString(s.Success.Render("✓ " + out.Message))
	case out.Branch == core.BranchChat:
		b.WriteString(out.Message)
	default:
		b.WriteString(s.Warning.Render("! " + out.Message))
	}
	b.WriteString("\n")

	b.WriteString(s.Actions(out.Actions))
	b.WriteString(s.Subtle.Render("platform: " + out.Platform))
	b.WriteString("\n")
	if out.ScriptPath != "" {
		b.WriteString(s.Subtle.Render("script:   " + out.ScriptPath))
		b.WriteString("\n")
	}
	return b.String()
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return fmt.Sprintf("%-8s", id)
}

// Actions renders a numbered action list.
func (s Styles) Actions(actions []string) string {
	if len(actions) == 0 {
		return ""
	}
	var b strings.Builder
	for i, a := range actions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, a)
	}
	return b.String()
}

// Plan renders a plan with its arguments.
func (s Styles) Plan(plan ai.Plan) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("intent: " + string(plan.Intent())))
	b.WriteString("\n")
	b.WriteString(s.Actions(plan.Actions()))
	for _, k := range plan.ArgumentKeys() {
		b.WriteString(s.Subtle.Render(fmt.Sprintf("  %s = %s", k, plan.Argument(k, ""))))
		b.WriteString("\n")
	}
	return b.String()
}

// Script renders script source in a box.
func (s Styles) Script(source string) string {
	return s.Code.Render(strings.Trim(source, "\n")) + "\n"
}

// History renders journal entries, one per line.
func (s Styles) History(entries []*history.Entry) string {
	if len(entries) == 0 {
		return s.Subtle.Render("no commands recorded") + "\n"
	}

	var b strings.Builder
	for _, e := range entries {
		status := fmt.Sprintf("%-9s", e.Status)
		switch e.Status {
		case history.StatusExecuted:
			status = s.Success.Render(status)
		case history.StatusBlocked, history.StatusFailed:
			status = s.Danger.Render(status)
		case history.StatusChat:
		default:
			status = s.Warning.Render(status)
		}
		fmt.Fprintf(&b, "%s  %s  %s  %s  %s\n",
			s.Subtle.Render(e.CreatedAt.Format("2006-01-02 15:04")),
			s.Subtle.Render(shortSession(e.SessionID)),
			status,
			s.Subtle.Render(fmt.Sprintf("%-7s", e.Platform)),
			e.Text,
		)
	}
	return b.String()
}

package conversation

import (
	"github.com/charmbracelet/glamour"
)

// Renderer renders chat replies as terminal markdown.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at width columns.
func NewRenderer(width int) (*Renderer, error) {
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	return &Renderer{term: term}, nil
}

// Render renders markdown, returning it unchanged if rendering fails.
func (r *Renderer) Render(markdown string) string {
	out, err := r.term.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

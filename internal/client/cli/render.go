package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// newMarkdownRenderer builds the terminal Markdown renderer used for
// assistant replies. A nil renderer means rendering is unavailable and raw
// text is shown instead.
func newMarkdownRenderer() *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil
	}
	return renderer
}

// renderMarkdown renders text for the terminal, falling back to the raw
// string when the renderer is missing or fails.
func renderMarkdown(renderer *glamour.TermRenderer, text string) string {
	if renderer == nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

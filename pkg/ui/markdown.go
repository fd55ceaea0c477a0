package ui

import (
	"github.com/charmbracelet/glamour"
)

// MarkdownWidth is the word wrap used for rendered help text
const MarkdownWidth = 80

// RenderMarkdown renders markdown for a terminal. Plain consoles get the
// source text unchanged, as does any rendering failure.
func (c *Console) RenderMarkdown(content string) string {
	if !c.styled {
		return content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(MarkdownWidth),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// PrintMarkdown writes content through RenderMarkdown
func (c *Console) PrintMarkdown(content string) {
	c.printf("%s", c.RenderMarkdown(content))
}

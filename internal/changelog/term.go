package changelog

import (
	"github.com/charmbracelet/glamour"
)

// RenderTerminal renders release-note markup for terminal display.
func RenderTerminal(source string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(source)
}

package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/inkdown/inkdown-agent/internal/config"
	ui "github.com/inkdown/inkdown-agent/internal/ui"
)

// testCfg returns a config pointed at a temp home.
func testCfg(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.SetHome(t.TempDir())
	return cfg
}

// testPrinter returns a printer with colors off for stable assertions.
func testPrinter() ui.Printer {
	p := ui.NewPrinter("text")
	p.Colors.Enabled = false
	p.Colors.EmojiEnabled = false
	return p
}

func testDeps(t *testing.T) *Deps {
	t.Helper()
	return &Deps{
		Cfg:      testCfg(t),
		Settings: config.DefaultSettings(),
		Printer:  testPrinter(),
		Prompter: &nonInteractivePrompter{},
		Output:   io.Discard,
	}
}

// nonInteractivePrompter always fails to read, simulating --non-interactive.
type nonInteractivePrompter struct{}

func (p *nonInteractivePrompter) ReadLine(prompt string) (string, error) {
	return "", fmt.Errorf("non-interactive")
}
func (p *nonInteractivePrompter) IsInteractive() bool { return false }

// mockPrompter returns scripted responses.
type mockPrompter struct {
	interactive bool
	responses   []string
	idx         int
}

func (p *mockPrompter) ReadLine(prompt string) (string, error) {
	if p.idx >= len(p.responses) {
		return "", fmt.Errorf("no more responses")
	}
	r := p.responses[p.idx]
	p.idx++
	return r, nil
}
func (p *mockPrompter) IsInteractive() bool { return p.interactive }

func containsSubstr(s, substr string) bool { return strings.Contains(s, substr) }

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/inkdown/inkdown-agent/internal/config"
	ui "github.com/inkdown/inkdown-agent/internal/ui"
	"github.com/inkdown/inkdown-agent/internal/update"
)

// Prompter abstracts interactive terminal I/O for testability.
type Prompter interface {
	// ReadLine displays the prompt and reads a line of input.
	ReadLine(prompt string) (string, error)
	// IsInteractive returns whether the terminal supports interactive input.
	IsInteractive() bool
}

// Deps holds all injectable dependencies for command handlers.
type Deps struct {
	Cfg      config.Config
	Settings config.Settings
	Checker  *update.Checker
	Printer  ui.Printer
	Prompter Prompter
	Output   io.Writer
}

// ttyPrompter is the production implementation of Prompter.
// It uses /dev/tty when stdin is not a terminal (e.g., piped input).
type ttyPrompter struct{}

func (p *ttyPrompter) ReadLine(prompt string) (string, error) {
	fmt.Print(prompt)

	var reader *bufio.Reader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		reader = bufio.NewReader(os.Stdin)
	} else {
		tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			return "", fmt.Errorf("no interactive terminal available: %w", err)
		}
		defer tty.Close()
		reader = bufio.NewReader(tty)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *ttyPrompter) IsInteractive() bool {
	if flagNonInteractive {
		return false
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err == nil {
		tty.Close()
		return true
	}
	return false
}

// silentErr wraps an error whose message was already printed by the
// handler; Execute only uses it for the exit code.
type silentErr struct{ error }

func (e silentErr) Unwrap() error { return e.error }

// getPrinter returns a UI printer bound to the current --output flag.
func getPrinter() ui.Printer { return ui.NewPrinterFromGlobal(flagOutput) }

// newDeps creates production dependencies from the current flags and config.
func newDeps() *Deps {
	cfg := loadCfg()
	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		settings = config.DefaultSettings()
	}

	return &Deps{
		Cfg:      cfg,
		Settings: settings,
		Checker:  update.NewChecker(cfg.ReleasesURL),
		Printer:  getPrinter(),
		Prompter: &ttyPrompter{},
		Output:   os.Stdout,
	}
}

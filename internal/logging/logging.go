// Package logging sets up structured logging for the agent. Interactive
// runs get a colorized terminal handler, the serve command additionally
// writes a plain text log under the agent home for the doctor and logs
// commands to read back.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Options controls handler construction.
type Options struct {
	Level   slog.Level
	NoColor bool
	// FilePath, when set, duplicates records into a text log file.
	FilePath string
}

// New builds a logger writing to w according to opts. When FilePath is
// set the returned closer must be called on shutdown.
func New(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	terminal := tint.NewHandler(w, &tint.Options{
		Level:      opts.Level,
		NoColor:    opts.NoColor || !isTerminal(w),
		TimeFormat: time.Kitchen,
	})

	if opts.FilePath == "" {
		return slog.New(terminal), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	file := slog.NewTextHandler(f, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(multiHandler{terminal, file}), f, nil
}

// Discard returns a logger that drops everything. Used by commands that
// run with --quiet and by tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler fans records out to each wrapped handler.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}

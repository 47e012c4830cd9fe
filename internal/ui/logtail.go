package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nxadm/tail"
)

// StreamLogs follows the agent log file with rotation support.
// When follow is false it prints the current contents and returns.
func StreamLogs(ctx context.Context, logPath string, out io.Writer, follow bool) error {
	if !follow {
		data, err := os.ReadFile(logPath)
		if err != nil {
			return fmt.Errorf("read log: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	// Wait briefly for the file to appear when the serve command has
	// just started.
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(logPath); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	t, err := tail.TailFile(logPath, tail.Config{
		Follow:    true,
		ReOpen:    true, // handle rotation
		MustExist: false,
		Poll:      false,
	})
	if err != nil {
		return fmt.Errorf("failed to tail log: %w", err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-t.Lines:
			if line == nil {
				return nil
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	ui "github.com/inkdown/inkdown-agent/internal/ui"
)

func init() {
	var follow bool

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the agent log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadCfg()

			ctx := context.Background()
			if follow {
				var stop context.CancelFunc
				ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
			}
			return ui.StreamLogs(ctx, cfg.LogPath(), os.Stdout, follow)
		},
	}

	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow the log as it grows")
	rootCmd.AddCommand(logsCmd)
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkdown/inkdown-agent/internal/doctor"
	"github.com/inkdown/inkdown-agent/internal/exitcodes"
)

func init() {
	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks",
		Long:  "Check the agent environment: feed reachability, settings validity, disk space, memory, and home directory permissions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps()
			rep := doctor.Run(context.Background(), &d.Cfg)

			if d.Printer.Structured(rep) {
				if !rep.Healthy() {
					return silentErr{exitcodes.ValidationErr("environment has issues")}
				}
				return nil
			}

			d.Printer.Header("Inkdown Agent Doctor")
			for _, res := range rep.Results {
				icon := d.Printer.Colors.StatusIcon(string(res.Status))
				fmt.Printf("  %s %-14s %s\n", icon, res.Name, res.Message)
			}
			fmt.Println()

			if !rep.Healthy() {
				d.Printer.Error("Some checks failed")
				return silentErr{exitcodes.ValidationErr("environment has issues")}
			}
			d.Printer.Success("All checks passed")
			return nil
		},
	}
	rootCmd.AddCommand(doctorCmd)
}

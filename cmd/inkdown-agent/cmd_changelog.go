package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/inkdown/inkdown-agent/internal/changelog"
	"github.com/inkdown/inkdown-agent/internal/exitcodes"
	"github.com/inkdown/inkdown-agent/internal/update"
	ui "github.com/inkdown/inkdown-agent/internal/ui"
)

func init() {
	var (
		usePager bool
		asHTML   bool
	)

	changelogCmd := &cobra.Command{
		Use:   "changelog",
		Short: "Show the release notes of the newest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps()

			ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
			defer cancel()

			release, err := d.Checker.FirstRelease(ctx)
			if err != nil {
				msg := update.LocalizedMessage(err)
				d.Printer.Error(msg)
				return silentErr{exitcodes.NetworkErr(msg)}
			}

			title := release.Name
			if title == "" {
				title = release.TagName
			}

			if asHTML {
				html, err := changelog.RenderHTML(release.Body)
				if err != nil {
					return fmt.Errorf("render release notes: %w", err)
				}
				fmt.Println(html)
				return nil
			}

			width := 80
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
			rendered, err := changelog.RenderTerminal(release.Body, width)
			if err != nil {
				return fmt.Errorf("render release notes: %w", err)
			}

			if usePager {
				return ui.RunPager(title, rendered)
			}
			d.Printer.Header(title)
			fmt.Println(rendered)
			return nil
		},
	}

	changelogCmd.Flags().BoolVar(&usePager, "pager", false, "Open in a scrollable pager")
	changelogCmd.Flags().BoolVar(&asHTML, "html", false, "Print sanitized HTML instead of terminal output")
	rootCmd.AddCommand(changelogCmd)
}

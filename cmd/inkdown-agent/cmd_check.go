package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkdown/inkdown-agent/internal/exitcodes"
	"github.com/inkdown/inkdown-agent/internal/i18n"
	"github.com/inkdown/inkdown-agent/internal/update"
)

// UpdateChecker abstracts the update check for testability.
type UpdateChecker interface {
	Check(ctx context.Context, currentVersion string, acceptBeta bool) (*update.Decision, error)
}

type checkCoreOpts struct {
	beta           bool
	showHTML       bool
	currentVersion string
}

// runCheckCore contains the check logic, testable with a mocked checker.
func runCheckCore(d *Deps, checker UpdateChecker, opts checkCoreOpts) error {
	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()

	decision, err := checker.Check(ctx, opts.currentVersion, opts.beta)
	if err != nil {
		if update.IsNoUpdate(err) {
			if !d.Printer.Structured(map[string]any{"updateAvailable": false}) && !flagQuiet {
				d.Printer.Info(i18n.T("no_update"))
			}
			return silentErr{exitcodes.NoUpdateErr("no update available")}
		}
		msg := update.LocalizedMessage(err)
		if !d.Printer.Structured(map[string]any{"updateAvailable": false, "error": msg}) {
			d.Printer.Error(msg)
		}
		return silentErr{exitcodes.NetworkErr(msg)}
	}

	_ = update.SaveCache(d.Cfg.HomeDir, &update.CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   decision.NewVersion,
		UpdateAvailable: true,
		FeedDigest:      update.DecisionDigest(decision),
	})

	if d.Printer.Structured(decision) {
		return nil
	}

	d.Printer.Success(i18n.T("update_available", decision.NewVersion, decision.CurrentVersion))
	d.Printer.KeyValueLine("Release", decision.ReleaseURL)
	if decision.IsBeta {
		d.Printer.Warn("This is a beta release")
	}
	if opts.showHTML {
		fmt.Println()
		fmt.Println(decision.ChangelogHTML)
	}
	return nil
}

func init() {
	var (
		beta     bool
		showHTML bool
	)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check the release feed for a newer version",
		Long: `Check the Inkdown release feed for a version newer than the one
currently installed. Beta releases are skipped unless the host settings
enable them or --beta is passed. Exits with a distinct code when no
update is available so shell callers can branch without parsing output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps()
			return runCheckCore(d, d.Checker, checkCoreOpts{
				beta:           beta || d.Settings.CheckForBeta,
				showHTML:       showHTML,
				currentVersion: Version,
			})
		},
	}

	checkCmd.Flags().BoolVar(&beta, "beta", false, "Accept beta (prerelease) versions")
	checkCmd.Flags().BoolVar(&showHTML, "html", false, "Print the rendered changelog HTML")
	rootCmd.AddCommand(checkCmd)
}

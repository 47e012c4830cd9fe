package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkdown/inkdown-agent/internal/update"
	ui "github.com/inkdown/inkdown-agent/internal/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		p := getPrinter()
		info := map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
		}
		if !p.Structured(info) {
			fmt.Printf("inkdown-agent %s (%s) built %s\n", Version, Commit, BuildDate)
		}
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unknown shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// checkForUpdateBackground performs a non-blocking update check.
// Uses the cache to avoid hitting the feed on every invocation.
// Stores the result in updateCheckResult for PersistentPostRun.
func checkForUpdateBackground() {
	cfg := loadCfg()

	cache, err := update.LoadCache(cfg.HomeDir)
	if err == nil && update.IsCacheValid(cache) {
		// Re-verify in case the binary changed since the cache was written
		if cache.UpdateAvailable && update.IsNewerVersion(Version, cache.LatestVersion) {
			updateCheckMu.Lock()
			updateCheckResult = cache
			updateCheckMu.Unlock()
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checker := update.NewChecker(cfg.ReleasesURL)
	decision, err := checker.Check(ctx, Version, false)
	if err != nil {
		if update.IsNoUpdate(err) {
			_ = update.SaveCache(cfg.HomeDir, &update.CacheEntry{
				CheckedAt:     time.Now(),
				LatestVersion: strings.TrimPrefix(Version, "v"),
			})
		}
		return // silently fail, never disrupt the user's command
	}

	entry := &update.CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   decision.NewVersion,
		UpdateAvailable: true,
		FeedDigest:      update.DecisionDigest(decision),
	}
	_ = update.SaveCache(cfg.HomeDir, entry)

	updateCheckMu.Lock()
	updateCheckResult = entry
	updateCheckMu.Unlock()
}

// showUpdateNotification displays an update notice after the command completes.
func showUpdateNotification(latestVersion string) {
	if flagOutput == "json" || flagOutput == "yaml" || flagQuiet {
		return
	}

	c := ui.NewColorConfigFromGlobal()
	fmt.Println()
	fmt.Println(c.Warning("─────────────────────────────────────────────────────────────"))
	fmt.Printf(c.Warning("  Update available: %s → %s\n"), Version, latestVersion)
	fmt.Println(c.Info("  Run: inkdown-agent update"))
	fmt.Println(c.Warning("─────────────────────────────────────────────────────────────"))
}

// shouldSkipUpdateCheck returns true for commands where a background
// check is redundant or disruptive.
func shouldSkipUpdateCheck(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "update", "check", "serve", "help", "version", "completion":
		return true
	}
	return false
}

package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/inkdown/inkdown-agent/internal/config"
	"github.com/inkdown/inkdown-agent/internal/exitcodes"
	"github.com/inkdown/inkdown-agent/internal/i18n"
	"github.com/inkdown/inkdown-agent/internal/update"
	ui "github.com/inkdown/inkdown-agent/internal/ui"
)

// Version information - set via -ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// updateCheckResult stores the result of the background update check
var (
	updateCheckResult *update.CacheEntry
	updateCheckMu     sync.Mutex
)

var rootCmd = &cobra.Command{
	Use:           "inkdown-agent",
	Short:         "Inkdown companion agent",
	Long:          "Companion process for the Inkdown editor: update checks, changelog rendering, and self-updates.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize global UI config from flags after parsing but
		// before command execution
		ui.InitGlobal(ui.Config{
			NoColor:        flagNoColor,
			NoEmoji:        flagNoEmoji,
			Yes:            flagYes,
			NonInteractive: flagNonInteractive,
			Quiet:          flagQuiet,
		})

		// Set NO_COLOR env so lipgloss and glamour respect the flag
		if flagNoColor {
			os.Setenv("NO_COLOR", "1")
		}

		// Pick up the host application's language setting
		cfg := loadCfg()
		if settings, err := config.LoadSettings(cfg.SettingsPath); err == nil {
			i18n.SetLanguage(settings.Language)
		}

		// Start background update check (non-blocking)
		if !shouldSkipUpdateCheck(cmd) {
			go checkForUpdateBackground()
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Show update notification if available (after command completes)
		updateCheckMu.Lock()
		result := updateCheckResult
		updateCheckMu.Unlock()
		if !shouldSkipUpdateCheck(cmd) && result != nil && result.UpdateAvailable {
			showUpdateNotification(result.LatestVersion)
		}
	},
}

var (
	flagHome           string
	flagOutput         string
	flagQuiet          bool
	flagNoColor        bool
	flagNoEmoji        bool
	flagYes            bool
	flagNonInteractive bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Agent home directory (overrides INKDOWN_HOME)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "Output format: json|yaml|text")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet mode: minimal output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable ANSI colors")
	rootCmd.PersistentFlags().BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Assume yes for all prompts")
	rootCmd.PersistentFlags().BoolVar(&flagNonInteractive, "non-interactive", false, "Fail instead of prompting")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var se silentErr
		if !errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitcodes.CodeForError(err))
	}
}

// loadCfg reads defaults + env via internal/config.Load() and then
// applies overrides from persistent flags.
func loadCfg() config.Config {
	cfg := config.Load()
	if flagHome != "" {
		cfg.SetHome(flagHome)
	}
	return cfg
}

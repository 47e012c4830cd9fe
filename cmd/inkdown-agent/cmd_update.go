package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkdown/inkdown-agent/internal/exitcodes"
	"github.com/inkdown/inkdown-agent/internal/update"
	ui "github.com/inkdown/inkdown-agent/internal/ui"
)

// CLIUpdater abstracts update operations for testability.
type CLIUpdater interface {
	Download(asset *update.Asset, progress update.ProgressFunc) ([]byte, error)
	VerifyChecksum(data []byte, release *update.Release, assetName string) error
	ExtractBinary(archiveData []byte, assetName string) ([]byte, error)
	Install(binaryData []byte) error
	Rollback() error
}

type updateCoreOpts struct {
	force          bool
	skipVerify     bool
	currentVersion string
	binaryPath     string
}

// runUpdateCore contains the core update logic, testable with a mocked
// CLIUpdater and release fetcher.
func runUpdateCore(d *Deps, updater CLIUpdater, fetch func(context.Context) (*update.Release, error),
	opts updateCoreOpts, output io.Writer, verifyBinary func(string) (string, error)) error {

	p := d.Printer
	p.Info("Checking for updates...")

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()

	release, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch release: %w", err)
	}

	latestVersion := strings.TrimPrefix(release.TagName, "v")
	currentVersion := strings.TrimPrefix(opts.currentVersion, "v")

	updateAvailable := update.IsNewerVersion(opts.currentVersion, release.TagName)
	_ = update.SaveCache(d.Cfg.HomeDir, &update.CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   latestVersion,
		UpdateAvailable: updateAvailable,
	})

	if !opts.force && !updateAvailable {
		p.Success(fmt.Sprintf("Already up to date (v%s)", currentVersion))
		return nil
	}

	fmt.Println()
	p.Info(fmt.Sprintf("Update available: v%s → v%s", currentVersion, latestVersion))

	// Show the first lines of the release notes
	if release.Body != "" {
		fmt.Println()
		fmt.Println("Changelog:")
		lines := strings.Split(release.Body, "\n")
		maxLines := 10
		if len(lines) < maxLines {
			maxLines = len(lines)
		}
		for _, line := range lines[:maxLines] {
			fmt.Printf("  %s\n", line)
		}
		if len(lines) > 10 {
			fmt.Printf("  ... (see %s for full changelog)\n", release.HTMLURL)
		}
	}
	fmt.Println()

	// Confirm update (skip if --force or --yes flag)
	if !opts.force && !flagYes {
		response, err := d.Prompter.ReadLine("Update now? [Y/n]: ")
		if err != nil {
			p.Warn("Update cancelled")
			return nil
		}
		response = strings.ToLower(response)
		if response != "" && response != "y" && response != "yes" {
			p.Warn("Update cancelled")
			return nil
		}
	}

	asset, err := update.GetAssetForPlatform(release)
	if err != nil {
		return err
	}

	p.Info(fmt.Sprintf("Downloading %s...", asset.Name))
	bar := ui.NewProgressBar(output, asset.Size)
	archiveData, err := updater.Download(asset, func(downloaded, total int64) {
		bar.Update(downloaded)
	})
	bar.Finish()
	if err != nil {
		return exitcodes.NetworkErr(fmt.Sprintf("download failed: %v", err))
	}

	if !opts.skipVerify {
		p.Info("Verifying checksum...")
		if err := updater.VerifyChecksum(archiveData, release, asset.Name); err != nil {
			return exitcodes.ValidationErr(fmt.Sprintf("checksum verification failed: %v", err))
		}
		p.Success("Checksum verified")
	} else {
		p.Warn("Skipping checksum verification (not recommended)")
	}

	p.Info("Extracting binary...")
	binaryData, err := updater.ExtractBinary(archiveData, asset.Name)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	p.Info("Installing...")
	if err := updater.Install(binaryData); err != nil {
		return exitcodes.ProcessErr(fmt.Sprintf("installation failed: %v", err))
	}

	p.Info("Verifying installation...")
	if verifyBinary != nil {
		if _, verErr := verifyBinary(opts.binaryPath); verErr != nil {
			p.Warn("Verification failed, rolling back...")
			if rbErr := updater.Rollback(); rbErr != nil {
				return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, verErr)
			}
			return fmt.Errorf("new binary verification failed, rolled back: %w", verErr)
		}
	}

	fmt.Println()
	p.Success(fmt.Sprintf("Updated to v%s", latestVersion))
	fmt.Println()
	p.Info("Restart the Inkdown editor to pick up the new agent.")

	return nil
}

func init() {
	var (
		force      bool
		skipVerify bool
	)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update inkdown-agent to the latest version",
		Long: `Check for and install the latest version of inkdown-agent.

The update command downloads pre-built binaries from the release feed,
verifies the checksum, and replaces the current binary.

Examples:
  inkdown-agent update           # Update to latest version
  inkdown-agent update --force   # Skip confirmation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			updater, err := update.NewUpdater(Version)
			if err != nil {
				return fmt.Errorf("failed to initialize updater: %w", err)
			}

			d := newDeps()
			opts := updateCoreOpts{
				force:          force,
				skipVerify:     skipVerify,
				currentVersion: Version,
				binaryPath:     updater.BinaryPath,
			}

			verifyBinary := func(path string) (string, error) {
				verifyCmd := exec.Command(path, "version")
				var stdout bytes.Buffer
				verifyCmd.Stdout = &stdout
				if err := verifyCmd.Run(); err != nil {
					return "", err
				}
				return strings.TrimSpace(stdout.String()), nil
			}

			return runUpdateCore(d, updater, d.Checker.FirstRelease, opts, d.Output, verifyBinary)
		},
	}

	updateCmd.Flags().BoolVar(&force, "force", false, "Skip confirmation and version comparison")
	updateCmd.Flags().BoolVar(&skipVerify, "no-verify", false, "Skip checksum verification (not recommended)")
	rootCmd.AddCommand(updateCmd)
}

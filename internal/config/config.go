package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds agent configuration: where the Inkdown desktop app keeps
// its data and where release metadata is fetched from.
type Config struct {
	HomeDir       string        // Inkdown data directory (settings, cache, logs)
	ReleasesURL   string        // release feed endpoint
	DownloadDir   string        // where update archives are stored
	SettingsPath  string        // the desktop app's persisted settings file
	EventAddr     string        // local listen address for the event bridge
	CheckInterval time.Duration // periodic check interval in serve mode
}

// Defaults returns the stock configuration rooted at ~/.inkdown.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".inkdown")
	return Config{
		HomeDir:       base,
		ReleasesURL:   "https://api.github.com/repos/inkdown/inkdown/releases",
		DownloadDir:   filepath.Join(base, "downloads"),
		SettingsPath:  filepath.Join(base, "settings.json"),
		EventAddr:     "127.0.0.1:48732",
		CheckInterval: 6 * time.Hour,
	}
}

// Load returns default config with INKDOWN_HOME override from the
// environment. Other options are overridden via flags.
func Load() Config {
	cfg := Defaults()
	if v := os.Getenv("INKDOWN_HOME"); v != "" {
		cfg.SetHome(v)
	}
	return cfg
}

// SetHome reroots all home-relative paths under dir.
func (c *Config) SetHome(dir string) {
	c.HomeDir = dir
	c.DownloadDir = filepath.Join(dir, "downloads")
	c.SettingsPath = filepath.Join(dir, "settings.json")
}

// LogPath returns the agent log file location.
func (c Config) LogPath() string {
	return filepath.Join(c.HomeDir, "agent.log")
}

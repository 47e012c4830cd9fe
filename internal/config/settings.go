package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings mirrors the subset of the desktop app's persisted settings
// the agent cares about. The file is owned by the desktop shell; the
// agent only reads it.
type Settings struct {
	CheckForBeta bool   `json:"checkForBeta"`
	AutoCheck    bool   `json:"autoCheck"`
	Language     string `json:"language"`
}

// DefaultSettings returns the values used when the settings file does
// not exist yet (fresh install, shell not yet started).
func DefaultSettings() Settings {
	return Settings{CheckForBeta: false, AutoCheck: true, Language: "en"}
}

// LoadSettings reads the host settings file. A missing file is not an
// error: the defaults apply. A malformed file is reported alongside
// the defaults so callers can still proceed.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.Language == "" {
		s.Language = "en"
	}
	return s, nil
}

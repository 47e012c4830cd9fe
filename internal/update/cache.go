package update

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	cacheFileName = "update-check.json"
	cacheDuration = 10 * time.Minute
)

// CacheEntry stores the last update check result so short-lived
// commands don't hit the feed on every invocation.
type CacheEntry struct {
	CheckedAt       time.Time `json:"checked_at"`
	LatestVersion   string    `json:"latest_version"`
	UpdateAvailable bool      `json:"update_available"`
	// FeedDigest identifies the decision content; serve mode uses it
	// to suppress duplicate notifications for an unchanged feed.
	FeedDigest uint64 `json:"feed_digest,omitempty"`
}

// CachePath returns the path to the cache file.
func CachePath(homeDir string) string {
	return filepath.Join(homeDir, cacheFileName)
}

// LoadCache loads the cached update check result. A missing or
// unreadable cache is not an error, it just means no cached result.
func LoadCache(homeDir string) (*CacheEntry, error) {
	data, err := os.ReadFile(CachePath(homeDir))
	if err != nil {
		return nil, nil
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, nil
	}
	return &entry, nil
}

// SaveCache saves the update check result
func SaveCache(homeDir string, entry *CacheEntry) error {
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(CachePath(homeDir), data, 0o644)
}

// IsCacheValid returns true if the entry is fresh (< 10m old).
func IsCacheValid(entry *CacheEntry) bool {
	return entry != nil && time.Since(entry.CheckedAt) < cacheDuration
}

// DecisionDigest hashes the parts of a decision the user would notice.
// Two checks against an unchanged feed produce the same digest.
func DecisionDigest(d *Decision) uint64 {
	return xxhash.Sum64String(d.NewVersion + "\x00" + d.ChangelogHTML)
}

package update

import "time"

// Release represents one entry of the release feed.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"` // changelog/release notes markup
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
	Assets      []Asset   `json:"assets"`
}

// Asset represents a release asset (binary archive)
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

// Decision is the positive outcome of an update check, handed to the
// desktop shell. Field names are camelCase on the wire because the
// consumer is the JavaScript side of the app.
type Decision struct {
	NewVersion     string `json:"newVersion"`
	CurrentVersion string `json:"currentVersion"`
	ChangelogHTML  string `json:"changelogHtml"`
	ReleaseURL     string `json:"releaseUrl"`
	IsBeta         bool   `json:"isBeta"`
	// DownloadURL stays empty after Check; the update command resolves
	// the platform asset itself.
	DownloadURL string `json:"downloadUrl,omitempty"`
}

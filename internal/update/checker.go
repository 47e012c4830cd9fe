// Package update implements release-feed checking, changelog
// preparation, and self-updating for the agent binary.
package update

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/inkdown/inkdown-agent/internal/changelog"
)

// Checker performs update checks against a release feed. Each call to
// Check is self-contained; overlapping calls on the same Checker are
// rejected rather than racing.
type Checker struct {
	feedURL  string
	client   *http.Client
	render   func(string) (string, error)
	inFlight atomic.Bool
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient sets a custom HTTP client. Redirect following stays
// disabled regardless of the client passed in.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.client = client
	}
}

// NewChecker creates a checker for the given release feed URL.
func NewChecker(feedURL string, opts ...Option) *Checker {
	c := &Checker{
		feedURL: feedURL,
		client:  &http.Client{Timeout: httpTimeout},
		render:  changelog.RenderHTML,
	}
	for _, opt := range opts {
		opt(c)
	}
	// A redirect response must surface as-is so it can be classified,
	// never be followed to a host we did not ask for.
	c.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// Check fetches the feed once and decides whether an acceptable newer
// release exists. On success the release notes are already rendered to
// sanitized HTML. All failure modes come back as *CheckError (or
// ErrCheckInProgress for overlapping calls).
func (c *Checker) Check(ctx context.Context, currentVersion string, acceptBeta bool) (*Decision, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCheckInProgress
	}
	defer c.inFlight.Store(false)

	releases, err := c.fetchReleases(ctx)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, &CheckError{Kind: KindNoUpdate}
	}

	// The feed is ordered newest first; only the head entry matters.
	rel := releases[0]
	accept := acceptBeta || !rel.Prerelease
	if rel.Draft || !accept || !IsNewerVersion(currentVersion, rel.TagName) {
		return nil, &CheckError{Kind: KindNoUpdate}
	}

	htmlNotes, err := c.render(rel.Body)
	if err != nil {
		return nil, fmt.Errorf("render release notes: %w", err)
	}

	return &Decision{
		NewVersion:     strings.TrimPrefix(rel.TagName, "v"),
		CurrentVersion: strings.TrimPrefix(currentVersion, "v"),
		ChangelogHTML:  htmlNotes,
		ReleaseURL:     rel.HTMLURL,
		IsBeta:         rel.Prerelease,
	}, nil
}

// FirstRelease returns the head entry of the feed without applying the
// acceptance rule. Used by the changelog command to show notes even
// when no update is due.
func (c *Checker) FirstRelease(ctx context.Context) (*Release, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCheckInProgress
	}
	defer c.inFlight.Store(false)

	releases, err := c.fetchReleases(ctx)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, &CheckError{Kind: KindNoUpdate}
	}
	return &releases[0], nil
}

package update

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	feedAccept  = "application/vnd.github.v3+json"
	userAgent   = "inkdown-agent"
	httpTimeout = 30 * time.Second
)

// fetchReleases performs the single outbound request of a check and
// classifies every failure mode into a CheckError.
func (c *Checker) fetchReleases(ctx context.Context) ([]Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, &CheckError{Kind: KindUnknownTransport, Err: err}
	}
	req.Header.Set("Accept", feedAccept)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		return nil, &CheckError{Kind: KindServer, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, &CheckError{Kind: KindClient, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 300:
		return nil, &CheckError{Kind: KindRedirect, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &CheckError{Kind: KindNoData}
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, &CheckError{Kind: KindParse, Err: err}
	}
	return releases, nil
}

// classifyTransport separates "the network is down" from every other
// transport failure so the user message can say so.
func classifyTransport(err error) *CheckError {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &CheckError{Kind: KindConnection, Err: err}
	}
	return &CheckError{Kind: KindUnknownTransport, Err: err}
}

// IsNewerVersion returns true if candidate is strictly newer than
// current under semantic-version precedence (prerelease tags ordered
// per semver).
func IsNewerVersion(current, candidate string) bool {
	current = ensureV(current)
	candidate = ensureV(candidate)

	// Dev/unknown builds always update; an unparseable candidate never wins.
	if !semver.IsValid(current) {
		return true
	}
	if !semver.IsValid(candidate) {
		return false
	}

	return semver.Compare(candidate, current) > 0
}

func ensureV(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

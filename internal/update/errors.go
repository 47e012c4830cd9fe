package update

import (
	"errors"
	"fmt"

	"github.com/inkdown/inkdown-agent/internal/i18n"
)

// Kind classifies a failed or fruitless update check.
type Kind int

const (
	// KindUnknownTransport covers transport failures with no more
	// specific classification; the raw cause is kept.
	KindUnknownTransport Kind = iota
	// KindServer is an HTTP status >= 500.
	KindServer
	// KindClient is an HTTP status in [400, 500).
	KindClient
	// KindRedirect is an HTTP status in [300, 400). Redirects are
	// disabled, so any redirect response is an error.
	KindRedirect
	// KindConnection is a DNS/host resolution failure (offline).
	KindConnection
	// KindNoData is an empty or blank response body.
	KindNoData
	// KindParse is a body that is not valid release data.
	KindParse
	// KindNoUpdate is a valid feed whose first entry does not satisfy
	// the acceptance rule (older/equal, draft, or rejected prerelease).
	KindNoUpdate
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server error"
	case KindClient:
		return "client error"
	case KindRedirect:
		return "redirect response"
	case KindConnection:
		return "connection failure"
	case KindNoData:
		return "empty response"
	case KindParse:
		return "malformed feed"
	case KindNoUpdate:
		return "no update available"
	default:
		return "transport failure"
	}
}

// ErrCheckInProgress is returned when Check is invoked while another
// check on the same Checker has not finished.
var ErrCheckInProgress = errors.New("update check already in progress")

// CheckError is the single error type produced by a check. Kind picks
// the message-catalog key; StatusCode is set for HTTP-classified kinds.
type CheckError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *CheckError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("update check: %s (HTTP %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("update check: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("update check: %s", e.Kind)
	}
}

func (e *CheckError) Unwrap() error { return e.Err }

// IsNoUpdate reports whether err is a check that completed without
// finding an acceptable newer release.
func IsNoUpdate(err error) bool {
	var ce *CheckError
	return errors.As(err, &ce) && ce.Kind == KindNoUpdate
}

// LocalizedMessage maps any check failure to a user-facing string from
// the message catalog. Every branch goes through the catalog, the
// unknown-transport one included.
func LocalizedMessage(err error) string {
	if errors.Is(err, ErrCheckInProgress) {
		return i18n.T("check_in_progress")
	}

	var ce *CheckError
	if !errors.As(err, &ce) {
		return i18n.T("unknown_error", err.Error())
	}

	switch ce.Kind {
	case KindServer:
		return i18n.T("server_error", ce.StatusCode)
	case KindClient:
		return i18n.T("client_error", ce.StatusCode)
	case KindRedirect:
		return i18n.T("redirect_error", ce.StatusCode)
	case KindConnection:
		return i18n.T("connection_error")
	case KindNoData:
		return i18n.T("no_data")
	case KindParse:
		return i18n.T("parse_error")
	case KindNoUpdate:
		return i18n.T("no_update")
	default:
		cause := ""
		if ce.Err != nil {
			cause = ce.Err.Error()
		}
		return i18n.T("unknown_error", cause)
	}
}

package exitcodes

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for inkdown-agent. The desktop shell branches on these,
// so keep them stable.
const (
	// Success indicates successful command completion
	Success = 0

	// GeneralError indicates a general/unknown error
	GeneralError = 1

	// InvalidArgs indicates invalid command-line arguments or flags
	InvalidArgs = 2

	// PreconditionFailed indicates a precondition was not met
	// (e.g., missing settings file, a check already in flight)
	PreconditionFailed = 3

	// NetworkError indicates release-feed/connectivity failure
	// (e.g., feed unreachable, redirect response, DNS failure)
	NetworkError = 4

	// ProcessError indicates process management failure
	// (e.g., failed to install binary, permission denied)
	ProcessError = 5

	// ValidationError indicates validation failure
	// (e.g., malformed feed, checksum mismatch)
	ValidationError = 6

	// NoUpdate indicates a successful check that found no acceptable
	// newer release. Distinct so shell callers can branch without
	// parsing output.
	NoUpdate = 7
)

// Exit terminates the program with the given code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError prints error message to stderr and exits with the given code
func ExitWithError(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}

// CodeForError returns the appropriate exit code for an error.
// Unwraps to find an ErrorWithCode anywhere in the chain, otherwise
// returns GeneralError. Use explicit error constructors (NetworkErr,
// NoUpdateErr, etc.) for specific codes.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}

	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}

	return GeneralError
}

package vcs

import (
	"errors"
	"fmt"
	"strings"
)

// Query names carried by RevisionLookupError.Op.
const (
	OpShortHead     = "short-head"
	OpTrackedStatus = "tracked-status"
)

var errEmptyRevision = errors.New("git returned an empty revision")

// RevisionLookupError reports a version-control query that could not be
// completed: git missing, not a repository, no commits on HEAD, permission
// failures, timeouts and non-zero exits all surface as this one kind.
type RevisionLookupError struct {
	Op       string
	Dir      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RevisionLookupError) Error() string {
	var b strings.Builder
	b.WriteString("revision lookup failed")
	if e.Op != "" {
		fmt.Fprintf(&b, " (%s)", e.Op)
	}
	if e.Dir != "" {
		fmt.Fprintf(&b, " in %s", e.Dir)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", e.Stderr)
	}
	return b.String()
}

func (e *RevisionLookupError) Unwrap() error {
	return e.Err
}

// IsRevisionLookup reports whether err is or wraps a RevisionLookupError.
func IsRevisionLookup(err error) bool {
	var rle *RevisionLookupError
	return errors.As(err, &rle)
}

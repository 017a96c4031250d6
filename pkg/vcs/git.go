// Package vcs answers the two read-only questions the program namer asks of a
// working copy: which commit is checked out, and whether tracked files differ
// from it.
package vcs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/os303/progname/pkg/logging"
)

const (
	DefaultBinary  = "git"
	DefaultTimeout = 10 * time.Second
)

// Options tune how git is invoked.
type Options struct {
	Binary  string
	Timeout time.Duration
	// Ignore lists doublestar patterns; tracked changes under matching paths
	// do not make the tree dirty.
	Ignore []string
}

// Git queries a working copy through the git CLI.
type Git struct {
	dir     string
	binary  string
	timeout time.Duration
	ignore  []string
	log     *logging.Logger
}

// New returns a Git rooted at dir. An empty dir means the process working directory.
func New(dir string, opts Options, log *logging.Logger) (*Git, error) {
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	if log == nil {
		log = logging.Nop()
	}
	g := &Git{
		dir:     dir,
		binary:  opts.Binary,
		timeout: opts.Timeout,
		ignore:  opts.Ignore,
		log:     log,
	}
	if strings.TrimSpace(g.binary) == "" {
		g.binary = DefaultBinary
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	return g, nil
}

// Dir is the working copy the queries run in.
func (g *Git) Dir() string {
	return g.dir
}

// ShortHead returns the abbreviated hash of the checked-out commit.
func (g *Git) ShortHead(ctx context.Context) (string, error) {
	res, err := g.run(ctx, OpShortHead, "rev-parse", "--short", "HEAD")
	if err != nil {
		g.log.Debug("short head lookup failed", "dir", g.dir, "error", err)
		return "", err
	}
	rev := strings.TrimSpace(res.stdout)
	if rev == "" {
		return "", &RevisionLookupError{Op: OpShortHead, Dir: g.dir, Err: errEmptyRevision}
	}
	g.log.Debug("resolved short head", "dir", g.dir, "revision", rev, "duration_ms", res.duration.Milliseconds())
	return rev, nil
}

// TrackedChanges lists tracked paths that differ from HEAD. Untracked files
// are never reported.
func (g *Git) TrackedChanges(ctx context.Context) ([]Change, error) {
	res, err := g.run(ctx, OpTrackedStatus, "status", "--porcelain", "-z", "--untracked-files=no")
	if err != nil {
		g.log.Debug("tracked status lookup failed", "dir", g.dir, "error", err)
		return nil, err
	}
	changes := parseStatus(res.stdout)
	g.log.Debug("read tracked status", "dir", g.dir, "changes", len(changes), "duration_ms", res.duration.Milliseconds())
	return changes, nil
}

// TrackedStatusDirty reports whether any tracked, non-ignored file has
// uncommitted changes.
func (g *Git) TrackedStatusDirty(ctx context.Context) (bool, error) {
	changes, err := g.TrackedChanges(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range changes {
		if g.ignored(c.Path) {
			g.log.Debug("ignoring tracked change", "path", c.Path, "status", c.Status)
			continue
		}
		return true, nil
	}
	return false, nil
}

func (g *Git) ignored(path string) bool {
	for _, pattern := range g.ignore {
		// Patterns were validated in New, so Match cannot fail here.
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

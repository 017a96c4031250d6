package progname

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/os303/progname/pkg/logging"
	"github.com/os303/progname/pkg/vcs"
)

// ErrEmptyVersion is returned when the project version is blank.
var ErrEmptyVersion = errors.New("project version is empty")

// Revisioner answers the two version-control questions a program name needs.
// *vcs.Git implements it.
type Revisioner interface {
	ShortHead(ctx context.Context) (string, error)
	TrackedStatusDirty(ctx context.Context) (bool, error)
}

// Environment is the slice of a build environment the namer touches: one
// project option read, one build variable written.
type Environment interface {
	ProjectOption(name string) (string, error)
	Replace(key, value string) error
}

// Options override the naming constants.
type Options struct {
	Prefix        string
	Variable      string
	VersionOption string
}

// Namer computes program names.
type Namer struct {
	rev  Revisioner
	opts Options
	log  *logging.Logger
}

// New returns a Namer querying rev. Empty options fall back to the package
// defaults.
func New(rev Revisioner, opts Options, log *logging.Logger) *Namer {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Variable == "" {
		opts.Variable = Variable
	}
	if opts.VersionOption == "" {
		opts.VersionOption = VersionOption
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Namer{rev: rev, opts: opts, log: log}
}

// Compute queries the working copy and formats the program name for version.
// The version is used exactly as given; a blank one is rejected. Query
// failures are returned as *vcs.RevisionLookupError.
func (n *Namer) Compute(ctx context.Context, version string) (Name, error) {
	if strings.TrimSpace(version) == "" {
		return Name{}, ErrEmptyVersion
	}

	rev, err := n.rev.ShortHead(ctx)
	if err != nil {
		return Name{}, asLookupError(vcs.OpShortHead, err)
	}
	rev = strings.TrimSpace(rev)

	dirty, err := n.rev.TrackedStatusDirty(ctx)
	if err != nil {
		return Name{}, asLookupError(vcs.OpTrackedStatus, err)
	}

	name := Name{
		Prefix:   n.opts.Prefix,
		Version:  version,
		Revision: rev,
		Dirty:    dirty,
	}
	n.log.Debug("computed program name", "name", name.String(), "revision", rev, "dirty", dirty)
	return name, nil
}

// Apply reads the project version from env, computes the program name and
// stores it in env under the configured build variable.
func (n *Namer) Apply(ctx context.Context, env Environment) (Name, error) {
	version, err := n.ProjectVersion(env)
	if err != nil {
		return Name{}, err
	}
	name, err := n.Compute(ctx, version)
	if err != nil {
		return Name{}, err
	}
	if err := n.Store(env, name); err != nil {
		return Name{}, err
	}
	return name, nil
}

// ProjectVersion reads the version option from env.
func (n *Namer) ProjectVersion(env Environment) (string, error) {
	version, err := env.ProjectOption(n.opts.VersionOption)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", n.opts.VersionOption, err)
	}
	return version, nil
}

// Store writes name into env under the configured build variable.
func (n *Namer) Store(env Environment, name Name) error {
	if err := env.Replace(n.opts.Variable, name.String()); err != nil {
		return fmt.Errorf("set %s: %w", n.opts.Variable, err)
	}
	n.log.Info("program name set", "variable", n.opts.Variable, "name", name.String())
	return nil
}

// Prefix is the tag this namer puts in front of every name.
func (n *Namer) Prefix() string {
	return n.opts.Prefix
}

// Variable is the build variable this namer writes.
func (n *Namer) Variable() string {
	return n.opts.Variable
}

func asLookupError(op string, err error) error {
	if vcs.IsRevisionLookup(err) {
		return err
	}
	return &vcs.RevisionLookupError{Op: op, Err: err}
}

// Package app wires config, the build environment, git and the namer into a
// single program-name run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/os303/progname/pkg/buildenv"
	"github.com/os303/progname/pkg/config"
	"github.com/os303/progname/pkg/logging"
	"github.com/os303/progname/pkg/manifest"
	"github.com/os303/progname/pkg/progname"
	"github.com/os303/progname/pkg/vcs"
)

// Result is what one run produced.
type Result struct {
	Name     progname.Name
	Variable string
	// Fallback is set when the configured fallback revision replaced a
	// failed git lookup.
	Fallback bool
	// Vars holds every build variable the run set.
	Vars map[string]string
	// Manifest is the path of the written manifest, if any.
	Manifest string
}

// App computes and publishes the program name for one project.
type App struct {
	cfg   *config.Config
	log   *logging.Logger
	namer *progname.Namer
}

// New assembles the run from config.
func New(cfg *config.Config, log *logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}
	git, err := vcs.New(cfg.RepoDir, vcs.Options{
		Binary:  cfg.Git.Binary,
		Timeout: time.Duration(cfg.Git.TimeoutSec) * time.Second,
		Ignore:  cfg.Git.Ignore,
	}, log.With("component", "vcs"))
	if err != nil {
		return nil, fmt.Errorf("vcs: %w", err)
	}
	return newWithRevisioner(cfg, log, git), nil
}

func newWithRevisioner(cfg *config.Config, log *logging.Logger, rev progname.Revisioner) *App {
	if log == nil {
		log = logging.Nop()
	}
	namer := progname.New(rev, progname.Options{
		Prefix:        cfg.Prefix,
		Variable:      cfg.Variable,
		VersionOption: cfg.VersionOption,
	}, log.With("component", "namer"))
	return &App{cfg: cfg, log: log, namer: namer}
}

// Run computes the program name, stores it in every configured variable
// store and writes the manifest when one is configured.
func (a *App) Run(ctx context.Context) (Result, error) {
	env, vars, err := a.environment()
	if err != nil {
		return Result{}, err
	}

	res := Result{Variable: a.namer.Variable()}
	name, err := a.namer.Apply(ctx, env)
	if err != nil {
		if !vcs.IsRevisionLookup(err) || a.cfg.FallbackRevision == "" {
			return Result{}, err
		}
		name, err = a.applyFallback(env, err)
		if err != nil {
			return Result{}, err
		}
		res.Fallback = true
	}
	res.Name = name
	res.Vars = vars.All()

	if a.cfg.Manifest != "" {
		m, err := manifest.New(name, res.Variable, res.Fallback)
		if err != nil {
			a.log.Debug("host info incomplete", "error", err)
		}
		if err := m.Write(a.cfg.Manifest); err != nil {
			return Result{}, err
		}
		a.log.Info("manifest written", "path", a.cfg.Manifest, "build_id", m.BuildID)
		res.Manifest = a.cfg.Manifest
	}
	return res, nil
}

func (a *App) environment() (*buildenv.Env, *buildenv.Vars, error) {
	path := a.cfg.ProjectPath()
	project, err := buildenv.LoadProject(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && strings.TrimSpace(a.cfg.ProjectVersion) != "":
		a.log.Debug("no project file, using configured version", "path", path)
		project = nil
	default:
		return nil, nil, err
	}

	vars := buildenv.NewVars()
	env := &buildenv.Env{
		Project: project,
		Name:    buildenv.ResolveEnvName(project, a.cfg.Environment),
		Stores:  []buildenv.Store{vars},
	}
	if a.cfg.ProjectVersion != "" {
		env.Overrides = map[string]string{a.cfg.VersionOption: a.cfg.ProjectVersion}
	}
	if a.cfg.EnvFile != "" {
		env.Stores = append(env.Stores, buildenv.DotEnv{Path: a.cfg.EnvFile})
	}
	a.log.Debug("build environment ready", "project", path, "env", env.Name)
	return env, vars, nil
}

func (a *App) applyFallback(env *buildenv.Env, lookupErr error) (progname.Name, error) {
	version, err := a.namer.ProjectVersion(env)
	if err != nil {
		return progname.Name{}, err
	}
	if strings.TrimSpace(version) == "" {
		return progname.Name{}, progname.ErrEmptyVersion
	}
	a.log.Warn("revision lookup failed, using fallback revision",
		"error", lookupErr, "fallback", a.cfg.FallbackRevision)

	name := progname.Name{
		Prefix:   a.namer.Prefix(),
		Version:  version,
		Revision: a.cfg.FallbackRevision,
	}
	if err := a.namer.Store(env, name); err != nil {
		return progname.Name{}, err
	}
	return name, nil
}

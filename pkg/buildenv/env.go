package buildenv

import (
	"fmt"
	"strings"
)

// Env is the build environment handed to the program namer. Project options
// come from Overrides first, then from Project; build variables fan out to
// every Store.
type Env struct {
	Project   *Project
	Name      string
	Overrides map[string]string
	Stores    []Store
}

// ProjectOption resolves a project option for this environment.
func (e *Env) ProjectOption(name string) (string, error) {
	if v, ok := e.Overrides[name]; ok && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if e.Project == nil {
		return "", fmt.Errorf("%w: %s (no project file)", ErrOptionNotFound, name)
	}
	return e.Project.Option(e.Name, name)
}

// Replace writes the variable to every store, stopping at the first failure.
func (e *Env) Replace(key, value string) error {
	for i, s := range e.Stores {
		if err := s.Replace(key, value); err != nil {
			return fmt.Errorf("store %d: %w", i, err)
		}
	}
	return nil
}

// ResolveEnvName picks the environment to read options for: the explicit
// name if set, else the first of default_envs, else the first [env:NAME].
// An empty result means only the shared [env] section applies.
func ResolveEnvName(p *Project, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if p == nil {
		return ""
	}
	if envs := p.DefaultEnvs(); len(envs) > 0 {
		return envs[0]
	}
	if envs := p.Envs(); len(envs) > 0 {
		return envs[0]
	}
	return ""
}

// Package buildenv provides the build-environment side of program naming:
// project options read from a PlatformIO project file and stores that
// receive build variables.
package buildenv

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrOptionNotFound is returned when no section defines the requested option.
var ErrOptionNotFound = errors.New("project option not found")

const (
	sectionPlatformIO = "platformio"
	sectionEnv        = "env"
	envSectionPrefix  = "env:"
	optionExtends     = "extends"

	maxInterpolationDepth = 10
)

var interpolationRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// Project is a parsed platformio.ini.
type Project struct {
	Path     string
	sections map[string]map[string]string
	order    []string
}

// LoadProject reads and parses the project file at path.
func LoadProject(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	defer f.Close()

	p, err := ParseProject(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// loadOptions maps platformio.ini syntax onto the ini reader: ":" and "="
// delimiters, case-insensitive option names, indented continuation lines and
// inline comments only after whitespace.
var loadOptions = ini.LoadOptions{
	InsensitiveKeys:            true,
	AllowPythonMultilineValues: true,
	SpaceBeforeInlineComment:   true,
	PreserveSurroundedQuote:    true,
	KeyValueDelimiters:         "=:",
}

// ParseProject parses platformio.ini syntax. Multi-line values are kept one
// entry per line with blank and comment lines dropped.
func ParseProject(r io.Reader) (*Project, error) {
	f, err := ini.LoadSources(loadOptions, io.NopCloser(r))
	if err != nil {
		return nil, err
	}
	if keys := f.Section(ini.DefaultSection).KeyStrings(); len(keys) > 0 {
		return nil, fmt.Errorf("option %q outside of a section", keys[0])
	}

	p := &Project{sections: make(map[string]map[string]string)}
	for _, sec := range f.Sections() {
		name := strings.TrimSpace(sec.Name())
		if name == ini.DefaultSection {
			continue
		}
		if name == "" {
			return nil, errors.New("empty section name")
		}
		opts, ok := p.sections[name]
		if !ok {
			opts = make(map[string]string)
			p.sections[name] = opts
			p.order = append(p.order, name)
		}
		for _, key := range sec.Keys() {
			opts[key.Name()] = normalizeValue(key.Value())
		}
	}
	return p, nil
}

// normalizeValue trims every line of a value and drops empty lines and
// comment-only lines, plus any inline comment left on continuation lines.
func normalizeValue(raw string) string {
	if !strings.Contains(raw, "\n") {
		return stripInlineComment(strings.TrimSpace(raw))
	}
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == ';' || line[0] == '#' {
			continue
		}
		if line = stripInlineComment(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// stripInlineComment drops a ";" or "#" comment that follows whitespace.
func stripInlineComment(s string) string {
	for i := 1; i < len(s); i++ {
		if (s[i] == ';' || s[i] == '#') && (s[i-1] == ' ' || s[i-1] == '\t') {
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}

// Sections returns section names in file order.
func (p *Project) Sections() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Envs returns the names of all [env:NAME] sections in file order.
func (p *Project) Envs() []string {
	var envs []string
	for _, s := range p.order {
		if strings.HasPrefix(s, envSectionPrefix) {
			envs = append(envs, strings.TrimPrefix(s, envSectionPrefix))
		}
	}
	return envs
}

// DefaultEnvs returns [platformio] default_envs, split on commas and newlines.
func (p *Project) DefaultEnvs() []string {
	return splitList(p.sections[sectionPlatformIO]["default_envs"])
}

// Option resolves name for environment env: [env:env] first, then the
// sections it extends (depth first, in listed order), then the common [env]
// section, then [platformio]. The value is returned interpolated.
func (p *Project) Option(env, name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if v, ok := p.lookup(env, name); ok {
		return p.interpolate(v, env, 0)
	}
	if env != "" {
		return "", fmt.Errorf("%w: %s (env %s)", ErrOptionNotFound, name, env)
	}
	return "", fmt.Errorf("%w: %s", ErrOptionNotFound, name)
}

// Get returns the raw value of section.name without fallback or interpolation.
func (p *Project) Get(section, name string) (string, bool) {
	v, ok := p.sections[section][strings.ToLower(name)]
	return v, ok
}

func (p *Project) lookup(env, name string) (string, bool) {
	for _, section := range p.lookupOrder(env) {
		if v, ok := p.sections[section][name]; ok {
			return v, true
		}
	}
	return "", false
}

func (p *Project) lookupOrder(env string) []string {
	var order []string
	if env != "" {
		order = p.withExtends(envSectionPrefix+env, order, map[string]bool{})
	}
	return append(order, sectionEnv, sectionPlatformIO)
}

// withExtends appends section and, recursively, every section named by its
// extends option. Cycles and unknown sections are skipped.
func (p *Project) withExtends(section string, order []string, seen map[string]bool) []string {
	if seen[section] {
		return order
	}
	seen[section] = true
	order = append(order, section)
	for _, parent := range splitList(p.sections[section][optionExtends]) {
		if _, ok := p.sections[parent]; ok {
			order = p.withExtends(parent, order, seen)
		}
	}
	return order
}

// splitList splits a comma or newline separated option value.
func splitList(raw string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }) {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// interpolate expands ${section.option}, ${this.option} and ${sysenv.NAME}.
func (p *Project) interpolate(value, env string, depth int) (string, error) {
	if !strings.Contains(value, "${") {
		return value, nil
	}
	if depth >= maxInterpolationDepth {
		return "", fmt.Errorf("interpolation too deep in %q", value)
	}

	var firstErr error
	out := interpolationRe.ReplaceAllStringFunc(value, func(ref string) string {
		if firstErr != nil {
			return ref
		}
		inner := strings.TrimSpace(ref[2 : len(ref)-1])
		section, option, ok := strings.Cut(inner, ".")
		if !ok {
			firstErr = fmt.Errorf("bad reference %s: want ${section.option}", ref)
			return ref
		}

		var (
			resolved string
			err      error
		)
		switch section {
		case "sysenv":
			resolved = os.Getenv(option)
		default:
			var (
				raw   string
				found bool
			)
			if section == "this" {
				raw, found = p.lookup(env, strings.ToLower(option))
			} else {
				raw, found = p.Get(section, option)
			}
			if !found {
				err = fmt.Errorf("%w: %s", ErrOptionNotFound, inner)
				break
			}
			resolved, err = p.interpolate(raw, env, depth+1)
		}
		if err != nil {
			firstErr = err
			return ref
		}
		return resolved
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

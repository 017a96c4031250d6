package testutil

import (
	"context"
	"sync"
)

// MockRevisioner implements progname.Revisioner without spawning git.
// It records how often each query ran.
type MockRevisioner struct {
	Head      string
	Dirty     bool
	HeadErr   error
	StatusErr error

	mu          sync.Mutex
	headCalls   int
	statusCalls int
}

// ShortHead returns Head or HeadErr.
func (m *MockRevisioner) ShortHead(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headCalls++
	if m.HeadErr != nil {
		return "", m.HeadErr
	}
	return m.Head, nil
}

// TrackedStatusDirty returns Dirty or StatusErr.
func (m *MockRevisioner) TrackedStatusDirty(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.StatusErr != nil {
		return false, m.StatusErr
	}
	return m.Dirty, nil
}

// Calls returns how many times each query ran.
func (m *MockRevisioner) Calls() (head, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.headCalls, m.statusCalls
}

// MockEnvironment implements progname.Environment over plain maps and
// records every Replace.
type MockEnvironment struct {
	Options    map[string]string
	OptionErr  error
	ReplaceErr error

	mu       sync.RWMutex
	vars     map[string]string
	replaced []Replacement
}

// Replacement captures one Replace call.
type Replacement struct {
	Key   string
	Value string
}

// NewMockEnvironment returns an environment exposing the given project options.
func NewMockEnvironment(options map[string]string) *MockEnvironment {
	return &MockEnvironment{
		Options: options,
		vars:    make(map[string]string),
	}
}

// ProjectOption looks name up in Options.
func (m *MockEnvironment) ProjectOption(name string) (string, error) {
	if m.OptionErr != nil {
		return "", m.OptionErr
	}
	v, ok := m.Options[name]
	if !ok {
		return "", ErrMissingOption
	}
	return v, nil
}

// Replace records the call and stores the value.
func (m *MockEnvironment) Replace(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaced = append(m.replaced, Replacement{Key: key, Value: value})
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.vars[key] = value
	return nil
}

// Var returns a stored build variable.
func (m *MockEnvironment) Var(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[key]
	return v, ok
}

// Replacements returns a copy of all recorded Replace calls.
func (m *MockEnvironment) Replacements() []Replacement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Replacement, len(m.replaced))
	copy(out, m.replaced)
	return out
}

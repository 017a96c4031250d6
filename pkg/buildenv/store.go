package buildenv

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/joho/godotenv"
)

// Store receives build variables.
type Store interface {
	Replace(key, value string) error
}

// Vars is an in-memory Store.
type Vars struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewVars returns an empty variable store.
func NewVars() *Vars {
	return &Vars{values: make(map[string]string)}
}

// Replace sets key to value, overwriting any previous value.
func (v *Vars) Replace(key, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[key] = value
	return nil
}

// Get returns the value stored under key.
func (v *Vars) Get(key string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[key]
	return val, ok
}

// Keys returns the stored keys in sorted order.
func (v *Vars) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns a copy of every stored variable.
func (v *Vars) All() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// DotEnv is a Store backed by a dotenv file. Replace rewrites one key and
// keeps every other entry of the file.
type DotEnv struct {
	Path string
}

// Replace sets key in the dotenv file, creating the file if needed.
func (d DotEnv) Replace(key, value string) error {
	vars, err := godotenv.Read(d.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		vars = make(map[string]string)
	case err != nil:
		return fmt.Errorf("read %s: %w", d.Path, err)
	}
	vars[key] = value
	if err := godotenv.Write(vars, d.Path); err != nil {
		return fmt.Errorf("write %s: %w", d.Path, err)
	}
	return nil
}

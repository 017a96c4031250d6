package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ErrMissingOption is returned by MockEnvironment for unknown options.
var ErrMissingOption = errors.New("mock: option not set")

// TempFile writes content to name inside a fresh temporary directory and
// returns the full path.
func TempFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// PlatformIOProject returns a minimal platformio.ini declaring version for
// the teensy2pp environment.
func PlatformIOProject(version string) string {
	return `; PlatformIO Project Configuration File
[platformio]
default_envs = teensy2pp

[env]
framework = arduino
project_version = ` + version + `

[env:teensy2pp]
platform = teensy
board = teensy2pp
extra_scripts = pre:progname.py
`
}

// Chdir changes the working directory to dir for the duration of the test
// and restores the previous directory on cleanup.
func Chdir(t testing.TB, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory %s: %v", prev, err)
		}
	})
}

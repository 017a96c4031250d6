package vcs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// result captures one finished git invocation.
type result struct {
	stdout   string
	stderr   string
	duration time.Duration
}

// run executes git with the repository as working directory. Every failure is
// returned as a *RevisionLookupError tagged with op.
func (g *Git) run(ctx context.Context, op string, args ...string) (result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = g.dir
	cmd.Env = sanitizedEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res := result{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		duration: time.Since(start),
	}
	if runErr == nil {
		return res, nil
	}

	lookupErr := &RevisionLookupError{
		Op:       op,
		Dir:      g.dir,
		ExitCode: 1,
		Stderr:   strings.TrimSpace(res.stderr),
		Err:      runErr,
	}
	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		lookupErr.ExitCode = 124
		lookupErr.Err = ctx.Err()
	case errors.As(runErr, &exitErr):
		lookupErr.ExitCode = exitErr.ExitCode()
	}
	return res, lookupErr
}

// sanitizedEnv passes only what git needs to locate its config and binaries.
func sanitizedEnv() []string {
	allow := []string{
		"PATH",
		"HOME",
		"USER",
		"LANG",
		"LC_ALL",
		"TMPDIR",
		"TEMP",
		"XDG_CONFIG_HOME",
		"GIT_CEILING_DIRECTORIES",
		"GIT_CONFIG_NOSYSTEM",
		"SystemRoot", // Windows
		"ComSpec",    // Windows
	}
	out := make([]string, 0, len(allow)+1)
	for _, key := range allow {
		if val, ok := os.LookupEnv(key); ok {
			out = append(out, key+"="+val)
		}
	}
	// status must never block on a concurrent index refresh lock.
	out = append(out, "GIT_OPTIONAL_LOCKS=0")
	return out
}

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RequireGit skips the test when the git binary is not on PATH.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// GitRepo is a throwaway repository under t.TempDir().
type GitRepo struct {
	t   testing.TB
	Dir string
}

// NewGitRepo initialises an empty repository (no commits yet).
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	RequireGit(t)
	dir := t.TempDir()
	// Keep git from discovering a repository that encloses the temp dir.
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	r := &GitRepo{t: t, Dir: dir}
	r.Git("init", "-q")
	return r
}

// NewCommittedRepo initialises a repository with one tracked file committed.
func NewCommittedRepo(t testing.TB) *GitRepo {
	t.Helper()
	r := NewGitRepo(t)
	r.WriteFile("src/main.cpp", "int main() { return 0; }\n")
	r.Commit("initial commit")
	return r
}

// NonRepoDir returns an empty directory git will not treat as a repository.
func NonRepoDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	return dir
}

// Git runs git in the repository and returns trimmed stdout. Identity and
// signing are pinned so commits work on any machine.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()
	full := append([]string{
		"-c", "user.name=Test User",
		"-c", "user.email=test@example.com",
		"-c", "commit.gpgsign=false",
	}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes a file relative to the repository root, creating parents.
func (r *GitRepo) WriteFile(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", name, err)
	}
}

// Commit stages everything and commits, returning the new short HEAD.
func (r *GitRepo) Commit(msg string) string {
	r.t.Helper()
	r.Git("add", "-A")
	r.Git("commit", "-q", "-m", msg)
	return r.ShortHead()
}

// ShortHead returns `git rev-parse --short HEAD`.
func (r *GitRepo) ShortHead() string {
	r.t.Helper()
	return r.Git("rev-parse", "--short", "HEAD")
}

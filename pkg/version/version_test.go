package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origDate
	})
	Version, Commit, BuildDate = v, commit, date
}

func stubBuildInfo(t *testing.T, settings ...debug.BuildSetting) {
	t.Helper()
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, true
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		name     string
		commit   string
		settings []debug.BuildSetting
		want     string
	}{
		{name: "unknown commit, no vcs info", commit: "unknown", want: "1.2.3"},
		{name: "empty commit, no vcs info", commit: "", want: "1.2.3"},
		{name: "stamped commit", commit: "abc123", want: "1.2.3 (abc123)"},
		{
			name:     "stamped commit wins over vcs info",
			commit:   "abc123",
			settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
			want:     "1.2.3 (abc123)",
		},
		{
			name:     "vcs revision shortened",
			commit:   "unknown",
			settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
			want:     "1.2.3 (0123456)",
		},
		{
			name:   "modified checkout marked dirty",
			commit: "unknown",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.modified", Value: "true"},
			},
			want: "1.2.3 (0123456dirty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubVersion(t, "1.2.3", tt.commit, "unknown")
			stubBuildInfo(t, tt.settings...)
			assert.Equal(t, tt.want, Short())
		})
	}
}

func TestShort_NoBuildInfo(t *testing.T) {
	stubVersion(t, "1.2.3", "unknown", "unknown")
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }

	assert.Equal(t, "1.2.3", Short())
}

func TestLine(t *testing.T) {
	stubVersion(t, "0.4.0", "f00dbab", "2026-10-18")
	assert.Equal(t, "progname 0.4.0 (f00dbab) built=2026-10-18", Line("progname"))
}

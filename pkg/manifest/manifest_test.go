package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/os303/progname/pkg/progname"
)

func stubHost(t *testing.T, h Host, err error) {
	t.Helper()
	orig := readHost
	t.Cleanup(func() { readHost = orig })
	readHost = func() (Host, error) { return h, err }
}

func stubNow(t *testing.T, ts time.Time) {
	t.Helper()
	orig := now
	t.Cleanup(func() { now = orig })
	now = func() time.Time { return ts }
}

var testName = progname.Name{Prefix: "OS-303", Version: "1.2.3", Revision: "a1b2c3d", Dirty: true}

func TestNew(t *testing.T) {
	stubHost(t, Host{Hostname: "builder", OS: "linux", Platform: "debian", KernelArch: "x86_64"}, nil)
	ts := time.Date(2026, 10, 18, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	stubNow(t, ts)

	m, err := New(testName, progname.Variable, false)
	require.NoError(t, err)

	_, parseErr := uuid.Parse(m.BuildID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "OS-303_v1.2.3_a1b2c3ddirty", m.ProgramName)
	assert.Equal(t, "PROGNAME", m.Variable)
	assert.True(t, m.Dirty)
	assert.False(t, m.Fallback)
	assert.Equal(t, ts.UTC(), m.GeneratedAt)
	assert.Equal(t, "builder", m.Host.Hostname)
	assert.NotEmpty(t, m.ToolVersion)
	assert.Equal(t, testName, m.Name())
}

func TestNew_HostInfoUnavailable(t *testing.T) {
	stubHost(t, Host{OS: "linux"}, errors.New("no /proc"))

	m, err := New(testName, progname.Variable, true)
	require.Error(t, err)
	require.NotNil(t, m, "manifest is still usable without host facts")
	assert.Equal(t, "linux", m.Host.OS)
	assert.True(t, m.Fallback)
}

func TestNew_UniqueBuildIDs(t *testing.T) {
	stubHost(t, Host{}, nil)

	a, err := New(testName, progname.Variable, false)
	require.NoError(t, err)
	b, err := New(testName, progname.Variable, false)
	require.NoError(t, err)
	assert.NotEqual(t, a.BuildID, b.BuildID)
}

func TestWriteAndRead(t *testing.T) {
	stubHost(t, Host{Hostname: "builder"}, nil)
	stubNow(t, time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC))

	m, err := New(testName, progname.Variable, false)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "OS-303_v1.2.3_a1b2c3ddirty.json")
	require.NoError(t, m.Write(path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, m.BuildID, got.BuildID)
	assert.Equal(t, m.ProgramName, got.ProgramName)
	assert.Equal(t, m.Name(), got.Name())
	assert.Equal(t, m.Host, got.Host)
	assert.True(t, m.GeneratedAt.Equal(got.GeneratedAt))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"program_name": "OS-303_v1.2.3_a1b2c3ddirty"`)
	assert.NotContains(t, string(raw), `"fallback"`)
}

func TestWrite_ReplacesExisting(t *testing.T) {
	stubHost(t, Host{}, nil)
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	m, err := New(testName, progname.Variable, false)
	require.NoError(t, err)
	require.NoError(t, m.Write(path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, m.BuildID, got.BuildID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWrite_MissingDirectory(t *testing.T) {
	stubHost(t, Host{}, nil)
	m, err := New(testName, progname.Variable, false)
	require.NoError(t, err)

	err = m.Write(filepath.Join(t.TempDir(), "missing", "manifest.json"))
	assert.Error(t, err)
}

func TestRead_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode manifest")
}

package progname

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/os303/progname/pkg/testutil"
	"github.com/os303/progname/pkg/vcs"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		revision string
		dirty    bool
		want     string
	}{
		{name: "clean", version: "1.2.3", revision: "a1b2c3d", want: "OS-303_v1.2.3_a1b2c3d"},
		{name: "dirty appends marker without separator", version: "1.2.3", revision: "a1b2c3d", dirty: true, want: "OS-303_v1.2.3_a1b2c3ddirty"},
		{name: "prerelease version", version: "0.9.0-beta", revision: "0f0f0f0", want: "OS-303_v0.9.0-beta_0f0f0f0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(DefaultPrefix, tt.version, tt.revision, tt.dirty))
			name := Name{Prefix: DefaultPrefix, Version: tt.version, Revision: tt.revision, Dirty: tt.dirty}
			assert.Equal(t, tt.want, name.String())
		})
	}
}

func TestCompute(t *testing.T) {
	t.Run("clean tree", func(t *testing.T) {
		rev := &testutil.MockRevisioner{Head: "a1b2c3d"}
		name, err := New(rev, Options{}, nil).Compute(context.Background(), "1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "OS-303_v1.2.3_a1b2c3d", name.String())
		assert.Equal(t, Name{Prefix: "OS-303", Version: "1.2.3", Revision: "a1b2c3d"}, name)
	})

	t.Run("dirty tree", func(t *testing.T) {
		rev := &testutil.MockRevisioner{Head: "a1b2c3d", Dirty: true}
		name, err := New(rev, Options{}, nil).Compute(context.Background(), "1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "OS-303_v1.2.3_a1b2c3ddirty", name.String())
	})

	t.Run("revision whitespace stripped", func(t *testing.T) {
		rev := &testutil.MockRevisioner{Head: "  a1b2c3d\n"}
		name, err := New(rev, Options{}, nil).Compute(context.Background(), "1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "a1b2c3d", name.Revision)
	})

	t.Run("version used verbatim", func(t *testing.T) {
		rev := &testutil.MockRevisioner{Head: "a1b2c3d"}
		name, err := New(rev, Options{}, nil).Compute(context.Background(), " 1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "OS-303_v 1.2.3_a1b2c3d", name.String())
	})

	t.Run("custom prefix", func(t *testing.T) {
		rev := &testutil.MockRevisioner{Head: "a1b2c3d"}
		name, err := New(rev, Options{Prefix: "TB-303"}, nil).Compute(context.Background(), "2.0.0")
		require.NoError(t, err)
		assert.Equal(t, "TB-303_v2.0.0_a1b2c3d", name.String())
	})

	t.Run("empty version rejected before querying", func(t *testing.T) {
		rev := &testutil.MockRevisioner{Head: "a1b2c3d"}
		_, err := New(rev, Options{}, nil).Compute(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrEmptyVersion)

		head, status := rev.Calls()
		assert.Zero(t, head)
		assert.Zero(t, status)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		rev := &testutil.MockRevisioner{Head: "a1b2c3d", Dirty: true}
		n := New(rev, Options{}, nil)
		first, err := n.Compute(context.Background(), "1.2.3")
		require.NoError(t, err)
		second, err := n.Compute(context.Background(), "1.2.3")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestCompute_LookupErrors(t *testing.T) {
	t.Run("head failure keeps lookup error as is", func(t *testing.T) {
		orig := &vcs.RevisionLookupError{Op: vcs.OpShortHead, Dir: "/nowhere", ExitCode: 128}
		rev := &testutil.MockRevisioner{HeadErr: orig}

		_, err := New(rev, Options{}, nil).Compute(context.Background(), "1.2.3")
		var rle *vcs.RevisionLookupError
		require.True(t, errors.As(err, &rle))
		assert.Same(t, orig, rle)

		_, status := rev.Calls()
		assert.Zero(t, status, "status must not run after head failed")
	})

	t.Run("plain status failure is wrapped", func(t *testing.T) {
		cause := errors.New("permission denied")
		rev := &testutil.MockRevisioner{Head: "a1b2c3d", StatusErr: cause}

		_, err := New(rev, Options{}, nil).Compute(context.Background(), "1.2.3")
		var rle *vcs.RevisionLookupError
		require.True(t, errors.As(err, &rle))
		assert.Equal(t, vcs.OpTrackedStatus, rle.Op)
		assert.ErrorIs(t, err, cause)
	})
}

func TestApply(t *testing.T) {
	t.Run("reads version and sets variable", func(t *testing.T) {
		env := testutil.NewMockEnvironment(map[string]string{VersionOption: "1.2.3"})
		rev := &testutil.MockRevisioner{Head: "a1b2c3d"}

		name, err := New(rev, Options{}, nil).Apply(context.Background(), env)
		require.NoError(t, err)
		assert.Equal(t, "OS-303_v1.2.3_a1b2c3d", name.String())

		got, ok := env.Var(Variable)
		require.True(t, ok)
		assert.Equal(t, "OS-303_v1.2.3_a1b2c3d", got)
		assert.Equal(t, []testutil.Replacement{{Key: "PROGNAME", Value: "OS-303_v1.2.3_a1b2c3d"}}, env.Replacements())
	})

	t.Run("custom variable and option names", func(t *testing.T) {
		env := testutil.NewMockEnvironment(map[string]string{"fw_version": "3.1.0"})
		rev := &testutil.MockRevisioner{Head: "deadbee", Dirty: true}

		_, err := New(rev, Options{Variable: "FIRMWARE_NAME", VersionOption: "fw_version"}, nil).
			Apply(context.Background(), env)
		require.NoError(t, err)

		got, _ := env.Var("FIRMWARE_NAME")
		assert.Equal(t, "OS-303_v3.1.0_deadbeedirty", got)
		_, ok := env.Var(Variable)
		assert.False(t, ok)
	})

	t.Run("missing version option", func(t *testing.T) {
		env := testutil.NewMockEnvironment(map[string]string{})
		rev := &testutil.MockRevisioner{Head: "a1b2c3d"}

		_, err := New(rev, Options{}, nil).Apply(context.Background(), env)
		assert.ErrorIs(t, err, testutil.ErrMissingOption)
		assert.True(t, strings.Contains(err.Error(), VersionOption))
		assert.Empty(t, env.Replacements())
	})

	t.Run("lookup failure leaves store untouched", func(t *testing.T) {
		env := testutil.NewMockEnvironment(map[string]string{VersionOption: "1.2.3"})
		rev := &testutil.MockRevisioner{HeadErr: &vcs.RevisionLookupError{Op: vcs.OpShortHead}}

		_, err := New(rev, Options{}, nil).Apply(context.Background(), env)
		assert.True(t, vcs.IsRevisionLookup(err))
		assert.Empty(t, env.Replacements())
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		env := testutil.NewMockEnvironment(map[string]string{VersionOption: "1.2.3"})
		env.ReplaceErr = errors.New("read-only")
		rev := &testutil.MockRevisioner{Head: "a1b2c3d"}

		_, err := New(rev, Options{}, nil).Apply(context.Background(), env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "set PROGNAME")
	})
}

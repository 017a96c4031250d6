// Package progname derives the firmware program name from the project version
// and the state of the git working copy, e.g. OS-303_v1.2.3_a1b2c3d or
// OS-303_v1.2.3_a1b2c3ddirty.
package progname

const (
	// DefaultPrefix tags every program name with the product.
	DefaultPrefix = "OS-303"
	// Variable is the build variable the toolchain names artifacts after.
	Variable = "PROGNAME"
	// VersionOption is the project option holding the semantic version.
	VersionOption = "project_version"
	// DirtyMarker is appended directly to the revision when tracked files
	// have uncommitted changes.
	DirtyMarker = "dirty"
)

// Name is the program name and the parts it is built from. It is a value:
// construct it once per build and never change it.
type Name struct {
	Prefix   string `json:"prefix"`
	Version  string `json:"version"`
	Revision string `json:"revision"`
	Dirty    bool   `json:"dirty"`
}

func (n Name) String() string {
	return Format(n.Prefix, n.Version, n.Revision, n.Dirty)
}

// Format renders <prefix>_v<version>_<revision>[dirty].
func Format(prefix, version, revision string, dirty bool) string {
	name := prefix + "_v" + version + "_" + revision
	if dirty {
		name += DirtyMarker
	}
	return name
}

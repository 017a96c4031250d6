// Package version reports which build of progname is running.
package version

import (
	"fmt"
	"runtime/debug"
)

// Release builds stamp these with -ldflags "-X <pkg>.Version=1.0.0 ...".
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// Short is Version followed by the commit in parentheses. Without a stamped
// commit it uses the vcs.revision recorded by the go tool, if any.
func Short() string {
	commit := Commit
	if commit == "" || commit == "unknown" {
		commit = embeddedRevision()
	}
	if commit == "" {
		return Version
	}
	return Version + " (" + commit + ")"
}

// Line is what `progname version` prints.
func Line(binary string) string {
	return fmt.Sprintf("%s %s built=%s", binary, Short(), BuildDate)
}

func embeddedRevision() string {
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev != "" && modified {
		rev += "dirty"
	}
	return rev
}

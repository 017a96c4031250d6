package vcs

import "strings"

// Change is one entry of `git status --porcelain -z`.
type Change struct {
	// Status is the two-letter XY code, e.g. " M" or "R ".
	Status string
	Path   string
	// From is the source path of a rename or copy.
	From string
}

// parseStatus decodes porcelain v1 output in -z form. Entries are NUL
// terminated and paths are never quoted; renames and copies carry their
// source path in the following entry.
func parseStatus(out string) []Change {
	var changes []Change
	entries := strings.Split(out, "\x00")
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if len(entry) < 4 || entry[2] != ' ' {
			continue
		}
		c := Change{Status: entry[:2], Path: entry[3:]}
		if isRenameOrCopy(c.Status) && i+1 < len(entries) {
			i++
			c.From = entries[i]
		}
		changes = append(changes, c)
	}
	return changes
}

func isRenameOrCopy(xy string) bool {
	return strings.ContainsAny(xy, "RC")
}

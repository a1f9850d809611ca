package launcher

import (
	"path/filepath"
	"strings"
)

// desktop-entry Exec field codes, expanded by launchers with file/URL
// arguments we never supply. They are stripped before spawning.
var fieldCodes = map[string]bool{
	"%u": true, "%U": true,
	"%f": true, "%F": true,
	"%i": true, "%c": true, "%k": true,
}

// StripFieldCodes removes the Exec-line field codes, collapsing the
// whitespace they leave behind.
func StripFieldCodes(execLine string) string {
	fields := strings.Fields(execLine)
	kept := fields[:0]
	for _, f := range fields {
		if fieldCodes[f] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// ExecBinaryName extracts the basename of the first token of an Exec line,
// the name used both for the final launch strategy and for matching windows
// when closing.
func ExecBinaryName(execLine string) string {
	stripped := StripFieldCodes(execLine)
	fields := strings.Fields(stripped)
	if len(fields) == 0 {
		return ""
	}
	first := fields[0]
	// `env VAR=x real-binary` shaped Exec lines: skip env and assignments.
	if filepath.Base(first) == "env" {
		for _, f := range fields[1:] {
			if strings.Contains(f, "=") {
				continue
			}
			first = f
			break
		}
	}
	return filepath.Base(first)
}

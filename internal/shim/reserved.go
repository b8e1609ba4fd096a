package shim

import (
	"path/filepath"
	"strings"
)

// Reserved is a pseudo-target rewritten to a front-end subcommand.
type Reserved struct {
	Target     string
	Subcommand string
}

var reserved = map[string]Reserved{
	"xim":      {Target: "xlings", Subcommand: "install"},
	"xinstall": {Target: "xlings", Subcommand: "install"},
	"xself":    {Target: "xlings", Subcommand: "self"},
}

// LookupReserved returns the rewrite for name, if any.
func LookupReserved(name string) (Reserved, bool) {
	r, ok := reserved[name]
	return r, ok
}

// Rewrite maps a shim name and its arguments to the target that should run.
func Rewrite(name string, args []string) (string, []string) {
	r, ok := LookupReserved(name)
	if !ok {
		return name, args
	}
	return r.Target, append([]string{r.Subcommand}, args...)
}

// ProgramName returns the base name of argv0 without its executable suffix.
func ProgramName(argv0 string) string {
	base := filepath.Base(argv0)
	for _, suffix := range []string{".exe", ".EXE", ".bat", ".BAT"} {
		if trimmed, ok := strings.CutSuffix(base, suffix); ok {
			return trimmed
		}
	}
	return base
}

// IsManagerBinary reports whether name should run the CLI rather than dispatch.
func IsManagerBinary(name string) bool {
	return name == ManagerName || name == DispatcherName
}

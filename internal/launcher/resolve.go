package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xvm/internal/shim"
)

// ErrExecutableNotFound reports that no candidate file exists under the
// recorded install path.
var ErrExecutableNotFound = errors.New("executable not found")

// NotFoundError lists every location probed for a program.
type NotFoundError struct {
	Name   string
	Path   string
	Probed []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (tried %s)", ErrExecutableNotFound, e.Name, strings.Join(e.Probed, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrExecutableNotFound }

// Invocation is the resolved program and the argv prefix placed before the
// user's arguments.
type Invocation struct {
	Executable string
	Prefix     []string
	// Base is the canonical install directory when the program came from the
	// recorded path.
	Base string
	// FromPath is true when Executable was found under the recorded path.
	FromPath bool
	// Bare is true when Executable is just the target name.
	Bare bool
}

// Resolve picks what to execute: the alias wrapper when an alias is set, a
// file under the install path (named by filename when set) when one is
// recorded, otherwise the bare name.
func (l *Launcher) Resolve() (Invocation, error) {
	if l.alias != "" {
		return Invocation{
			Executable: shim.AliasWrapperPath(l.plat, l.layout.BinDir),
			Prefix:     strings.Fields(l.alias),
		}, nil
	}
	if l.path == "" {
		return Invocation{Executable: l.name, Bare: true}, nil
	}

	base := l.path
	if !filepath.IsAbs(base) {
		base = filepath.Join(l.layout.SubosDir, base)
	}
	if canonical, err := filepath.EvalSymlinks(base); err == nil {
		base = canonical
	}

	program := l.name
	if l.filename != "" {
		program = l.filename
	}
	var probed []string
	for _, dir := range []string{base, filepath.Join(base, "bin")} {
		for _, suffix := range l.plat.ExecutableSuffixes() {
			candidate := filepath.Join(dir, program+suffix)
			probed = append(probed, candidate)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return Invocation{Executable: candidate, Base: base, FromPath: true}, nil
			}
		}
	}
	return Invocation{}, &NotFoundError{Name: l.name, Path: l.path, Probed: probed}
}

// Package platform describes the operating-system differences the launcher
// and shim layers depend on.
package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// Platform is the set of OS capabilities used when composing environments,
// locating executables and creating shims.
type Platform interface {
	// Name returns the GOOS-style identifier.
	Name() string
	// ListSeparator joins entries of PATH-like variables.
	ListSeparator() string
	// ExecutableSuffixes lists the file suffixes probed for a program name.
	ExecutableSuffixes() []string
	// ShimSuffix is appended to shim file names.
	ShimSuffix() string
	// ScriptSuffix is appended to generated wrapper scripts.
	ScriptSuffix() string
	// WrapperScript returns the contents of a script that executes its arguments.
	WrapperScript() string
	// LibraryPathEnv names the dynamic loader search variable, or "".
	LibraryPathEnv() string
	// LibDirOnPath reports whether shared libraries are found through PATH.
	LibDirOnPath() bool
	// EnvCaseInsensitive reports whether environment keys ignore case.
	EnvCaseInsensitive() bool
	// LoaderCandidates lists dynamic loaders tried when a binary's interpreter is missing.
	LoaderCandidates() []string
	// Symlink creates newname pointing at oldname.
	Symlink(oldname, newname string) error
}

type osPlatform struct {
	name          string
	listSep       string
	exeSuffixes   []string
	shimSuffix    string
	scriptSuffix  string
	wrapper       string
	libraryEnv    string
	libDirOnPath  bool
	caseFoldedEnv bool
	loaders       []string
}

func (p osPlatform) Name() string                 { return p.name }
func (p osPlatform) ListSeparator() string        { return p.listSep }
func (p osPlatform) ExecutableSuffixes() []string { return append([]string(nil), p.exeSuffixes...) }
func (p osPlatform) ShimSuffix() string           { return p.shimSuffix }
func (p osPlatform) ScriptSuffix() string         { return p.scriptSuffix }
func (p osPlatform) WrapperScript() string        { return p.wrapper }
func (p osPlatform) LibraryPathEnv() string       { return p.libraryEnv }
func (p osPlatform) LibDirOnPath() bool           { return p.libDirOnPath }
func (p osPlatform) EnvCaseInsensitive() bool     { return p.caseFoldedEnv }
func (p osPlatform) LoaderCandidates() []string   { return append([]string(nil), p.loaders...) }

func (p osPlatform) Symlink(oldname, newname string) error {
	return os.Symlink(oldname, newname)
}

const unixWrapper = "#!/bin/sh\nexec \"$@\"\n"

// Linux returns the Linux capability set.
func Linux() Platform {
	return osPlatform{
		name:        "linux",
		listSep:     ":",
		exeSuffixes: []string{""},
		wrapper:     unixWrapper,
		libraryEnv:  "LD_LIBRARY_PATH",
		loaders: []string{
			"/lib64/ld-linux-x86-64.so.2",
			"/lib/x86_64-linux-gnu/ld-linux-x86-64.so.2",
			"/lib/ld-linux-aarch64.so.1",
			"/lib/aarch64-linux-gnu/ld-linux-aarch64.so.1",
		},
	}
}

// Darwin returns the macOS capability set.
func Darwin() Platform {
	return osPlatform{
		name:        "darwin",
		listSep:     ":",
		exeSuffixes: []string{""},
		wrapper:     unixWrapper,
		libraryEnv:  "DYLD_LIBRARY_PATH",
	}
}

// Windows returns the Windows capability set.
func Windows() Platform {
	return osPlatform{
		name:          "windows",
		listSep:       ";",
		exeSuffixes:   []string{".exe", ".bat"},
		shimSuffix:    ".exe",
		scriptSuffix:  ".bat",
		wrapper:       "@echo off\r\n%*\r\n",
		libDirOnPath:  true,
		caseFoldedEnv: true,
	}
}

// Unix returns a generic POSIX capability set without loader handling.
func Unix(name string) Platform {
	return osPlatform{
		name:        name,
		listSep:     ":",
		exeSuffixes: []string{""},
		wrapper:     unixWrapper,
	}
}

// LookPath searches the entries of pathList, split on p's list separator, for
// an executable called name, skipping any directory listed in skip.
func LookPath(p Platform, name, pathList string, skip ...string) (string, bool) {
	excluded := make(map[string]struct{}, len(skip))
	for _, dir := range skip {
		excluded[filepath.Clean(dir)] = struct{}{}
	}
	for _, dir := range strings.Split(pathList, p.ListSeparator()) {
		if dir == "" {
			continue
		}
		if _, ok := excluded[filepath.Clean(dir)]; ok {
			continue
		}
		for _, suffix := range p.ExecutableSuffixes() {
			candidate := filepath.Join(dir, name+suffix)
			if isExecutable(p, candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func isExecutable(p Platform, path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if p.Name() == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

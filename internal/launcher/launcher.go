// Package launcher turns a registry record into a running child process.
package launcher

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"xvm/internal/paths"
	"xvm/internal/platform"
	"xvm/internal/registry"
)

// Env is one declared environment variable.
type Env struct {
	Key   string
	Value string
}

// Launcher holds everything needed to run or link one target version.
type Launcher struct {
	name     string
	version  string
	typ      registry.TargetType
	filename string
	alias    string
	path     string

	pathFragment []string
	libFragment  []string
	envs         []Env
	bindings     []registry.Binding
	args         []string

	layout  paths.Layout
	plat    platform.Platform
	logger  zerolog.Logger
	environ func() []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// Option customises a Launcher.
type Option func(*Launcher)

// WithPlatform overrides the detected platform.
func WithPlatform(p platform.Platform) Option {
	return func(l *Launcher) { l.plat = p }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Launcher) { l.logger = logger }
}

// WithEnviron replaces os.Environ as the inherited environment.
func WithEnviron(fn func() []string) Option {
	return func(l *Launcher) { l.environ = fn }
}

// WithStdio replaces the standard streams handed to the child.
func WithStdio(in io.Reader, out, errOut io.Writer) Option {
	return func(l *Launcher) {
		l.stdin, l.stdout, l.stderr = in, out, errOut
	}
}

// New returns a launcher for name@version using layout for bin/lib dirs and
// placeholder expansion.
func New(name, version string, layout paths.Layout, opts ...Option) *Launcher {
	l := &Launcher{
		name:    name,
		version: version,
		typ:     registry.TypeDirect,
		layout:  layout,
		plat:    platform.Current(),
		logger:  zerolog.Nop(),
		environ: os.Environ,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Launcher) Name() string    { return l.name }
func (l *Launcher) Version() string { return l.version }

// SetType records the target type; empty means direct.
func (l *Launcher) SetType(t registry.TargetType) {
	if t == "" {
		t = registry.TypeDirect
	}
	l.typ = t
}

// SetFilename records the on-disk name override.
func (l *Launcher) SetFilename(filename string) { l.filename = filename }

// SetAlias records the alias command line.
func (l *Launcher) SetAlias(alias string) { l.alias = alias }

// SetPath records the install location. It is also placed at the front of
// the PATH fragment.
func (l *Launcher) SetPath(path string) {
	l.path = path
	if path != "" {
		l.pathFragment = append([]string{path}, l.pathFragment...)
	}
}

// AddEnv declares an environment variable. PATH and the library path
// variables accumulate into fragments; other keys keep declaration order.
func (l *Launcher) AddEnv(key, value string) {
	switch {
	case l.isPathKey(key):
		l.pathFragment = append(l.pathFragment, value)
	case l.isLibKey(key):
		l.libFragment = append(l.libFragment, value)
	default:
		l.envs = append(l.envs, Env{Key: key, Value: value})
	}
}

// AddArgs appends arguments passed to the child.
func (l *Launcher) AddArgs(args ...string) {
	l.args = append(l.args, args...)
}

// SetBindings records the outgoing binding edges for Info.
func (l *Launcher) SetBindings(bindings []registry.Binding) {
	l.bindings = append([]registry.Binding(nil), bindings...)
}

// Hydrate copies a record into the launcher, expanding placeholders in the
// path and every env value.
func (l *Launcher) Hydrate(rec registry.VersionRecord) {
	l.SetAlias(rec.Alias)
	l.SetPath(l.layout.ResolvePath(rec.Path))
	rec.Envs.Each(func(key, value string) bool {
		l.AddEnv(key, l.layout.Expand(value))
		return true
	})
	rec.Bindings.Each(func(target, version string) bool {
		l.bindings = append(l.bindings, registry.Binding{Target: target, Version: version})
		return true
	})
}

func (l *Launcher) isPathKey(key string) bool {
	if l.plat.EnvCaseInsensitive() {
		return strings.EqualFold(key, "PATH")
	}
	return key == "PATH"
}

// libraryKeys are the loader search variables recorded by any platform.
// Whichever one a record declares feeds the host's library fragment.
var libraryKeys = []string{"LD_LIBRARY_PATH", "DYLD_LIBRARY_PATH"}

func (l *Launcher) isLibKey(key string) bool {
	for _, name := range libraryKeys {
		if key == name || (l.plat.EnvCaseInsensitive() && strings.EqualFold(key, name)) {
			return true
		}
	}
	return key != "" && key == l.plat.LibraryPathEnv()
}

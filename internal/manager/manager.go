// Package manager is the per-invocation context tying the registry,
// workspaces, shims and launchers together behind the user-facing actions.
package manager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"xvm/internal/binding"
	"xvm/internal/launcher"
	"xvm/internal/paths"
	"xvm/internal/platform"
	"xvm/internal/registry"
	"xvm/internal/shim"
	"xvm/internal/workspace"
)

var (
	// ErrMalformedBinding reports a binding argument that is not name@version.
	ErrMalformedBinding = errors.New("malformed binding, expected <name>@<version>")
	// ErrNoSelection reports a run or info request for a target with no
	// version selected in the effective workspace.
	ErrNoSelection = errors.New("no version selected")
	// ErrRenameDeclined reports a workspace rename the user refused.
	ErrRenameDeclined = errors.New("workspace rename declined")
)

// VersionNotFoundError names the requested version and what is installed.
type VersionNotFoundError struct {
	Target    string
	Requested string
	Available []string
}

func (e *VersionNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s@%s: %v", e.Target, e.Requested, registry.ErrVersionNotFound)
	}
	return fmt.Sprintf("%s@%s: %v (available: %s)", e.Target, e.Requested,
		registry.ErrVersionNotFound, strings.Join(e.Available, ", "))
}

func (e *VersionNotFoundError) Unwrap() error { return registry.ErrVersionNotFound }

// Manager carries the state one CLI invocation works on.
type Manager struct {
	layout     paths.Layout
	registry   *registry.Registry
	global     *workspace.Workspace
	shims      *shim.Manager
	resolver   *binding.Resolver
	plat       platform.Platform
	logger     zerolog.Logger
	dispatcher string
	environ    func() []string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

// Option customises a Manager.
type Option func(*Manager)

// WithLogger sets the logger shared by every component.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithPlatform overrides the detected platform.
func WithPlatform(p platform.Platform) Option {
	return func(m *Manager) { m.plat = p }
}

// WithDispatcher sets the binary cloned into every shim.
func WithDispatcher(path string) Option {
	return func(m *Manager) { m.dispatcher = path }
}

// WithEnviron replaces os.Environ for launched children.
func WithEnviron(fn func() []string) Option {
	return func(m *Manager) { m.environ = fn }
}

// WithStdio replaces the streams handed to launched children.
func WithStdio(in io.Reader, out, errOut io.Writer) Option {
	return func(m *Manager) { m.stdin, m.stdout, m.stderr = in, out, errOut }
}

// Open loads the registry and the global workspace and prepares the bin dir.
// A registry read in the legacy layout is rewritten immediately.
func Open(layout paths.Layout, opts ...Option) (*Manager, error) {
	m := &Manager{
		layout:  layout,
		plat:    platform.Current(),
		logger:  zerolog.Nop(),
		environ: os.Environ,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(m)
	}

	reg, err := registry.Open(layout.RegistryFile, registry.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	if reg.Migrated() {
		if err := reg.Save(); err != nil {
			return nil, err
		}
	}
	global, err := workspace.LoadGlobal(layout.GlobalWorkspaceFile)
	if err != nil {
		return nil, err
	}

	m.registry = reg
	m.global = global
	m.shims = shim.NewManager(m.dispatcher, shim.WithPlatform(m.plat), shim.WithLogger(m.logger))
	if err := m.shims.Init(layout.BinDir); err != nil {
		return nil, err
	}
	m.resolver = binding.NewResolver(reg,
		binding.WithLinker(m.refreshLink),
		binding.WithLogger(m.logger),
	)
	return m, nil
}

func (m *Manager) Layout() paths.Layout         { return m.layout }
func (m *Manager) Registry() *registry.Registry { return m.registry }
func (m *Manager) Global() *workspace.Workspace { return m.global }
func (m *Manager) Shims() *shim.Manager         { return m.shims }
func (m *Manager) Logger() zerolog.Logger       { return m.logger }

// ParsePair splits "name@version".
func ParsePair(spec string) (binding.Pair, error) {
	target, version, ok := strings.Cut(spec, "@")
	target, version = strings.TrimSpace(target), strings.TrimSpace(version)
	if !ok || target == "" || version == "" {
		return binding.Pair{}, fmt.Errorf("%w: %q", ErrMalformedBinding, spec)
	}
	return binding.Pair{Target: target, Version: version}, nil
}

func (m *Manager) newLauncher(target, version string, rec registry.VersionRecord) *launcher.Launcher {
	l := launcher.New(target, version, m.layout,
		launcher.WithPlatform(m.plat),
		launcher.WithLogger(m.logger),
		launcher.WithEnviron(m.environ),
		launcher.WithStdio(m.stdin, m.stdout, m.stderr),
	)
	l.SetType(m.registry.Type(target))
	l.SetFilename(m.registry.Filename(target))
	l.Hydrate(rec)
	return l
}

// Launcher builds a launcher for target@version from its registry record.
func (m *Manager) Launcher(target, version string) (*launcher.Launcher, error) {
	rec, ok := m.registry.Record(target, version)
	if !ok {
		return nil, m.versionNotFound(target, version)
	}
	return m.newLauncher(target, version, rec), nil
}

func (m *Manager) refreshLink(target, version string) error {
	l, err := m.Launcher(target, version)
	if err != nil {
		return err
	}
	return l.LinkTo(m.layout.LibDir, true)
}

func (m *Manager) versionNotFound(target, version string) error {
	if !m.registry.HasTarget(target) {
		return fmt.Errorf("%w: %s", registry.ErrTargetNotFound, target)
	}
	return &VersionNotFoundError{Target: target, Requested: version, Available: m.registry.AllVersions(target)}
}

// resolveVersion maps a requested version (exact or prefix) to an installed one.
func (m *Manager) resolveVersion(target, requested string) (string, error) {
	if !m.registry.HasTarget(target) {
		return "", fmt.Errorf("%w: %s", registry.ErrTargetNotFound, target)
	}
	if m.registry.HasVersion(target, requested) {
		return requested, nil
	}
	if version, ok := m.registry.MatchFirstVersion(target, requested); ok {
		return version, nil
	}
	return "", m.versionNotFound(target, requested)
}

// install creates the shim, or the library link for lib targets.
func (m *Manager) install(target, version string) (bool, error) {
	if m.registry.Type(target) == registry.TypeLib {
		l, err := m.Launcher(target, version)
		if err != nil {
			return false, err
		}
		if err := l.LinkTo(m.layout.LibDir, false); err != nil {
			m.logger.Warn().Err(err).Str("target", target).Msg("link library")
			return false, nil
		}
		return true, nil
	}
	return m.shims.TryCreate(target, m.layout.BinDir)
}

// uninstall removes the shim or library link; failures are logged.
func (m *Manager) uninstall(target string, lib *launcher.Launcher) {
	if lib != nil {
		if err := lib.Unlink(m.layout.LibDir); err != nil {
			m.logger.Warn().Err(err).Str("target", target).Msg("remove library link")
		}
		return
	}
	if _, err := m.shims.Delete(target, m.layout.BinDir); err != nil {
		m.logger.Warn().Err(err).Str("target", target).Msg("remove shim")
	}
}

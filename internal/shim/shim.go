// Package shim manages the per-target shim executables in the bin directory
// and the dispatch logic those shims run.
package shim

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"xvm/internal/platform"
)

const (
	// ManagerName is the CLI binary name.
	ManagerName = "xvm"
	// DispatcherName is the canonical shim binary name.
	DispatcherName = "xvm-shim"
	// AliasWrapper is the script that executes alias command lines.
	AliasWrapper = "xvm-alias"
)

// Manager creates and deletes shims by linking or copying the dispatcher.
type Manager struct {
	dispatcher string
	plat       platform.Platform
	logger     zerolog.Logger
}

// Option customises a Manager.
type Option func(*Manager)

// WithPlatform overrides the detected platform.
func WithPlatform(p platform.Platform) Option {
	return func(m *Manager) { m.plat = p }
}

// WithLogger sets the logger used for link fallbacks.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager returns a Manager that clones dispatcher for every shim.
func NewManager(dispatcher string, opts ...Option) *Manager {
	m := &Manager{dispatcher: dispatcher, plat: platform.Current(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatcher returns the binary that shims are cloned from.
func (m *Manager) Dispatcher() string { return m.dispatcher }

// Path returns the shim location for target inside dir.
func (m *Manager) Path(target, dir string) string {
	return filepath.Join(dir, target+m.plat.ShimSuffix())
}

// AliasWrapperPath returns the alias wrapper script location inside dir.
func (m *Manager) AliasWrapperPath(dir string) string {
	return AliasWrapperPath(m.plat, dir)
}

// AliasWrapperPath returns the alias wrapper script location inside dir.
func AliasWrapperPath(p platform.Platform, dir string) string {
	return filepath.Join(dir, AliasWrapper+p.ScriptSuffix())
}

// Exists reports whether a shim for target exists in dir.
func (m *Manager) Exists(target, dir string) bool {
	_, err := os.Lstat(m.Path(target, dir))
	return err == nil
}

// Init writes the alias wrapper script into dir when it is missing.
func (m *Manager) Init(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bin directory: %w", err)
	}
	path := m.AliasWrapperPath(dir)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(m.plat.WrapperScript()), 0o755); err != nil {
		return fmt.Errorf("write alias wrapper: %w", err)
	}
	return nil
}

// TryCreate creates the shim for target in dir unless it already exists. The
// boolean reports whether a new shim was written.
func (m *Manager) TryCreate(target, dir string) (bool, error) {
	if m.Exists(target, dir) {
		return false, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create bin directory: %w", err)
	}
	if m.dispatcher == "" {
		return false, errors.New("no shim dispatcher configured")
	}

	dst := m.Path(target, dir)
	err := os.Link(m.dispatcher, dst)
	if err == nil {
		return true, nil
	}
	m.logger.Debug().Err(err).Str("shim", dst).Msg("hard link failed, copying dispatcher")
	if err = copyFile(m.dispatcher, dst); err != nil {
		_ = os.Remove(dst)
		return false, fmt.Errorf("create shim %s: %w", target, err)
	}
	return true, nil
}

// Delete removes the shim for target; a missing shim is not an error.
func (m *Manager) Delete(target, dir string) (bool, error) {
	err := os.Remove(m.Path(target, dir))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("delete shim %s: %w", target, err)
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return err
	}
	if err := dest.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, 0o755)
}

package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// libNames returns the versioned file under the install path and the stable
// link name placed in the lib dir.
func (l *Launcher) libNames() (source, link string) {
	source = l.alias
	if source == "" {
		source = l.filename
	}
	if source == "" {
		source = l.name
	}
	link = l.filename
	if link == "" {
		link = source
	}
	return source, link
}

// LinkPath returns where LinkTo places the link inside libDir.
func (l *Launcher) LinkPath(libDir string) string {
	_, link := l.libNames()
	return filepath.Join(libDir, link)
}

// LinkTo creates a symlink in libDir named by the filename (or alias) that
// points at the real file under the install path. An existing link is kept
// unless replace is set.
func (l *Launcher) LinkTo(libDir string, replace bool) error {
	source, link := l.libNames()
	target := filepath.Join(l.path, source)
	dst := filepath.Join(libDir, link)

	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return fmt.Errorf("create lib directory: %w", err)
	}
	if _, err := os.Lstat(dst); err == nil {
		if !replace {
			l.logger.Debug().Str("link", dst).Msg("library link exists, keeping it")
			return nil
		}
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("replace library link %s: %w", dst, err)
		}
	}
	if err := l.plat.Symlink(target, dst); err != nil {
		return fmt.Errorf("link %s -> %s: %w", dst, target, err)
	}
	return nil
}

// Unlink removes the library link from libDir; a missing link is not an error.
func (l *Launcher) Unlink(libDir string) error {
	err := os.Remove(l.LinkPath(libDir))
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove library link: %w", err)
}

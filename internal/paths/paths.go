package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xvm/internal/config"
)

const (
	// RegistryFileName is the version registry under the xvm data dir.
	RegistryFileName = "versions.xvm.yaml"
	// WorkspaceFileName is used for both the global and local workspace files.
	WorkspaceFileName = "workspace.xvm.yaml"
)

// Layout captures canonical locations used by the version manager.
type Layout struct {
	HomeDir  string
	DataDir  string
	SubosDir string

	XvmDir  string
	BinDir  string
	LibDir  string
	LogsDir string

	RegistryFile        string
	GlobalWorkspaceFile string

	WorkDir            string
	LocalWorkspaceFile string
}

// Resolve builds the layout from configured base directories. workDir is the
// directory searched for a local workspace; empty means the current directory.
func Resolve(cfg config.Config, workDir string) (Layout, error) {
	var err error
	if workDir == "" {
		workDir, err = os.Getwd()
	} else {
		workDir, err = filepath.Abs(workDir)
	}
	if err != nil {
		return Layout{}, fmt.Errorf("resolve working directory: %w", err)
	}
	if cfg.Home == "" || cfg.Data == "" || cfg.Subos == "" {
		if err := cfg.ApplyDefaults(); err != nil {
			return Layout{}, err
		}
	}
	return newLayout(cfg.Home, cfg.Data, cfg.Subos, workDir), nil
}

func newLayout(home, data, subos, workDir string) Layout {
	xvmDir := filepath.Join(data, "xvm")
	return Layout{
		HomeDir:             home,
		DataDir:             data,
		SubosDir:            subos,
		XvmDir:              xvmDir,
		BinDir:              filepath.Join(subos, "bin"),
		LibDir:              filepath.Join(subos, "lib"),
		LogsDir:             filepath.Join(xvmDir, "logs"),
		RegistryFile:        filepath.Join(xvmDir, RegistryFileName),
		GlobalWorkspaceFile: filepath.Join(xvmDir, WorkspaceFileName),
		WorkDir:             workDir,
		LocalWorkspaceFile:  filepath.Join(workDir, WorkspaceFileName),
	}
}

// Expand substitutes ${XLINGS_HOME}, ${XLINGS_DATA} and ${XLINGS_SUBOS}.
func (l Layout) Expand(value string) string {
	if !strings.Contains(value, "${") {
		return value
	}
	return strings.NewReplacer(
		"${XLINGS_HOME}", l.HomeDir,
		"${XLINGS_DATA}", l.DataDir,
		"${XLINGS_SUBOS}", l.SubosDir,
	).Replace(value)
}

// ResolvePath expands placeholders and anchors relative paths at the subos dir.
func (l Layout) ResolvePath(value string) string {
	value = l.Expand(value)
	if value == "" || filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(l.SubosDir, value)
}

// EnsureDirs creates the xvm data, bin and lib directories.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.XvmDir, l.BinDir, l.LibDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// Package workspace holds named target → version selections with the
// active/inherit flags that decide how a local workspace layers over the
// global one.
package workspace

import (
	"errors"
	"fmt"
	"strings"

	"xvm/internal/ordered"
	"xvm/internal/store"
)

const (
	// MetadataKey is the top-level key holding workspace metadata.
	MetadataKey = "xvm-wmetadata"
	// GlobalName names the global workspace.
	GlobalName = "global"
)

var (
	// ErrNotFound reports a workspace file that does not exist.
	ErrNotFound = errors.New("workspace not found")
	// ErrReadOnly reports a Save on a merged view.
	ErrReadOnly = errors.New("merged workspace view cannot be saved")
)

// Metadata identifies a workspace and controls layering.
type Metadata struct {
	Name    string `yaml:"name"`
	Active  bool   `yaml:"active"`
	Inherit bool   `yaml:"inherit"`
}

type document struct {
	Metadata Metadata             `yaml:"xvm-wmetadata"`
	Versions *ordered.Map[string] `yaml:"versions"`
}

// Entry is one selected target version.
type Entry struct {
	Target  string
	Version string
}

// Workspace is an ordered target → version map bound to one file.
type Workspace struct {
	path     string
	doc      document
	readOnly bool
}

// New returns an active, inheriting, empty workspace bound to path.
func New(path, name string) *Workspace {
	return &Workspace{
		path: path,
		doc: document{
			Metadata: Metadata{Name: name, Active: true, Inherit: true},
			Versions: ordered.New[string](),
		},
	}
}

// Load reads the workspace at path. A missing file yields ErrNotFound.
func Load(path string) (*Workspace, error) {
	var doc document
	found, err := store.Load(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if doc.Versions == nil {
		doc.Versions = ordered.New[string]()
	}
	return &Workspace{path: path, doc: doc}, nil
}

// LoadGlobal reads the global workspace, creating and saving an empty one
// named "global" when the file is absent.
func LoadGlobal(path string) (*Workspace, error) {
	ws, err := Load(path)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	ws = New(path, GlobalName)
	if err := ws.Save(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Exists reports whether a workspace file exists at path.
func Exists(path string) bool { return store.Exists(path) }

// Save writes the workspace file.
func (w *Workspace) Save() error {
	if w.readOnly {
		return ErrReadOnly
	}
	if w.doc.Versions == nil {
		w.doc.Versions = ordered.New[string]()
	}
	if err := store.Save(w.path, &w.doc); err != nil {
		return fmt.Errorf("save workspace %s: %w", w.doc.Metadata.Name, err)
	}
	return nil
}

// Path returns the backing file.
func (w *Workspace) Path() string { return w.path }

func (w *Workspace) Name() string        { return w.doc.Metadata.Name }
func (w *Workspace) SetName(name string) { w.doc.Metadata.Name = name }
func (w *Workspace) Active() bool        { return w.doc.Metadata.Active }
func (w *Workspace) SetActive(v bool)    { w.doc.Metadata.Active = v }
func (w *Workspace) Inherit() bool       { return w.doc.Metadata.Inherit }
func (w *Workspace) SetInherit(v bool)   { w.doc.Metadata.Inherit = v }

// Metadata returns a copy of the metadata block.
func (w *Workspace) Metadata() Metadata { return w.doc.Metadata }

// Version returns the selected version of target.
func (w *Workspace) Version(target string) (string, bool) {
	return w.doc.Versions.Get(target)
}

// SetVersion selects version for target, replacing any previous selection.
func (w *Workspace) SetVersion(target, version string) {
	if w.doc.Versions == nil {
		w.doc.Versions = ordered.New[string]()
	}
	w.doc.Versions.Set(target, version)
}

// Remove drops the selection for target.
func (w *Workspace) Remove(target string) bool {
	return w.doc.Versions.Delete(target)
}

// Merge copies every selection of other over w; other wins on conflicts.
func (w *Workspace) Merge(other *Workspace) {
	other.doc.Versions.Each(func(target, version string) bool {
		w.SetVersion(target, version)
		return true
	})
}

// AllVersions lists the selections in insertion order.
func (w *Workspace) AllVersions() []Entry {
	return w.MatchBy("")
}

// MatchBy lists selections whose target name contains substring.
func (w *Workspace) MatchBy(substring string) []Entry {
	var out []Entry
	w.doc.Versions.Each(func(target, version string) bool {
		if strings.Contains(target, substring) {
			out = append(out, Entry{Target: target, Version: version})
		}
		return true
	})
	return out
}

// Clone returns an independent copy bound to the same file.
func (w *Workspace) Clone() *Workspace {
	return &Workspace{
		path:     w.path,
		readOnly: w.readOnly,
		doc: document{
			Metadata: w.doc.Metadata,
			Versions: w.doc.Versions.Clone(),
		},
	}
}

// ScopedLoad returns the local workspace at localPath when it exists and is
// active, otherwise global. Mutations target the returned workspace directly.
func ScopedLoad(global *Workspace, localPath string) (*Workspace, error) {
	if !Exists(localPath) {
		return global, nil
	}
	local, err := Load(localPath)
	if err != nil {
		return nil, err
	}
	if !local.Active() {
		return global, nil
	}
	return local, nil
}

// MergedLoad returns the effective selection view used to run targets. It
// starts from a copy of global; an active local workspace is layered on top
// when it inherits, or replaces the copy when it does not. The result cannot
// be saved.
func MergedLoad(global *Workspace, localPath string) (*Workspace, error) {
	view := global.Clone()
	view.readOnly = true
	if !Exists(localPath) {
		return view, nil
	}
	local, err := Load(localPath)
	if err != nil {
		return nil, err
	}
	if !local.Active() {
		return view, nil
	}
	if local.Inherit() {
		view.Merge(local)
		view.SetName(local.Name() + " + " + global.Name())
		return view, nil
	}
	view = local.Clone()
	view.readOnly = true
	return view, nil
}

package manager

import (
	"context"
	"errors"
	"fmt"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"xvm/internal/binding"
	"xvm/internal/launcher"
	"xvm/internal/ordered"
	"xvm/internal/registry"
	"xvm/internal/workspace"
)

// AddRequest describes a version to record.
type AddRequest struct {
	Target   string
	Version  string
	Path     string
	Alias    string
	Icon     string
	Type     registry.TargetType
	Filename string
	Envs     []launcher.Env
	Bindings []binding.Pair
}

// Validate checks the identifying fields.
func (r AddRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Target, validation.Required),
		validation.Field(&r.Version, validation.Required),
		validation.Field(&r.Type, validation.In(registry.TypeDirect, registry.TypeLib)),
	)
}

func (r AddRequest) record() registry.VersionRecord {
	rec := registry.VersionRecord{Alias: r.Alias, Path: r.Path, Icon: r.Icon}
	if len(r.Envs) > 0 {
		rec.Envs = ordered.New[string]()
		for _, env := range r.Envs {
			rec.Envs.Set(env.Key, env.Value)
		}
	}
	if len(r.Bindings) > 0 {
		rec.Bindings = ordered.New[string]()
		for _, b := range r.Bindings {
			rec.Bindings.Set(b.Target, b.Version)
		}
	}
	return rec
}

// AddResult reports the side effects of Add.
type AddResult struct {
	Replaced   bool
	NewDefault bool
	Installed  bool
}

// Add records target@version. The first version of a target becomes the
// global selection; every add makes sure the shim or library link exists.
func (m *Manager) Add(req AddRequest) (AddResult, error) {
	if err := req.Validate(); err != nil {
		return AddResult{}, err
	}
	rec := req.record()
	if err := rec.Validate(); err != nil {
		return AddResult{}, fmt.Errorf("%s@%s: %w", req.Target, req.Version, err)
	}

	wasEmpty := m.registry.IsEmpty(req.Target)
	res := AddResult{Replaced: m.registry.HasVersion(req.Target, req.Version)}

	m.registry.SetRecord(req.Target, req.Version, rec)
	if req.Type != "" {
		if err := m.registry.SetType(req.Target, req.Type); err != nil {
			return res, err
		}
	}
	if req.Filename != "" {
		if err := m.registry.SetFilename(req.Target, req.Filename); err != nil {
			return res, err
		}
	}
	if err := m.registry.Save(); err != nil {
		return res, err
	}

	if wasEmpty {
		m.global.SetVersion(req.Target, req.Version)
		if err := m.global.Save(); err != nil {
			return res, err
		}
		res.NewDefault = true
	}

	installed, err := m.install(req.Target, req.Version)
	if err != nil {
		return res, err
	}
	res.Installed = installed
	return res, nil
}

// RemoveResult reports the side effects of Remove.
type RemoveResult struct {
	Removed       []string
	TargetRemoved bool
	NewDefault    string
}

// Remove deletes one version, or every version when version is empty. A
// removed global selection falls back to the first remaining version; an
// emptied target loses its global selection and its shim or library link.
func (m *Manager) Remove(target, version string) (RemoveResult, error) {
	if !m.registry.HasTarget(target) {
		return RemoveResult{}, fmt.Errorf("%w: %s", registry.ErrTargetNotFound, target)
	}
	if version != "" && !m.registry.HasVersion(target, version) {
		return RemoveResult{}, m.versionNotFound(target, version)
	}

	selected, hasSelected := m.global.Version(target)
	var lib *launcher.Launcher
	if m.registry.Type(target) == registry.TypeLib {
		linkVersion := version
		if hasSelected && m.registry.HasVersion(target, selected) {
			linkVersion = selected
		}
		if linkVersion == "" {
			linkVersion, _ = m.registry.FirstVersion(target)
		}
		lib, _ = m.Launcher(target, linkVersion)
	}

	var res RemoveResult
	if version == "" {
		res.Removed = m.registry.AllVersions(target)
		m.registry.RemoveAll(target)
	} else {
		m.registry.RemoveRecord(target, version)
		res.Removed = []string{version}
	}
	if err := m.registry.Save(); err != nil {
		return res, err
	}

	if m.registry.IsEmpty(target) {
		res.TargetRemoved = true
		if m.global.Remove(target) {
			if err := m.global.Save(); err != nil {
				return res, err
			}
		}
		m.uninstall(target, lib)
		return res, nil
	}

	if hasSelected && slices.Contains(res.Removed, selected) {
		first, _ := m.registry.FirstVersion(target)
		m.global.SetVersion(target, first)
		if err := m.global.Save(); err != nil {
			return res, err
		}
		res.NewDefault = first
		if lib != nil {
			if err := m.refreshLink(target, first); err != nil {
				m.logger.Warn().Err(err).Str("target", target).Msg("refresh library link")
			}
		}
	}
	return res, nil
}

// UseResult reports which version was selected and where.
type UseResult struct {
	Version   string
	Workspace string
	binding.Result
}

// Use selects target at the greatest installed version matching requested
// (exact match first) in the scoped workspace and propagates the selection
// along binding edges.
func (m *Manager) Use(target, requested string) (UseResult, error) {
	version, err := m.resolveVersion(target, requested)
	if err != nil {
		return UseResult{}, err
	}
	ws, err := workspace.ScopedLoad(m.global, m.layout.LocalWorkspaceFile)
	if err != nil {
		return UseResult{}, err
	}
	res, err := m.resolver.Use(ws, target, version)
	return UseResult{Version: version, Workspace: ws.Name(), Result: res}, err
}

// CurrentEntry is one selection of the effective workspace.
type CurrentEntry struct {
	Target    string
	Version   string
	Alias     string
	Path      string
	Installed bool
}

// CurrentView is the effective workspace filtered by target substring.
type CurrentView struct {
	Workspace string
	Entries   []CurrentEntry
	Total     int
}

// Current lists the effective selections whose target contains filter.
func (m *Manager) Current(filter string) (CurrentView, error) {
	view, err := m.effective()
	if err != nil {
		return CurrentView{}, err
	}
	out := CurrentView{Workspace: view.Name(), Total: len(view.AllVersions())}
	for _, entry := range view.MatchBy(filter) {
		row := CurrentEntry{Target: entry.Target, Version: entry.Version}
		if rec, ok := m.registry.Record(entry.Target, entry.Version); ok {
			row.Installed = true
			row.Alias = rec.Alias
			row.Path = m.layout.ResolvePath(rec.Path)
		}
		out.Entries = append(out.Entries, row)
	}
	return out, nil
}

// ListVersion is one installed version in a listing.
type ListVersion struct {
	Version  string
	Path     string
	Alias    string
	Selected bool
}

// ListEntry groups the versions of one target.
type ListEntry struct {
	Target   string
	Type     registry.TargetType
	Versions []ListVersion
}

// List returns the exact target when filter names one, otherwise every
// target whose name contains filter.
func (m *Manager) List(filter string) ([]ListEntry, error) {
	view, err := m.effective()
	if err != nil {
		return nil, err
	}
	var matches []registry.TargetVersions
	if filter != "" && m.registry.HasTarget(filter) {
		matches = []registry.TargetVersions{{Target: filter, Versions: m.registry.AllVersions(filter)}}
	} else {
		matches = m.registry.MatchBy(filter)
	}

	out := make([]ListEntry, 0, len(matches))
	for _, match := range matches {
		entry := ListEntry{Target: match.Target, Type: m.registry.Type(match.Target)}
		selected, _ := view.Version(match.Target)
		for _, version := range match.Versions {
			rec, _ := m.registry.Record(match.Target, version)
			entry.Versions = append(entry.Versions, ListVersion{
				Version:  version,
				Path:     m.layout.ResolvePath(rec.Path),
				Alias:    rec.Alias,
				Selected: version == selected,
			})
		}
		out = append(out, entry)
	}
	return out, nil
}

// selection returns the version to run: requested (exact or prefix) when
// given, otherwise the effective workspace's selection.
func (m *Manager) selection(target, requested string) (string, error) {
	if requested != "" {
		return m.resolveVersion(target, requested)
	}
	view, err := m.effective()
	if err != nil {
		return "", err
	}
	version, ok := view.Version(target)
	if !ok {
		if !m.registry.HasTarget(target) {
			return "", fmt.Errorf("%w: %s", registry.ErrTargetNotFound, target)
		}
		return "", fmt.Errorf("%s: %w in workspace %q", target, ErrNoSelection, view.Name())
	}
	if !m.registry.HasVersion(target, version) {
		return "", m.versionNotFound(target, version)
	}
	return version, nil
}

// Run executes target with args and returns the child's exit code.
func (m *Manager) Run(ctx context.Context, target, requested string, args []string) (int, error) {
	version, err := m.selection(target, requested)
	if err != nil {
		return 1, err
	}
	l, err := m.Launcher(target, version)
	if err != nil {
		return 1, err
	}
	l.AddArgs(args...)
	return l.Run(ctx), nil
}

// Info describes how target would be launched.
func (m *Manager) Info(target, requested string) (launcher.Info, error) {
	version, err := m.selection(target, requested)
	if err != nil {
		return launcher.Info{}, err
	}
	l, err := m.Launcher(target, version)
	if err != nil {
		return launcher.Info{}, err
	}
	return l.Info(), nil
}

// Bind records that owner requires dep. Both versions must be installed.
func (m *Manager) Bind(owner, dep binding.Pair) error {
	if !m.registry.HasVersion(owner.Target, owner.Version) {
		return m.versionNotFound(owner.Target, owner.Version)
	}
	if !m.registry.HasVersion(dep.Target, dep.Version) {
		return m.versionNotFound(dep.Target, dep.Version)
	}
	if err := m.registry.AddBinding(owner.Target, owner.Version, dep.Target, dep.Version); err != nil {
		return err
	}
	return m.registry.Save()
}

// Unbind removes owner's edge to depTarget.
func (m *Manager) Unbind(owner binding.Pair, depTarget string) error {
	if err := m.registry.RemoveBinding(owner.Target, owner.Version, depTarget); err != nil {
		return err
	}
	return m.registry.Save()
}

// WorkspaceRequest changes a workspace's metadata. Nil flags are left alone.
type WorkspaceRequest struct {
	Name    string
	Active  *bool
	Inherit *bool
	// ConfirmRename is asked before renaming an existing local workspace.
	ConfirmRename func(from, to string) (bool, error)
}

// WorkspaceResult reports the workspace after the change.
type WorkspaceResult struct {
	Path     string
	Metadata workspace.Metadata
	Created  bool
	Renamed  bool
	Restored []string
	Removed  []string
}

// ConfigureWorkspace edits the global workspace when Name is "global",
// otherwise the local workspace in the working directory, creating it on
// first use. Deactivating the global workspace removes the shims of its
// targets; reactivating restores them.
func (m *Manager) ConfigureWorkspace(req WorkspaceRequest) (WorkspaceResult, error) {
	if req.Name == "" {
		return WorkspaceResult{}, errors.New("workspace name is required")
	}

	var (
		ws      *workspace.Workspace
		created bool
		err     error
	)
	switch {
	case req.Name == workspace.GlobalName:
		ws = m.global
	case workspace.Exists(m.layout.LocalWorkspaceFile):
		ws, err = workspace.Load(m.layout.LocalWorkspaceFile)
		if err != nil {
			return WorkspaceResult{}, err
		}
	default:
		ws = workspace.New(m.layout.LocalWorkspaceFile, req.Name)
		created = true
	}

	res := WorkspaceResult{Path: ws.Path(), Created: created}
	changed := created
	if ws.Name() != req.Name {
		ok := false
		if req.ConfirmRename != nil {
			ok, err = req.ConfirmRename(ws.Name(), req.Name)
			if err != nil {
				return res, err
			}
		}
		if !ok {
			return res, fmt.Errorf("%w: %s -> %s", ErrRenameDeclined, ws.Name(), req.Name)
		}
		ws.SetName(req.Name)
		res.Renamed = true
		changed = true
	}

	if req.Active != nil && *req.Active != ws.Active() {
		ws.SetActive(*req.Active)
		changed = true
		if ws == m.global {
			if *req.Active {
				res.Restored = m.restoreShims()
			} else {
				res.Removed = m.removeShims()
			}
		}
	}
	if req.Inherit != nil && *req.Inherit != ws.Inherit() {
		ws.SetInherit(*req.Inherit)
		changed = true
	}

	if changed {
		if err := ws.Save(); err != nil {
			return res, err
		}
	}
	res.Metadata = ws.Metadata()
	return res, nil
}

func (m *Manager) restoreShims() []string {
	var restored []string
	for _, entry := range m.global.AllVersions() {
		if !m.registry.HasVersion(entry.Target, entry.Version) {
			continue
		}
		ok, err := m.install(entry.Target, entry.Version)
		if err != nil {
			m.logger.Warn().Err(err).Str("target", entry.Target).Msg("restore shim")
			continue
		}
		if ok {
			restored = append(restored, entry.Target)
		}
	}
	return restored
}

func (m *Manager) removeShims() []string {
	var removed []string
	for _, entry := range m.global.AllVersions() {
		var lib *launcher.Launcher
		if m.registry.Type(entry.Target) == registry.TypeLib {
			lib, _ = m.Launcher(entry.Target, entry.Version)
		}
		m.uninstall(entry.Target, lib)
		removed = append(removed, entry.Target)
	}
	return removed
}

// effective returns the merged view used for running and reporting.
func (m *Manager) effective() (*workspace.Workspace, error) {
	return workspace.MergedLoad(m.global, m.layout.LocalWorkspaceFile)
}

// Package registry stores every installed version of every target and the
// binding edges between them.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"xvm/internal/ordered"
	"xvm/internal/store"
)

var (
	// ErrTargetNotFound reports an unknown target name.
	ErrTargetNotFound = errors.New("target not found")
	// ErrVersionNotFound reports an unknown version of a known or unknown target.
	ErrVersionNotFound = errors.New("version not found")
)

// Registry is the ordered target → TargetInfo map bound to one file.
type Registry struct {
	path     string
	targets  *ordered.Map[*TargetInfo]
	migrated bool
	logger   zerolog.Logger
}

// Option customises a Registry.
type Option func(*Registry)

// WithLogger routes drift and overwrite warnings to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New returns an empty registry bound to path. Nothing is read or written.
func New(path string, opts ...Option) *Registry {
	r := &Registry{
		path:    path,
		targets: ordered.New[*TargetInfo](),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open loads the registry at path, or returns an empty one when the file does
// not exist. A file that exists but cannot be parsed is an error.
func Open(path string, opts ...Option) (*Registry, error) {
	r := New(path, opts...)
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load replaces the in-memory state with the file contents. A missing file
// leaves the registry empty.
func (r *Registry) Load() error {
	var doc document
	found, err := store.Load(r.path, &doc)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	r.targets = doc.targets
	if r.targets == nil {
		r.targets = ordered.New[*TargetInfo]()
	}
	r.migrated = found && doc.migrated
	if r.migrated {
		r.logger.Info().Str("file", r.path).Msg("registry uses the legacy layout; it will be rewritten on save")
	}
	return nil
}

// Migrated reports whether the last Load read the legacy layout.
func (r *Registry) Migrated() bool { return r.migrated }

// Path returns the backing file.
func (r *Registry) Path() string { return r.path }

// Save writes the registry in the current layout.
func (r *Registry) Save() error {
	if err := store.Save(r.path, &document{targets: r.targets}); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	r.migrated = false
	return nil
}

// Targets returns the target names in insertion order.
func (r *Registry) Targets() []string { return r.targets.Keys() }

// HasTarget reports whether name has at least one version.
func (r *Registry) HasTarget(name string) bool { return r.targets.Has(name) }

// HasVersion reports whether name@version is recorded.
func (r *Registry) HasVersion(name, version string) bool {
	info, ok := r.targets.Get(name)
	return ok && info.Versions.Has(version)
}

// IsEmpty reports whether name has no recorded versions.
func (r *Registry) IsEmpty(name string) bool { return !r.HasTarget(name) }

// AllVersions lists the versions of name in insertion order.
func (r *Registry) AllVersions(name string) []string {
	info, ok := r.targets.Get(name)
	if !ok {
		return nil
	}
	return info.Versions.Keys()
}

// Record returns a copy of the record for name@version.
func (r *Registry) Record(name, version string) (VersionRecord, bool) {
	rec, ok := r.record(name, version)
	if !ok {
		return VersionRecord{}, false
	}
	return rec.Clone(), true
}

func (r *Registry) record(name, version string) (*VersionRecord, bool) {
	info, ok := r.targets.Get(name)
	if !ok {
		return nil, false
	}
	return info.Versions.Get(version)
}

// SetRecord inserts or replaces name@version, creating the target when needed.
func (r *Registry) SetRecord(name, version string, rec VersionRecord) {
	info, ok := r.targets.Get(name)
	if !ok {
		info = newTargetInfo()
		r.targets.Set(name, info)
	}
	stored := rec.Clone()
	info.Versions.Set(version, &stored)
}

// RemoveRecord deletes name@version; the target disappears with its last version.
func (r *Registry) RemoveRecord(name, version string) bool {
	info, ok := r.targets.Get(name)
	if !ok || !info.Versions.Delete(version) {
		return false
	}
	if info.Versions.Len() == 0 {
		r.targets.Delete(name)
	}
	return true
}

// RemoveAll deletes the target and all of its versions.
func (r *Registry) RemoveAll(name string) bool {
	return r.targets.Delete(name)
}

// FirstVersion returns the oldest recorded version of name.
func (r *Registry) FirstVersion(name string) (string, bool) {
	info, ok := r.targets.Get(name)
	if !ok {
		return "", false
	}
	version, _, ok := info.Versions.First()
	return version, ok
}

// MatchFirstVersion returns the greatest version of name whose components
// start with the components of prefix.
func (r *Registry) MatchFirstVersion(name, prefix string) (string, bool) {
	var best string
	found := false
	for _, version := range r.AllVersions(name) {
		if !MatchesPrefix(version, prefix) {
			continue
		}
		if !found || CompareVersions(version, best) > 0 {
			best, found = version, true
		}
	}
	return best, found
}

// TargetVersions pairs a target name with its versions.
type TargetVersions struct {
	Target   string
	Versions []string
}

// MatchBy lists targets whose name contains substring.
func (r *Registry) MatchBy(substring string) []TargetVersions {
	var out []TargetVersions
	r.targets.Each(func(name string, info *TargetInfo) bool {
		if strings.Contains(name, substring) {
			out = append(out, TargetVersions{Target: name, Versions: info.Versions.Keys()})
		}
		return true
	})
	return out
}

// Type returns the target type, defaulting to direct.
func (r *Registry) Type(name string) TargetType {
	info, ok := r.targets.Get(name)
	if !ok || info.Type == "" {
		return TypeDirect
	}
	return info.Type
}

// SetType records the target type. Changing an existing type is logged.
func (r *Registry) SetType(name string, typ TargetType) error {
	info, ok := r.targets.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, name)
	}
	if info.Type != "" && info.Type != typ {
		r.logger.Warn().Str("target", name).
			Str("from", string(info.Type)).Str("to", string(typ)).
			Msg("target type changed")
	}
	info.Type = typ
	return nil
}

// Filename returns the on-disk name override, if any.
func (r *Registry) Filename(name string) string {
	info, ok := r.targets.Get(name)
	if !ok {
		return ""
	}
	return info.Filename
}

// SetFilename records the on-disk name override. Changing it is logged.
func (r *Registry) SetFilename(name, filename string) error {
	info, ok := r.targets.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, name)
	}
	if info.Filename != "" && info.Filename != filename {
		r.logger.Warn().Str("target", name).
			Str("from", info.Filename).Str("to", filename).
			Msg("target filename changed")
	}
	info.Filename = filename
	return nil
}

// AddBinding records that owner@ownerVersion requires dep@depVersion.
func (r *Registry) AddBinding(owner, ownerVersion, dep, depVersion string) error {
	rec, ok := r.record(owner, ownerVersion)
	if !ok {
		return fmt.Errorf("%w: %s@%s", ErrVersionNotFound, owner, ownerVersion)
	}
	if rec.Bindings == nil {
		rec.Bindings = ordered.New[string]()
	}
	if existing, ok := rec.Bindings.Get(dep); ok && existing != depVersion {
		r.logger.Warn().Str("owner", owner+"@"+ownerVersion).
			Str("dep", dep).Str("from", existing).Str("to", depVersion).
			Msg("binding overwritten")
	}
	rec.Bindings.Set(dep, depVersion)
	return nil
}

// RemoveBinding drops the edge from owner@ownerVersion to dep. The bindings
// map is cleared once empty.
func (r *Registry) RemoveBinding(owner, ownerVersion, dep string) error {
	rec, ok := r.record(owner, ownerVersion)
	if !ok {
		return fmt.Errorf("%w: %s@%s", ErrVersionNotFound, owner, ownerVersion)
	}
	rec.Bindings.Delete(dep)
	if rec.Bindings.Len() == 0 {
		rec.Bindings = nil
	}
	return nil
}

// Bindings returns the outgoing edges of owner@ownerVersion in order.
func (r *Registry) Bindings(owner, ownerVersion string) []Binding {
	rec, ok := r.record(owner, ownerVersion)
	if !ok {
		return nil
	}
	var out []Binding
	rec.Bindings.Each(func(target, version string) bool {
		out = append(out, Binding{Target: target, Version: version})
		return true
	})
	return out
}

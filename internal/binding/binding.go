// Package binding propagates a version selection along the binding edges
// recorded in the registry.
package binding

import (
	"fmt"

	"github.com/rs/zerolog"

	"xvm/internal/registry"
)

// Pair is a target at a specific version.
type Pair struct {
	Target  string
	Version string
}

func (p Pair) String() string { return p.Target + "@" + p.Version }

// Edge is a binding from an owner version to a dependency version.
type Edge struct {
	Owner Pair
	Dep   Pair
}

func (e Edge) String() string { return e.Owner.String() + " -> " + e.Dep.String() }

// Registry is the subset of the version registry the resolver needs.
type Registry interface {
	HasVersion(name, version string) bool
	Bindings(owner, ownerVersion string) []registry.Binding
	RemoveBinding(owner, ownerVersion, dep string) error
	Type(name string) registry.TargetType
	Save() error
}

// Workspace is the subset of a workspace the resolver updates.
type Workspace interface {
	Version(target string) (string, bool)
	SetVersion(target, version string)
	Save() error
}

// LinkFunc refreshes the library link for a lib target version.
type LinkFunc func(target, version string) error

// Result reports what a resolution found and changed.
type Result struct {
	// Resolved lists the initial selection then every reachable dependency in
	// discovery order.
	Resolved []Pair
	// Pruned lists edges whose dependency version is not installed.
	Pruned []Edge
	// Updated lists the resolved pairs that changed the workspace.
	Updated []Pair
}

// Resolver walks binding edges depth-first.
type Resolver struct {
	reg    Registry
	link   LinkFunc
	logger zerolog.Logger
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithLinker sets the lib-target link refresher.
func WithLinker(fn LinkFunc) Option {
	return func(r *Resolver) { r.link = fn }
}

// WithLogger sets the logger used for prune and link reports.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver returns a resolver over reg.
func NewResolver(reg Registry, opts ...Option) *Resolver {
	r := &Resolver{reg: reg, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type walk struct {
	resolved map[string]struct{}
	pruned   map[Edge]struct{}
	result   Result
}

// Resolve computes the closure of target@version without changing anything.
// The first version selected for a target wins; edges into targets already
// resolved are skipped, which also terminates cycles.
func (r *Resolver) Resolve(target, version string) Result {
	w := &walk{
		resolved: map[string]struct{}{target: {}},
		pruned:   map[Edge]struct{}{},
	}
	root := Pair{Target: target, Version: version}
	w.result.Resolved = append(w.result.Resolved, root)
	r.visit(w, root)
	return w.result
}

func (r *Resolver) visit(w *walk, owner Pair) {
	for _, b := range r.reg.Bindings(owner.Target, owner.Version) {
		dep := Pair{Target: b.Target, Version: b.Version}
		edge := Edge{Owner: owner, Dep: dep}
		if _, done := w.resolved[dep.Target]; done {
			continue
		}
		if _, done := w.pruned[edge]; done {
			continue
		}
		if !r.reg.HasVersion(dep.Target, dep.Version) {
			w.pruned[edge] = struct{}{}
			w.result.Pruned = append(w.result.Pruned, edge)
			continue
		}
		w.resolved[dep.Target] = struct{}{}
		w.result.Resolved = append(w.result.Resolved, dep)
		r.visit(w, dep)
	}
}

// Apply removes pruned edges from the registry (saving it once), then writes
// every resolved pair that differs into ws (saving it once). Lib targets have
// their link refreshed first; link failures are logged and do not abort.
func (r *Resolver) Apply(ws Workspace, res *Result) error {
	if len(res.Pruned) > 0 {
		for _, edge := range res.Pruned {
			r.logger.Warn().Str("owner", edge.Owner.String()).Str("dep", edge.Dep.String()).
				Msg("dependency version not installed, removing binding")
			if err := r.reg.RemoveBinding(edge.Owner.Target, edge.Owner.Version, edge.Dep.Target); err != nil {
				r.logger.Warn().Err(err).Str("edge", edge.String()).Msg("remove binding")
			}
		}
		if err := r.reg.Save(); err != nil {
			return fmt.Errorf("save pruned bindings: %w", err)
		}
	}

	res.Updated = nil
	for _, pair := range res.Resolved {
		if current, ok := ws.Version(pair.Target); ok && current == pair.Version {
			continue
		}
		if r.link != nil && r.reg.Type(pair.Target) == registry.TypeLib {
			if err := r.link(pair.Target, pair.Version); err != nil {
				r.logger.Warn().Err(err).Str("target", pair.String()).Msg("refresh library link")
			}
		}
		ws.SetVersion(pair.Target, pair.Version)
		res.Updated = append(res.Updated, pair)
	}
	if len(res.Updated) == 0 {
		return nil
	}
	if err := ws.Save(); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}

// Use resolves target@version and applies the result to ws.
func (r *Resolver) Use(ws Workspace, target, version string) (Result, error) {
	res := r.Resolve(target, version)
	if err := r.Apply(ws, &res); err != nil {
		return res, err
	}
	return res, nil
}

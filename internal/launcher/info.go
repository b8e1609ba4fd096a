package launcher

import "xvm/internal/registry"

// Info describes a launcher for display.
type Info struct {
	Program    string
	Version    string
	Type       registry.TargetType
	Filename   string
	Alias      string
	SourcePath string
	// TargetPath is the resolved executable, or the lib link for lib targets.
	TargetPath string
	Envs       []Env
	PathParts  []string
	LibParts   []string
	Args       []string
	Bindings   []registry.Binding
}

// Info returns a printable description of the launcher.
func (l *Launcher) Info() Info {
	info := Info{
		Program:    l.name,
		Version:    l.version,
		Type:       l.typ,
		Filename:   l.filename,
		Alias:      l.alias,
		SourcePath: l.path,
		Envs:       append([]Env(nil), l.envs...),
		PathParts:  append([]string(nil), l.pathFragment...),
		LibParts:   append([]string(nil), l.libFragment...),
		Args:       append([]string(nil), l.args...),
		Bindings:   append([]registry.Binding(nil), l.bindings...),
	}
	if l.typ == registry.TypeLib {
		info.TargetPath = l.LinkPath(l.layout.LibDir)
		return info
	}
	if inv, err := l.Resolve(); err == nil {
		info.TargetPath = inv.Executable
	}
	return info
}

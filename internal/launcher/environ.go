package launcher

import (
	"path/filepath"

	"xvm/internal/platform"
)

// Environ composes the child environment for inv on top of the inherited one.
//
// PATH is the PATH fragment, the executable's directory when it differs from
// the install base, the managed bin dir, the lib dir on platforms that load
// libraries through PATH, then the inherited PATH. The library path variable
// is the lib fragment, the lib dir, then the inherited value. Other declared
// variables are prepended to any inherited value.
func (l *Launcher) Environ(inv Invocation) []string {
	env := platform.NewEnvList(l.plat, l.environ())

	pathParts := append([]string(nil), l.pathFragment...)
	if inv.FromPath {
		if dir := filepath.Dir(inv.Executable); dir != inv.Base {
			pathParts = append(pathParts, dir)
		}
	}
	pathParts = append(pathParts, l.layout.BinDir)
	if l.plat.LibDirOnPath() {
		pathParts = append(pathParts, l.libFragment...)
		pathParts = append(pathParts, l.layout.LibDir)
	}
	pathParts = append(pathParts, env.Get("PATH"))
	env.Set("PATH", platform.JoinList(l.plat, pathParts...))

	if name := l.plat.LibraryPathEnv(); name != "" {
		libParts := append([]string(nil), l.libFragment...)
		libParts = append(libParts, l.layout.LibDir, env.Get(name))
		env.Set(name, platform.JoinList(l.plat, libParts...))
	}

	inherited := platform.NewEnvList(l.plat, l.environ())
	for _, e := range l.envs {
		env.Set(e.Key, platform.JoinList(l.plat, e.Value, inherited.Get(e.Key)))
	}
	return env.Slice()
}

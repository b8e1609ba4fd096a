package launcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"xvm/internal/platform"
)

// Run resolves the program, composes its environment, runs it with the
// launcher's stdio and returns the exit code. Resolution and spawn failures
// print a diagnostic and return 1.
func (l *Launcher) Run(ctx context.Context) int {
	inv, err := l.Resolve()
	if err != nil {
		l.printNotFound(err)
		return 1
	}
	env := l.Environ(inv)

	exe := inv.Executable
	if inv.Bare {
		pathList := platform.NewEnvList(l.plat, env).Get("PATH")
		found, ok := platform.LookPath(l.plat, exe, pathList, l.layout.BinDir)
		if !ok {
			fmt.Fprintf(l.stderr, "xvm: %s@%s has no recorded path and %q is not on PATH\n",
				l.name, l.version, exe)
			return 1
		}
		exe = found
	}

	argv := append(append([]string(nil), inv.Prefix...), l.args...)
	l.logger.Debug().Str("target", l.name).Str("version", l.version).
		Str("exe", exe).Strs("args", argv).Msg("spawning")

	code, spawnErr := l.spawn(ctx, exe, argv, env)
	if spawnErr == nil {
		return code
	}

	if inv.FromPath && errors.Is(spawnErr, fs.ErrNotExist) {
		if loader, ok := l.findLoader(); ok {
			l.logger.Info().Str("loader", loader).Str("exe", exe).Msg("retrying through system loader")
			code, loaderErr := l.spawn(ctx, loader, append([]string{exe}, argv...), env)
			if loaderErr == nil {
				return code
			}
			spawnErr = loaderErr
		}
	}

	fmt.Fprintf(l.stderr, "xvm: failed to run %s@%s\n  command: %s\n  error: %v\n",
		l.name, l.version, exe, spawnErr)
	return 1
}

// spawn runs exe and reports its exit code. The error is non-nil only when
// the process could not be started.
func (l *Launcher) spawn(ctx context.Context, exe string, args, env []string) (int, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Env = env
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return 1, nil
	}
	return 1, err
}

func (l *Launcher) findLoader() (string, bool) {
	for _, candidate := range l.plat.LoaderCandidates() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func (l *Launcher) printNotFound(err error) {
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		fmt.Fprintf(l.stderr, "xvm: %v\n", err)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "xvm: executable for %s@%s not found\n", l.name, l.version)
	for i, probe := range nf.Probed {
		if i == 0 {
			fmt.Fprintf(&b, "  looked for: %s\n", probe)
			continue
		}
		fmt.Fprintf(&b, "  also tried: %s\n", probe)
	}
	fmt.Fprintf(&b, "  recorded path: %s\n", nf.Path)
	fmt.Fprintf(&b, "  hint: reinstall the version or fix its path with `xvm add %s %s --path <dir>`\n", l.name, l.version)
	fmt.Fprint(l.stderr, b.String())
}

package shim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"xvm/internal/platform"
)

// managerEnvs are searched in order for <dir>/bin/xvm.
var managerEnvs = []string{"XLINGS_SUBOS", "XLINGS_DATA", "XLINGS_HOME"}

// Dispatcher forwards a shim invocation to `xvm run`.
type Dispatcher struct {
	// BinDir is the managed shim directory prepended to PATH.
	BinDir   string
	Platform platform.Platform
	Getenv   func(string) string
	Environ  func() []string
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

func (d Dispatcher) withDefaults() Dispatcher {
	if d.Platform == nil {
		d.Platform = platform.Current()
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.Environ == nil {
		d.Environ = os.Environ
	}
	if d.Stdin == nil {
		d.Stdin = os.Stdin
	}
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	return d
}

// ManagerPath locates the xvm binary: the first <dir>/bin/xvm under
// XLINGS_SUBOS, XLINGS_DATA or XLINGS_HOME, then xvm on the composed PATH.
func (d Dispatcher) ManagerPath(pathList string) (string, bool) {
	d = d.withDefaults()
	name := ManagerName + d.Platform.ShimSuffix()
	for _, env := range managerEnvs {
		dir := d.Getenv(env)
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, "bin", name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return platform.LookPath(d.Platform, ManagerName, pathList)
}

// Command builds the `xvm run` invocation for the shim called name.
func (d Dispatcher) Command(ctx context.Context, name string, args []string) (*exec.Cmd, error) {
	d = d.withDefaults()
	env := platform.NewEnvList(d.Platform, d.Environ())
	pathList := platform.JoinList(d.Platform, d.BinDir, env.Get("PATH"))
	env.Set("PATH", pathList)

	manager, ok := d.ManagerPath(pathList)
	if !ok {
		return nil, fmt.Errorf("cannot locate %s (set XLINGS_HOME or add it to PATH)", ManagerName)
	}

	target, targetArgs := Rewrite(name, args)
	argv := append([]string{"run", target, "--args"}, targetArgs...)
	cmd := exec.CommandContext(ctx, manager, argv...)
	cmd.Env = env.Slice()
	cmd.Stdin = d.Stdin
	cmd.Stdout = d.Stdout
	cmd.Stderr = d.Stderr
	return cmd, nil
}

// Dispatch runs the shim called name and returns the exit code to use.
func (d Dispatcher) Dispatch(ctx context.Context, name string, args []string) int {
	d = d.withDefaults()
	cmd, err := d.Command(ctx, name, args)
	if err != nil {
		fmt.Fprintf(d.Stderr, "xvm-shim: %v\n", err)
		return 1
	}
	err = cmd.Run()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode()
	}
	fmt.Fprintf(d.Stderr, "xvm-shim: run %s: %v\n", cmd.Path, err)
	return 1
}

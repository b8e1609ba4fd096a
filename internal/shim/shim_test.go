package shim

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xvm/internal/platform"
)

func writeDispatcher(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DispatcherName)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho shim\n"), 0o755))
	return path
}

func TestTryCreateIsIdempotent(t *testing.T) {
	m := NewManager(writeDispatcher(t))
	dir := filepath.Join(t.TempDir(), "bin")

	created, err := m.TryCreate("node", dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, m.Exists("node", dir))

	info, err := os.Stat(m.Path("node", dir))
	require.NoError(t, err)

	created, err = m.TryCreate("node", dir)
	require.NoError(t, err)
	assert.False(t, created)

	again, err := os.Stat(m.Path("node", dir))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())
}

func TestTryCreateWithoutDispatcher(t *testing.T) {
	m := NewManager("")
	_, err := m.TryCreate("node", t.TempDir())
	assert.Error(t, err)
}

func TestDeleteMissingShimIsNoop(t *testing.T) {
	m := NewManager(writeDispatcher(t))
	dir := t.TempDir()

	deleted, err := m.Delete("ghost", dir)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = m.TryCreate("node", dir)
	require.NoError(t, err)
	deleted, err = m.Delete("node", dir)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, m.Exists("node", dir))
}

func TestInitWritesAliasWrapper(t *testing.T) {
	m := NewManager("", WithPlatform(platform.Linux()))
	dir := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, m.Init(dir))

	contents, err := os.ReadFile(filepath.Join(dir, AliasWrapper))
	require.NoError(t, err)
	assert.Equal(t, platform.Linux().WrapperScript(), string(contents))
	require.NoError(t, m.Init(dir))

	win := NewManager("", WithPlatform(platform.Windows()))
	assert.Equal(t, filepath.Join(dir, "xvm-alias.bat"), win.AliasWrapperPath(dir))
	assert.Equal(t, filepath.Join(dir, "node.exe"), win.Path("node", dir))
}

func TestProgramNameAndManagerBinary(t *testing.T) {
	assert.Equal(t, "node", ProgramName("/usr/local/bin/node"))
	assert.Equal(t, "node", ProgramName("node.exe"))
	assert.Equal(t, "xvm", ProgramName("./xvm"))
	assert.True(t, IsManagerBinary("xvm"))
	assert.True(t, IsManagerBinary("xvm-shim"))
	assert.False(t, IsManagerBinary("node"))
}

func TestRewriteReservedNames(t *testing.T) {
	target, args := Rewrite("xim", []string{"gcc"})
	assert.Equal(t, "xlings", target)
	assert.Equal(t, []string{"install", "gcc"}, args)

	target, args = Rewrite("xself", nil)
	assert.Equal(t, "xlings", target)
	assert.Equal(t, []string{"self"}, args)

	target, args = Rewrite("node", []string{"-v"})
	assert.Equal(t, "node", target)
	assert.Equal(t, []string{"-v"}, args)
}

func TestDispatcherCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix layout")
	}
	home := t.TempDir()
	managerBin := filepath.Join(home, "bin")
	require.NoError(t, os.MkdirAll(managerBin, 0o755))
	manager := filepath.Join(managerBin, ManagerName)
	require.NoError(t, os.WriteFile(manager, []byte("#!/bin/sh\n"), 0o755))

	env := map[string]string{"XLINGS_HOME": home}
	d := Dispatcher{
		BinDir:   "/managed/bin",
		Platform: platform.Linux(),
		Getenv:   func(k string) string { return env[k] },
		Environ:  func() []string { return []string{"PATH=/usr/bin", "HOME=/root"} },
	}

	cmd, err := d.Command(context.Background(), "xinstall", []string{"node"})
	require.NoError(t, err)
	assert.Equal(t, manager, cmd.Path)
	assert.Equal(t, []string{manager, "run", "xlings", "--args", "install", "node"}, cmd.Args)
	assert.Contains(t, cmd.Env, "PATH=/managed/bin:/usr/bin")
}

func TestDispatchPropagatesExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "bin"), 0o755))
	script := "#!/bin/sh\n[ \"$1\" = run ] && [ \"$2\" = node ] && [ \"$3\" = --args ] && exit 7\nexit 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "bin", ManagerName), []byte(script), 0o755))

	d := Dispatcher{
		BinDir: filepath.Join(home, "bin"),
		Getenv: func(k string) string {
			if k == "XLINGS_SUBOS" {
				return home
			}
			return ""
		},
	}
	assert.Equal(t, 7, d.Dispatch(context.Background(), "node", []string{"-v"}))

	missing := Dispatcher{
		BinDir:  t.TempDir(),
		Getenv:  func(string) string { return "" },
		Environ: func() []string { return []string{"PATH="} },
		Stderr:  io.Discard,
	}
	assert.Equal(t, 1, missing.Dispatch(context.Background(), "node", nil))
}

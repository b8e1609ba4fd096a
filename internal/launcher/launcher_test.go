package launcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xvm/internal/config"
	"xvm/internal/ordered"
	"xvm/internal/paths"
	"xvm/internal/platform"
	"xvm/internal/registry"
)

func testLayout(t *testing.T) paths.Layout {
	t.Helper()
	home := t.TempDir()
	layout, err := paths.Resolve(config.Config{
		Home:  home,
		Data:  filepath.Join(home, "data"),
		Subos: filepath.Join(home, "subos", "default"),
	}, home)
	require.NoError(t, err)
	return layout
}

func envValue(env []string, key string) string {
	return platform.NewEnvList(platform.Linux(), env).Get(key)
}

func writeExecutable(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o755))
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell scripts")
	}
}

func TestEnvironComposesPathInOrder(t *testing.T) {
	layout := testLayout(t)
	l := New("tool", "1.0", layout,
		WithPlatform(platform.Linux()),
		WithEnviron(func() []string { return []string{"PATH=/usr/bin", "FOO=old"} }),
	)
	l.AddEnv("PATH", "/opt/foo/bin")
	l.AddEnv("FOO", "new")

	env := l.Environ(Invocation{Executable: "tool", Bare: true})

	assert.Equal(t, "/opt/foo/bin:"+layout.BinDir+":/usr/bin", envValue(env, "PATH"))
	assert.Equal(t, "new:old", envValue(env, "FOO"))
	assert.Equal(t, layout.LibDir, envValue(env, "LD_LIBRARY_PATH"))
}

func TestEnvironAddsExecutableDirAndLibraryFragments(t *testing.T) {
	layout := testLayout(t)
	l := New("tool", "1.0", layout,
		WithPlatform(platform.Linux()),
		WithEnviron(func() []string { return []string{"LD_LIBRARY_PATH=/usr/lib"} }),
	)
	l.SetPath("/opt/tool")
	l.AddEnv("LD_LIBRARY_PATH", "/opt/tool/lib")

	env := l.Environ(Invocation{Executable: "/opt/tool/bin/tool", Base: "/opt/tool", FromPath: true})
	assert.Equal(t, "/opt/tool:/opt/tool/bin:"+layout.BinDir, envValue(env, "PATH"))
	assert.Equal(t, "/opt/tool/lib:"+layout.LibDir+":/usr/lib", envValue(env, "LD_LIBRARY_PATH"))

	env = l.Environ(Invocation{Executable: "/opt/tool/tool", Base: "/opt/tool", FromPath: true})
	assert.Equal(t, "/opt/tool:"+layout.BinDir, envValue(env, "PATH"))
}

func TestEnvironOnWindowsPutsLibDirOnPath(t *testing.T) {
	layout := testLayout(t)
	l := New("tool", "1.0", layout,
		WithPlatform(platform.Windows()),
		WithEnviron(func() []string { return []string{"Path=C:\\Windows"} }),
	)
	env := platform.NewEnvList(platform.Windows(), l.Environ(Invocation{Executable: "tool", Bare: true}))
	assert.Equal(t, layout.BinDir+";"+layout.LibDir+";C:\\Windows", env.Get("PATH"))
}

func TestLibraryKeysFeedHostFragment(t *testing.T) {
	layout := testLayout(t)
	l := New("tool", "1.0", layout,
		WithPlatform(platform.Darwin()),
		WithEnviron(func() []string { return nil }),
	)
	l.AddEnv("LD_LIBRARY_PATH", "/opt/tool/lib")
	l.AddEnv("DYLD_LIBRARY_PATH", "/opt/tool/lib64")

	assert.Equal(t, []string{"/opt/tool/lib", "/opt/tool/lib64"}, l.Info().LibParts)
	env := l.Environ(Invocation{Executable: "tool", Bare: true})
	assert.Equal(t, "/opt/tool/lib:/opt/tool/lib64:"+layout.LibDir, envValue(env, "DYLD_LIBRARY_PATH"))
	assert.Empty(t, envValue(env, "LD_LIBRARY_PATH"))

	win := New("tool", "1.0", layout,
		WithPlatform(platform.Windows()),
		WithEnviron(func() []string { return []string{"Path=C:\\Windows"} }),
	)
	win.AddEnv("LD_LIBRARY_PATH", "C:\\tool\\lib")
	winEnv := platform.NewEnvList(platform.Windows(), win.Environ(Invocation{Executable: "tool", Bare: true}))
	assert.Equal(t, layout.BinDir+";C:\\tool\\lib;"+layout.LibDir+";C:\\Windows", winEnv.Get("PATH"))
	assert.Empty(t, winEnv.Get("LD_LIBRARY_PATH"))
}

func TestHydrateExpandsPlaceholders(t *testing.T) {
	layout := testLayout(t)
	envs := ordered.New[string]()
	envs.Set("PATH", "${XLINGS_DATA}/extra/bin")
	envs.Set("TOOL_HOME", "${XLINGS_HOME}/tool")
	bindings := ordered.New[string]()
	bindings.Set("dep", "2.0")

	l := New("tool", "1.0", layout, WithPlatform(platform.Linux()))
	l.Hydrate(registry.VersionRecord{Path: "${XLINGS_DATA}/xpkgs/tool/1.0", Envs: envs, Bindings: bindings})

	info := l.Info()
	assert.Equal(t, filepath.Join(layout.DataDir, "xpkgs", "tool", "1.0"), info.SourcePath)
	assert.Equal(t, []string{info.SourcePath, layout.DataDir + "/extra/bin"}, info.PathParts)
	assert.Equal(t, []Env{{Key: "TOOL_HOME", Value: layout.HomeDir + "/tool"}}, info.Envs)
	assert.Equal(t, []registry.Binding{{Target: "dep", Version: "2.0"}}, info.Bindings)
}

func TestResolveProbesInstallLayout(t *testing.T) {
	layout := testLayout(t)
	base := t.TempDir()
	writeExecutable(t, filepath.Join(base, "bin", "tool"), "#!/bin/sh\n")

	l := New("tool", "1.0", layout, WithPlatform(platform.Linux()))
	l.SetPath(base)
	inv, err := l.Resolve()
	require.NoError(t, err)
	canonical, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(canonical, "bin", "tool"), inv.Executable)
	assert.True(t, inv.FromPath)

	writeExecutable(t, filepath.Join(base, "tool"), "#!/bin/sh\n")
	inv, err = l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(canonical, "tool"), inv.Executable)
}

func TestResolveUsesFilename(t *testing.T) {
	layout := testLayout(t)
	base := t.TempDir()
	writeExecutable(t, filepath.Join(base, "bin", "python3"), "#!/bin/sh\n")

	l := New("python", "3.12", layout, WithPlatform(platform.Linux()))
	l.SetPath(base)
	_, err := l.Resolve()
	assert.ErrorIs(t, err, ErrExecutableNotFound)

	l.SetFilename("python3")
	inv, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "python3", filepath.Base(inv.Executable))
}

func TestResolveAliasAndBare(t *testing.T) {
	layout := testLayout(t)
	l := New("pip", "24", layout, WithPlatform(platform.Linux()))
	l.SetAlias("python -m pip")

	inv, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(layout.BinDir, "xvm-alias"), inv.Executable)
	assert.Equal(t, []string{"python", "-m", "pip"}, inv.Prefix)

	bare := New("git", "system", layout, WithPlatform(platform.Linux()))
	inv, err = bare.Resolve()
	require.NoError(t, err)
	assert.True(t, inv.Bare)
	assert.Equal(t, "git", inv.Executable)
}

func TestRunMissingExecutableReportsBothLocations(t *testing.T) {
	layout := testLayout(t)
	base := t.TempDir()
	var stderr bytes.Buffer
	l := New("tool", "1.0", layout,
		WithPlatform(platform.Linux()),
		WithStdio(nil, &bytes.Buffer{}, &stderr),
	)
	l.SetPath(base)

	assert.Equal(t, 1, l.Run(context.Background()))
	out := stderr.String()
	assert.Contains(t, out, filepath.Join("tool"))
	assert.Contains(t, out, "looked for:")
	assert.Contains(t, out, "also tried:")
	assert.Contains(t, out, string(filepath.Separator)+filepath.Join("bin", "tool"))

	_, err := l.Resolve()
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}

func TestRunPropagatesExitCodeAndEnvironment(t *testing.T) {
	skipOnWindows(t)
	layout := testLayout(t)
	base := t.TempDir()
	writeExecutable(t, filepath.Join(base, "bin", "tool"),
		"#!/bin/sh\necho \"$TOOL_MODE $1 $2\"\nexit 3\n")

	var stdout bytes.Buffer
	l := New("tool", "1.0", layout,
		WithEnviron(func() []string { return []string{"PATH=/usr/bin:/bin"} }),
		WithStdio(nil, &stdout, &bytes.Buffer{}),
	)
	l.SetPath(base)
	l.AddEnv("TOOL_MODE", "fast")
	l.AddArgs("a", "b")

	assert.Equal(t, 3, l.Run(context.Background()))
	assert.Equal(t, "fast a b\n", stdout.String())
}

func TestRunBareNameSkipsManagedBinDir(t *testing.T) {
	skipOnWindows(t)
	layout := testLayout(t)
	other := t.TempDir()
	writeExecutable(t, filepath.Join(layout.BinDir, "tool"), "#!/bin/sh\nexit 9\n")
	writeExecutable(t, filepath.Join(other, "tool"), "#!/bin/sh\nexit 4\n")

	l := New("tool", "system", layout,
		WithEnviron(func() []string { return []string{"PATH=" + other} }),
		WithStdio(nil, &bytes.Buffer{}, &bytes.Buffer{}),
	)
	assert.Equal(t, 4, l.Run(context.Background()))

	var stderr bytes.Buffer
	missing := New("nothing-here", "system", layout,
		WithEnviron(func() []string { return []string{"PATH=" + other} }),
		WithStdio(nil, &bytes.Buffer{}, &stderr),
	)
	assert.Equal(t, 1, missing.Run(context.Background()))
	assert.Contains(t, stderr.String(), "not on PATH")
}

type loaderPlatform struct {
	platform.Platform
	loaders []string
}

func (p loaderPlatform) LoaderCandidates() []string { return p.loaders }

func TestRunFallsBackToLoader(t *testing.T) {
	skipOnWindows(t)
	layout := testLayout(t)
	base := t.TempDir()
	// A missing interpreter makes execve fail with ENOENT even though the file exists.
	writeExecutable(t, filepath.Join(base, "tool"), "#!/nonexistent/interpreter\n")
	loaderDir := t.TempDir()
	loader := filepath.Join(loaderDir, "ld.so")
	writeExecutable(t, loader, "#!/bin/sh\ncase \"$1\" in */tool) exit 6;; esac\nexit 1\n")

	l := New("tool", "1.0", layout,
		WithPlatform(loaderPlatform{Platform: platform.Linux(), loaders: []string{filepath.Join(loaderDir, "absent"), loader}}),
		WithEnviron(func() []string { return []string{"PATH=/usr/bin:/bin"} }),
		WithStdio(nil, &bytes.Buffer{}, &bytes.Buffer{}),
	)
	l.SetPath(base)
	assert.Equal(t, 6, l.Run(context.Background()))

	var stderr bytes.Buffer
	noLoader := New("tool", "1.0", layout,
		WithPlatform(loaderPlatform{Platform: platform.Linux()}),
		WithStdio(nil, &bytes.Buffer{}, &stderr),
	)
	noLoader.SetPath(base)
	assert.Equal(t, 1, noLoader.Run(context.Background()))
	assert.Contains(t, stderr.String(), "failed to run tool@1.0")
}

func TestLinkToHonoursReplace(t *testing.T) {
	skipOnWindows(t)
	layout := testLayout(t)
	install := t.TempDir()

	l := New("openssl", "3.0", layout, WithPlatform(platform.Linux()))
	l.SetType(registry.TypeLib)
	l.SetPath(install)
	l.SetAlias("libssl.so.3")
	l.SetFilename("libssl.so")

	link := filepath.Join(layout.LibDir, "libssl.so")
	require.NoError(t, os.MkdirAll(layout.LibDir, 0o755))
	require.NoError(t, os.Symlink("/elsewhere/libssl.so.1", link))

	require.NoError(t, l.LinkTo(layout.LibDir, false))
	got, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/libssl.so.1", got)

	require.NoError(t, l.LinkTo(layout.LibDir, true))
	got, err = os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(install, "libssl.so.3"), got)

	assert.Equal(t, link, l.Info().TargetPath)
	require.NoError(t, l.Unlink(layout.LibDir))
	require.NoError(t, l.Unlink(layout.LibDir))
	_, err = os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
}

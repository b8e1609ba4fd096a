package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvListEditsInPlace(t *testing.T) {
	env := NewEnvList(Linux(), []string{"HOME=/root", "PATH=/usr/bin", "broken", "TERM=xterm"})

	assert.Equal(t, "/usr/bin", env.Get("PATH"))
	env.Set("PATH", "/opt/bin:/usr/bin")
	env.Set("NEW", "1")

	assert.Equal(t, []string{"HOME=/root", "PATH=/opt/bin:/usr/bin", "TERM=xterm", "NEW=1"}, env.Slice())
}

func TestEnvListFoldsCaseOnWindows(t *testing.T) {
	env := NewEnvList(Windows(), []string{"Path=C:\\Windows"})

	assert.Equal(t, "C:\\Windows", env.Get("PATH"))
	env.Set("PATH", "C:\\tools;C:\\Windows")
	assert.Equal(t, []string{"Path=C:\\tools;C:\\Windows"}, env.Slice())
}

func TestJoinListSkipsEmpty(t *testing.T) {
	assert.Equal(t, "a:b", JoinList(Linux(), "", "a", "", "b"))
	assert.Equal(t, "a;b", JoinList(Windows(), "a", "b"))
}

func TestLookPathSkipsExcludedDirs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec bits are not meaningful on windows")
	}
	shims := t.TempDir()
	real := t.TempDir()
	for _, dir := range []string{shims, real} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tool"), []byte("#!/bin/sh\n"), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(shims, "plain"), []byte("data"), 0o644))

	pathList := shims + string(os.PathListSeparator) + real

	found, ok := LookPath(Current(), "tool", pathList, shims)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(real, "tool"), found)

	_, ok = LookPath(Current(), "plain", pathList)
	assert.False(t, ok, "non-executable files are not programs")
}

func TestLookPathSplitsOnPlatformSeparator(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a host whose separator differs from windows")
	}
	empty := t.TempDir()
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "tool.exe"), []byte("MZ"), 0o755))

	found, ok := LookPath(Windows(), "tool", empty+";"+bin)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(bin, "tool.exe"), found)

	found, ok = LookPath(Linux(), "tool.exe", empty+";"+bin)
	assert.False(t, ok, "a semicolon is not a list separator on linux: %s", found)
}

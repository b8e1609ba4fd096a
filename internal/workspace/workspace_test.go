package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xvm/internal/store"
)

type fixture struct {
	global    *Workspace
	localPath string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	global, err := LoadGlobal(filepath.Join(dir, "data", "workspace.xvm.yaml"))
	require.NoError(t, err)
	global.SetVersion("A", "1")
	global.SetVersion("B", "1")
	require.NoError(t, global.Save())
	return fixture{global: global, localPath: filepath.Join(dir, "project", "workspace.xvm.yaml")}
}

func (f fixture) writeLocal(t *testing.T, active, inherit bool, versions ...string) {
	t.Helper()
	local := New(f.localPath, "proj")
	local.SetActive(active)
	local.SetInherit(inherit)
	for i := 0; i+1 < len(versions); i += 2 {
		local.SetVersion(versions[i], versions[i+1])
	}
	require.NoError(t, local.Save())
}

func TestLoadGlobalCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xvm", "workspace.xvm.yaml")
	ws, err := LoadGlobal(path)
	require.NoError(t, err)

	assert.Equal(t, GlobalName, ws.Name())
	assert.True(t, ws.Active())
	assert.True(t, ws.Inherit())
	assert.Empty(t, ws.AllVersions())
	assert.True(t, Exists(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), MetadataKey+":")
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "absent.yaml"))
	assert.ErrorIs(t, err, ErrNotFound)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("versions: [oops\n"), 0o644))
	_, err = LoadGlobal(bad)
	assert.ErrorIs(t, err, store.ErrCorrupt)
}

func TestMergedLoadInherits(t *testing.T) {
	f := newFixture(t)
	f.writeLocal(t, true, true, "B", "2", "C", "1")

	view, err := MergedLoad(f.global, f.localPath)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"A", "1"}, {"B", "2"}, {"C", "1"}}, view.AllVersions())
	assert.Equal(t, "proj + global", view.Name())
	assert.ErrorIs(t, view.Save(), ErrReadOnly)

	v, _ := f.global.Version("B")
	assert.Equal(t, "1", v, "global must not be modified by the merge")
}

func TestMergedLoadWithoutInherit(t *testing.T) {
	f := newFixture(t)
	f.writeLocal(t, true, false, "B", "2", "C", "1")

	view, err := MergedLoad(f.global, f.localPath)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"B", "2"}, {"C", "1"}}, view.AllVersions())
	assert.Equal(t, "proj", view.Name())
}

func TestMergedLoadIgnoresInactiveLocal(t *testing.T) {
	f := newFixture(t)
	f.writeLocal(t, false, true, "B", "2")

	view, err := MergedLoad(f.global, f.localPath)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"A", "1"}, {"B", "1"}}, view.AllVersions())
}

func TestScopedLoad(t *testing.T) {
	f := newFixture(t)

	ws, err := ScopedLoad(f.global, f.localPath)
	require.NoError(t, err)
	assert.Same(t, f.global, ws)

	f.writeLocal(t, true, true, "C", "1")
	ws, err = ScopedLoad(f.global, f.localPath)
	require.NoError(t, err)
	assert.Equal(t, "proj", ws.Name())
	assert.Equal(t, []Entry{{"C", "1"}}, ws.AllVersions())

	f.writeLocal(t, false, true, "C", "1")
	ws, err = ScopedLoad(f.global, f.localPath)
	require.NoError(t, err)
	assert.Same(t, f.global, ws)
}

func TestSelectionEditing(t *testing.T) {
	ws := New(filepath.Join(t.TempDir(), "w.yaml"), "w")
	ws.SetVersion("python", "3.12")
	ws.SetVersion("pip", "24")
	ws.SetVersion("python", "3.13")

	v, ok := ws.Version("python")
	require.True(t, ok)
	assert.Equal(t, "3.13", v)
	assert.Equal(t, []Entry{{"python", "3.13"}}, ws.MatchBy("py"))

	assert.True(t, ws.Remove("pip"))
	assert.False(t, ws.Remove("pip"))

	clone := ws.Clone()
	clone.SetVersion("node", "20")
	assert.Len(t, ws.AllVersions(), 1)

	require.NoError(t, ws.Save())
	reloaded, err := Load(ws.Path())
	require.NoError(t, err)
	assert.Equal(t, ws.Metadata(), reloaded.Metadata())
	assert.Equal(t, ws.AllVersions(), reloaded.AllVersions())
}

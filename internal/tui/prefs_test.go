package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrefs(t *testing.T) {
	p := DefaultPrefs()
	assert.True(t, p.Fast)
	assert.False(t, p.ShowDenied)
}

func TestLoadPrefs_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Equal(t, DefaultPrefs(), LoadPrefs())
}

func TestSaveAndLoadPrefs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	require.NoError(t, SavePrefs(Prefs{Fast: false, ShowDenied: true}))

	info, err := os.Stat(filepath.Join(dir, "hexward", "tui_prefs.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Equal(t, Prefs{Fast: false, ShowDenied: true}, LoadPrefs())
}

func TestLoadPrefs_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hexward"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hexward", "tui_prefs.json"), []byte("{bad"), 0o600))

	assert.Equal(t, DefaultPrefs(), LoadPrefs())
}

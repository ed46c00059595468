package tui

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/hexward/hexward/internal/config"
)

// Prefs holds user preferences for the TUI that persist across sessions.
type Prefs struct {
	// Fast reuses cached verdicts for unchanged files.
	Fast bool `json:"fast"`
	// ShowDenied lists paths that could not be read under the results table.
	ShowDenied bool `json:"show_denied"`
}

// DefaultPrefs returns the default preferences.
func DefaultPrefs() Prefs {
	return Prefs{Fast: true}
}

// prefsPath returns the path to the TUI preferences file, next to the
// global config.
func prefsPath() (string, error) {
	p := config.GlobalPath()
	if p == "" {
		return "", errors.New("no config dir")
	}
	return filepath.Join(filepath.Dir(p), "tui_prefs.json"), nil
}

// LoadPrefs loads user preferences from disk, returning defaults if not found.
func LoadPrefs() Prefs {
	prefs := DefaultPrefs()

	path, err := prefsPath()
	if err != nil {
		return prefs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}

	_ = json.Unmarshal(data, &prefs) //nolint:errcheck // fall back to defaults
	return prefs
}

// SavePrefs persists user preferences to disk.
func SavePrefs(prefs Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

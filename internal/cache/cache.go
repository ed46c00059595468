package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hexward/hexward/internal/fingerprint"
	"github.com/hexward/hexward/internal/types"
)

// ErrCorrupt is returned by Load when the persisted cache cannot be decoded.
// Whether to reset it is up to the caller.
var ErrCorrupt = errors.New("corrupt scan cache")

// Entry is the persisted verdict for one absolute path.
type Entry struct {
	Matched bool    `json:"matched"`
	Digest  string  `json:"digest"`
	Name    string  `json:"name,omitempty"`
	Range   *[2]int `json:"range,omitempty"`
}

// DB maps absolute paths to the digest and verdict seen at the last scan.
// It is not safe for concurrent use; the engine serializes scans.
type DB struct {
	// Signatures identifies the signature set the verdicts were produced with.
	Signatures string           `json:"signatures,omitempty"`
	Entries    map[string]Entry `json:"entries"`
}

// New returns an empty cache.
func New() *DB {
	return &DB{Entries: map[string]Entry{}}
}

// DefaultPath is the per-user cache location.
func DefaultPath() string {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			base = dir
		}
	}
	if base == "" {
		return filepath.Join(os.TempDir(), "hexward", "index.json")
	}
	return filepath.Join(base, "hexward", "index.json")
}

// Load reads the cache at path. A missing file is not an error: an empty
// cache is created and written out.
func Load(path string) (*DB, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		db := New()
		if err := db.Flush(path); err != nil {
			return nil, fmt.Errorf("create scan cache: %w", err)
		}
		return db, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scan cache: %w", err)
	}
	var db DB
	if err := json.Unmarshal(b, &db); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if db.Entries == nil {
		db.Entries = map[string]Entry{}
	}
	return &db, nil
}

// Rebind ties the cache to a signature set. Verdicts produced with a
// different set are dropped; it reports whether that happened.
func (db *DB) Rebind(signatures string) bool {
	if db.Signatures == signatures {
		return false
	}
	dropped := db.Signatures != "" || len(db.Entries) > 0
	db.Signatures = signatures
	db.Entries = map[string]Entry{}
	return dropped
}

// Len returns the number of cached paths.
func (db *DB) Len() int { return len(db.Entries) }

// Lookup returns the cached verdict for path when fast is set and the cached
// digest equals the current one. Entries of unexpected shape are ignored so
// the caller rescans.
func (db *DB) Lookup(path string, fp fingerprint.Fingerprint, fast bool) (types.Verdict, bool) {
	if !fast {
		return types.Verdict{}, false
	}
	e, ok := db.Entries[path]
	if !ok || e.Digest != fp.Digest {
		return types.Verdict{}, false
	}
	return e.verdict()
}

func (e Entry) verdict() (types.Verdict, bool) {
	if !e.Matched {
		if e.Name != "" || e.Range != nil {
			return types.Verdict{}, false
		}
		return types.CleanVerdict(), true
	}
	if e.Name == "" {
		return types.Verdict{}, false
	}
	if e.Range == nil {
		return types.UnfixableVerdict(e.Name), true
	}
	r := types.Range{Start: e.Range[0], End: e.Range[1]}
	if r.Start < 0 || r.End < r.Start {
		return types.Verdict{}, false
	}
	return types.FixableVerdict(e.Name, r), true
}

// Record stores the verdict for path, replacing any previous entry. Aborted
// verdicts are never stored.
func (db *DB) Record(path string, fp fingerprint.Fingerprint, v types.Verdict) {
	e := Entry{Digest: fp.Digest}
	switch v.Kind {
	case types.Clean:
	case types.Unfixable:
		e.Matched, e.Name = true, v.Name
	case types.Fixable:
		e.Matched, e.Name = true, v.Name
		e.Range = &[2]int{v.Range.Start, v.Range.End}
	default:
		return
	}
	db.Entries[path] = e
}

// PruneMissing drops entries whose path no longer exists and returns them.
func (db *DB) PruneMissing() []string {
	var gone []string
	for p := range db.Entries {
		if _, err := os.Lstat(p); errors.Is(err, fs.ErrNotExist) {
			gone = append(gone, p)
		}
	}
	for _, p := range gone {
		delete(db.Entries, p)
	}
	return gone
}

// Flush writes the whole cache to path.
func (db *DB) Flush(path string) error {
	if db.Entries == nil {
		db.Entries = map[string]Entry{}
	}
	return writeJSONAtomic(path, db)
}

func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err == nil {
		return nil
	}

	defer os.Remove(tmp)

	if runtime.GOOS == "windows" {
		_ = os.Remove(path)
	}
	return os.Rename(tmp, path)
}

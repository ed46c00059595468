package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexward/hexward/internal/fingerprint"
	"github.com/hexward/hexward/internal/report"
	"github.com/hexward/hexward/internal/types"
)

func TestLoad_MissingCreatesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "index.json")
	db, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 0, db.Len())
	_, err = os.Stat(p)
	require.NoError(t, err, "cache file should be created")

	again, err := Load(p)
	require.NoError(t, err)
	assert.NotNil(t, again.Entries)
}

func TestLoad_Corrupt(t *testing.T) {
	p := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o644))
	_, err := Load(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestRecordFlushLoad_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "index.json")
	db, err := Load(p)
	require.NoError(t, err)

	clean := fingerprint.Of([]byte("clean"))
	bad := fingerprint.Of([]byte("bad"))
	patched := fingerprint.Of([]byte("patched"))
	db.Record("/a", clean, types.CleanVerdict())
	db.Record("/b", bad, types.UnfixableVerdict("Win.Trojan.X-1"))
	db.Record("/c", patched, types.FixableVerdict("Vbs.Tool.Y-1", types.Range{Start: 4, End: 36}))
	require.NoError(t, db.Flush(p))

	db2, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 3, db2.Len())

	v, ok := db2.Lookup("/a", clean, true)
	require.True(t, ok)
	assert.Equal(t, types.CleanVerdict(), v)
	v, ok = db2.Lookup("/b", bad, true)
	require.True(t, ok)
	assert.Equal(t, types.UnfixableVerdict("Win.Trojan.X-1"), v)
	v, ok = db2.Lookup("/c", patched, true)
	require.True(t, ok)
	assert.Equal(t, types.FixableVerdict("Vbs.Tool.Y-1", types.Range{Start: 4, End: 36}), v)
}

func TestLookup_RequiresFastAndSameDigest(t *testing.T) {
	db := New()
	fp := fingerprint.Of([]byte("x"))
	db.Record("/a", fp, types.UnfixableVerdict("X"))

	_, ok := db.Lookup("/a", fp, false)
	assert.False(t, ok, "slow mode never reuses")
	_, ok = db.Lookup("/a", fingerprint.Of([]byte("y")), true)
	assert.False(t, ok, "changed digest forces a rescan")
	_, ok = db.Lookup("/missing", fp, true)
	assert.False(t, ok)
}

func TestLookup_StaleShapeForcesRescan(t *testing.T) {
	fp := fingerprint.Of([]byte("x"))
	tests := []struct {
		name  string
		entry Entry
	}{
		{name: "matched without name", entry: Entry{Matched: true, Digest: fp.Digest}},
		{name: "clean with name", entry: Entry{Digest: fp.Digest, Name: "X"}},
		{name: "clean with range", entry: Entry{Digest: fp.Digest, Range: &[2]int{0, 2}}},
		{name: "inverted range", entry: Entry{Matched: true, Digest: fp.Digest, Name: "X", Range: &[2]int{8, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := New()
			db.Entries["/a"] = tt.entry
			_, ok := db.Lookup("/a", fp, true)
			assert.False(t, ok)
		})
	}
}

func TestRecord_IgnoresAborted(t *testing.T) {
	db := New()
	db.Record("/a", fingerprint.Of(nil), types.AbortedVerdict())
	assert.Equal(t, 0, db.Len())
}

func TestRecord_Overwrites(t *testing.T) {
	db := New()
	db.Record("/a", fingerprint.Of([]byte("1")), types.UnfixableVerdict("X"))
	db.Record("/a", fingerprint.Of([]byte("2")), types.CleanVerdict())
	v, ok := db.Lookup("/a", fingerprint.Of([]byte("2")), true)
	require.True(t, ok)
	assert.Equal(t, types.Clean, v.Kind)
}

func TestPruneMissing(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep")
	require.NoError(t, os.WriteFile(keep, nil, 0o644))

	db := New()
	db.Record(keep, fingerprint.Of(nil), types.CleanVerdict())
	db.Record(filepath.Join(dir, "gone"), fingerprint.Of(nil), types.CleanVerdict())

	gone := db.PruneMissing()
	assert.Equal(t, []string{filepath.Join(dir, "gone")}, gone)
	assert.Equal(t, 1, db.Len())
	_, ok := db.Entries[keep]
	assert.True(t, ok)
}

func TestRebind(t *testing.T) {
	db := New()
	assert.False(t, db.Rebind("aaaa"), "fresh cache has nothing to drop")
	db.Record("/a", fingerprint.Of(nil), types.CleanVerdict())
	assert.False(t, db.Rebind("aaaa"))
	assert.Equal(t, 1, db.Len())
	assert.True(t, db.Rebind("bbbb"))
	assert.Equal(t, 0, db.Len())
	assert.Equal(t, "bbbb", db.Signatures)
}

func TestSaveLoadResults(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "index.json")
	r := report.New("/scan")
	r.AddFixable("/scan/a", "X", types.Range{Start: 2, End: 6})
	r.AddDenied("/scan/locked")
	require.NoError(t, SaveResults(cachePath, r))

	got, err := LoadResults(cachePath)
	require.NoError(t, err)
	assert.Equal(t, r.Fixable, got.Report.Fixable)
	assert.Equal(t, r.Denied, got.Report.Denied)
	assert.False(t, got.Timestamp.IsZero())
}

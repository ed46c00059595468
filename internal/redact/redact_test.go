package redact

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexward/hexward/internal/fingerprint"
	"github.com/hexward/hexward/internal/report"
	"github.com/hexward/hexward/internal/types"
)

const infectedHex = "2c45402340264b413c4a34a104b6cc3af5c6b3"

func writeHex(t *testing.T, dir, name, h string) string {
	t.Helper()
	b, err := hex.DecodeString(h)
	require.NoError(t, err)
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, b, 0o644))
	return p
}

func readHex(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return hex.EncodeToString(b)
}

func TestExcise(t *testing.T) {
	p := writeHex(t, t.TempDir(), "cut", infectedHex)
	require.True(t, Excise(p, types.Range{Start: 4, End: 36}))
	assert.Equal(t, "2c45b3", readHex(t, p))
}

func TestExcise_EmptyRangeIsNoop(t *testing.T) {
	p := writeHex(t, t.TempDir(), "cut", infectedHex)
	require.True(t, Excise(p, types.Range{Start: 6, End: 6}))
	assert.Equal(t, infectedHex, readHex(t, p))
}

func TestExcise_RejectsBadRanges(t *testing.T) {
	tests := []struct {
		name string
		r    types.Range
	}{
		{name: "negative", r: types.Range{Start: -2, End: 4}},
		{name: "inverted", r: types.Range{Start: 8, End: 4}},
		{name: "past end", r: types.Range{Start: 4, End: 40}},
		{name: "odd length", r: types.Range{Start: 4, End: 7}},
		{name: "odd start even length", r: types.Range{Start: 1, End: 5}},
		{name: "odd start and end", r: types.Range{Start: 3, End: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeHex(t, t.TempDir(), "cut", infectedHex)
			assert.False(t, Excise(p, tt.r))
			assert.Equal(t, infectedHex, readHex(t, p), "file must be left untouched")
		})
	}
}

func TestExcise_MissingFile(t *testing.T) {
	assert.False(t, Excise(filepath.Join(t.TempDir(), "missing"), types.Range{Start: 0, End: 2}))
}

func TestExcise_ReadOnlyFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	p := writeHex(t, t.TempDir(), "ro", infectedHex)
	require.NoError(t, os.Chmod(p, 0o444))
	assert.False(t, Excise(p, types.Range{Start: 4, End: 36}))
}

func TestExciseVerdict_OnlyFixable(t *testing.T) {
	dir := t.TempDir()
	p := writeHex(t, dir, "cut", infectedHex)
	assert.False(t, ExciseVerdict(p, types.UnfixableVerdict("Win.Trojan.X-1")))
	assert.False(t, ExciseVerdict(p, types.CleanVerdict()))
	assert.Equal(t, infectedHex, readHex(t, p))

	assert.True(t, ExciseVerdict(p, types.FixableVerdict("Vbs.Tool.Svbsvc-1", types.Range{Start: 4, End: 36})))
	assert.Equal(t, "2c45b3", readHex(t, p))
}

func TestExciseAll_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	a := writeHex(t, dir, "a", infectedHex)
	b := writeHex(t, dir, "b", infectedHex)
	fixed := ExciseAll([]report.Fixable{
		{Path: a, Name: "X", Range: types.Range{Start: 4, End: 36}},
		{Path: filepath.Join(dir, "missing"), Name: "X", Range: types.Range{Start: 0, End: 2}},
		{Path: b, Name: "X", Range: types.Range{Start: 0, End: 4}},
	})
	assert.Equal(t, []string{a, b}, fixed)
	assert.Equal(t, infectedHex[4:], readHex(t, b))
}

func TestExciseFixable_RefusesChangedFile(t *testing.T) {
	dir := t.TempDir()
	p := writeHex(t, dir, "cut", infectedHex)
	orig, err := os.ReadFile(p)
	require.NoError(t, err)
	f := report.Fixable{Path: p, Name: "X", Range: types.Range{Start: 4, End: 36}, Digest: fingerprint.Of(orig).Digest}
	assert.True(t, Current(f))

	doc := []byte("IMPORTANT user document, nothing malicious")
	require.NoError(t, os.WriteFile(p, doc, 0o644))
	assert.False(t, Current(f))
	assert.False(t, ExciseFixable(f))
	assert.Empty(t, ExciseAll([]report.Fixable{f}))
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	require.NoError(t, os.WriteFile(p, orig, 0o644))
	assert.True(t, ExciseFixable(f))
	assert.Equal(t, "2c45b3", readHex(t, p))
}

func TestCurrent_RequiresDigest(t *testing.T) {
	p := writeHex(t, t.TempDir(), "cut", infectedHex)
	assert.False(t, Current(report.Fixable{Path: p, Range: types.Range{Start: 4, End: 36}}))
	assert.False(t, Current(report.Fixable{Path: filepath.Join(t.TempDir(), "missing"), Digest: "d41d8cd98f00b204e9800998ecf8427e"}))
}

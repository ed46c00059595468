package hexward

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexward/hexward/internal/audit"
	"github.com/hexward/hexward/internal/cache"
	"github.com/hexward/hexward/internal/report"
	"github.com/hexward/hexward/internal/signatures"
)

const (
	bispyContent = "This is a test, so whatever"
	svbsvcHex    = "2c45402340264b413c4a34a104b6cc3af5c6b3"
)

func testSettings(t *testing.T) settings {
	t.Helper()
	dir := t.TempDir()
	hp := filepath.Join(dir, "main.hdb")
	pp := filepath.Join(dir, "main.ndb")
	require.NoError(t, os.WriteFile(hp, []byte("d35f8140e2805f66a9a5aa217fb6f951:27:Win.Spyware.Bispy-7\n"), 0o644))
	require.NoError(t, os.WriteFile(pp, []byte("Vbs.Tool.Svbsvc-1:0:*:4023*f5c6\n"), 0o644))
	return settings{
		HashDB:    hp,
		PatternDB: pp,
		CachePath: filepath.Join(dir, "cache", "index.json"),
		NoColor:   true,
	}
}

func infectedTree(t *testing.T, withHash bool) string {
	t.Helper()
	root := t.TempDir()
	payload, err := hex.DecodeString(svbsvcHex)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "svbsvc.vbs"), payload, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("clean\n"), 0o644))
	if withHash {
		require.NoError(t, os.WriteFile(filepath.Join(root, "bispy.exe"), []byte(bispyContent), 0o644))
	}
	return root
}

func scanJSON(t *testing.T, s settings, root string, o scanOptions) (*report.Report, int) {
	t.Helper()
	o.JSON = true
	var out, errOut bytes.Buffer
	code, err := runScan(context.Background(), &out, &errOut, root, s, o)
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep), out.String())
	return &rep, code
}

func TestRunScan_JSONAndExitCodes(t *testing.T) {
	s := testSettings(t)

	rep, code := scanJSON(t, s, infectedTree(t, true), scanOptions{})
	assert.Equal(t, 1, code)
	require.Len(t, rep.Fixable, 1)
	assert.Equal(t, "Vbs.Tool.Svbsvc-1", rep.Fixable[0].Name)
	require.Len(t, rep.Unfixable, 1)
	assert.Equal(t, "Win.Spyware.Bispy-7", rep.Unfixable[0].Name)

	clean := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(clean, "a.txt"), []byte("nothing here"), 0o644))
	rep, code = scanJSON(t, s, clean, scanOptions{})
	assert.Equal(t, 0, code)
	assert.Zero(t, rep.Infected())
}

func TestRunScan_TextOutput(t *testing.T) {
	s := testSettings(t)
	var out, errOut bytes.Buffer
	code, err := runScan(context.Background(), &out, &errOut, infectedTree(t, true), s, scanOptions{Text: true})
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Infections: 2 (fixable: 1, unfixable: 1)")
	assert.Contains(t, out.String(), "bytes 2-18")
	assert.Contains(t, errOut.String(), "with 2 signatures")
}

func TestRunScan_SARIF(t *testing.T) {
	s := testSettings(t)
	var out, errOut bytes.Buffer
	_, err := runScan(context.Background(), &out, &errOut, infectedTree(t, false), s, scanOptions{SARIF: true})
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
	assert.Empty(t, errOut.String(), "machine output keeps stderr quiet")
}

func TestRunScan_CutExcisesFixable(t *testing.T) {
	s := testSettings(t)
	root := infectedTree(t, false)

	_, code := scanJSON(t, s, root, scanOptions{Cut: true})
	assert.Equal(t, 0, code, "every infection was excised")

	got, err := os.ReadFile(filepath.Join(root, "svbsvc.vbs"))
	require.NoError(t, err)
	assert.Equal(t, "2c45b3", hex.EncodeToString(got))

	rep, code := scanJSON(t, s, root, scanOptions{})
	assert.Equal(t, 0, code)
	assert.Zero(t, rep.Infected())
}

func TestRunScan_PersistsReportAndHistory(t *testing.T) {
	s := testSettings(t)
	root := infectedTree(t, true)
	scanJSON(t, s, root, scanOptions{})

	res, err := cache.LoadResults(s.CachePath)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Report.Infected())

	records, err := audit.NewAuditLog(audit.HistoryPath(s.CachePath)).LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Fixable)
	assert.True(t, records[0].Fast)

	scanJSON(t, s, root, scanOptions{NoHistory: true})
	records, err = audit.NewAuditLog(audit.HistoryPath(s.CachePath)).LoadHistory()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRunScan_SlowAndResetCache(t *testing.T) {
	s := testSettings(t)
	root := infectedTree(t, true)
	scanJSON(t, s, root, scanOptions{})

	rep, _ := scanJSON(t, s, root, scanOptions{})
	assert.Equal(t, 3, rep.Stats.CacheHits)

	s.Slow = true
	rep, _ = scanJSON(t, s, root, scanOptions{})
	assert.Zero(t, rep.Stats.CacheHits)

	s.Slow = false
	rep, _ = scanJSON(t, s, root, scanOptions{ResetCache: true})
	assert.Zero(t, rep.Stats.CacheHits)
	assert.Equal(t, 3, rep.Stats.Rescanned)
}

func TestRunScan_BadDatabase(t *testing.T) {
	s := testSettings(t)
	require.NoError(t, os.WriteFile(s.PatternDB, []byte("only:three:fields\n"), 0o644))

	var out, errOut bytes.Buffer
	code, err := runScan(context.Background(), &out, &errOut, t.TempDir(), s, scanOptions{})
	assert.Equal(t, 2, code)
	assert.True(t, errors.Is(err, signatures.ErrParse))
}

func TestRunFix_FromSavedReport(t *testing.T) {
	s := testSettings(t)
	root := infectedTree(t, true)
	scanJSON(t, s, root, scanOptions{})

	var out bytes.Buffer
	require.NoError(t, runFix(context.Background(), &out, s, root, false, nil))
	assert.Contains(t, out.String(), "fixed      "+filepath.Join(mustEval(t, root), "svbsvc.vbs"))
	assert.Contains(t, out.String(), "unfixable  ")

	got, err := os.ReadFile(filepath.Join(root, "svbsvc.vbs"))
	require.NoError(t, err)
	assert.Equal(t, "2c45b3", hex.EncodeToString(got))

	out.Reset()
	require.NoError(t, runFix(context.Background(), &out, s, root, false, nil))
	assert.Contains(t, out.String(), "Nothing to fix.")
}

func TestRunFix_SkipsFilesChangedSinceScan(t *testing.T) {
	s := testSettings(t)
	root := infectedTree(t, true)
	scanJSON(t, s, root, scanOptions{})

	target := filepath.Join(root, "svbsvc.vbs")
	doc := []byte("IMPORTANT user document, nothing malicious")
	require.NoError(t, os.WriteFile(target, doc, 0o644))

	var out bytes.Buffer
	err := runFix(context.Background(), &out, s, root, false, nil)
	require.ErrorContains(t, err, "changed since the scan")
	assert.Contains(t, out.String(), "stale      "+filepath.Join(mustEval(t, root), "svbsvc.vbs"))
	assert.NotContains(t, out.String(), "fixed      ")

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, doc, got, "changed file must be left untouched")

	res, err := cache.LoadResults(s.CachePath)
	require.NoError(t, err)
	assert.Empty(t, res.Report.Fixable, "stale entry is dropped from the saved report")
}

func TestRunFix_Rescan(t *testing.T) {
	s := testSettings(t)
	root := infectedTree(t, false)

	var out bytes.Buffer
	require.NoError(t, runFix(context.Background(), &out, s, root, true, []string{filepath.Join(root, "svbsvc.vbs")}))
	got, err := os.ReadFile(filepath.Join(root, "svbsvc.vbs"))
	require.NoError(t, err)
	assert.Equal(t, "2c45b3", hex.EncodeToString(got))
}

func TestRunFix_NoSavedReport(t *testing.T) {
	s := testSettings(t)
	err := runFix(context.Background(), &bytes.Buffer{}, s, t.TempDir(), false, nil)
	assert.ErrorContains(t, err, "no saved report")
}

func TestSelectFixable(t *testing.T) {
	all := []report.Fixable{{Path: "/a/x"}, {Path: "/a/y"}}
	assert.Equal(t, all, selectFixable(all, nil))
	assert.Equal(t, []report.Fixable{{Path: "/a/y"}}, selectFixable(all, []string{"/a/y"}))
	assert.Empty(t, selectFixable(all, []string{"/b"}))
}

func TestCacheCommands(t *testing.T) {
	s := testSettings(t)
	root := infectedTree(t, true)
	scanJSON(t, s, root, scanOptions{})

	var out bytes.Buffer
	require.NoError(t, cacheInfo(&out, s))
	assert.Contains(t, out.String(), "Entries:       3")
	assert.Contains(t, out.String(), "2 infected")

	require.NoError(t, os.Remove(filepath.Join(root, "readme.txt")))
	out.Reset()
	require.NoError(t, cachePrune(&out, s))
	assert.Equal(t, "Pruned 1 entries\n", out.String())

	out.Reset()
	require.NoError(t, cacheReset(&out, s))
	_, err := os.Stat(s.CachePath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(cache.ResultsPath(s.CachePath))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	require.NoError(t, cacheReset(&out, s), "resetting twice is fine")
}

func TestWriteConfigTemplate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", ".hexward.yml")
	var buf bytes.Buffer
	require.NoError(t, writeConfigTemplate(&buf, out, false))
	assert.Contains(t, buf.String(), "Wrote")

	assert.ErrorContains(t, writeConfigTemplate(&buf, out, false), "already exists")
	assert.NoError(t, writeConfigTemplate(&buf, out, true))
}

func TestPrintHistory(t *testing.T) {
	s := testSettings(t)
	log := audit.NewAuditLog(audit.HistoryPath(s.CachePath))

	var out bytes.Buffer
	require.NoError(t, printHistory(&out, log, 0, false))
	assert.Contains(t, out.String(), "No scans recorded yet.")

	root := infectedTree(t, true)
	scanJSON(t, s, root, scanOptions{})
	scanJSON(t, s, root, scanOptions{})

	out.Reset()
	require.NoError(t, printHistory(&out, log, 1, true))
	var records []audit.ScanRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].CacheHits)

	out.Reset()
	require.NoError(t, printHistory(&out, log, 0, false))
	assert.Contains(t, out.String(), "complete")
}

func TestPrintSignatures(t *testing.T) {
	s := testSettings(t)
	store, err := signatures.Load(s.HashDB, s.PatternDB)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printSignatures(&out, s, store, false))
	assert.Contains(t, out.String(), "(1 signatures)")
	assert.Contains(t, out.String(), store.ID())

	out.Reset()
	require.NoError(t, printSignatures(&out, s, store, true))
	assert.Contains(t, out.String(), "Vbs.Tool.Svbsvc-1")
	assert.Contains(t, out.String(), "Win.Spyware.Bispy-7")
}

func TestPickHelpers(t *testing.T) {
	v := "cfg"
	assert.Equal(t, "cli", pickString("cli", &v, "def"))
	assert.Equal(t, "cfg", pickString("", &v, "def"))
	assert.Equal(t, "def", pickString("", nil, "def"))

	f := false
	assert.True(t, pickBool(true, &f))
	assert.False(t, pickBool(false, &f))

	n := int64(5)
	assert.EqualValues(t, 5, pickInt64(0, &n))
	assert.EqualValues(t, 7, pickInt64(7, &n))
}

func TestExitError(t *testing.T) {
	var ee exitError
	assert.True(t, errors.As(error(exitError{code: 1}), &ee))
	assert.Equal(t, 1, ee.code)
}

func mustEval(t *testing.T, p string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(p)
	require.NoError(t, err)
	return r
}

func TestAddIgnores(t *testing.T) {
	s := testSettings(t)
	root := infectedTree(t, true)

	var out bytes.Buffer
	require.NoError(t, addIgnores(&out, root, []string{"*.vbs", "bispy.exe"}))
	assert.Contains(t, out.String(), "Ignoring *.vbs")

	rep, code := scanJSON(t, s, root, scanOptions{})
	assert.Equal(t, 0, code)
	assert.Zero(t, rep.Infected())
}

func TestWriteCompletion(t *testing.T) {
	for _, shell := range completionShells {
		var out bytes.Buffer
		require.NoError(t, writeCompletion(&out, shell), shell)
		assert.Contains(t, out.String(), "hexward", shell)
	}
	assert.ErrorContains(t, writeCompletion(&bytes.Buffer{}, "tcsh"), "unsupported shell")
}

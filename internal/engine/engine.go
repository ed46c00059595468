package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hexward/hexward/internal/cache"
	"github.com/hexward/hexward/internal/fingerprint"
	"github.com/hexward/hexward/internal/ignore"
	"github.com/hexward/hexward/internal/report"
	"github.com/hexward/hexward/internal/signatures"
	"github.com/hexward/hexward/internal/types"
)

var (
	// ErrScanInProgress is returned when Scan is called while another scan
	// on the same Engine is running.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrRootNotFound is returned when the scan root does not exist.
	ErrRootNotFound = errors.New("scan root not found")
)

// Config controls how the engine loads its signatures and cache and which
// files a scan considers.
type Config struct {
	HashDB    string
	PatternDB string
	CachePath string

	// Store, when set, is used instead of loading HashDB and PatternDB.
	Store *signatures.Store

	IncludeGlobs string
	ExcludeGlobs string
	MaxBytes     int64

	Logger *slog.Logger
}

// Options are per-scan settings. Both callbacks are optional; without them
// the scan can only be cancelled through its context.
type Options struct {
	Fast    bool
	OnFile  FileFunc
	OnSweep signatures.SweepFunc
}

// Engine owns a signature store and a scan cache. Scans on one Engine are
// serialized.
type Engine struct {
	cfg      Config
	store    *signatures.Store
	db       *cache.DB
	log      *slog.Logger
	metrics  instruments
	includes []string
	excludes []string

	scanMu sync.Mutex

	lastMu sync.RWMutex
	last   *report.Report
}

// New loads the signature databases and the scan cache. A malformed
// database or a corrupt cache fails construction.
func New(cfg Config) (*Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	store := cfg.Store
	if store == nil {
		s, err := signatures.Load(cfg.HashDB, cfg.PatternDB)
		if err != nil {
			return nil, fmt.Errorf("load signatures: %w", err)
		}
		store = s
	}
	if cfg.CachePath == "" {
		cfg.CachePath = cache.DefaultPath()
	}
	db, err := cache.Load(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("load scan cache: %w", err)
	}
	if db.Rebind(store.ID()) {
		log.Info("signature set changed, cached verdicts dropped", "signatures", store.ID())
	}
	log.Debug("engine ready",
		"hash_signatures", store.HashCount(),
		"pattern_signatures", store.PatternCount(),
		"cached_paths", db.Len())
	return &Engine{
		cfg:      cfg,
		store:    store,
		db:       db,
		log:      log,
		metrics:  newInstruments(),
		includes: parseGlobsList(cfg.IncludeGlobs),
		excludes: parseGlobsList(cfg.ExcludeGlobs),
	}, nil
}

// Store returns the loaded signature store.
func (e *Engine) Store() *signatures.Store { return e.store }

// LastReport returns a copy of the most recent completed or aborted report,
// or nil before the first scan.
func (e *Engine) LastReport() *report.Report {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	return e.last.Clone()
}

// Scan walks root and returns a fresh report. Cancellation, through either
// callback or ctx, is not an error: the partial report comes back with
// Aborted set. The cache is flushed at the end of every scan; a flush
// failure is returned alongside the report. A nil ctx is treated as
// context.Background().
func (e *Engine) Scan(ctx context.Context, root string, opts Options) (*report.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !e.scanMu.TryLock() {
		return nil, ErrScanInProgress
	}
	defer e.scanMu.Unlock()

	root, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	rep := report.New(root)
	e.log.Info("scan started", "root", root, "fast", opts.Fast)

	files := e.collect(ctx, root, e.loadIgnore(root), rep)
	rep.Stats.FilesTotal = len(files)

	sweep := func(percent int) bool {
		if ctx.Err() != nil {
			return true
		}
		return opts.OnSweep != nil && opts.OnSweep(percent)
	}

	for i, p := range files {
		if ctx.Err() != nil || (opts.OnFile != nil && opts.OnFile(100*i/len(files), p)) {
			rep.Aborted = true
			break
		}
		if !e.scanFile(ctx, p, opts.Fast, sweep, rep) {
			rep.Aborted = true
			break
		}
	}

	if !rep.Aborted {
		if gone := e.db.PruneMissing(); len(gone) > 0 {
			e.log.Debug("pruned missing paths from cache", "count", len(gone))
		}
	}
	var flushErr error
	if err := e.db.Flush(e.cfg.CachePath); err != nil {
		e.log.Warn("scan cache flush failed", "path", e.cfg.CachePath, "error", err)
		flushErr = fmt.Errorf("flush scan cache: %w", err)
	}

	rep.Stats.Duration = time.Since(started)
	e.metrics.scans.Add(ctx, 1, outcomeAttr(rep.Aborted))
	e.log.Info("scan finished",
		"root", root,
		"aborted", rep.Aborted,
		"files", rep.Stats.FilesScanned,
		"cache_hits", rep.Stats.CacheHits,
		"infected", rep.Infected(),
		"denied", len(rep.Denied),
		"duration", rep.Stats.Duration)

	e.lastMu.Lock()
	e.last = rep.Clone()
	e.lastMu.Unlock()
	return rep, flushErr
}

// scanFile handles one file and returns false if the sweep was cancelled.
func (e *Engine) scanFile(ctx context.Context, path string, fast bool, sweep signatures.SweepFunc, rep *report.Report) bool {
	fp, data, err := fingerprint.File(path)
	if err != nil {
		rep.AddDenied(path)
		e.log.Warn("access denied", "path", path, "error", err)
		e.metrics.denied.Add(ctx, 1)
		return true
	}
	if v, ok := e.db.Lookup(path, fp, fast); ok {
		rep.Stats.CacheHits++
		rep.Stats.FilesScanned++
		rep.Apply(path, fp.Digest, v)
		e.metrics.cacheHits.Add(ctx, 1)
		e.metrics.files.Add(ctx, 1)
		e.countInfection(ctx, v)
		return true
	}

	v := e.store.Classify(fp.Digest, fp.Size, hex.EncodeToString(data), sweep)
	if v.Kind == types.Aborted {
		return false
	}
	e.db.Record(path, fp, v)
	rep.Stats.Rescanned++
	rep.Stats.FilesScanned++
	rep.Apply(path, fp.Digest, v)
	e.metrics.rescans.Add(ctx, 1)
	e.metrics.files.Add(ctx, 1)
	e.countInfection(ctx, v)
	e.log.Debug("file classified", "path", path, "verdict", v.String())
	return true
}

func (e *Engine) countInfection(ctx context.Context, v types.Verdict) {
	if v.Infected() {
		e.metrics.infections.Add(ctx, 1, verdictAttr(v))
	}
}

// PruneCache drops cache entries for paths that no longer exist and flushes
// the result.
func (e *Engine) PruneCache() (int, error) {
	if !e.scanMu.TryLock() {
		return 0, ErrScanInProgress
	}
	defer e.scanMu.Unlock()
	gone := e.db.PruneMissing()
	if err := e.db.Flush(e.cfg.CachePath); err != nil {
		return len(gone), fmt.Errorf("flush scan cache: %w", err)
	}
	return len(gone), nil
}

// loadIgnore reads the ignore file in root, if any. A file that cannot be
// read is logged and ignored. Single-file scans have no ignore file.
func (e *Engine) loadIgnore(root string) *ignore.Matcher {
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil
	}
	ig, err := ignore.Load(filepath.Join(root, ignore.FileName))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.log.Warn("ignore file unreadable", "path", filepath.Join(root, ignore.FileName), "error", err)
		}
		return nil
	}
	e.log.Debug("ignore file loaded", "rules", ig.Len())
	return ig
}

func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

// Job is a scan running on its own goroutine.
type Job struct {
	done chan struct{}
	rep  *report.Report
	err  error
}

// Start runs Scan on a new goroutine.
func (e *Engine) Start(ctx context.Context, root string, opts Options) *Job {
	j := &Job{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.rep, j.err = e.Scan(ctx, root, opts)
	}()
	return j
}

// Done is closed when the scan returns.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the scan returns.
func (j *Job) Wait() (*report.Report, error) {
	<-j.done
	return j.rep, j.err
}

package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hexward/hexward/internal/ignore"
	"github.com/hexward/hexward/internal/report"
)

// collect lists the regular files under root depth-first in lexical order.
// Unreadable directories and broken links are recorded as denied and left
// out. Symlinks are followed only when they resolve to a regular file. Paths
// matched by ig or the exclude globs are skipped silently.
func (e *Engine) collect(ctx context.Context, root string, ig *ignore.Matcher, rep *report.Report) []string {
	var files []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			rep.AddDenied(p)
			e.log.Warn("access denied", "path", p, "error", err)
			e.metrics.denied.Add(ctx, 1)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		if rel == "." {
			rel = filepath.Base(p)
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			if ig.MatchDir(rel) || (len(e.excludes) > 0 && matchAnyGlob(filepath.ToSlash(rel), e.excludes)) {
				return filepath.SkipDir
			}
			return nil
		}
		if ig.Match(rel) || !allowedByGlobs(rel, e.includes, e.excludes) {
			return nil
		}

		var size int64 = -1
		switch mode := d.Type(); {
		case mode.IsRegular():
			if info, err := d.Info(); err == nil {
				size = info.Size()
			}
		case mode&fs.ModeSymlink != 0:
			info, err := os.Stat(p)
			if err != nil {
				rep.AddDenied(p)
				e.log.Warn("unresolvable link", "path", p, "error", err)
				e.metrics.denied.Add(ctx, 1)
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			size = info.Size()
		default:
			return nil
		}

		if e.cfg.MaxBytes > 0 && size > e.cfg.MaxBytes {
			rep.Stats.Skipped++
			e.log.Debug("skipping large file", "path", p, "size", size)
			return nil
		}
		files = append(files, p)
		return nil
	})
	return files
}

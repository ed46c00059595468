package core

import (
	"context"

	"github.com/hexward/hexward/internal/engine"
	"github.com/hexward/hexward/internal/redact"
	"github.com/hexward/hexward/internal/report"
	"github.com/hexward/hexward/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Config = engine.Config
type Options = engine.Options
type Progress = engine.Progress
type Report = report.Report
type Fixable = report.Fixable
type Unfixable = report.Unfixable
type Range = types.Range

// Scanner is an opened signature set plus scan cache.
type Scanner struct {
	eng *engine.Engine
}

// Open loads the signature databases and the scan cache named by cfg.
func Open(cfg Config) (*Scanner, error) {
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Scanner{eng: eng}, nil
}

// Scan walks root. See engine.Engine.Scan for cancellation semantics.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) (*Report, error) {
	return s.eng.Scan(ctx, root, opts)
}

// LastReport returns a copy of the previous scan's report, or nil.
func (s *Scanner) LastReport() *Report { return s.eng.LastReport() }

// Scan is a one-shot convenience: open, scan root in fast mode, return.
func Scan(ctx context.Context, cfg Config, root string) (*Report, error) {
	s, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, root, Options{Fast: true})
}

// Excise removes a fixable infection from its file in place. It refuses,
// returning false, when the file changed since the scan that reported f.
func Excise(f Fixable) bool { return redact.ExciseFixable(f) }

package engine

import (
	"sync/atomic"
)

// FileFunc receives coarse progress before each file and returns true to
// cancel the scan.
type FileFunc func(percent int, path string) bool

// Progress is shared between a scanning goroutine and a control goroutine.
// The scanner reports through OnFile and OnSweep; the controller polls
// Snapshot and requests cancellation with Cancel. The cancel flag is only
// observed at the two checkpoints, so a file being read cannot be interrupted.
type Progress struct {
	cancel atomic.Bool
	coarse atomic.Int32
	fine   atomic.Int32
	path   atomic.Pointer[string]
}

// Snapshot is a point-in-time view of a running scan.
type Snapshot struct {
	Coarse    int
	Fine      int
	Path      string
	Cancelled bool
}

// Cancel asks the scan to stop at its next checkpoint.
func (p *Progress) Cancel() { p.cancel.Store(true) }

// Cancelled reports whether Cancel was called since the last Reset.
func (p *Progress) Cancelled() bool { return p.cancel.Load() }

// Reset clears the flag and counters so the Progress can drive another scan.
func (p *Progress) Reset() {
	p.cancel.Store(false)
	p.coarse.Store(0)
	p.fine.Store(0)
	p.path.Store(nil)
}

// OnFile is a FileFunc.
func (p *Progress) OnFile(percent int, path string) bool {
	p.coarse.Store(int32(percent))
	p.fine.Store(0)
	p.path.Store(&path)
	return p.cancel.Load()
}

// OnSweep is a signatures.SweepFunc.
func (p *Progress) OnSweep(percent int) bool {
	p.fine.Store(int32(percent))
	return p.cancel.Load()
}

// Options wires both callbacks into scan options.
func (p *Progress) Options(fast bool) Options {
	return Options{Fast: fast, OnFile: p.OnFile, OnSweep: p.OnSweep}
}

func (p *Progress) Snapshot() Snapshot {
	s := Snapshot{
		Coarse:    int(p.coarse.Load()),
		Fine:      int(p.fine.Load()),
		Cancelled: p.cancel.Load(),
	}
	if path := p.path.Load(); path != nil {
		s.Path = *path
	}
	return s
}

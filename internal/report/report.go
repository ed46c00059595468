// Package report accumulates the outcome of a scan and renders it for the
// command line.
package report

import (
	"time"

	"github.com/hexward/hexward/internal/types"
)

// Fixable is a pattern hit whose hex range can be excised. Digest is the MD5
// of the contents Range was matched in; the range is meaningless once the
// file no longer has that digest.
type Fixable struct {
	Path   string      `json:"path"`
	Name   string      `json:"name"`
	Range  types.Range `json:"range"`
	Digest string      `json:"digest,omitempty"`
}

// Unfixable is a hash hit with no known range.
type Unfixable struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Stats summarizes the work a scan did.
type Stats struct {
	FilesTotal   int           `json:"files_total"`
	FilesScanned int           `json:"files_scanned"`
	CacheHits    int           `json:"cache_hits"`
	Rescanned    int           `json:"rescanned"`
	Skipped      int           `json:"skipped"`
	Duration     time.Duration `json:"duration"`
}

// Report collects fixable, unfixable and denied outcomes in walk order.
type Report struct {
	Root      string      `json:"root"`
	Fixable   []Fixable   `json:"fixable"`
	Unfixable []Unfixable `json:"unfixable"`
	Denied    []string    `json:"denied"`
	Aborted   bool        `json:"aborted"`
	Stats     Stats       `json:"stats"`
}

// New returns an empty report for a scan of root.
func New(root string) *Report {
	return &Report{
		Root:      root,
		Fixable:   []Fixable{},
		Unfixable: []Unfixable{},
		Denied:    []string{},
	}
}

func (r *Report) AddFixable(path, name string, rg types.Range) {
	r.Fixable = append(r.Fixable, Fixable{Path: path, Name: name, Range: rg})
}

func (r *Report) AddUnfixable(path, name string) {
	r.Unfixable = append(r.Unfixable, Unfixable{Path: path, Name: name})
}

func (r *Report) AddDenied(path string) {
	r.Denied = append(r.Denied, path)
}

// Apply records an infected verdict for path, whose contents had the given
// digest when v was produced. Clean and aborted verdicts leave the report
// untouched.
func (r *Report) Apply(path, digest string, v types.Verdict) {
	switch v.Kind {
	case types.Fixable:
		r.Fixable = append(r.Fixable, Fixable{Path: path, Name: v.Name, Range: v.Range, Digest: digest})
	case types.Unfixable:
		r.AddUnfixable(path, v.Name)
	}
}

// Infected counts fixable and unfixable entries.
func (r *Report) Infected() int { return len(r.Fixable) + len(r.Unfixable) }

// Clone returns a deep copy safe to hand to other goroutines.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := *r
	out.Fixable = append([]Fixable{}, r.Fixable...)
	out.Unfixable = append([]Unfixable{}, r.Unfixable...)
	out.Denied = append([]string{}, r.Denied...)
	return &out
}

// ShouldFail reports whether the scan found anything infected.
func ShouldFail(r *Report) bool {
	return r != nil && r.Infected() > 0
}

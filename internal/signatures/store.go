package signatures

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/hexward/hexward/internal/types"
)

const (
	digestLen        = 32
	minHashFields    = 3
	minPatternFields = 4
	maxLineBytes     = 16 << 20
)

// HashSignature matches a file whose digest and size both equal the stored
// values.
type HashSignature struct {
	Name   string
	Digest string
	Size   int64
}

// PatternSignature matches hex-encoded file contents with a compiled wildcard
// pattern.
type PatternSignature struct {
	Name    string
	Source  string
	matcher *Matcher
}

// Find returns the leftmost byte-aligned match span in hexContent.
func (p PatternSignature) Find(hexContent string) (types.Range, bool) {
	loc := p.matcher.Find(hexContent)
	if loc == nil {
		return types.Range{}, false
	}
	return types.Range{Start: loc[0], End: loc[1]}, true
}

// SweepFunc receives the percentage of pattern signatures already tried and
// returns true to cancel the sweep.
type SweepFunc func(percent int) bool

// Outcome describes how a sweep ended.
type Outcome int

const (
	NoMatch Outcome = iota
	Matched
	Cancelled
)

// SweepResult is the first pattern hit of a sweep, if any.
type SweepResult struct {
	Outcome Outcome
	Name    string
	Range   types.Range
}

// Store is an immutable, load-ordered set of hash and pattern signatures.
// It is safe for concurrent use.
type Store struct {
	hashes   []HashSignature
	patterns []PatternSignature
	id       string
}

// Load reads and compiles both databases. Any unreadable file or malformed
// line fails the whole load.
func Load(hashPath, patternPath string) (*Store, error) {
	hf, err := os.Open(hashPath)
	if err != nil {
		return nil, fmt.Errorf("open hash database: %w", err)
	}
	defer hf.Close()
	pf, err := os.Open(patternPath)
	if err != nil {
		return nil, fmt.Errorf("open pattern database: %w", err)
	}
	defer pf.Close()
	return parse(hashPath, hf, patternPath, pf)
}

// Parse builds a Store from database contents held in readers.
func Parse(hashDB, patternDB io.Reader) (*Store, error) {
	return parse("hash", hashDB, "pattern", patternDB)
}

func parse(hashName string, hashDB io.Reader, patternName string, patternDB io.Reader) (*Store, error) {
	d := xxhash.New()
	s := &Store{}

	err := eachLine(hashName, io.TeeReader(hashDB, d), func(n int, line string) error {
		sig, err := parseHashLine(line)
		if err != nil {
			return &ParseError{File: hashName, Line: n, Reason: err.Error()}
		}
		s.hashes = append(s.hashes, sig)
		return nil
	})
	if err != nil {
		return nil, err
	}
	_, _ = d.Write([]byte{0})

	err = eachLine(patternName, io.TeeReader(patternDB, d), func(n int, line string) error {
		fields := strings.Split(line, ":")
		if len(fields) < minPatternFields {
			return &ParseError{File: patternName, Line: n, Reason: fmt.Sprintf("want at least %d fields, got %d", minPatternFields, len(fields))}
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			return &ParseError{File: patternName, Line: n, Reason: "empty malware name"}
		}
		m, err := Compile(fields[3])
		if err != nil {
			return &ParseError{File: patternName, Line: n, Reason: "invalid pattern", Err: err}
		}
		s.patterns = append(s.patterns, PatternSignature{Name: name, Source: fields[3], matcher: m})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.id = fmt.Sprintf("%016x", d.Sum64())
	return s, nil
}

func parseHashLine(line string) (HashSignature, error) {
	fields := strings.Split(line, ":")
	if len(fields) < minHashFields {
		return HashSignature{}, fmt.Errorf("want at least %d fields, got %d", minHashFields, len(fields))
	}
	digest := strings.ToLower(strings.TrimSpace(fields[0]))
	if len(digest) != digestLen {
		return HashSignature{}, fmt.Errorf("digest %q is not %d hex digits", digest, digestLen)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return HashSignature{}, fmt.Errorf("digest %q is not hex", digest)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil || size < 0 {
		return HashSignature{}, fmt.Errorf("invalid file size %q", fields[1])
	}
	name := strings.TrimSpace(fields[2])
	if name == "" {
		return HashSignature{}, fmt.Errorf("empty malware name")
	}
	return HashSignature{Name: name, Digest: digest, Size: size}, nil
}

func eachLine(name string, r io.Reader, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s database: %w", name, err)
	}
	return nil
}

// ID identifies the exact database contents the store was built from.
func (s *Store) ID() string { return s.id }

// HashCount returns the number of hash signatures.
func (s *Store) HashCount() int { return len(s.hashes) }

// PatternCount returns the number of pattern signatures.
func (s *Store) PatternCount() int { return len(s.patterns) }

// Hashes returns the hash signatures in load order.
func (s *Store) Hashes() []HashSignature {
	return append([]HashSignature(nil), s.hashes...)
}

// Patterns returns the pattern signatures in load order.
func (s *Store) Patterns() []PatternSignature {
	return append([]PatternSignature(nil), s.patterns...)
}

// MatchByHash returns the first hash signature, in load order, whose size and
// digest both equal the given fingerprint.
func (s *Store) MatchByHash(digest string, size int64) (string, bool) {
	for _, sig := range s.hashes {
		if sig.Size == size && sig.Digest == digest {
			return sig.Name, true
		}
	}
	return "", false
}

// SweepPatterns tries every pattern signature in load order against
// hexContent and stops at the first match. onProgress, if set, runs before
// each signature and may cancel the sweep.
func (s *Store) SweepPatterns(hexContent string, onProgress SweepFunc) SweepResult {
	total := len(s.patterns)
	for i, sig := range s.patterns {
		if onProgress != nil && onProgress(100*i/total) {
			return SweepResult{Outcome: Cancelled}
		}
		if r, ok := sig.Find(hexContent); ok {
			return SweepResult{Outcome: Matched, Name: sig.Name, Range: r}
		}
	}
	return SweepResult{Outcome: NoMatch}
}

// Classify checks hash signatures first and falls back to the pattern sweep.
func (s *Store) Classify(digest string, size int64, hexContent string, onProgress SweepFunc) types.Verdict {
	if name, ok := s.MatchByHash(digest, size); ok {
		return types.UnfixableVerdict(name)
	}
	res := s.SweepPatterns(hexContent, onProgress)
	switch res.Outcome {
	case Matched:
		return types.FixableVerdict(res.Name, res.Range)
	case Cancelled:
		return types.AbortedVerdict()
	default:
		return types.CleanVerdict()
	}
}

// Package redact removes matched malware spans from infected files in place.
package redact

import (
	"encoding/hex"
	"os"

	"github.com/hexward/hexward/internal/fingerprint"
	"github.com/hexward/hexward/internal/report"
	"github.com/hexward/hexward/internal/types"
)

// Excise deletes the hex-character range r from the file at path and
// rewrites it in place. The write is not atomic. It returns false, leaving
// the file untouched where possible, when the file cannot be read or written
// or when r does not fit the contents or falls off a byte boundary.
func Excise(path string, r types.Range) bool {
	return excise(path, "", r)
}

// ExciseFixable excises f.Range from f.Path, provided the file still has
// f.Digest. A file that changed since it was matched is left alone and
// reported as a failure. Entries without a digest are not checked.
func ExciseFixable(f report.Fixable) bool {
	return excise(f.Path, f.Digest, f.Range)
}

// Current reports whether the file at f.Path still holds the contents f was
// matched in.
func Current(f report.Fixable) bool {
	fp, _, err := fingerprint.File(f.Path)
	return err == nil && f.Digest != "" && fp.Digest == f.Digest
}

func excise(path, digest string, r types.Range) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if digest != "" && fingerprint.Of(data).Digest != digest {
		return false
	}
	fixed, ok := cut(data, r)
	if !ok {
		return false
	}
	return os.WriteFile(path, fixed, 0o644) == nil
}

func cut(data []byte, r types.Range) ([]byte, bool) {
	h := hex.EncodeToString(data)
	if r.Start < 0 || r.End < r.Start || r.End > len(h) || r.Start%2 != 0 || r.End%2 != 0 {
		return nil, false
	}
	out, err := hex.DecodeString(h[:r.Start] + h[r.End:])
	if err != nil {
		return nil, false
	}
	return out, true
}

// ExciseVerdict excises a fixable verdict. Any other verdict carries no range
// and is a no-op returning false.
func ExciseVerdict(path string, v types.Verdict) bool {
	if v.Kind != types.Fixable {
		return false
	}
	return Excise(path, v.Range)
}

// ExciseAll attempts every fixable entry with ExciseFixable and returns the
// paths that were rewritten. Failures do not stop the pass.
func ExciseAll(entries []report.Fixable) []string {
	var fixed []string
	for _, f := range entries {
		if ExciseFixable(f) {
			fixed = append(fixed, f.Path)
		}
	}
	return fixed
}

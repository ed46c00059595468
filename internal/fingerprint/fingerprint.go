// Package fingerprint computes the content digest used to match hash
// signatures and to decide whether a cached verdict is still current.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"os"
)

// Fingerprint identifies file contents by MD5 digest and length. It is a
// change detector, not an integrity proof.
type Fingerprint struct {
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
}

// Of fingerprints b.
func Of(b []byte) Fingerprint {
	sum := md5.Sum(b)
	return Fingerprint{Digest: hex.EncodeToString(sum[:]), Size: int64(len(b))}
}

// File reads path in full and returns its fingerprint along with the bytes,
// so callers fingerprint and match from a single read.
func File(path string) (Fingerprint, []byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Fingerprint{}, nil, err
	}
	return Of(b), b, nil
}

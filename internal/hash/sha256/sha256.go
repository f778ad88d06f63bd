// Package sha256 computes content digests for stored crawl results.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements crawler.Hasher with SHA-256.
type Hasher struct{}

// New returns a SHA-256 Hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the lower-case hex digest of data, prefixed with the
// algorithm so consumers can verify the uploaded object.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return Prefix + hex.EncodeToString(sum[:]), nil
}

// Prefix tags digests produced by Hasher.
const Prefix = "sha256:"

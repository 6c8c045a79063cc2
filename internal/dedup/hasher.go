// Package dedup computes content hashes and detects duplicate files
// against the persisted index.
package dedup

import (
	"crypto/md5" //nolint:gosec // duplicate detection, not security
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashChunkSize is the streaming buffer size. Files are never loaded
// whole; multi-gigabyte inputs hash in constant memory.
const hashChunkSize = 1 << 20

// HashFile computes the content digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied staging path
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer func() { _ = f.Close() }()

	return HashReader(f)
}

// HashReader computes the content digest of everything readable from r.
func HashReader(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec // duplicate detection, not security
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

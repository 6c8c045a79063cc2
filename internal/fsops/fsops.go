// Package fsops implements the filesystem capability consumed by the
// reconciliation and commit engines.
package fsops

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/sortd/sortd/internal/dedup"
	"github.com/sortd/sortd/internal/service"
)

// sniffLen is how many bytes the text detector inspects.
const sniffLen = 8192

// FS is the real-filesystem implementation of service.FileSystem.
type FS struct{}

// New returns a filesystem capability backed by the OS.
func New() *FS {
	return &FS{}
}

var _ service.FileSystem = (*FS)(nil)

// ReadText reads up to maxBytes of the file and reports whether the
// content looks like text. Binary content returns IsText=false with
// empty content rather than an error; the caller decides the fallback.
func (f *FS) ReadText(ctx context.Context, path string, maxBytes int64) (service.TextContent, error) {
	if err := ctx.Err(); err != nil {
		return service.TextContent{}, err
	}

	file, err := os.Open(path) //nolint:gosec // caller-supplied staging path
	if err != nil {
		return service.TextContent{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return service.TextContent{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !looksLikeText(data) {
		return service.TextContent{IsText: false}, nil
	}
	return service.TextContent{Content: string(data), IsText: true}, nil
}

// ReadBinaryBase64 reads up to maxBytes and returns them base64-encoded.
func (f *FS) ReadBinaryBase64(ctx context.Context, path string, maxBytes int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := os.Open(path) //nolint:gosec // caller-supplied staging path
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EnsureDir creates the directory and any missing parents.
func (f *FS) EnsureDir(_ context.Context, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// Move relocates a file, creating the target directory first. A rename
// across devices falls back to copy-then-remove.
func (f *FS) Move(ctx context.Context, src, dst string) error {
	if err := f.EnsureDir(ctx, filepath.Dir(dst)); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// Cross-device or similar: copy then remove.
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("moved but failed to remove source %s: %w", src, err)
	}
	return nil
}

// Stat reports file metadata through the capability so callers stay
// testable against a fake filesystem.
func (f *FS) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Stat(path)
}

// Hash computes the content digest of the file.
func (f *FS) Hash(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return dedup.HashFile(path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // caller-supplied staging path
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// looksLikeText applies a NUL-byte and UTF-8 validity sniff to the
// head of the content.
func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	// Tolerate a trailing rune split by the sniff cut.
	for i := 0; i < utf8.UTFMax && len(head) > 0 && !utf8.Valid(head); i++ {
		head = head[:len(head)-1]
	}
	return utf8.Valid(head)
}

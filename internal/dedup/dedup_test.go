package dedup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestHashFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.pdf", []byte("identical content"))

	h1, err := HashFile(path)
	require.NoError(t, err)
	h2, err := HashFile(path)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 32)
}

func TestHashFile_SameContentDifferentFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "report.pdf", []byte("identical content"))
	b := writeFile(t, dir, "report_v2.pdf", []byte("identical content"))
	c := writeFile(t, dir, "other.pdf", []byte("different content"))

	ha, err := HashFile(a)
	require.NoError(t, err)
	hb, err := HashFile(b)
	require.NoError(t, err)
	hc, err := HashFile(c)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)
}

func TestHashFile_LargerThanChunk(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("0123456789abcdef"), 200_000) // ~3.2MB
	path := writeFile(t, dir, "large.bin", content)

	fromFile, err := HashFile(path)
	require.NoError(t, err)
	fromReader, err := HashReader(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, fromReader, fromFile)
}

func TestHashFile_Missing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestIndex_Check(t *testing.T) {
	idx := NewIndex(map[string]model.FileEntry{
		"abc123": {ContentHash: "abc123", OriginalName: "report.pdf", CurrentPath: "/lib/Work/report.pdf"},
	})

	tests := []struct {
		name    string
		hash    string
		display string
		want    DuplicateInfo
	}{
		{
			name:    "unindexed hash is not a duplicate",
			hash:    "zzz999",
			display: "report.pdf",
			want:    DuplicateInfo{},
		},
		{
			name:    "same name is an exact duplicate",
			hash:    "abc123",
			display: "report.pdf",
			want: DuplicateInfo{
				IsDuplicate:  true,
				ExistingName: "report.pdf",
				ExistingPath: "/lib/Work/report.pdf",
				Tag:          model.TagExactDuplicate,
			},
		},
		{
			name:    "different name is a renamed content duplicate",
			hash:    "abc123",
			display: "report_v2.pdf",
			want: DuplicateInfo{
				IsDuplicate:  true,
				ExistingName: "report.pdf",
				ExistingPath: "/lib/Work/report.pdf",
				Tag:          model.TagContentDuplicateRenamed,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Check(tt.hash, tt.display))
		})
	}
}

func TestIndex_PutRejectsDuplicateHash(t *testing.T) {
	idx := NewIndex(nil)
	require.NoError(t, idx.Put(model.FileEntry{ContentHash: "abc", OriginalName: "a.txt"}))

	err := idx.Put(model.FileEntry{ContentHash: "abc", OriginalName: "b.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_PutRequiresHash(t *testing.T) {
	idx := NewIndex(nil)
	assert.Error(t, idx.Put(model.FileEntry{OriginalName: "a.txt"}))
}

func TestIndex_Remove(t *testing.T) {
	idx := NewIndex(nil)
	require.NoError(t, idx.Put(model.FileEntry{ContentHash: "abc"}))
	idx.Remove("abc")
	assert.Equal(t, 0, idx.Len())
	assert.False(t, idx.Check("abc", "x").IsDuplicate)
}

package dedup

import (
	"fmt"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/model"
)

// DuplicateInfo is the result of checking a hash against the index.
type DuplicateInfo struct {
	ExistingName string
	ExistingPath string
	Tag          string
	IsDuplicate  bool
}

// Index is an in-memory view of the hash-keyed file index. The hash
// key is unique: the same hash never yields two entries.
type Index struct {
	entries map[string]model.FileEntry
}

// NewIndex builds an index from existing entries, typically the
// persisted metadata document's file map.
func NewIndex(entries map[string]model.FileEntry) *Index {
	idx := &Index{entries: make(map[string]model.FileEntry, len(entries))}
	for hash, e := range entries {
		idx.entries[hash] = e
	}
	return idx
}

// Check classifies a candidate hash. An indexed hash with the same
// display name is an exact duplicate; a different name means the same
// content arrived under a new name, and the user sees both names.
func (idx *Index) Check(hash, displayName string) DuplicateInfo {
	entry, ok := idx.entries[hash]
	if !ok {
		return DuplicateInfo{}
	}

	tag := model.TagContentDuplicateRenamed
	if entry.OriginalName == displayName {
		tag = model.TagExactDuplicate
	}
	return DuplicateInfo{
		IsDuplicate:  true,
		ExistingName: entry.OriginalName,
		ExistingPath: entry.CurrentPath,
		Tag:          tag,
	}
}

// Put adds an entry, enforcing hash-key uniqueness.
func (idx *Index) Put(entry model.FileEntry) error {
	if entry.ContentHash == "" {
		return fmt.Errorf("file entry missing content hash")
	}
	if _, ok := idx.entries[entry.ContentHash]; ok {
		return fmt.Errorf("%w: hash %s already indexed", common.ErrDuplicateEntry, entry.ContentHash)
	}
	idx.entries[entry.ContentHash] = entry
	return nil
}

// Remove deletes the entry for hash, if present.
func (idx *Index) Remove(hash string) {
	delete(idx.entries, hash)
}

// Get returns the entry for hash.
func (idx *Index) Get(hash string) (model.FileEntry, bool) {
	e, ok := idx.entries[hash]
	return e, ok
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Package metadata persists the committed-file index, the taxonomy
// tree, and the undo log as versioned JSON documents.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/sortd/sortd/internal/model"
	"github.com/sortd/sortd/internal/service"
	"github.com/sortd/sortd/internal/taxonomy"
)

// DocumentVersion is the current on-disk format version.
const DocumentVersion = "3.0"

// document is the on-disk shape.
type document struct {
	Files    map[string]model.FileEntry `json:"files"`
	Version  string                     `json:"version"`
	Config   model.TaxonomyConfig       `json:"config"`
	Taxonomy struct {
		Root []*model.CategoryNode `json:"root"`
	} `json:"taxonomy"`
}

// Store reads and writes the metadata document. Writes are guarded by
// an advisory file lock so two processes cannot interleave a
// read-modify-write; within a process a mutex serializes access.
type Store struct {
	doc  document
	path string
	mu   sync.Mutex
}

var _ service.MetadataStore = (*Store)(nil)

// NewStore creates a store for the document at path. Call Load before
// reading.
func NewStore(path string) *Store {
	s := &Store{path: path}
	s.doc.Version = DocumentVersion
	s.doc.Files = make(map[string]model.FileEntry)
	s.doc.Config = model.DefaultTaxonomyConfig()
	return s
}

func (s *Store) lockFile() *flock.Flock {
	return flock.New(s.path + ".lock")
}

// Load reads the document from disk. A missing file leaves the empty
// defaults in place. The legacy version-less array format migrates
// transparently.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := s.lockFile()
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return fmt.Errorf("failed to lock metadata store: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	data, err := os.ReadFile(s.path) //nolint:gosec // configured data path
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read metadata document: %w", err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

// parseDocument decodes the current format, falling back to the legacy
// version-less array-of-entries format.
func parseDocument(data []byte) (document, error) {
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") {
		var legacy []model.FileEntry
		if err := json.Unmarshal(data, &legacy); err != nil {
			return document{}, fmt.Errorf("failed to parse legacy metadata list: %w", err)
		}
		doc := document{Version: DocumentVersion, Files: make(map[string]model.FileEntry, len(legacy))}
		doc.Config = model.DefaultTaxonomyConfig()
		for _, e := range legacy {
			if e.ContentHash == "" {
				continue
			}
			// The hash key stays unique: first entry wins.
			if _, ok := doc.Files[e.ContentHash]; !ok {
				doc.Files[e.ContentHash] = e
			}
		}
		slog.Info("Migrated legacy metadata list", "entries", len(doc.Files))
		return doc, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("failed to parse metadata document: %w", err)
	}
	if doc.Files == nil {
		doc.Files = make(map[string]model.FileEntry)
	}
	if doc.Version == "" {
		doc.Version = DocumentVersion
	}
	if doc.Config.Mode == "" {
		doc.Config = model.DefaultTaxonomyConfig()
	}
	return doc, nil
}

// Save writes the document. It refuses to replace a populated on-disk
// index with an empty one; losing a rich index to a fresh process
// state is worse than failing the save.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := s.lockFile()
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return fmt.Errorf("failed to lock metadata store: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if len(s.doc.Files) == 0 && len(s.doc.Taxonomy.Root) == 0 {
		if existing, readErr := os.ReadFile(s.path); readErr == nil { //nolint:gosec
			if prior, parseErr := parseDocument(existing); parseErr == nil && len(prior.Files) > 0 {
				return fmt.Errorf("refusing to overwrite %d indexed entries with an empty document", len(prior.Files))
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write metadata document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace metadata document: %w", err)
	}
	return nil
}

// Entries returns a copy of the hash-keyed file index.
func (s *Store) Entries() map[string]model.FileEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.FileEntry, len(s.doc.Files))
	for k, v := range s.doc.Files {
		out[k] = v
	}
	return out
}

// PutEntry upserts an index entry keyed by its content hash.
func (s *Store) PutEntry(_ context.Context, entry model.FileEntry) error {
	if entry.ContentHash == "" {
		return fmt.Errorf("file entry missing content hash")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Files[entry.ContentHash] = entry
	return nil
}

// RemoveEntry drops the entry for contentHash, if present.
func (s *Store) RemoveEntry(_ context.Context, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.Files, contentHash)
	return nil
}

// Taxonomy returns the category forest.
func (s *Store) Taxonomy() []*model.CategoryNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Taxonomy.Root
}

// CategoryPaths flattens the taxonomy in stable tree order, bounded by
// the configured depth.
func (s *Store) CategoryPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return taxonomy.CategoryPaths(s.doc.Taxonomy.Root, s.doc.Config.MaxDepth)
}

// AddCategory ensures every node along path exists and returns the
// leaf. Intermediate nodes are created with the path invariant intact.
func (s *Store) AddCategory(_ context.Context, path string) (*model.CategoryNode, error) {
	path = model.NormalizePath(path)
	if path == "" {
		return nil, fmt.Errorf("category path is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var parent *model.CategoryNode
	siblings := &s.doc.Taxonomy.Root
	var node *model.CategoryNode

	for _, name := range strings.Split(path, "/") {
		node = nil
		for _, n := range *siblings {
			if n.Name == name {
				node = n
				break
			}
		}
		if node == nil {
			node = &model.CategoryNode{
				ID:   uuid.NewString(),
				Name: name,
				Path: parent.ChildPath(name),
			}
			*siblings = append(*siblings, node)
		}
		parent = node
		siblings = &node.Children
	}
	return node, nil
}

// Config returns the stored taxonomy configuration.
func (s *Store) Config() model.TaxonomyConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Config
}

// SetConfig validates and stores a new taxonomy configuration.
func (s *Store) SetConfig(_ context.Context, cfg model.TaxonomyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Config = cfg
	return nil
}

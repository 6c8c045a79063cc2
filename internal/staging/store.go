// Package staging holds the files currently under review and drives
// their lifecycle state machine.
package staging

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/model"
)

// WorkflowState applies to the whole staged batch.
type WorkflowState string

// Workflow states. Executing returns to Reviewing when any move
// fails, so a partial failure is resumable rather than terminal.
const (
	WorkflowIdle      WorkflowState = "IDLE"
	WorkflowReviewing WorkflowState = "REVIEWING"
	WorkflowExecuting WorkflowState = "EXECUTING"
	WorkflowDone      WorkflowState = "DONE"
)

var workflowTransitions = map[WorkflowState][]WorkflowState{
	WorkflowIdle:      {WorkflowReviewing},
	WorkflowReviewing: {WorkflowExecuting, WorkflowIdle},
	WorkflowExecuting: {WorkflowDone, WorkflowReviewing},
	WorkflowDone:      {WorkflowReviewing, WorkflowIdle},
}

var statusTransitions = map[model.FileStatus][]model.FileStatus{
	model.StatusPending:   {model.StatusAnalyzing, model.StatusError, model.StatusDuplicate},
	model.StatusAnalyzing: {model.StatusSuccess, model.StatusError, model.StatusDuplicate, model.StatusPending},
	// Terminal states only leave via Reanalyze.
	model.StatusSuccess:   {},
	model.StatusError:     {},
	model.StatusDuplicate: {},
}

// Store is the single source of truth for files under review. All
// mutations funnel through apply, which copies before writing, so a
// snapshot handed to a reader never changes underneath it. The mutex
// keeps the store safe across await-equivalent interleavings; callers
// are otherwise logically single-threaded.
type Store struct {
	files     map[string]*model.StagedFile
	selection map[string]struct{}
	order     []string
	workflow  WorkflowState
	mu        sync.Mutex
}

// NewStore creates an empty staging store in the Idle workflow state.
func NewStore() *Store {
	return &Store{
		files:     make(map[string]*model.StagedFile),
		selection: make(map[string]struct{}),
		workflow:  WorkflowIdle,
	}
}

// Add stages a file for review and returns its session-scoped id.
func (s *Store) Add(sourcePath, displayName, mimeType string, size int64) (*model.StagedFile, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := &model.StagedFile{
		ID:          uuid.NewString(),
		SourcePath:  sourcePath,
		DisplayName: displayName,
		MimeType:    mimeType,
		Size:        size,
		Status:      model.StatusPending,
		AddedAt:     time.Now(),
	}
	s.files[f.ID] = f
	s.order = append(s.order, f.ID)

	if s.workflow == WorkflowIdle || s.workflow == WorkflowDone {
		s.workflow = WorkflowReviewing
	}
	return f.Clone(), nil
}

// Get returns a copy of the staged file, or an error when unknown.
func (s *Store) Get(id string) (*model.StagedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("staged file %s: %w", id, common.ErrNotFound)
	}
	return f.Clone(), nil
}

// List returns copies of all staged files in insertion order.
func (s *Store) List() []*model.StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.StagedFile, 0, len(s.order))
	for _, id := range s.order {
		if f, ok := s.files[id]; ok {
			out = append(out, f.Clone())
		}
	}
	return out
}

// apply is the single mutation entry point: it clones the current
// record, lets mutate rewrite the clone, and swaps it in.
func (s *Store) apply(id string, mutate func(*model.StagedFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(id, mutate)
}

func (s *Store) applyLocked(id string, mutate func(*model.StagedFile) error) error {
	f, ok := s.files[id]
	if !ok {
		return fmt.Errorf("staged file %s: %w", id, common.ErrNotFound)
	}
	next := f.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	s.files[id] = next
	return nil
}

// SetStatus transitions a file's status, rejecting illegal jumps.
func (s *Store) SetStatus(id string, status model.FileStatus) error {
	return s.apply(id, func(f *model.StagedFile) error {
		return transition(f, status)
	})
}

func transition(f *model.StagedFile, status model.FileStatus) error {
	if f.Status == status {
		return nil
	}
	if f.Status.Terminal() {
		return fmt.Errorf("%w: %s is terminal, only Reanalyze leaves it", common.ErrInvalidTransition, f.Status)
	}
	for _, allowed := range statusTransitions[f.Status] {
		if allowed == status {
			f.Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, f.Status, status)
}

// SetHash records the computed content hash.
func (s *Store) SetHash(id, hash string) error {
	return s.apply(id, func(f *model.StagedFile) error {
		f.ContentHash = hash
		return nil
	})
}

// SetProposal writes the resolved proposal and moves the file to the
// given terminal status (Success or Duplicate).
func (s *Store) SetProposal(id string, proposal model.Proposal, status model.FileStatus) error {
	return s.apply(id, func(f *model.StagedFile) error {
		if err := transition(f, status); err != nil {
			return err
		}
		f.Proposal = &proposal
		f.Error = ""
		return nil
	})
}

// SetError marks the file failed with a human-readable cause.
func (s *Store) SetError(id, message string) error {
	return s.apply(id, func(f *model.StagedFile) error {
		if err := transition(f, model.StatusError); err != nil {
			return err
		}
		f.Error = message
		return nil
	})
}

// SetUserEdit overrides proposal fields; last write wins per field.
func (s *Store) SetUserEdit(id string, edit model.UserEdit) error {
	return s.apply(id, func(f *model.StagedFile) error {
		f.UserEdit = &edit
		return nil
	})
}

// Reanalyze resets a file to Pending from any state, clearing its
// proposal, user edit, and error.
func (s *Store) Reanalyze(id string) error {
	return s.apply(id, func(f *model.StagedFile) error {
		f.Status = model.StatusPending
		f.Proposal = nil
		f.UserEdit = nil
		f.Error = ""
		f.ContentHash = ""
		return nil
	})
}

// Remove drops a file from staging.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Store) removeLocked(id string) error {
	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("staged file %s: %w", id, common.ErrNotFound)
	}
	delete(s.files, id)
	delete(s.selection, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear empties the store and resets the workflow to Idle.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]*model.StagedFile)
	s.selection = make(map[string]struct{})
	s.order = nil
	s.workflow = WorkflowIdle
}

// Workflow returns the current batch-level state.
func (s *Store) Workflow() WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow
}

// SetWorkflow transitions the batch-level state machine.
func (s *Store) SetWorkflow(next WorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workflow == next {
		return nil
	}
	for _, allowed := range workflowTransitions[s.workflow] {
		if allowed == next {
			s.workflow = next
			return nil
		}
	}
	return fmt.Errorf("%w: workflow %s -> %s", common.ErrInvalidTransition, s.workflow, next)
}

// Select replaces the current selection set. Unknown ids error.
func (s *Store) Select(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.files[id]; !ok {
			return fmt.Errorf("staged file %s: %w", id, common.ErrNotFound)
		}
	}
	s.selection = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.selection[id] = struct{}{}
	}
	return nil
}

// Selection returns the selected ids in insertion order.
func (s *Store) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectionLocked()
}

func (s *Store) selectionLocked() []string {
	ids := make([]string, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return indexOf(s.order, ids[i]) < indexOf(s.order, ids[j])
	})
	return ids
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return len(order)
}

// BatchUpdateTargetPath sets a user-edited target path on every
// selected file, all-or-nothing over the selection.
func (s *Store) BatchUpdateTargetPath(targetPath string) error {
	return s.batchApply(func(f *model.StagedFile) error {
		tp := targetPath
		if f.UserEdit == nil {
			f.UserEdit = &model.UserEdit{}
		}
		f.UserEdit.TargetPath = &tp
		return nil
	})
}

// BatchAddTag appends a tag to every selected file's edit, skipping
// files that already carry it.
func (s *Store) BatchAddTag(tag string) error {
	return s.batchApply(func(f *model.StagedFile) error {
		if f.UserEdit == nil {
			f.UserEdit = &model.UserEdit{}
		}
		for _, t := range f.UserEdit.Tags {
			if t == tag {
				return nil
			}
		}
		f.UserEdit.Tags = append(f.UserEdit.Tags, tag)
		return nil
	})
}

// BatchRemoveFiles drops every selected file and clears the selection.
func (s *Store) BatchRemoveFiles() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.selectionLocked()
	if len(ids) == 0 {
		return common.ErrNoStagedFiles
	}
	for _, id := range ids {
		if _, ok := s.files[id]; !ok {
			return fmt.Errorf("staged file %s: %w", id, common.ErrNotFound)
		}
	}
	for _, id := range ids {
		_ = s.removeLocked(id)
	}
	return nil
}

// batchApply validates the whole selection before mutating anything,
// then applies mutate to each selected file.
func (s *Store) batchApply(mutate func(*model.StagedFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.selectionLocked()
	if len(ids) == 0 {
		return common.ErrNoStagedFiles
	}

	staged := make([]*model.StagedFile, 0, len(ids))
	for _, id := range ids {
		f, ok := s.files[id]
		if !ok {
			return fmt.Errorf("staged file %s: %w", id, common.ErrNotFound)
		}
		next := f.Clone()
		if err := mutate(next); err != nil {
			return err
		}
		staged = append(staged, next)
	}
	for _, f := range staged {
		s.files[f.ID] = f
	}
	return nil
}

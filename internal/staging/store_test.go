package staging

import (
	"testing"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addFile(t *testing.T, s *Store, name string) *model.StagedFile {
	t.Helper()
	f, err := s.Add("/inbox/"+name, name, "text/plain", 42)
	require.NoError(t, err)
	return f
}

func TestStore_AddAndGet(t *testing.T) {
	s := NewStore()
	f := addFile(t, s, "report.pdf")

	got, err := s.Get(f.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, "/inbox/report.pdf", got.SourcePath)
	assert.Equal(t, "report.pdf", got.DisplayName)
	assert.NotEmpty(t, got.ID)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_AddMovesWorkflowToReviewing(t *testing.T) {
	s := NewStore()
	assert.Equal(t, WorkflowIdle, s.Workflow())
	addFile(t, s, "a.txt")
	assert.Equal(t, WorkflowReviewing, s.Workflow())
}

func TestStore_StatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []model.FileStatus
		wantErr bool
	}{
		{name: "pending to analyzing to success", path: []model.FileStatus{model.StatusAnalyzing, model.StatusSuccess}},
		{name: "pending to analyzing to error", path: []model.FileStatus{model.StatusAnalyzing, model.StatusError}},
		{name: "pending to analyzing to duplicate", path: []model.FileStatus{model.StatusAnalyzing, model.StatusDuplicate}},
		{name: "pending directly to error", path: []model.FileStatus{model.StatusError}},
		{name: "pending directly to success is illegal", path: []model.FileStatus{model.StatusSuccess}, wantErr: true},
		{name: "success to analyzing is illegal", path: []model.FileStatus{model.StatusAnalyzing, model.StatusSuccess, model.StatusAnalyzing}, wantErr: true},
		{name: "error to success is illegal", path: []model.FileStatus{model.StatusError, model.StatusSuccess}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			f := addFile(t, s, "a.txt")

			var err error
			for _, status := range tt.path {
				err = s.SetStatus(f.ID, status)
				if err != nil {
					break
				}
			}
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidTransition)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestStore_SetStatusSameStatusIsIdempotent(t *testing.T) {
	s := NewStore()
	f := addFile(t, s, "a.txt")
	require.NoError(t, s.SetStatus(f.ID, model.StatusPending))
}

func TestStore_TerminalStatusesOnlyLeaveViaReanalyze(t *testing.T) {
	for _, terminal := range []model.FileStatus{model.StatusSuccess, model.StatusError, model.StatusDuplicate} {
		t.Run(string(terminal), func(t *testing.T) {
			require.True(t, terminal.Terminal())

			s := NewStore()
			f := addFile(t, s, "a.txt")
			require.NoError(t, s.SetStatus(f.ID, model.StatusAnalyzing))
			require.NoError(t, s.SetStatus(f.ID, terminal))

			err := s.SetStatus(f.ID, model.StatusPending)
			require.ErrorIs(t, err, common.ErrInvalidTransition)

			require.NoError(t, s.Reanalyze(f.ID))
			got, err := s.Get(f.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StatusPending, got.Status)
		})
	}
	assert.False(t, model.StatusPending.Terminal())
	assert.False(t, model.StatusAnalyzing.Terminal())
}

func TestStore_SetProposal(t *testing.T) {
	s := NewStore()
	f := addFile(t, s, "a.txt")
	require.NoError(t, s.SetStatus(f.ID, model.StatusAnalyzing))

	require.NoError(t, s.SetProposal(f.ID, model.Proposal{
		TargetPath: "Work/Finance",
		Summary:    "Quarterly invoice",
		Confidence: 0.9,
	}, model.StatusSuccess))

	got, err := s.Get(f.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, got.Status)
	require.NotNil(t, got.Proposal)
	assert.Equal(t, "Work/Finance", got.Proposal.TargetPath)
}

func TestStore_Reanalyze(t *testing.T) {
	s := NewStore()
	f := addFile(t, s, "a.txt")
	require.NoError(t, s.SetStatus(f.ID, model.StatusAnalyzing))
	require.NoError(t, s.SetHash(f.ID, "abc"))
	require.NoError(t, s.SetProposal(f.ID, model.Proposal{TargetPath: "X"}, model.StatusSuccess))
	tp := "Y"
	require.NoError(t, s.SetUserEdit(f.ID, model.UserEdit{TargetPath: &tp}))

	require.NoError(t, s.Reanalyze(f.ID))

	got, err := s.Get(f.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.Proposal)
	assert.Nil(t, got.UserEdit)
	assert.Empty(t, got.Error)
	assert.Empty(t, got.ContentHash)
}

func TestStore_UserEditWinsOverProposal(t *testing.T) {
	s := NewStore()
	f := addFile(t, s, "a.txt")
	require.NoError(t, s.SetStatus(f.ID, model.StatusAnalyzing))
	require.NoError(t, s.SetProposal(f.ID, model.Proposal{TargetPath: "AI/Choice"}, model.StatusSuccess))

	got, _ := s.Get(f.ID)
	assert.Equal(t, "AI/Choice", got.FinalTargetPath())

	tp := "User/Choice"
	require.NoError(t, s.SetUserEdit(f.ID, model.UserEdit{TargetPath: &tp}))
	got, _ = s.Get(f.ID)
	assert.Equal(t, "User/Choice", got.FinalTargetPath())
}

func TestStore_ListPreservesInsertionOrder(t *testing.T) {
	s := NewStore()
	a := addFile(t, s, "a.txt")
	b := addFile(t, s, "b.txt")
	c := addFile(t, s, "c.txt")
	require.NoError(t, s.Remove(b.ID))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
}

func TestStore_SnapshotsDoNotAliasStoreState(t *testing.T) {
	s := NewStore()
	f := addFile(t, s, "a.txt")
	require.NoError(t, s.SetStatus(f.ID, model.StatusAnalyzing))
	require.NoError(t, s.SetProposal(f.ID, model.Proposal{TargetPath: "X", Tags: []string{"one"}}, model.StatusSuccess))

	snap, _ := s.Get(f.ID)
	snap.Proposal.TargetPath = "mutated"
	snap.Proposal.Tags[0] = "mutated"

	fresh, _ := s.Get(f.ID)
	assert.Equal(t, "X", fresh.Proposal.TargetPath)
	assert.Equal(t, []string{"one"}, fresh.Proposal.Tags)
}

func TestStore_WorkflowTransitions(t *testing.T) {
	s := NewStore()
	addFile(t, s, "a.txt")

	require.NoError(t, s.SetWorkflow(WorkflowExecuting))
	// Partial failure returns to Reviewing, not a terminal state.
	require.NoError(t, s.SetWorkflow(WorkflowReviewing))
	require.NoError(t, s.SetWorkflow(WorkflowExecuting))
	require.NoError(t, s.SetWorkflow(WorkflowDone))

	err := s.SetWorkflow(WorkflowExecuting)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestStore_BatchOperations(t *testing.T) {
	s := NewStore()
	a := addFile(t, s, "a.txt")
	b := addFile(t, s, "b.txt")
	c := addFile(t, s, "c.txt")

	require.NoError(t, s.Select(a.ID, c.ID))

	require.NoError(t, s.BatchUpdateTargetPath("Bulk/Target"))
	require.NoError(t, s.BatchAddTag("reviewed"))
	require.NoError(t, s.BatchAddTag("reviewed")) // idempotent

	for _, id := range []string{a.ID, c.ID} {
		got, err := s.Get(id)
		require.NoError(t, err)
		require.NotNil(t, got.UserEdit)
		assert.Equal(t, "Bulk/Target", *got.UserEdit.TargetPath)
		assert.Equal(t, []string{"reviewed"}, got.UserEdit.Tags)
	}

	// Unselected files untouched.
	got, err := s.Get(b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserEdit)

	require.NoError(t, s.BatchRemoveFiles())
	assert.Len(t, s.List(), 1)
	assert.Empty(t, s.Selection())
}

func TestStore_BatchWithEmptySelection(t *testing.T) {
	s := NewStore()
	addFile(t, s, "a.txt")
	assert.ErrorIs(t, s.BatchUpdateTargetPath("X"), common.ErrNoStagedFiles)
	assert.ErrorIs(t, s.BatchRemoveFiles(), common.ErrNoStagedFiles)
}

func TestStore_SelectUnknownIDFails(t *testing.T) {
	s := NewStore()
	addFile(t, s, "a.txt")
	assert.ErrorIs(t, s.Select("missing"), common.ErrNotFound)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	addFile(t, s, "a.txt")
	s.Clear()
	assert.Empty(t, s.List())
	assert.Equal(t, WorkflowIdle, s.Workflow())
}

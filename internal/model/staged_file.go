// Package model defines the core domain models used throughout the application.
package model

import "time"

// FileStatus tracks where a staged file sits in the review pipeline.
type FileStatus string

// File status constants.
const (
	StatusPending   FileStatus = "PENDING"
	StatusAnalyzing FileStatus = "ANALYZING"
	StatusSuccess   FileStatus = "SUCCESS"
	StatusDuplicate FileStatus = "DUPLICATE"
	StatusError     FileStatus = "ERROR"
)

// Terminal reports whether a status is an endpoint of the per-file
// state machine. Terminal files only move again via Reanalyze.
func (s FileStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusDuplicate, StatusError:
		return true
	default:
		return false
	}
}

// Proposal tags.
const (
	TagExactDuplicate          = "exact-duplicate"
	TagContentDuplicateRenamed = "content-duplicate-renamed"
	TagNotSupported            = "provider-not-supported"
	TagMetadataOnly            = "metadata-only"
)

// Proposal is the AI/resolver output for a staged file.
type Proposal struct {
	TargetPath string   `json:"targetPath"`
	Summary    string   `json:"summary"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Confidence float64  `json:"confidence"`
}

// HasTag reports whether the proposal carries the given tag.
func (p *Proposal) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// UserEdit is a partial override of proposal fields. A set field
// always wins over the corresponding proposal field.
type UserEdit struct {
	TargetPath *string  `json:"targetPath,omitempty"`
	Summary    *string  `json:"summary,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// StagedFile is one file currently in the review pipeline. It is
// session-scoped: only the committed subset becomes permanent metadata.
type StagedFile struct {
	AddedAt     time.Time  `json:"addedAt"`
	Proposal    *Proposal  `json:"proposal,omitempty"`
	UserEdit    *UserEdit  `json:"userEdit,omitempty"`
	ID          string     `json:"id"`
	SourcePath  string     `json:"sourcePath"`
	DisplayName string     `json:"displayName"`
	ContentHash string     `json:"contentHash,omitempty"`
	Error       string     `json:"error,omitempty"`
	MimeType    string     `json:"mimeType,omitempty"`
	Status      FileStatus `json:"status"`
	Size        int64      `json:"size"`
}

// FinalTargetPath resolves the path a commit would use: the user's
// edit when present, otherwise the proposal. Empty when neither is set.
func (f *StagedFile) FinalTargetPath() string {
	if f.UserEdit != nil && f.UserEdit.TargetPath != nil {
		return *f.UserEdit.TargetPath
	}
	if f.Proposal != nil {
		return f.Proposal.TargetPath
	}
	return ""
}

// Clone returns a deep copy so store readers never alias store state.
func (f *StagedFile) Clone() *StagedFile {
	c := *f
	if f.Proposal != nil {
		p := *f.Proposal
		p.Tags = append([]string(nil), f.Proposal.Tags...)
		c.Proposal = &p
	}
	if f.UserEdit != nil {
		e := *f.UserEdit
		if f.UserEdit.TargetPath != nil {
			tp := *f.UserEdit.TargetPath
			e.TargetPath = &tp
		}
		if f.UserEdit.Summary != nil {
			s := *f.UserEdit.Summary
			e.Summary = &s
		}
		e.Tags = append([]string(nil), f.UserEdit.Tags...)
		c.UserEdit = &e
	}
	return &c
}

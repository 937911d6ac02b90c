// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package submission manages research papers and theses moving through review.

# Core Responsibility

  - Lifecycle: A [Submission] starts pending and ends approved or rejected.
  - Eligibility: [Authorize] decides who may view, edit, annotate, delete or review.
  - Persistence: research and thesis records live in separate tables and are
    addressed by a (kind, id) pair.

Approval itself is orchestrated by the review package, which combines this
package's state machine with reference number issuance in one transaction.
*/
package submission

import (
	"time"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
)

// # Enums

// Kind discriminates the two submission variants.
type Kind string

const (
	KindResearch Kind = "research"
	KindThesis   Kind = "thesis"
)

// ParseKind accepts the two known kinds.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindResearch, KindThesis:
		return Kind(raw), nil
	}
	return "", apperr.ValidationError("Unknown submission kind", apperr.FieldError{Field: "kind", Message: "Must be research or thesis"})
}

// Status is the review state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Level classifies a thesis and selects its reference type code.
type Level string

const (
	LevelBachelor Level = "bachelor"
	LevelMaster   Level = "master"
	LevelPhD      Level = "phd"
)

// Levels lists every accepted thesis level.
var Levels = []string{string(LevelBachelor), string(LevelMaster), string(LevelPhD)}

// # Core Entities

// File is an attachment stored in the blob store.
type File struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CommitteeMember sits on a thesis defense committee.
type CommitteeMember struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Defense records when and where a thesis is defended.
type Defense struct {
	Date      *time.Time        `json:"date,omitempty"`
	Location  string            `json:"location,omitempty"`
	Committee []CommitteeMember `json:"committee,omitempty"`
}

// ThesisDetails holds the fields only a thesis carries.
type ThesisDetails struct {
	Level   Level    `json:"level"`
	Defense *Defense `json:"defense,omitempty"`
}

// Submission is a research paper or thesis under review.
//
// Thesis is non-nil iff Kind is [KindThesis]. ReferenceNumber is non-nil iff
// Status is [StatusApproved]; [Submission.Approve] is the only place it is set.
type Submission struct {
	ID              string         `json:"id"` // UUIDv7
	Kind            Kind           `json:"kind"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract"`
	Keywords        []string       `json:"keywords"`
	OwnerID         string         `json:"owner_id"`
	CoOwnerIDs      []string       `json:"co_owner_ids"`
	SupervisorID    *string        `json:"supervisor_id,omitempty"`
	Status          Status         `json:"status"`
	ReferenceNumber *string        `json:"reference_number,omitempty"`
	SubmissionDate  time.Time      `json:"submission_date"`
	ReviewDate      *time.Time     `json:"review_date,omitempty"`
	ReviewerID      *string        `json:"reviewer_id,omitempty"`
	ReviewerNotes   *string        `json:"reviewer_notes,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	Files           []File         `json:"files"`
	Thesis          *ThesisDetails `json:"thesis,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Facts extracts the ownership facts the policy evaluates.
func (submission *Submission) Facts() Facts {
	facts := Facts{
		Kind:       submission.Kind,
		Status:     submission.Status,
		OwnerID:    submission.OwnerID,
		CoOwnerIDs: submission.CoOwnerIDs,
	}
	if submission.SupervisorID != nil {
		facts.SupervisorID = *submission.SupervisorID
	}
	return facts
}

// Level returns the thesis level, or "" for research.
func (submission *Submission) Level() Level {
	if submission.Thesis == nil {
		return ""
	}
	return submission.Thesis.Level
}

// # Field Identifiers

const (
	FieldTitle        = "title"
	FieldAbstract     = "abstract"
	FieldKeywords     = "keywords"
	FieldCoOwnerIDs   = "co_owner_ids"
	FieldSupervisorID = "supervisor_id"
	FieldLevel        = "level"
	FieldFiles        = "files"
	FieldStatus       = "status"
	FieldNotes        = "notes"
	FieldDefense      = "defense"
)

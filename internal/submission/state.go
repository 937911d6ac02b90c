// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"errors"
	"time"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
)

// # Review State Machine
//
//	pending ──approve──▶ approved
//	   │
//	   └────reject────▶ rejected
//
// approved and rejected are terminal.

var errMissingReference = errors.New("submission: approve called without a reference number")

// Decision is a reviewer's verdict.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision accepts exactly "approved" or "rejected".
func ParseDecision(raw string) (Decision, error) {
	switch Decision(raw) {
	case DecisionApproved, DecisionRejected:
		return Decision(raw), nil
	}
	return "", apperr.ValidationError("Invalid review decision", apperr.FieldError{
		Field:   FieldStatus,
		Message: "Must be approved or rejected",
	})
}

// Approve moves a pending submission to approved and records its reference number.
func (submission *Submission) Approve(referenceNumber, reviewerID string, notes *string, at time.Time) error {
	if err := submission.EnsurePending(); err != nil {
		return err
	}
	if referenceNumber == "" {
		return apperr.Internal(errMissingReference)
	}

	submission.Status = StatusApproved
	submission.ReferenceNumber = &referenceNumber
	submission.stampReview(reviewerID, notes, at)
	return nil
}

// Reject moves a pending submission to rejected. No reference number is allocated.
func (submission *Submission) Reject(reviewerID string, notes *string, at time.Time) error {
	if err := submission.EnsurePending(); err != nil {
		return err
	}

	submission.Status = StatusRejected
	submission.stampReview(reviewerID, notes, at)
	return nil
}

// EnsurePending fails with INVALID_STATE once a submission has been reviewed.
func (submission *Submission) EnsurePending() error {
	if submission.Status != StatusPending {
		return apperr.InvalidState("Submission has already been " + string(submission.Status))
	}
	return nil
}

func (submission *Submission) stampReview(reviewerID string, notes *string, at time.Time) {
	submission.ReviewDate = &at
	submission.ReviewerID = &reviewerID
	submission.ReviewerNotes = notes
	submission.UpdatedAt = at
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"context"

	"github.com/taibuivan/scholaris/pkg/query"
)

// # Listing Scope

// Scope restricts a listing to the records a caller is related to.
// The zero value lists everything and is reserved for admins.
type Scope struct {
	// MemberID matches owner, co-owner or supervisor.
	MemberID string
	// SupervisorID matches only the supervisor.
	SupervisorID string
}

// # Submission Data Access

// Repository defines the data access contract for submissions of both kinds.
type Repository interface {

	/*
		List returns a filtered, sorted, paginated slice and the total count.

		Parameters:
		  - context: context.Context
		  - kind: Kind (selects the table)
		  - scope: Scope (relationship restriction)
		  - q: query.Query (filters, sort, paging)

		Returns:
		  - []*Submission: Matching records
		  - int: Total matching count before paging
		  - error: VALIDATION_ERROR for malformed filter values, or retrieval failures
	*/
	List(context context.Context, kind Kind, scope Scope, q query.Query) ([]*Submission, int, error)

	/*
		FindByID retrieves a submission by kind and UUID.

		Returns:
		  - *Submission: Hydrated entity
		  - error: NOT_FOUND if missing
	*/
	FindByID(context context.Context, kind Kind, id string) (*Submission, error)

	/*
		FindForUpdate is FindByID that also row-locks the record until the
		surrounding transaction ends. Only meaningful inside a transaction.
	*/
	FindForUpdate(context context.Context, kind Kind, id string) (*Submission, error)

	/*
		Create persists a new pending submission.
	*/
	Create(context context.Context, submission *Submission) error

	/*
		Update writes content and annotation fields, conditional on the record
		still being in the observed status.

		Returns:
		  - error: INVALID_STATE if the status changed since it was read; NOT_FOUND if gone
	*/
	Update(context context.Context, submission *Submission, observed Status) error

	/*
		Annotate writes notes and defense information only. Allowed in any status.
	*/
	Annotate(context context.Context, submission *Submission) error

	/*
		Delete removes the record if it is still in the observed status.

		Returns:
		  - []File: The attachments the deleted record held
		  - error: INVALID_STATE if the status changed; NOT_FOUND if gone
	*/
	Delete(context context.Context, kind Kind, id string, observed Status) ([]File, error)

	/*
		SaveReview persists the outcome of [Submission.Approve] or [Submission.Reject].
		The schema rejects a reference number on anything but an approved record.
	*/
	SaveReview(context context.Context, submission *Submission) error
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"slices"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/sec"
)

// # Authorization Policy

// Action is something a caller attempts on a submission.
type Action string

const (
	// ActionView reads a single submission.
	ActionView Action = "view"
	// ActionEdit changes content (title, abstract, keywords, files, people).
	ActionEdit Action = "edit"
	// ActionAnnotate changes notes and defense information only.
	ActionAnnotate Action = "annotate"
	// ActionDelete removes the submission and releases its files.
	ActionDelete Action = "delete"
	// ActionReview approves or rejects.
	ActionReview Action = "review"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   string
	Role sec.UserRole
}

// ActorFrom builds an [Actor] from verified token claims.
func ActorFrom(claims *sec.AuthClaims) Actor {
	return Actor{ID: claims.UserID, Role: claims.UserRole()}
}

// IsAdmin reports whether the actor holds the admin role.
func (actor Actor) IsAdmin() bool {
	return actor.Role == sec.RoleAdmin
}

// Facts are the ownership and state facts a decision depends on.
type Facts struct {
	Kind         Kind
	Status       Status
	OwnerID      string
	CoOwnerIDs   []string
	SupervisorID string
}

func (facts Facts) isOwner(id string) bool {
	return id != "" && facts.OwnerID == id
}

func (facts Facts) isCoOwner(id string) bool {
	return id != "" && slices.Contains(facts.CoOwnerIDs, id)
}

func (facts Facts) isSupervisor(id string) bool {
	return id != "" && facts.SupervisorID == id
}

/*
Authorize decides whether actor may perform action on a submission described by facts.

Rules:
  - view: admin, owner, co-owner or supervisor.
  - edit: owner or admin while pending; admin also while rejected; approved never.
  - annotate: owner, supervisor or admin, in any status.
  - delete: owner while pending; admin while pending or rejected; approved never.
  - review: admin; for a thesis also its supervisor unless they own it.

Returns:
  - nil when allowed
  - apperr FORBIDDEN when the actor has no standing
  - apperr INVALID_STATE when the actor has standing but the status forbids it
*/
func Authorize(actor Actor, action Action, facts Facts) error {
	admin := actor.IsAdmin()
	owner := facts.isOwner(actor.ID)

	switch action {
	case ActionView:
		if admin || owner || facts.isCoOwner(actor.ID) || facts.isSupervisor(actor.ID) {
			return nil
		}
		return forbidden(action)

	case ActionAnnotate:
		if admin || owner || facts.isSupervisor(actor.ID) {
			return nil
		}
		return forbidden(action)

	case ActionEdit, ActionDelete:
		if !admin && !owner {
			return forbidden(action)
		}
		switch facts.Status {
		case StatusPending:
			return nil
		case StatusRejected:
			if admin {
				return nil
			}
			return apperr.InvalidState("Only pending submissions can be changed by their owner")
		default:
			return apperr.InvalidState("Approved submissions are immutable")
		}

	case ActionReview:
		if admin {
			return nil
		}
		if facts.Kind == KindThesis && facts.isSupervisor(actor.ID) && !owner {
			return nil
		}
		return forbidden(action)
	}

	return forbidden(action)
}

func forbidden(action Action) error {
	return apperr.Forbidden("Not allowed to " + string(action) + " this submission")
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/validate"
	"github.com/taibuivan/scholaris/pkg/keyword"
	"github.com/taibuivan/scholaris/pkg/query"
	"github.com/taibuivan/scholaris/pkg/slice"
	"github.com/taibuivan/scholaris/pkg/uuid"
)

// Validation limits.
const (
	maxTitleLength    = 300
	maxAbstractLength = 10000
	maxNotesLength    = 5000
	maxCoOwners       = 10
	maxFiles          = 20
	maxCommittee      = 10
)

// BlobStore releases attachment objects.
type BlobStore interface {
	Remove(context context.Context, paths []string) error
}

// # Service Layer

// Service orchestrates submission CRUD under the authorization policy.
type Service struct {
	repo   Repository
	blobs  BlobStore
	logger *slog.Logger
}

// NewService constructs a new submission [Service].
func NewService(repo Repository, blobs BlobStore, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
	}
}

// Input carries create and patch payloads. Nil fields are left untouched on patch.
type Input struct {
	Title        *string   `json:"title"`
	Abstract     *string   `json:"abstract"`
	Keywords     *[]string `json:"keywords"`
	CoOwnerIDs   *[]string `json:"co_owner_ids"`
	SupervisorID *string   `json:"supervisor_id"`
	Level        *Level    `json:"level"`
	Files        *[]File   `json:"files"`
	Notes        *string   `json:"notes"`
	Defense      *Defense  `json:"defense"`
}

// touchesContent reports whether the patch changes anything beyond notes and defense.
func (input Input) touchesContent() bool {
	return input.Title != nil || input.Abstract != nil || input.Keywords != nil ||
		input.CoOwnerIDs != nil || input.SupervisorID != nil || input.Level != nil || input.Files != nil
}

// # Submission Management

/*
Create registers a new pending submission owned by the caller.

Parameters:
  - context: context.Context
  - actor: Actor (becomes the owner)
  - kind: Kind
  - input: Input

Returns:
  - *Submission: The persisted record
  - error: VALIDATION_ERROR or persistence failures
*/
func (service *Service) Create(context context.Context, actor Actor, kind Kind, input Input) (*Submission, error) {
	submission := &Submission{
		ID:         uuid.New(),
		Kind:       kind,
		OwnerID:    actor.ID,
		Status:     StatusPending,
		Keywords:   []string{},
		CoOwnerIDs: []string{},
		Files:      []File{},
	}
	if kind == KindThesis {
		submission.Thesis = &ThesisDetails{}
	}

	validator := &validate.Validator{}
	validator.Custom(FieldTitle, input.Title == nil, "This field is required")
	validator.Custom(FieldAbstract, input.Abstract == nil, "This field is required")
	if kind == KindThesis {
		validator.Custom(FieldLevel, input.Level == nil, "This field is required")
		validator.Custom(FieldSupervisorID, input.SupervisorID == nil, "A thesis requires a supervisor")
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	apply(submission, input, time.Now())
	if err := check(submission); err != nil {
		return nil, err
	}

	if err := service.repo.Create(context, submission); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "submission_created",
		slog.String("submission_id", submission.ID),
		slog.String("kind", string(kind)),
		slog.String("owner_id", actor.ID),
	)

	return submission, nil
}

/*
List returns submissions of one kind visible to the caller.
Admins see everything; other users see what they own, co-own or supervise.
*/
func (service *Service) List(context context.Context, actor Actor, kind Kind, q query.Query) ([]*Submission, int, error) {
	scope := Scope{}
	if !actor.IsAdmin() {
		scope.MemberID = actor.ID
	}
	return service.repo.List(context, kind, scope, q)
}

// ListSupervised returns the theses the caller supervises.
func (service *Service) ListSupervised(context context.Context, actor Actor, q query.Query) ([]*Submission, int, error) {
	return service.repo.List(context, KindThesis, Scope{SupervisorID: actor.ID}, q)
}

// Get returns a single submission the caller may view.
func (service *Service) Get(context context.Context, actor Actor, kind Kind, id string) (*Submission, error) {
	submission, err := service.repo.FindByID(context, kind, id)
	if err != nil {
		return nil, err
	}

	if err := service.authorize(context, actor, ActionView, submission); err != nil {
		return nil, err
	}

	return submission, nil
}

/*
Update applies a patch. Content changes require edit rights and a mutable status;
a patch limited to notes and defense information only requires annotate rights.

Returns:
  - *Submission: The updated record
  - error: FORBIDDEN, INVALID_STATE, VALIDATION_ERROR or NOT_FOUND
*/
func (service *Service) Update(context context.Context, actor Actor, kind Kind, id string, input Input) (*Submission, error) {
	submission, err := service.repo.FindByID(context, kind, id)
	if err != nil {
		return nil, err
	}

	contentChange := input.touchesContent()
	action := ActionAnnotate
	if contentChange {
		action = ActionEdit
	}
	if err := service.authorize(context, actor, action, submission); err != nil {
		return nil, err
	}

	observed := submission.Status
	apply(submission, input, time.Now())
	if err := check(submission); err != nil {
		return nil, err
	}

	if contentChange {
		err = service.repo.Update(context, submission, observed)
	} else {
		err = service.repo.Annotate(context, submission)
	}
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "submission_updated",
		slog.String("submission_id", id),
		slog.String("kind", string(kind)),
		slog.String("action", string(action)),
		slog.String("actor_id", actor.ID),
	)

	return submission, nil
}

/*
Delete removes a submission and then releases its attachments.

The record delete is conditional on the status the policy was evaluated
against. Blobs are released only after it succeeds; a release failure is
logged and does not fail the call.
*/
func (service *Service) Delete(context context.Context, actor Actor, kind Kind, id string) error {
	submission, err := service.repo.FindByID(context, kind, id)
	if err != nil {
		return err
	}

	if err := service.authorize(context, actor, ActionDelete, submission); err != nil {
		return err
	}

	files, err := service.repo.Delete(context, kind, id, submission.Status)
	if err != nil {
		return err
	}

	service.logger.InfoContext(context, "submission_deleted",
		slog.String("submission_id", id),
		slog.String("kind", string(kind)),
		slog.String("actor_id", actor.ID),
	)

	if len(files) == 0 || service.blobs == nil {
		return nil
	}

	paths := slice.Map(files, func(file File) string { return file.Path })
	if err := service.blobs.Remove(context, paths); err != nil {
		service.logger.ErrorContext(context, "submission_blob_release_failed",
			slog.String("submission_id", id),
			slog.Int("files", len(paths)),
			slog.Any("error", err),
		)
	}

	return nil
}

// # Helpers

// authorize evaluates the policy and logs denials.
func (service *Service) authorize(context context.Context, actor Actor, action Action, submission *Submission) error {
	err := Authorize(actor, action, submission.Facts())
	if err != nil {
		LogDenied(context, service.logger, actor, action, submission, err)
	}
	return err
}

// LogDenied records a refused attempt with actor, action and resource.
func LogDenied(context context.Context, logger *slog.Logger, actor Actor, action Action, submission *Submission, err error) {
	code := ""
	if appError := apperr.As(err); appError != nil {
		code = appError.Code
	}
	logger.WarnContext(context, "authorization_denied",
		slog.String("actor_id", actor.ID),
		slog.String("role", string(actor.Role)),
		slog.String("action", string(action)),
		slog.String("kind", string(submission.Kind)),
		slog.String("submission_id", submission.ID),
		slog.String("status", string(submission.Status)),
		slog.String("code", code),
	)
}

// apply copies the non-nil fields of input onto submission.
func apply(submission *Submission, input Input, now time.Time) {
	if input.Title != nil {
		submission.Title = *input.Title
	}
	if input.Abstract != nil {
		submission.Abstract = *input.Abstract
	}
	if input.Keywords != nil {
		submission.Keywords = keyword.Normalize(*input.Keywords)
	}
	if input.CoOwnerIDs != nil {
		submission.CoOwnerIDs = slice.Unique(*input.CoOwnerIDs)
	}
	if input.SupervisorID != nil {
		if *input.SupervisorID == "" {
			submission.SupervisorID = nil
		} else {
			supervisor := *input.SupervisorID
			submission.SupervisorID = &supervisor
		}
	}
	if input.Files != nil {
		files := make([]File, 0, len(*input.Files))
		for _, file := range *input.Files {
			if file.UploadedAt.IsZero() {
				file.UploadedAt = now
			}
			files = append(files, file)
		}
		submission.Files = files
	}
	if input.Notes != nil {
		notes := *input.Notes
		submission.Notes = &notes
	}
	if submission.Thesis != nil {
		if input.Level != nil {
			submission.Thesis.Level = *input.Level
		}
		if input.Defense != nil {
			submission.Thesis.Defense = input.Defense
		}
	}
}

// check validates the merged record.
func check(submission *Submission) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldTitle, submission.Title).MaxLen(FieldTitle, submission.Title, maxTitleLength).
		Required(FieldAbstract, submission.Abstract).MaxLen(FieldAbstract, submission.Abstract, maxAbstractLength).
		MaxItems(FieldKeywords, len(submission.Keywords), keyword.MaxKeywords).
		MaxItems(FieldCoOwnerIDs, len(submission.CoOwnerIDs), maxCoOwners).
		NotBlankEach(FieldCoOwnerIDs, submission.CoOwnerIDs).
		MaxItems(FieldFiles, len(submission.Files), maxFiles)

	for _, file := range submission.Files {
		validator.Custom(FieldFiles, file.Name == "" || file.Path == "", "Every file needs a name and a path")
	}

	for _, coOwner := range submission.CoOwnerIDs {
		validator.Custom(FieldCoOwnerIDs, coOwner == submission.OwnerID, "The owner cannot be a co-owner")
	}

	if submission.Notes != nil {
		validator.MaxLen(FieldNotes, *submission.Notes, maxNotesLength)
	}

	if submission.SupervisorID != nil {
		validator.Custom(FieldSupervisorID, *submission.SupervisorID == submission.OwnerID, "The owner cannot supervise their own submission")
	}

	if submission.Kind == KindThesis {
		validator.Custom(FieldSupervisorID, submission.SupervisorID == nil, "A thesis requires a supervisor")
		validator.OneOf(FieldLevel, string(submission.Thesis.Level), Levels...)
		if defense := submission.Thesis.Defense; defense != nil {
			validator.MaxItems(FieldDefense, len(defense.Committee), maxCommittee)
			for _, member := range defense.Committee {
				validator.Custom(FieldDefense, member.Name == "", "Committee members need a name")
			}
		}
	}

	return validator.Err()
}

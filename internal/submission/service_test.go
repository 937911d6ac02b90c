// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/ctxutil"
	"github.com/taibuivan/scholaris/internal/submission"
	"github.com/taibuivan/scholaris/pkg/pointer"
	"github.com/taibuivan/scholaris/pkg/query"
)

// # Fakes

// memoryRepository keeps submissions in a map keyed by id.
type memoryRepository struct {
	mu        sync.Mutex
	records   map[string]*submission.Submission
	lastScope submission.Scope
}

func newMemoryRepository(records ...*submission.Submission) *memoryRepository {
	repository := &memoryRepository{records: map[string]*submission.Submission{}}
	for _, record := range records {
		repository.records[record.ID] = record
	}
	return repository
}

func (repository *memoryRepository) List(_ context.Context, kind submission.Kind, scope submission.Scope, _ query.Query) ([]*submission.Submission, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.lastScope = scope

	var result []*submission.Submission
	for _, record := range repository.records {
		if record.Kind == kind {
			result = append(result, record)
		}
	}
	return result, len(result), nil
}

func (repository *memoryRepository) FindByID(_ context.Context, kind submission.Kind, id string) (*submission.Submission, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	record, ok := repository.records[id]
	if !ok || record.Kind != kind {
		return nil, apperr.NotFound("Submission")
	}
	clone := *record
	return &clone, nil
}

func (repository *memoryRepository) FindForUpdate(ctx context.Context, kind submission.Kind, id string) (*submission.Submission, error) {
	return repository.FindByID(ctx, kind, id)
}

func (repository *memoryRepository) Create(_ context.Context, record *submission.Submission) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.records[record.ID] = record
	return nil
}

func (repository *memoryRepository) Update(_ context.Context, record *submission.Submission, observed submission.Status) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	current, ok := repository.records[record.ID]
	if !ok {
		return apperr.NotFound("Submission")
	}
	if current.Status != observed {
		return apperr.InvalidState("Submission has already been " + string(current.Status))
	}
	repository.records[record.ID] = record
	return nil
}

func (repository *memoryRepository) Annotate(_ context.Context, record *submission.Submission) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	current, ok := repository.records[record.ID]
	if !ok {
		return apperr.NotFound("Submission")
	}
	current.Notes = record.Notes
	if current.Thesis != nil && record.Thesis != nil {
		current.Thesis.Defense = record.Thesis.Defense
	}
	return nil
}

func (repository *memoryRepository) Delete(_ context.Context, _ submission.Kind, id string, observed submission.Status) ([]submission.File, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	current, ok := repository.records[id]
	if !ok {
		return nil, apperr.NotFound("Submission")
	}
	if current.Status != observed {
		return nil, apperr.InvalidState("Submission has already been " + string(current.Status))
	}
	delete(repository.records, id)
	return current.Files, nil
}

func (repository *memoryRepository) SaveReview(_ context.Context, record *submission.Submission) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.records[record.ID] = record
	return nil
}

func (repository *memoryRepository) exists(id string) bool {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	_, ok := repository.records[id]
	return ok
}

// recordingBlobs remembers every Remove call and optionally fails.
type recordingBlobs struct {
	removed [][]string
	err     error
}

func (blobs *recordingBlobs) Remove(_ context.Context, paths []string) error {
	blobs.removed = append(blobs.removed, paths)
	return blobs.err
}

// requestIDHandler records the request id found on each record's context.
type requestIDHandler struct {
	mu     sync.Mutex
	events map[string]string
}

func (handler *requestIDHandler) Enabled(context.Context, slog.Level) bool { return true }
func (handler *requestIDHandler) WithAttrs([]slog.Attr) slog.Handler      { return handler }
func (handler *requestIDHandler) WithGroup(string) slog.Handler           { return handler }

func (handler *requestIDHandler) Handle(ctx context.Context, record slog.Record) error {
	handler.mu.Lock()
	defer handler.mu.Unlock()
	handler.events[record.Message] = ctxutil.GetRequestID(ctx)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingResearch(id string, status submission.Status) *submission.Submission {
	supervisor := "sup"
	return &submission.Submission{
		ID:           id,
		Kind:         submission.KindResearch,
		Title:        "Soil salinity",
		Abstract:     "Measurements across the delta",
		Keywords:     []string{"soil"},
		OwnerID:      "owner",
		CoOwnerIDs:   []string{"co"},
		SupervisorID: &supervisor,
		Status:       status,
		Files: []submission.File{
			{Name: "paper.pdf", Path: "research/" + id + "/paper.pdf"},
			{Name: "data.csv", Path: "research/" + id + "/data.csv"},
		},
	}
}


// # Create

func TestService_Create(t *testing.T) {
	repository := newMemoryRepository()
	service := submission.NewService(repository, &recordingBlobs{}, discardLogger())

	created, err := service.Create(context.Background(), owner, submission.KindResearch, submission.Input{
		Title:    pointer.To("Groundwater recharge"),
		Abstract: pointer.To("A field study"),
		Keywords: pointer.To([]string{"Water", " water ", "aquifer"}),
	})
	require.NoError(t, err)

	assert.Equal(t, submission.StatusPending, created.Status)
	assert.Equal(t, "owner", created.OwnerID)
	assert.Equal(t, []string{"Water", "aquifer"}, created.Keywords)
	assert.Nil(t, created.ReferenceNumber)
	assert.True(t, repository.exists(created.ID))
}

func TestService_Create_ThesisNeedsSupervisorAndLevel(t *testing.T) {
	service := submission.NewService(newMemoryRepository(), nil, discardLogger())

	_, err := service.Create(context.Background(), owner, submission.KindThesis, submission.Input{
		Title:    pointer.To("Graph colouring"),
		Abstract: pointer.To("Bounds"),
	})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Len(t, ae.Details, 2)

	level := submission.LevelMaster
	created, err := service.Create(context.Background(), owner, submission.KindThesis, submission.Input{
		Title:        pointer.To("Graph colouring"),
		Abstract:     pointer.To("Bounds"),
		Level:        &level,
		SupervisorID: pointer.To("sup"),
	})
	require.NoError(t, err)
	assert.Equal(t, submission.LevelMaster, created.Level())
}

func TestService_Create_OwnerCannotSupervise(t *testing.T) {
	service := submission.NewService(newMemoryRepository(), nil, discardLogger())

	_, err := service.Create(context.Background(), owner, submission.KindResearch, submission.Input{
		Title:        pointer.To("Self review"),
		Abstract:     pointer.To("Nope"),
		SupervisorID: pointer.To("owner"),
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

// # List

func TestService_List_ScopesNonAdmins(t *testing.T) {
	repository := newMemoryRepository(pendingResearch("r1", submission.StatusPending))
	service := submission.NewService(repository, nil, discardLogger())

	_, _, err := service.List(context.Background(), coOwner, submission.KindResearch, query.Query{})
	require.NoError(t, err)
	assert.Equal(t, submission.Scope{MemberID: "co"}, repository.lastScope)

	_, total, err := service.List(context.Background(), admin, submission.KindResearch, query.Query{})
	require.NoError(t, err)
	assert.Equal(t, submission.Scope{}, repository.lastScope)
	assert.Equal(t, 1, total)
}

// # Update

func TestService_Update(t *testing.T) {
	tests := []struct {
		name   string
		actor  submission.Actor
		status submission.Status
		input  submission.Input
		want   string
	}{
		{"owner edits pending", owner, submission.StatusPending, submission.Input{Title: pointer.To("Revised")}, ""},
		{"owner blocked on rejected", owner, submission.StatusRejected, submission.Input{Title: pointer.To("Revised")}, apperr.CodeInvalidState},
		{"owner blocked on approved", owner, submission.StatusApproved, submission.Input{Title: pointer.To("Revised")}, apperr.CodeInvalidState},
		{"admin edits rejected", admin, submission.StatusRejected, submission.Input{Title: pointer.To("Revised")}, ""},
		{"supervisor annotates approved", supervisor, submission.StatusApproved, submission.Input{Notes: pointer.To("Archived copy filed")}, ""},
		{"supervisor cannot edit content", supervisor, submission.StatusPending, submission.Input{Title: pointer.To("Revised")}, apperr.CodeForbidden},
		{"co-owner cannot annotate", coOwner, submission.StatusPending, submission.Input{Notes: pointer.To("hi")}, apperr.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository := newMemoryRepository(pendingResearch("r1", tt.status))
			service := submission.NewService(repository, nil, discardLogger())

			updated, err := service.Update(context.Background(), tt.actor, submission.KindResearch, "r1", tt.input)
			if tt.want != "" {
				assert.True(t, apperr.HasCode(err, tt.want), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, updated.Status)
		})
	}
}

// # Delete

/*
TestService_Delete_ReleasesBlobsAfterRecord checks that attachments are released
only once the record is gone.
*/
func TestService_Delete_ReleasesBlobsAfterRecord(t *testing.T) {
	repository := newMemoryRepository(pendingResearch("r1", submission.StatusPending))
	blobs := &recordingBlobs{}
	service := submission.NewService(repository, blobs, discardLogger())

	require.NoError(t, service.Delete(context.Background(), owner, submission.KindResearch, "r1"))

	assert.False(t, repository.exists("r1"))
	require.Len(t, blobs.removed, 1)
	assert.Equal(t, []string{"research/r1/paper.pdf", "research/r1/data.csv"}, blobs.removed[0])
}

func TestService_Delete_BlobFailureIsSwallowed(t *testing.T) {
	repository := newMemoryRepository(pendingResearch("r1", submission.StatusPending))
	blobs := &recordingBlobs{err: errors.New("minio unavailable")}
	service := submission.NewService(repository, blobs, discardLogger())

	err := service.Delete(context.Background(), owner, submission.KindResearch, "r1")

	assert.NoError(t, err)
	assert.False(t, repository.exists("r1"))
	assert.Len(t, blobs.removed, 1)
}

/*
TestService_LogsCarryRequestContext checks that lifecycle events are logged
with the caller's context so the request id is attached.
*/
func TestService_LogsCarryRequestContext(t *testing.T) {
	handler := &requestIDHandler{events: map[string]string{}}
	repository := newMemoryRepository(pendingResearch("r1", submission.StatusPending))
	blobs := &recordingBlobs{err: errors.New("minio unavailable")}
	service := submission.NewService(repository, blobs, slog.New(handler))
	ctx := ctxutil.WithRequestID(context.Background(), "req-42")

	_, err := service.Update(ctx, owner, submission.KindResearch, "r1", submission.Input{Title: pointer.To("Soil salinity, revised")})
	require.NoError(t, err)
	require.NoError(t, service.Delete(ctx, owner, submission.KindResearch, "r1"))

	for _, event := range []string{"submission_updated", "submission_deleted", "submission_blob_release_failed"} {
		assert.Equal(t, "req-42", handler.events[event], event)
	}
}

func TestService_Delete_DeniedKeepsEverything(t *testing.T) {
	tests := []struct {
		name   string
		actor  submission.Actor
		status submission.Status
		want   string
	}{
		{"approved is immutable", admin, submission.StatusApproved, apperr.CodeInvalidState},
		{"owner on rejected", owner, submission.StatusRejected, apperr.CodeInvalidState},
		{"co-owner", coOwner, submission.StatusPending, apperr.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository := newMemoryRepository(pendingResearch("r1", tt.status))
			blobs := &recordingBlobs{}
			service := submission.NewService(repository, blobs, discardLogger())

			err := service.Delete(context.Background(), tt.actor, submission.KindResearch, "r1")

			assert.True(t, apperr.HasCode(err, tt.want), "got %v", err)
			assert.True(t, repository.exists("r1"))
			assert.Empty(t, blobs.removed)
		})
	}
}

func TestService_Get_WrongKindIsNotFound(t *testing.T) {
	repository := newMemoryRepository(pendingResearch("r1", submission.StatusPending))
	service := submission.NewService(repository, nil, discardLogger())

	_, err := service.Get(context.Background(), owner, submission.KindThesis, "r1")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

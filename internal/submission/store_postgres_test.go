// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/submission"
	"github.com/taibuivan/scholaris/pkg/pointer"
)

func newRepoWithMock(t *testing.T) (*submission.PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return submission.NewPostgresRepository(mock), mock
}

const existsQuery = `SELECT\s+EXISTS\s+\(SELECT\s+1\s+FROM\s+registry\.research\s+WHERE\s+id\s*=\s*\$1\)`

/*
TestPostgresDelete checks the delete is conditional on the observed status and
that a miss is explained as a concurrent change or a missing record.
*/
func TestPostgresDelete(t *testing.T) {
	q := `(?s)DELETE\s+FROM\s+registry\.research\s+WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*\$2\s+RETURNING\s+files`
	files := []submission.File{{Name: "paper.pdf", Path: "research/r1/paper.pdf"}}

	t.Run("deleted", func(t *testing.T) {
		repository, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).
			WithArgs("r1", submission.StatusPending).
			WillReturnRows(pgxmock.NewRows([]string{"files"}).AddRow(files))

		released, err := repository.Delete(context.Background(), submission.KindResearch, "r1", submission.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, files, released)
	})

	tests := []struct {
		name     string
		exists   bool
		wantCode string
	}{
		{"status changed", true, apperr.CodeInvalidState},
		{"missing", false, apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository, mock := newRepoWithMock(t)
			mock.ExpectQuery(q).
				WithArgs("r1", submission.StatusPending).
				WillReturnRows(pgxmock.NewRows([]string{"files"}))
			mock.ExpectQuery(existsQuery).
				WithArgs("r1").
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			_, err := repository.Delete(context.Background(), submission.KindResearch, "r1", submission.StatusPending)
			assert.True(t, apperr.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

/*
TestPostgresSaveReview only writes over a pending row and reports a lost race
as INVALID_STATE.
*/
func TestPostgresSaveReview(t *testing.T) {
	q := `(?s)UPDATE\s+registry\.research\s+SET\s+status\s*=\s*\$2.*WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*'pending'`
	reviewed := &submission.Submission{
		ID:              "r1",
		Kind:            submission.KindResearch,
		Status:          submission.StatusApproved,
		ReferenceNumber: pointer.To("BH20250001CS"),
		ReviewDate:      pointer.To(time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)),
		ReviewerID:      pointer.To("root"),
	}
	args := []any{
		"r1", submission.StatusApproved, pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
	}

	t.Run("saved", func(t *testing.T) {
		repository, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(args...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repository.SaveReview(context.Background(), reviewed))
	})

	t.Run("already reviewed", func(t *testing.T) {
		repository, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(args...).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery(existsQuery).
			WithArgs("r1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		err := repository.SaveReview(context.Background(), reviewed)
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidState), "got %v", err)
	})
}

func TestPostgresUpdate_StaleStatus(t *testing.T) {
	repository, mock := newRepoWithMock(t)
	record := pendingResearch("r1", submission.StatusPending)

	mock.ExpectQuery(`(?s)UPDATE\s+registry\.research\s+SET.*WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*\$2\s+RETURNING\s+updated_at`).
		WithArgs("r1", submission.StatusPending,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))
	mock.ExpectQuery(existsQuery).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err := repository.Update(context.Background(), record, submission.StatusPending)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidState), "got %v", err)
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/dberr"
	"github.com/taibuivan/scholaris/internal/platform/postgres"
	"github.com/taibuivan/scholaris/pkg/query"
)

// PostgresRepository implements [Repository] using pgx.
//
// db is either the pool or an open transaction; the review workflow builds a
// transaction-scoped instance per unit of work.
type PostgresRepository struct {
	db postgres.DBTX
}

// NewPostgresRepository constructs a PostgreSQL backed submission store.
func NewPostgresRepository(db postgres.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Table Layout

const (
	researchTable = "registry.research"
	thesisTable   = "registry.thesis"
)

// Shared column list. Research rows project NULL for the thesis-only columns
// so both kinds scan through [scanSubmission].
const (
	baseColumns = `
		s.id, s.title, s.abstract, s.keywords, s.owner_id, s.co_owner_ids, s.supervisor_id,
		s.status, s.reference_number, s.submission_date, s.review_date, s.reviewer_id,
		s.reviewer_notes, s.notes, s.files, s.updated_at`
	researchColumns = baseColumns + `, NULL::text AS level, NULL::jsonb AS defense`
	thesisColumns   = baseColumns + `, s.level, s.defense`
)

func tableFor(kind Kind) string {
	if kind == KindThesis {
		return thesisTable
	}
	return researchTable
}

func columnsFor(kind Kind) string {
	if kind == KindThesis {
		return thesisColumns
	}
	return researchColumns
}

// filterColumns is the allow-list of public field names for list filters and sorting.
var filterColumns = postgres.Columns{
	"id":               {Expr: "s.id", Type: postgres.TypeUUID},
	"title":            {Expr: "s.title", Type: postgres.TypeText},
	"abstract":         {Expr: "s.abstract", Type: postgres.TypeText},
	"keywords":         {Expr: "s.keywords", Type: postgres.TypeText, Array: true},
	"owner_id":         {Expr: "s.owner_id", Type: postgres.TypeText},
	"co_owner_ids":     {Expr: "s.co_owner_ids", Type: postgres.TypeText, Array: true},
	"supervisor_id":    {Expr: "s.supervisor_id", Type: postgres.TypeText},
	"status":           {Expr: "s.status", Type: postgres.TypeText},
	"reference_number": {Expr: "s.reference_number", Type: postgres.TypeText},
	"submission_date":  {Expr: "s.submission_date", Type: postgres.TypeTimestamptz},
	"review_date":      {Expr: "s.review_date", Type: postgres.TypeTimestamptz},
	"reviewer_id":      {Expr: "s.reviewer_id", Type: postgres.TypeText},
	"updated_at":       {Expr: "s.updated_at", Type: postgres.TypeTimestamptz},
}

// thesisFilterColumns adds the thesis-only fields.
var thesisFilterColumns = func() postgres.Columns {
	columns := make(postgres.Columns, len(filterColumns)+1)
	for name, column := range filterColumns {
		columns[name] = column
	}
	columns["level"] = postgres.Column{Expr: "s.level", Type: postgres.TypeText}
	return columns
}()

// DefaultSort orders listings newest first.
var DefaultSort = []query.SortKey{{Field: "submission_date", Desc: true}}

// # Submission Retrieval

/*
List returns a filtered and paginated list of submissions of one kind.

Description: Filters are translated through the column allow-list; COUNT(*) OVER()
supplies the total without a second round trip.
*/
func (repository *PostgresRepository) List(context context.Context, kind Kind, scope Scope, q query.Query) ([]*Submission, int, error) {
	columns := filterColumns
	if kind == KindThesis {
		columns = thesisFilterColumns
	}

	args := &postgres.Args{}
	predicates, err := columns.Where(q.Filters, args)
	if err != nil {
		return nil, 0, err
	}

	if scope.MemberID != "" {
		placeholder := args.Add(scope.MemberID)
		predicates = append(predicates, fmt.Sprintf(
			"(s.owner_id = %[1]s OR %[1]s = ANY(s.co_owner_ids) OR s.supervisor_id = %[1]s)", placeholder))
	}
	if scope.SupervisorID != "" {
		predicates = append(predicates, "s.supervisor_id = "+args.Add(scope.SupervisorID))
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(columnsFor(kind))
	queryBuilder.WriteString(", COUNT(*) OVER() AS total FROM ")
	queryBuilder.WriteString(tableFor(kind))
	queryBuilder.WriteString(" s")
	if len(predicates) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(predicates, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(columns.OrderBy(q.Sort, DefaultSort, "s.id DESC"))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %s OFFSET %s", args.Add(q.Page.Limit), args.Add(q.Page.Offset())))

	rows, err := repository.db.Query(context, queryBuilder.String(), args.Values()...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_submissions")
	}
	defer rows.Close()

	submissions := []*Submission{}
	var total int
	for rows.Next() {
		submission, err := scanSubmission(rows, kind, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_submission")
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_submissions")
	}

	return submissions, total, nil
}

// FindByID retrieves a single submission by its primary key.
func (repository *PostgresRepository) FindByID(context context.Context, kind Kind, id string) (*Submission, error) {
	return repository.find(context, kind, id, "")
}

// FindForUpdate retrieves and row-locks a single submission.
func (repository *PostgresRepository) FindForUpdate(context context.Context, kind Kind, id string) (*Submission, error) {
	return repository.find(context, kind, id, " FOR UPDATE")
}

func (repository *PostgresRepository) find(context context.Context, kind Kind, id, lock string) (*Submission, error) {
	query := "SELECT " + columnsFor(kind) + " FROM " + tableFor(kind) + " s WHERE s.id = $1" + lock

	submission, err := scanSubmission(repository.db.QueryRow(context, query, id), kind)
	if err != nil {
		return nil, dberr.NotFound(err, kindLabel(kind), "find_submission")
	}
	return submission, nil
}

// # Submission Mutation

// Create inserts a new pending submission.
func (repository *PostgresRepository) Create(context context.Context, submission *Submission) error {
	if submission.Kind == KindThesis {
		const query = `
			INSERT INTO registry.thesis (
				id, title, abstract, keywords, owner_id, co_owner_ids, supervisor_id,
				status, notes, files, level, defense, submission_date, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
			RETURNING submission_date, updated_at
		`
		err := repository.db.QueryRow(context, query,
			submission.ID, submission.Title, submission.Abstract, submission.Keywords, submission.OwnerID,
			submission.CoOwnerIDs, submission.SupervisorID, submission.Status, submission.Notes, submission.Files,
			submission.Thesis.Level, submission.Thesis.Defense,
		).Scan(&submission.SubmissionDate, &submission.UpdatedAt)
		return dberr.Wrap(err, "create_thesis")
	}

	const query = `
		INSERT INTO registry.research (
			id, title, abstract, keywords, owner_id, co_owner_ids, supervisor_id,
			status, notes, files, submission_date, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING submission_date, updated_at
	`
	err := repository.db.QueryRow(context, query,
		submission.ID, submission.Title, submission.Abstract, submission.Keywords, submission.OwnerID,
		submission.CoOwnerIDs, submission.SupervisorID, submission.Status, submission.Notes, submission.Files,
	).Scan(&submission.SubmissionDate, &submission.UpdatedAt)
	return dberr.Wrap(err, "create_research")
}

// Update writes content and annotation fields while the record is still in the observed status.
func (repository *PostgresRepository) Update(context context.Context, submission *Submission, observed Status) error {
	var err error
	if submission.Kind == KindThesis {
		const query = `
			UPDATE registry.thesis
			SET title = $3, abstract = $4, keywords = $5, co_owner_ids = $6,
				supervisor_id = $7, files = $8, notes = $9, level = $10, defense = $11, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING updated_at
		`
		err = repository.db.QueryRow(context, query,
			submission.ID, observed, submission.Title, submission.Abstract, submission.Keywords,
			submission.CoOwnerIDs, submission.SupervisorID, submission.Files, submission.Notes,
			submission.Thesis.Level, submission.Thesis.Defense,
		).Scan(&submission.UpdatedAt)
	} else {
		const query = `
			UPDATE registry.research
			SET title = $3, abstract = $4, keywords = $5, co_owner_ids = $6,
				supervisor_id = $7, files = $8, notes = $9, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING updated_at
		`
		err = repository.db.QueryRow(context, query,
			submission.ID, observed, submission.Title, submission.Abstract, submission.Keywords,
			submission.CoOwnerIDs, submission.SupervisorID, submission.Files, submission.Notes,
		).Scan(&submission.UpdatedAt)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return repository.staleOrMissing(context, submission.Kind, submission.ID)
	}
	return dberr.Wrap(err, "update_submission")
}

// Annotate writes notes and, for a thesis, defense information.
func (repository *PostgresRepository) Annotate(context context.Context, submission *Submission) error {
	var err error
	if submission.Kind == KindThesis {
		const query = `
			UPDATE registry.thesis SET notes = $2, defense = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		err = repository.db.QueryRow(context, query, submission.ID, submission.Notes, submission.Thesis.Defense).Scan(&submission.UpdatedAt)
	} else {
		const query = `
			UPDATE registry.research SET notes = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		err = repository.db.QueryRow(context, query, submission.ID, submission.Notes).Scan(&submission.UpdatedAt)
	}

	return dberr.NotFound(err, kindLabel(submission.Kind), "annotate_submission")
}

// Delete removes the record if its status still matches and returns its attachments.
func (repository *PostgresRepository) Delete(context context.Context, kind Kind, id string, observed Status) ([]File, error) {
	query := "DELETE FROM " + tableFor(kind) + " WHERE id = $1 AND status = $2 RETURNING files"

	var files []File
	err := repository.db.QueryRow(context, query, id, observed).Scan(&files)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.staleOrMissing(context, kind, id)
	}
	if err != nil {
		return nil, dberr.Wrap(err, "delete_submission")
	}
	return files, nil
}

// SaveReview persists a review outcome onto a record that is still pending.
func (repository *PostgresRepository) SaveReview(context context.Context, submission *Submission) error {
	query := "UPDATE " + tableFor(submission.Kind) + `
		SET status = $2, reference_number = $3, review_date = $4, reviewer_id = $5,
			reviewer_notes = $6, updated_at = $7
		WHERE id = $1 AND status = 'pending'`

	tag, err := repository.db.Exec(context, query,
		submission.ID, submission.Status, submission.ReferenceNumber, submission.ReviewDate,
		submission.ReviewerID, submission.ReviewerNotes, submission.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "save_review")
	}
	if tag.RowsAffected() == 0 {
		return repository.staleOrMissing(context, submission.Kind, submission.ID)
	}
	return nil
}

// # Helpers

// staleOrMissing explains a conditional write that matched no row.
func (repository *PostgresRepository) staleOrMissing(context context.Context, kind Kind, id string) error {
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM " + tableFor(kind) + " WHERE id = $1)"
	if err := repository.db.QueryRow(context, query, id).Scan(&exists); err != nil {
		return dberr.Wrap(err, "check_submission")
	}
	if !exists {
		return apperr.NotFound(kindLabel(kind))
	}
	return apperr.InvalidState("Submission status changed concurrently")
}

func scanSubmission(row pgx.Row, kind Kind, extra ...any) (*Submission, error) {
	submission := &Submission{Kind: kind}
	var (
		level   *string
		defense *Defense
	)

	destinations := []any{
		&submission.ID, &submission.Title, &submission.Abstract, &submission.Keywords, &submission.OwnerID,
		&submission.CoOwnerIDs, &submission.SupervisorID, &submission.Status, &submission.ReferenceNumber,
		&submission.SubmissionDate, &submission.ReviewDate, &submission.ReviewerID, &submission.ReviewerNotes,
		&submission.Notes, &submission.Files, &submission.UpdatedAt, &level, &defense,
	}
	if err := row.Scan(append(destinations, extra...)...); err != nil {
		return nil, err
	}

	if kind == KindThesis && level != nil {
		submission.Thesis = &ThesisDetails{Level: Level(*level), Defense: defense}
	}
	return submission, nil
}

func kindLabel(kind Kind) string {
	if kind == KindThesis {
		return "Thesis"
	}
	return "Research"
}

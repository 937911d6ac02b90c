// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/dberr"
	"github.com/taibuivan/scholaris/internal/platform/postgres"
	"github.com/taibuivan/scholaris/internal/submission"
	"github.com/taibuivan/scholaris/pkg/pagination"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db postgres.DBTX
}

// NewPostgresRepository constructs a PostgreSQL backed reference ledger.
// db may be the pool or an open transaction.
func NewPostgresRepository(db postgres.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// recordSelect joins each record to its submission through an explicit
// per-kind LEFT JOIN on the (kind, id) pair.
const recordSelect = `
	SELECT r.id, r.number, r.type_code, r.year, r.serial, r.submission_kind, r.submission_id,
		r.issued_date, r.issued_by, r.status, r.received_date, r.received_by,
		COALESCE(rs.title, th.title), COALESCE(rs.status, th.status), th.level,
		COALESCE(rs.owner_id, th.owner_id), COALESCE(rs.supervisor_id, th.supervisor_id)`

const recordFrom = `
	FROM registry.reference_number r
	LEFT JOIN registry.research rs ON r.submission_kind = 'research' AND rs.id = r.submission_id
	LEFT JOIN registry.thesis th ON r.submission_kind = 'thesis' AND th.id = r.submission_id`

// # Allocation

// NextSerial bumps the (code, year) counter, seeding it from the ledger.
func (repository *PostgresRepository) NextSerial(context context.Context, code TypeCode, year int) (int, error) {
	const query = `
		INSERT INTO registry.serial_counter (type_code, year, last_serial)
		VALUES ($1, $2, (
			SELECT COALESCE(MAX(serial), 0) + 1 FROM registry.reference_number
			WHERE type_code = $1 AND year = $2
		))
		ON CONFLICT (type_code, year) DO UPDATE
		SET last_serial = GREATEST(
			registry.serial_counter.last_serial,
			(SELECT COALESCE(MAX(serial), 0) FROM registry.reference_number WHERE type_code = $1 AND year = $2)
		) + 1
		RETURNING last_serial
	`

	var serial int
	if err := repository.db.QueryRow(context, query, code, year).Scan(&serial); err != nil {
		return 0, dberr.Wrap(err, "next_serial")
	}
	return serial, nil
}

// InsertIfAbsent writes record unless any unique key (number, serial slot, submission) is taken.
func (repository *PostgresRepository) InsertIfAbsent(context context.Context, record *Record) error {
	const query = `
		INSERT INTO registry.reference_number (
			id, number, type_code, year, serial, submission_kind, submission_id,
			issued_date, issued_by, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
		RETURNING id
	`

	var id string
	err := repository.db.QueryRow(context, query,
		record.ID, record.Number, record.TypeCode, record.Year, record.Serial,
		record.Submission.Kind, record.Submission.ID, record.IssuedDate, record.IssuedBy, record.Status,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNumberTaken
	}
	return dberr.Wrap(err, "insert_reference_number")
}

// # Verification Ledger

// AppendVerification inserts a log row selected by number in one statement.
func (repository *PostgresRepository) AppendVerification(context context.Context, number string, entry LogEntry) error {
	const query = `
		INSERT INTO registry.verification (reference_id, verified_at, verifier_id, result, notes)
		SELECT id, $2, $3, $4, $5 FROM registry.reference_number WHERE number = $1
	`

	tag, err := repository.db.Exec(context, query, number, entry.VerifiedAt, entry.VerifierID, entry.Result, entry.Notes)
	if err != nil {
		return dberr.Wrap(err, "append_verification")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Reference number")
	}
	return nil
}

// FindByID retrieves a record with its submission summary and log.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Record, error) {
	return repository.findDetail(context, "r.id = $1", id)
}

// FindByNumber retrieves a record by its printed number.
func (repository *PostgresRepository) FindByNumber(context context.Context, number string) (*Record, error) {
	return repository.findDetail(context, "r.number = $1", number)
}

func (repository *PostgresRepository) findDetail(context context.Context, predicate string, value string) (*Record, error) {
	record, err := scanRecord(repository.db.QueryRow(context, recordSelect+recordFrom+" WHERE "+predicate, value))
	if err != nil {
		return nil, dberr.NotFound(err, "Reference number", "find_reference_number")
	}

	const logQuery = `
		SELECT verified_at, verifier_id, result, notes
		FROM registry.verification
		WHERE reference_id = $1
		ORDER BY verified_at, id
	`
	rows, err := repository.db.Query(context, logQuery, record.ID)
	if err != nil {
		return nil, dberr.Wrap(err, "load_verification_log")
	}
	defer rows.Close()

	record.Log = []LogEntry{}
	for rows.Next() {
		var entry LogEntry
		if err := rows.Scan(&entry.VerifiedAt, &entry.VerifierID, &entry.Result, &entry.Notes); err != nil {
			return nil, dberr.Wrap(err, "scan_verification")
		}
		record.Log = append(record.Log, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "load_verification_log")
	}

	return record, nil
}

// # Receipt

// MarkReceived transitions an issued record to received.
func (repository *PostgresRepository) MarkReceived(context context.Context, record *Record) error {
	const query = `
		UPDATE registry.reference_number
		SET status = 'received', received_date = $2, received_by = $3
		WHERE id = $1 AND status = 'issued'
	`

	tag, err := repository.db.Exec(context, query, record.ID, record.ReceivedDate, record.ReceivedBy)
	if err != nil {
		return dberr.Wrap(err, "mark_received")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := repository.db.QueryRow(context,
		"SELECT EXISTS (SELECT 1 FROM registry.reference_number WHERE id = $1)", record.ID,
	).Scan(&exists); err != nil {
		return dberr.Wrap(err, "check_reference_number")
	}
	if !exists {
		return apperr.NotFound("Reference number")
	}
	return apperr.InvalidState("Reference number has already been received")
}

// # Listing

// ListForUser returns the records of submissions userID owns or supervises.
func (repository *PostgresRepository) ListForUser(context context.Context, userID string, page pagination.Params) ([]*Record, int, error) {
	return repository.list(context,
		" WHERE COALESCE(rs.owner_id, th.owner_id) = $3 OR COALESCE(rs.supervisor_id, th.supervisor_id) = $3",
		page, userID)
}

// ListAll returns every record.
func (repository *PostgresRepository) ListAll(context context.Context, page pagination.Params) ([]*Record, int, error) {
	return repository.list(context, "", page)
}

func (repository *PostgresRepository) list(context context.Context, where string, page pagination.Params, extra ...any) ([]*Record, int, error) {
	query := recordSelect + ", COUNT(*) OVER() AS total" + recordFrom + where +
		" ORDER BY r.issued_date DESC, r.id DESC LIMIT $1 OFFSET $2"

	args := append([]any{page.Limit, page.Offset()}, extra...)
	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_reference_numbers")
	}
	defer rows.Close()

	records := []*Record{}
	var total int
	for rows.Next() {
		record, err := scanRecord(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_reference_number")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_reference_numbers")
	}

	return records, total, nil
}

// # Helpers

func scanRecord(row pgx.Row, extra ...any) (*Record, error) {
	record := &Record{}
	var (
		kind         string
		title        *string
		status       *string
		level        *string
		ownerID      *string
		supervisorID *string
	)

	destinations := []any{
		&record.ID, &record.Number, &record.TypeCode, &record.Year, &record.Serial, &kind, &record.Submission.ID,
		&record.IssuedDate, &record.IssuedBy, &record.Status, &record.ReceivedDate, &record.ReceivedBy,
		&title, &status, &level, &ownerID, &supervisorID,
	}
	if err := row.Scan(append(destinations, extra...)...); err != nil {
		return nil, err
	}

	record.Submission.Kind = submission.Kind(kind)
	if title != nil && ownerID != nil {
		record.Details = &Summary{
			Title:        *title,
			OwnerID:      *ownerID,
			SupervisorID: supervisorID,
		}
		if status != nil {
			record.Details.Status = submission.Status(*status)
		}
		if level != nil {
			record.Details.Level = submission.Level(*level)
		}
	}

	return record, nil
}

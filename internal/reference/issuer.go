// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/constants"
	"github.com/taibuivan/scholaris/internal/platform/metrics"
	"github.com/taibuivan/scholaris/internal/submission"
	"github.com/taibuivan/scholaris/pkg/uuid"
)

// Allocator is the part of [Repository] issuance needs. The review workflow
// passes a transaction-scoped instance so the counter bump, the ledger insert
// and the submission update commit together.
type Allocator interface {
	NextSerial(context context.Context, code TypeCode, year int) (int, error)
	InsertIfAbsent(context context.Context, record *Record) error
}

// IssueRequest describes the submission a number is being issued for.
type IssueRequest struct {
	Submission Link
	Level      submission.Level
	IssuedBy   string
}

// # Issuer

// Issuer allocates, mints and records reference numbers.
type Issuer struct {
	suffix   string
	location *time.Location
	now      func() time.Time
	metrics  *metrics.Registry
	logger   *slog.Logger
}

// NewIssuer constructs an [Issuer]. Years are computed in location; suffix is
// appended to every number.
func NewIssuer(suffix string, location *time.Location, metrics *metrics.Registry, logger *slog.Logger) *Issuer {
	if location == nil {
		location = time.UTC
	}
	return &Issuer{
		suffix:   suffix,
		location: location,
		now:      time.Now,
		metrics:  metrics,
		logger:   logger,
	}
}

// WithClock replaces the time source.
func (issuer *Issuer) WithClock(now func() time.Time) *Issuer {
	issuer.now = now
	return issuer
}

/*
Issue allocates the next serial, mints the number and inserts it if absent.

A collision means another writer took the number between allocation and
insert; the serial is recomputed and the insert retried, at most
[constants.MaxIssueAttempts] times.

Parameters:
  - context: context.Context
  - allocator: Allocator (transaction-scoped)
  - request: IssueRequest

Returns:
  - *Record: The persisted record, status issued
  - error: CONFIGURATION_ERROR, ALLOCATION_EXHAUSTED or persistence failures
*/
func (issuer *Issuer) Issue(context context.Context, allocator Allocator, request IssueRequest) (*Record, error) {
	code, err := TypeCodeFor(request.Submission.Kind, request.Level)
	if err != nil {
		return nil, err
	}

	issued := issuer.now().In(issuer.location)
	year := issued.Year()

	for attempt := 1; attempt <= constants.MaxIssueAttempts; attempt++ {
		serial, err := allocator.NextSerial(context, code, year)
		if err != nil {
			return nil, err
		}

		number, err := Mint(code, year, serial, issuer.suffix)
		if err != nil {
			return nil, err
		}

		record := &Record{
			ID:         uuid.New(),
			Number:     number,
			TypeCode:   code,
			Year:       year,
			Serial:     serial,
			Submission: request.Submission,
			IssuedDate: issued,
			IssuedBy:   request.IssuedBy,
			Status:     StatusIssued,
		}

		err = allocator.InsertIfAbsent(context, record)
		if errors.Is(err, ErrNumberTaken) {
			issuer.metrics.RecordAllocationCollision(string(code))
			issuer.logger.WarnContext(context, "reference_number_collision",
				slog.String("number", number),
				slog.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		issuer.logger.InfoContext(context, "reference_number_issued",
			slog.String("number", number),
			slog.String("kind", string(request.Submission.Kind)),
			slog.String("submission_id", request.Submission.ID),
		)
		return record, nil
	}

	return nil, apperr.AllocationExhausted("Could not allocate a unique reference number, please retry")
}

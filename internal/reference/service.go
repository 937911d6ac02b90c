// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/constants"
	"github.com/taibuivan/scholaris/internal/platform/metrics"
	"github.com/taibuivan/scholaris/internal/submission"
	"github.com/taibuivan/scholaris/pkg/pagination"
)

// maxNumberLength bounds verify input; real numbers are far shorter.
const maxNumberLength = 32

// # Service Layer

// Service is the verification ledger: lookups, receipts and listings of issued numbers.
type Service struct {
	repo    Repository
	metrics *metrics.Registry
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs a new reference [Service].
func NewService(repo Repository, metrics *metrics.Registry, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

/*
Verify appends a successful lookup to the ledger of number and returns the
enriched record. Every call appends; an unknown number appends nothing.

Parameters:
  - context: context.Context
  - verifier: submission.Actor
  - number: string
  - notes: string (defaults to constants.DefaultVerificationNote)

Returns:
  - *Record: The record with submission summary and full log
  - error: NOT_FOUND for an unknown number, VALIDATION_ERROR for blank input
*/
func (service *Service) Verify(context context.Context, verifier submission.Actor, number, notes string) (*Record, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperr.ValidationError("Invalid reference number", apperr.FieldError{
			Field:   "number",
			Message: "A reference number is required",
		})
	}

	// No minted number is this long; skip the lookup.
	if len(number) > maxNumberLength {
		service.metrics.RecordVerification(false)
		return nil, apperr.NotFound("Reference number")
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = constants.DefaultVerificationNote
	}

	entry := LogEntry{
		VerifiedAt: service.now(),
		VerifierID: verifier.ID,
		Result:     true,
		Notes:      notes,
	}

	if err := service.repo.AppendVerification(context, number, entry); err != nil {
		service.metrics.RecordVerification(false)
		return nil, err
	}
	service.metrics.RecordVerification(true)

	service.logger.InfoContext(context, "reference_number_verified",
		slog.String("number", number),
		slog.String("verifier_id", verifier.ID),
	)

	return service.repo.FindByNumber(context, number)
}

/*
MarkReceived records that the physical copy for a number was handed in.
Allowed for admins and the owner or supervisor of the linked submission.

Returns:
  - *Record: The updated record
  - error: FORBIDDEN, NOT_FOUND or INVALID_STATE when already received
*/
func (service *Service) MarkReceived(context context.Context, actor submission.Actor, id string) (*Record, error) {
	record, err := service.Get(context, actor, id)
	if err != nil {
		return nil, err
	}

	if err := record.MarkReceived(actor.ID, service.now()); err != nil {
		return nil, err
	}

	if err := service.repo.MarkReceived(context, record); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "reference_number_received",
		slog.String("number", record.Number),
		slog.String("actor_id", actor.ID),
	)

	return record, nil
}

// Get returns a record the caller is related to.
func (service *Service) Get(context context.Context, actor submission.Actor, id string) (*Record, error) {
	record, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !record.relatedTo(actor.ID) {
		service.logger.WarnContext(context, "authorization_denied",
			slog.String("actor_id", actor.ID),
			slog.String("action", "view_reference"),
			slog.String("reference_id", id),
		)
		return nil, apperr.Forbidden("Not allowed to access this reference number")
	}

	return record, nil
}

// ListForUser returns the numbers of submissions the caller owns or supervises.
func (service *Service) ListForUser(context context.Context, actor submission.Actor, page pagination.Params) ([]*Record, int, error) {
	return service.repo.ListForUser(context, actor.ID, page)
}

// ListAll returns every issued number. Callers must be admins.
func (service *Service) ListAll(context context.Context, actor submission.Actor, page pagination.Params) ([]*Record, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperr.Forbidden("Admin role required")
	}
	return service.repo.ListAll(context, page)
}

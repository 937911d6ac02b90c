// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/scholaris/internal/notify"
	"github.com/taibuivan/scholaris/internal/platform/constants"
	"github.com/taibuivan/scholaris/internal/platform/metrics"
	"github.com/taibuivan/scholaris/internal/reference"
	"github.com/taibuivan/scholaris/internal/submission"
	"github.com/taibuivan/scholaris/pkg/pointer"
)

// Request is a reviewer's verdict.
type Request struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

// Service orchestrates the review workflow.
type Service struct {
	unit          UnitOfWork
	issuer        *reference.Issuer
	dispatcher    notify.Dispatcher
	metrics       *metrics.Registry
	logger        *slog.Logger
	notifyTimeout time.Duration
	now           func() time.Time
}

// NewService constructs a review [Service]. A non-positive notifyTimeout
// falls back to constants.DefaultNotifyTimeout.
func NewService(unit UnitOfWork, issuer *reference.Issuer, dispatcher notify.Dispatcher, metrics *metrics.Registry, logger *slog.Logger, notifyTimeout time.Duration) *Service {
	if notifyTimeout <= 0 {
		notifyTimeout = constants.DefaultNotifyTimeout
	}
	return &Service{
		unit:          unit,
		issuer:        issuer,
		dispatcher:    dispatcher,
		metrics:       metrics,
		logger:        logger,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
	}
}

/*
Review applies a decision to a pending submission.

The submission row is locked for the whole unit of work, so two reviewers of
the same record serialize and the second sees a terminal status. On approval
the reference number is issued in the same unit of work. Exactly one
notification is dispatched after commit; its failure is logged and never
returned.

Parameters:
  - ctx: context.Context
  - actor: submission.Actor (the reviewer)
  - kind: submission.Kind
  - id: string
  - request: Request

Returns:
  - *submission.Submission: The reviewed record
  - error: VALIDATION_ERROR, FORBIDDEN, NOT_FOUND, INVALID_STATE,
    ALLOCATION_EXHAUSTED or CONFIGURATION_ERROR
*/
func (service *Service) Review(ctx context.Context, actor submission.Actor, kind submission.Kind, id string, request Request) (*submission.Submission, error) {
	decision, err := submission.ParseDecision(request.Status)
	if err != nil {
		return nil, err
	}

	var notes *string
	if request.AdminNotes != nil {
		if trimmed := strings.TrimSpace(*request.AdminNotes); trimmed != "" {
			notes = &trimmed
		}
	}

	var reviewed *submission.Submission
	err = service.unit.Do(ctx, func(ctx context.Context, store Store) error {
		record, err := store.Submissions().FindForUpdate(ctx, kind, id)
		if err != nil {
			return err
		}

		if err := submission.Authorize(actor, submission.ActionReview, record.Facts()); err != nil {
			submission.LogDenied(ctx, service.logger, actor, submission.ActionReview, record, err)
			return err
		}

		if err := record.EnsurePending(); err != nil {
			return err
		}

		at := service.now()
		switch decision {
		case submission.DecisionApproved:
			issued, err := service.issuer.Issue(ctx, store.References(), reference.IssueRequest{
				Submission: reference.Link{Kind: kind, ID: id},
				Level:      record.Level(),
				IssuedBy:   actor.ID,
			})
			if err != nil {
				return err
			}
			if err := record.Approve(issued.Number, actor.ID, notes, at); err != nil {
				return err
			}
		case submission.DecisionRejected:
			if err := record.Reject(actor.ID, notes, at); err != nil {
				return err
			}
		}

		if err := store.Submissions().SaveReview(ctx, record); err != nil {
			return err
		}

		reviewed = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.metrics.RecordReview(string(kind), string(decision))
	service.logger.InfoContext(ctx, "submission_reviewed",
		slog.String("submission_id", id),
		slog.String("kind", string(kind)),
		slog.String("decision", string(decision)),
		slog.String("reviewer_id", actor.ID),
	)

	service.notify(ctx, reviewed)

	return reviewed, nil
}

// notify dispatches the outcome to the owner. It outlives request
// cancellation but is bounded by the notify timeout.
func (service *Service) notify(ctx context.Context, reviewed *submission.Submission) {
	if service.dispatcher == nil {
		return
	}

	event := EventFor(reviewed)

	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), service.notifyTimeout)
	defer cancel()

	if err := service.dispatcher.Dispatch(dispatchCtx, event); err != nil {
		service.logger.ErrorContext(ctx, "notification_dispatch_failed",
			slog.String("submission_id", reviewed.ID),
			slog.String("recipient", event.Recipient),
			slog.String("kind", string(event.Kind)),
			slog.Any("error", err),
		)
	}
}

// EventFor builds the owner notification for a reviewed submission.
func EventFor(reviewed *submission.Submission) notify.Event {
	event := notify.Event{
		Recipient:      reviewed.OwnerID,
		SubmissionKind: string(reviewed.Kind),
		SubmissionID:   reviewed.ID,
		Title:          reviewed.Title,
		OccurredAt:     reviewed.UpdatedAt,
	}

	if reviewed.Status == submission.StatusApproved {
		event.Kind = notify.KindApproved
		event.Payload = pointer.Val(reviewed.ReferenceNumber)
		return event
	}

	event.Kind = notify.KindRejected
	event.Payload = pointer.Val(reviewed.ReviewerNotes)
	return event
}

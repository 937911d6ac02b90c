// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/scholaris/pkg/pagination"
	"github.com/taibuivan/scholaris/pkg/uuid"
)

// Notification is an inbox entry.
type Notification struct {
	ID             string    `json:"id"`
	RecipientID    string    `json:"recipient_id"`
	Kind           Kind      `json:"kind"`
	SubmissionKind string    `json:"submission_kind"`
	SubmissionID   string    `json:"submission_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Payload        string    `json:"payload"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromEvent renders event into a new unread inbox entry.
func FromEvent(event Event) *Notification {
	title, message := event.Render()
	return &Notification{
		ID:             uuid.New(),
		RecipientID:    event.Recipient,
		Kind:           event.Kind,
		SubmissionKind: event.SubmissionKind,
		SubmissionID:   event.SubmissionID,
		Title:          title,
		Message:        message,
		Payload:        event.Payload,
		CreatedAt:      event.OccurredAt,
	}
}

// # Inbox Data Access

// InboxRepository stores notifications. Every mutation is scoped to a recipient
// so a caller can never touch another user's inbox.
type InboxRepository interface {
	Insert(context context.Context, notification *Notification) error

	// ListForRecipient returns the recipient's entries, newest first.
	ListForRecipient(context context.Context, recipientID string, page pagination.Params) ([]*Notification, int, error)

	CountUnread(context context.Context, recipientID string) (int, error)

	/*
		MarkRead flags one entry as read.

		Returns:
		  - error: NOT_FOUND if the entry does not exist for recipientID
	*/
	MarkRead(context context.Context, recipientID, id string) error

	// MarkAllRead flags every unread entry and returns how many changed.
	MarkAllRead(context context.Context, recipientID string) (int, error)

	/*
		Delete removes one entry.

		Returns:
		  - error: NOT_FOUND if the entry does not exist for recipientID
	*/
	Delete(context context.Context, recipientID, id string) error
}

// CountCache caches unread counts per recipient.
type CountCache interface {
	Get(context context.Context, recipientID string) (int, bool, error)
	Set(context context.Context, recipientID string, count int) error
	Invalidate(context context.Context, recipientID string) error
}

// # Inbox Sink

// InboxSink persists events as inbox entries.
type InboxSink struct {
	repo   InboxRepository
	cache  CountCache
	logger *slog.Logger
}

// NewInboxSink constructs an [InboxSink]. cache may be nil.
func NewInboxSink(repo InboxRepository, cache CountCache, logger *slog.Logger) *InboxSink {
	return &InboxSink{repo: repo, cache: cache, logger: logger}
}

// Name implements [Sink].
func (sink *InboxSink) Name() string { return "inbox" }

// Dispatch implements [Sink].
func (sink *InboxSink) Dispatch(context context.Context, event Event) error {
	if err := sink.repo.Insert(context, FromEvent(event)); err != nil {
		return err
	}
	if sink.cache == nil {
		return nil
	}

	// The entry is stored; a stale count only lasts until the TTL.
	if err := sink.cache.Invalidate(context, event.Recipient); err != nil {
		sink.logger.WarnContext(context, "unread_count_cache_failed",
			slog.String("recipient", event.Recipient),
			slog.Any("error", err),
		)
	}
	return nil
}

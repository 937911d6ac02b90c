// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/dberr"
	"github.com/taibuivan/scholaris/internal/platform/postgres"
	"github.com/taibuivan/scholaris/pkg/pagination"
)

// PostgresInbox implements [InboxRepository] using pgx.
type PostgresInbox struct {
	db postgres.DBTX
}

// NewPostgresInbox constructs a PostgreSQL backed inbox.
func NewPostgresInbox(db postgres.DBTX) *PostgresInbox {
	return &PostgresInbox{db: db}
}

// Insert persists a new notification.
func (repository *PostgresInbox) Insert(context context.Context, notification *Notification) error {
	const query = `
		INSERT INTO registry.notification (
			id, recipient_id, kind, submission_kind, submission_id, title, message, payload, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::timestamptz, NOW()))
		RETURNING created_at
	`

	var createdAt any
	if !notification.CreatedAt.IsZero() {
		createdAt = notification.CreatedAt
	}

	err := repository.db.QueryRow(context, query,
		notification.ID, notification.RecipientID, notification.Kind, notification.SubmissionKind,
		notification.SubmissionID, notification.Title, notification.Message, notification.Payload,
		notification.IsRead, createdAt,
	).Scan(&notification.CreatedAt)
	return dberr.Wrap(err, "insert_notification")
}

// ListForRecipient returns a page of the recipient's inbox, newest first.
func (repository *PostgresInbox) ListForRecipient(context context.Context, recipientID string, page pagination.Params) ([]*Notification, int, error) {
	const query = `
		SELECT id, recipient_id, kind, submission_kind, submission_id, title, message, payload,
			is_read, created_at, COUNT(*) OVER() AS total
		FROM registry.notification
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := repository.db.Query(context, query, recipientID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_notifications")
	}
	defer rows.Close()

	notifications := []*Notification{}
	var total int
	for rows.Next() {
		notification := &Notification{}
		if err := rows.Scan(
			&notification.ID, &notification.RecipientID, &notification.Kind, &notification.SubmissionKind,
			&notification.SubmissionID, &notification.Title, &notification.Message, &notification.Payload,
			&notification.IsRead, &notification.CreatedAt, &total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_notification")
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_notifications")
	}

	return notifications, total, nil
}

// CountUnread counts the recipient's unread entries.
func (repository *PostgresInbox) CountUnread(context context.Context, recipientID string) (int, error) {
	var count int
	err := repository.db.QueryRow(context,
		"SELECT COUNT(*) FROM registry.notification WHERE recipient_id = $1 AND NOT is_read", recipientID,
	).Scan(&count)
	if err != nil {
		return 0, dberr.Wrap(err, "count_unread_notifications")
	}
	return count, nil
}

// MarkRead flags one of the recipient's entries as read.
func (repository *PostgresInbox) MarkRead(context context.Context, recipientID, id string) error {
	tag, err := repository.db.Exec(context,
		"UPDATE registry.notification SET is_read = TRUE WHERE id = $1 AND recipient_id = $2", id, recipientID)
	if err != nil {
		return dberr.Wrap(err, "mark_notification_read")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Notification")
	}
	return nil
}

// MarkAllRead flags every unread entry of the recipient.
func (repository *PostgresInbox) MarkAllRead(context context.Context, recipientID string) (int, error) {
	tag, err := repository.db.Exec(context,
		"UPDATE registry.notification SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read", recipientID)
	if err != nil {
		return 0, dberr.Wrap(err, "mark_all_notifications_read")
	}
	return int(tag.RowsAffected()), nil
}

// Delete removes one of the recipient's entries.
func (repository *PostgresInbox) Delete(context context.Context, recipientID, id string) error {
	tag, err := repository.db.Exec(context,
		"DELETE FROM registry.notification WHERE id = $1 AND recipient_id = $2", id, recipientID)
	if err != nil {
		return dberr.Wrap(err, "delete_notification")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Notification")
	}
	return nil
}

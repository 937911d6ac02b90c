// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"log/slog"

	"github.com/taibuivan/scholaris/internal/platform/validate"
	"github.com/taibuivan/scholaris/pkg/pagination"
)

// # Inbox Service

// Service serves a recipient's own inbox.
type Service struct {
	repo   InboxRepository
	cache  CountCache
	logger *slog.Logger
}

// NewService constructs a new inbox [Service]. cache may be nil.
func NewService(repo InboxRepository, cache CountCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns the caller's notifications, newest first.
func (service *Service) List(context context.Context, recipientID string, page pagination.Params) ([]*Notification, int, error) {
	return service.repo.ListForRecipient(context, recipientID, page)
}

/*
UnreadCount returns the caller's unread count, served from cache when possible.

Description: Cache failures degrade to a database count and are logged.
*/
func (service *Service) UnreadCount(context context.Context, recipientID string) (int, error) {
	if service.cache != nil {
		count, hit, err := service.cache.Get(context, recipientID)
		if err != nil {
			service.logger.WarnContext(context, "unread_count_cache_failed", slog.Any("error", err))
		} else if hit {
			return count, nil
		}
	}

	count, err := service.repo.CountUnread(context, recipientID)
	if err != nil {
		return 0, err
	}

	if service.cache != nil {
		if err := service.cache.Set(context, recipientID, count); err != nil {
			service.logger.WarnContext(context, "unread_count_cache_failed", slog.Any("error", err))
		}
	}

	return count, nil
}

// MarkRead flags one of the caller's notifications as read.
func (service *Service) MarkRead(context context.Context, recipientID, id string) error {
	if err := (&validate.Validator{}).UUID("id", id).Err(); err != nil {
		return err
	}
	if err := service.repo.MarkRead(context, recipientID, id); err != nil {
		return err
	}
	service.invalidate(context, recipientID)
	return nil
}

// MarkAllRead flags every unread notification of the caller.
func (service *Service) MarkAllRead(context context.Context, recipientID string) (int, error) {
	changed, err := service.repo.MarkAllRead(context, recipientID)
	if err != nil {
		return 0, err
	}
	service.invalidate(context, recipientID)
	return changed, nil
}

// Delete removes one of the caller's notifications.
func (service *Service) Delete(context context.Context, recipientID, id string) error {
	if err := (&validate.Validator{}).UUID("id", id).Err(); err != nil {
		return err
	}
	if err := service.repo.Delete(context, recipientID, id); err != nil {
		return err
	}
	service.invalidate(context, recipientID)
	return nil
}

func (service *Service) invalidate(context context.Context, recipientID string) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Invalidate(context, recipientID); err != nil {
		service.logger.WarnContext(context, "unread_count_cache_failed", slog.Any("error", err))
	}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/notify"
	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/pkg/pagination"
)

// memoryInbox is an in-memory [notify.InboxRepository].
type memoryInbox struct {
	mu      sync.Mutex
	entries map[string]*notify.Notification
	counts  int
}

func newMemoryInbox() *memoryInbox {
	return &memoryInbox{entries: map[string]*notify.Notification{}}
}

func (inbox *memoryInbox) Insert(_ context.Context, notification *notify.Notification) error {
	inbox.mu.Lock()
	defer inbox.mu.Unlock()
	inbox.entries[notification.ID] = notification
	return nil
}

func (inbox *memoryInbox) ListForRecipient(_ context.Context, recipientID string, _ pagination.Params) ([]*notify.Notification, int, error) {
	inbox.mu.Lock()
	defer inbox.mu.Unlock()
	result := []*notify.Notification{}
	for _, entry := range inbox.entries {
		if entry.RecipientID == recipientID {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, len(result), nil
}

func (inbox *memoryInbox) CountUnread(_ context.Context, recipientID string) (int, error) {
	inbox.mu.Lock()
	defer inbox.mu.Unlock()
	inbox.counts++
	count := 0
	for _, entry := range inbox.entries {
		if entry.RecipientID == recipientID && !entry.IsRead {
			count++
		}
	}
	return count, nil
}

func (inbox *memoryInbox) MarkRead(_ context.Context, recipientID, id string) error {
	inbox.mu.Lock()
	defer inbox.mu.Unlock()
	entry, ok := inbox.entries[id]
	if !ok || entry.RecipientID != recipientID {
		return apperr.NotFound("Notification")
	}
	entry.IsRead = true
	return nil
}

func (inbox *memoryInbox) MarkAllRead(_ context.Context, recipientID string) (int, error) {
	inbox.mu.Lock()
	defer inbox.mu.Unlock()
	changed := 0
	for _, entry := range inbox.entries {
		if entry.RecipientID == recipientID && !entry.IsRead {
			entry.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (inbox *memoryInbox) Delete(_ context.Context, recipientID, id string) error {
	inbox.mu.Lock()
	defer inbox.mu.Unlock()
	entry, ok := inbox.entries[id]
	if !ok || entry.RecipientID != recipientID {
		return apperr.NotFound("Notification")
	}
	delete(inbox.entries, id)
	return nil
}

// memoryCache is an in-memory [notify.CountCache].
type memoryCache struct {
	values map[string]int
}

func newMemoryCache() *memoryCache { return &memoryCache{values: map[string]int{}} }

func (cache *memoryCache) Get(_ context.Context, recipientID string) (int, bool, error) {
	value, ok := cache.values[recipientID]
	return value, ok, nil
}

func (cache *memoryCache) Set(_ context.Context, recipientID string, count int) error {
	cache.values[recipientID] = count
	return nil
}

func (cache *memoryCache) Invalidate(_ context.Context, recipientID string) error {
	delete(cache.values, recipientID)
	return nil
}

// brokenCache fails every call, like an unreachable Redis.
type brokenCache struct{}

var errCacheDown = errors.New("redis: connection refused")

func (brokenCache) Get(context.Context, string) (int, bool, error) { return 0, false, errCacheDown }
func (brokenCache) Set(context.Context, string, int) error         { return errCacheDown }
func (brokenCache) Invalidate(context.Context, string) error       { return errCacheDown }

func deliver(t *testing.T, sink *notify.InboxSink, recipient string, at time.Time) {
	t.Helper()
	require.NoError(t, sink.Dispatch(context.Background(), notify.Event{
		Recipient:      recipient,
		Kind:           notify.KindApproved,
		SubmissionKind: "research",
		SubmissionID:   "r1",
		Title:          "Soil salinity",
		Payload:        "BH20250001CS",
		OccurredAt:     at,
	}))
}

/*
TestInbox_UnreadCountIsCachedAndInvalidated serves repeated reads from cache
and recomputes after every change.
*/
func TestInbox_UnreadCountIsCachedAndInvalidated(t *testing.T) {
	inbox, cache := newMemoryInbox(), newMemoryCache()
	sink := notify.NewInboxSink(inbox, cache, discardLogger())
	service := notify.NewService(inbox, cache, discardLogger())
	ctx := context.Background()

	deliver(t, sink, "owner", time.Now())
	deliver(t, sink, "owner", time.Now())

	count, err := service.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = service.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, inbox.counts)

	deliver(t, sink, "owner", time.Now())
	count, err = service.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	changed, err := service.MarkAllRead(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 3, changed)

	count, err = service.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInbox_ListNewestFirst(t *testing.T) {
	inbox := newMemoryInbox()
	sink := notify.NewInboxSink(inbox, nil, discardLogger())
	service := notify.NewService(inbox, nil, discardLogger())

	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	deliver(t, sink, "owner", older)
	deliver(t, sink, "owner", older.Add(time.Hour))
	deliver(t, sink, "someone-else", older)

	entries, total, err := service.List(context.Background(), "owner", pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
	assert.Equal(t, "Your research was approved", entries[0].Title)
	assert.False(t, entries[0].IsRead)
}

/*
TestInbox_ScopedToRecipient hides other users' notifications behind NOT_FOUND.
*/
func TestInbox_ScopedToRecipient(t *testing.T) {
	inbox := newMemoryInbox()
	sink := notify.NewInboxSink(inbox, nil, discardLogger())
	service := notify.NewService(inbox, nil, discardLogger())
	ctx := context.Background()

	deliver(t, sink, "owner", time.Now())
	entries, _, err := service.List(ctx, "owner", pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	id := entries[0].ID

	assert.True(t, apperr.HasCode(service.MarkRead(ctx, "intruder", id), apperr.CodeNotFound))
	assert.True(t, apperr.HasCode(service.Delete(ctx, "intruder", id), apperr.CodeNotFound))

	require.NoError(t, service.MarkRead(ctx, "owner", id))
	require.NoError(t, service.Delete(ctx, "owner", id))

	assert.True(t, apperr.HasCode(service.MarkRead(ctx, "owner", "not-a-uuid"), apperr.CodeValidation))
}

/*
TestInboxSink_CacheFailureIsLogged stores the entry and reports the stale
counter instead of failing the dispatch.
*/
func TestInboxSink_CacheFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	inbox := newMemoryInbox()
	sink := notify.NewInboxSink(inbox, brokenCache{}, slog.New(slog.NewJSONHandler(&logs, nil)))

	deliver(t, sink, "owner", time.Now())

	assert.Len(t, inbox.entries, 1)
	assert.Contains(t, logs.String(), "unread_count_cache_failed")
	assert.Contains(t, logs.String(), "connection refused")
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink remembers events and optionally fails.
type recordingSink struct {
	name   string
	err    error
	events []notify.Event
}

func (sink *recordingSink) Name() string { return sink.name }

func (sink *recordingSink) Dispatch(_ context.Context, event notify.Event) error {
	sink.events = append(sink.events, event)
	return sink.err
}

func TestEvent_Render(t *testing.T) {
	approved := notify.Event{Kind: notify.KindApproved, SubmissionKind: "thesis", Title: "Graph colouring", Payload: "MA20250008CS"}
	title, message := approved.Render()
	assert.Equal(t, "Your thesis was approved", title)
	assert.Contains(t, message, `"Graph colouring"`)
	assert.Contains(t, message, "MA20250008CS")

	rejected := notify.Event{Kind: notify.KindRejected, SubmissionKind: "research", Title: "Soil", Payload: "insufficient data"}
	_, message = rejected.Render()
	assert.Contains(t, message, "insufficient data")

	rejected.Payload = ""
	_, message = rejected.Render()
	assert.Contains(t, message, "No notes provided")
}

/*
TestFanout_TriesEverySink keeps delivering after a failure and joins the errors.
*/
func TestFanout_TriesEverySink(t *testing.T) {
	broken := &recordingSink{name: "amqp", err: errors.New("broker down")}
	inbox := &recordingSink{name: "inbox"}
	fanout := notify.NewFanout(nil, discardLogger(), broken, nil, inbox)

	err := fanout.Dispatch(context.Background(), notify.Event{Recipient: "owner", Kind: notify.KindRejected})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "amqp")
	assert.Len(t, broken.events, 1)
	assert.Len(t, inbox.events, 1)
}

func TestFanout_AllHealthy(t *testing.T) {
	first, second := &recordingSink{name: "a"}, &recordingSink{name: "b"}
	fanout := notify.NewFanout(nil, discardLogger(), first, second)

	assert.NoError(t, fanout.Dispatch(context.Background(), notify.Event{Recipient: "owner"}))
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
}

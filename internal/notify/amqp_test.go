// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/notify"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

// fakeChannel captures publishes and optionally fails them.
type fakeChannel struct {
	err   error
	sent  []published
	calls int
}

func (channel *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	channel.calls++
	if channel.err != nil {
		return channel.err
	}
	channel.sent = append(channel.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestAMQPPublisher_Dispatch(t *testing.T) {
	channel := &fakeChannel{}
	publisher := notify.NewAMQPPublisher(channel, "registry.notifications", discardLogger())

	event := notify.Event{Recipient: "owner", Kind: notify.KindApproved, SubmissionKind: "thesis", SubmissionID: "t1", Payload: "MA20250008CS"}
	require.NoError(t, publisher.Dispatch(context.Background(), event))

	require.Len(t, channel.sent, 1)
	sent := channel.sent[0]
	assert.Equal(t, "registry.notifications", sent.exchange)
	assert.Equal(t, "submission.approved", sent.key)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, "application/json", sent.msg.ContentType)

	var decoded notify.Event
	require.NoError(t, json.Unmarshal(sent.msg.Body, &decoded))
	assert.Equal(t, "MA20250008CS", decoded.Payload)
}

/*
TestAMQPPublisher_BreakerOpens stops calling the broker after consecutive failures.
*/
func TestAMQPPublisher_BreakerOpens(t *testing.T) {
	channel := &fakeChannel{err: errors.New("connection reset")}
	publisher := notify.NewAMQPPublisher(channel, "registry.notifications", discardLogger())
	event := notify.Event{Recipient: "owner", Kind: notify.KindRejected}

	for range 5 {
		assert.Error(t, publisher.Dispatch(context.Background(), event))
	}
	assert.Equal(t, 5, channel.calls)

	err := publisher.Dispatch(context.Background(), event)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, channel.calls)
}

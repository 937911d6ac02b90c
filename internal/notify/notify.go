// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify delivers review outcomes to submission owners.

# Delivery

  - [Dispatcher]: one event in, delivered or failed. Never retried inline.
  - [Fanout]: tries every [Sink] and joins their errors.
  - Sinks: the Postgres inbox ([InboxSink]) and the RabbitMQ exchange ([AMQPPublisher]).

The inbox half of the package also serves the recipient-facing API: listing,
unread counts, mark read and delete.
*/
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/scholaris/internal/platform/metrics"
)

// Kind is the outcome a notification reports.
type Kind string

const (
	KindApproved Kind = "approved"
	KindRejected Kind = "rejected"
)

// noNotes replaces an empty rejection note in rendered messages.
const noNotes = "No notes provided"

// Event is a single review outcome addressed to one recipient.
//
// Payload is the reference number for [KindApproved] and the reviewer notes
// for [KindRejected].
type Event struct {
	Recipient      string    `json:"recipient"`
	Kind           Kind      `json:"kind"`
	SubmissionKind string    `json:"submission_kind"`
	SubmissionID   string    `json:"submission_id"`
	Title          string    `json:"title"`
	Payload        string    `json:"payload"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Render returns the headline and body shown to the recipient.
func (event Event) Render() (string, string) {
	if event.Kind == KindApproved {
		return "Your " + event.SubmissionKind + " was approved",
			fmt.Sprintf("Your %s %q has been approved. Your reference number is %s.",
				event.SubmissionKind, event.Title, event.Payload)
	}

	notes := event.Payload
	if notes == "" {
		notes = noNotes
	}
	return "Your " + event.SubmissionKind + " was rejected",
		fmt.Sprintf("Your %s %q has been rejected. Reviewer notes: %s",
			event.SubmissionKind, event.Title, notes)
}

// # Dispatch

// Dispatcher delivers one event. Callers bound it with a context deadline.
type Dispatcher interface {
	Dispatch(context context.Context, event Event) error
}

// Sink is a named delivery channel.
type Sink interface {
	Dispatcher
	Name() string
}

// Fanout delivers to every sink, even after one fails.
type Fanout struct {
	sinks   []Sink
	metrics *metrics.Registry
	logger  *slog.Logger
}

// NewFanout constructs a [Fanout] over sinks. Nil sinks are skipped.
func NewFanout(metrics *metrics.Registry, logger *slog.Logger, sinks ...Sink) *Fanout {
	active := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return &Fanout{sinks: active, metrics: metrics, logger: logger}
}

// Dispatch implements [Dispatcher]. The returned error joins every sink failure.
func (fanout *Fanout) Dispatch(context context.Context, event Event) error {
	var errs []error
	for _, sink := range fanout.sinks {
		if err := sink.Dispatch(context, event); err != nil {
			fanout.metrics.RecordNotificationFailure(sink.Name())
			fanout.logger.WarnContext(context, "notification_sink_failed",
				slog.String("sink", sink.Name()),
				slog.String("recipient", event.Recipient),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

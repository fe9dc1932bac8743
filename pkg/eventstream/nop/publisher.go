// Package nop is the eventstream.Publisher used when no broker is configured.
package nop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/huddle/pkg/eventstream"
)

// Publisher drops events after logging them at debug.
type Publisher struct {
	logger    *slog.Logger
	published atomic.Int64
}

// NewPublisher returns a Publisher. A nil logger discards.
func NewPublisher(l *slog.Logger) *Publisher {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &Publisher{logger: l}
}

// Publish validates event and logs it.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.MeetingEvent) error {
	if event == nil {
		return eventstream.ErrNilMeetingEvent
	}

	p.published.Add(1)
	p.logger.DebugContext(ctx, "meeting event (no broker configured)",
		"event_type", event.EventType,
		"meeting_id", event.MeetingID,
		"event_id", event.EventID,
	)
	return nil
}

// Published is the number of events accepted so far.
func (p *Publisher) Published() int64 {
	return p.published.Load()
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

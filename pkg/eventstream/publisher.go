package eventstream

import (
	"context"
	"errors"
)

// ErrNilMeetingEvent is returned by a Publisher handed a nil event.
var ErrNilMeetingEvent = errors.New("eventstream: nil meeting event")

// Publisher delivers meeting events to a stream. Implementations are safe
// for concurrent use, and Close flushes whatever is still buffered.
type Publisher interface {
	Publish(ctx context.Context, event *MeetingEvent) error
	Close() error
}

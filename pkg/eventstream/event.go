package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTopicChanged is emitted when a meeting's topic label changes.
	EventTypeTopicChanged = "huddle.topic.changed"

	// EventTypeTangentIntervened is emitted when the bot nudges a drifting meeting.
	EventTypeTangentIntervened = "huddle.tangent.intervened"

	// EventTypeStatusChanged is emitted on every bot lifecycle transition.
	EventTypeStatusChanged = "huddle.status.changed"

	// SourceService names the emitter in every event.
	SourceService = "huddle"
)

// MeetingEvent is a transport-neutral event about one meeting. Exactly one of
// the payload fields is set, matching EventType.
type MeetingEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	MeetingID     string          `json:"meeting_id"`
	Source        EventSource     `json:"source"`
	Topic         *TopicPayload   `json:"topic,omitempty"`
	Tangent       *TangentPayload `json:"tangent,omitempty"`
	Status        *StatusPayload  `json:"status,omitempty"`
}

// EventSource identifies where the event originated.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider,omitempty"`
}

// TopicPayload describes a topic change.
type TopicPayload struct {
	Previous   string  `json:"previous"`
	Current    string  `json:"current"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// TangentPayload describes an intervention.
type TangentPayload struct {
	Agenda     string  `json:"agenda"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// StatusPayload describes a lifecycle transition.
type StatusPayload struct {
	Previous      string `json:"previous"`
	Current       string `json:"current"`
	ProviderEvent string `json:"provider_event,omitempty"`
}

// NewEvent stamps a fresh event envelope.
func NewEvent(eventType, meetingID string, emittedAt time.Time) *MeetingEvent {
	return &MeetingEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     emittedAt.UTC(),
		MeetingID:     meetingID,
		Source:        EventSource{Service: SourceService},
	}
}

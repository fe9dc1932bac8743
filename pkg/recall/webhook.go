package recall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Realtime event names delivered to the realtime webhook.
const (
	EventTranscriptPartial = "transcript.partial_data"
	EventTranscriptFinal   = "transcript.data"
	EventParticipantJoin   = "participant_events.join"
	EventChatMessage       = "participant_events.chat_message"
)

// RealtimeWebhook is the envelope of a realtime endpoint delivery.
type RealtimeWebhook struct {
	Event string `json:"event"`
	Data  struct {
		Bot  BotRef        `json:"bot"`
		Data RealtimeInner `json:"data"`
	} `json:"data"`
}

// BotRef identifies the bot an event belongs to.
type BotRef struct {
	ID string `json:"id"`
}

// RealtimeInner carries the event-specific fields. Which ones are set depends
// on the event.
type RealtimeInner struct {
	Words       []Word      `json:"words,omitempty"`
	Participant Participant `json:"participant"`
	Data        ChatData    `json:"data"`
}

// Word is one recognised word of a transcript segment.
type Word struct {
	Text           string     `json:"text"`
	StartTimestamp *Timestamp `json:"start_timestamp,omitempty"`
}

// Timestamp locates a word in the recording. Absolute is wall-clock time in
// RFC 3339 and may be missing; Relative is seconds since recording start.
type Timestamp struct {
	Relative float64 `json:"relative"`
	Absolute string  `json:"absolute,omitempty"`
}

// SpokenAt is the wall-clock start of the first word that carries one.
func SpokenAt(words []Word) (time.Time, bool) {
	for _, w := range words {
		if w.StartTimestamp == nil || w.StartTimestamp.Absolute == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, w.StartTimestamp.Absolute); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Participant is a meeting participant as reported by the provider.
type Participant struct {
	ID   ParticipantID `json:"id"`
	Name string        `json:"name"`
}

// Speaker is the participant's display name, or "participant:<id>" when the
// provider did not send one.
func (p Participant) Speaker() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	id := string(p.ID)
	if id == "" {
		id = "unknown"
	}
	return "participant:" + id
}

// Fields renders the participant for the journal.
func (p Participant) Fields() map[string]any {
	if p.ID == "" && p.Name == "" {
		return nil
	}
	return map[string]any{"id": string(p.ID), "name": p.Name}
}

// ParticipantID accepts both numeric and string ids.
type ParticipantID string

func (id *ParticipantID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ParticipantID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("participant id: %w", err)
	}
	*id = ParticipantID(n.String())
	return nil
}

// ChatData is the body of a chat message event.
type ChatData struct {
	Text string `json:"text"`
	To   string `json:"to"`
}

// Text joins the words of a transcript segment.
func Text(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, strings.TrimSpace(w.Text))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// StatusWebhook is a bot status change delivery.
type StatusWebhook struct {
	Event string `json:"event"`
	Data  struct {
		BotID string `json:"bot_id"`
		Bot   BotRef `json:"bot"`
	} `json:"data"`
}

// MeetingID returns the bot id carried by the status event.
func (w StatusWebhook) MeetingID() string {
	if w.Data.BotID != "" {
		return w.Data.BotID
	}
	return w.Data.Bot.ID
}

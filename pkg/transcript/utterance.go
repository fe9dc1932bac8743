// Package transcript is the per-meeting memory: the ordered utterance log, an
// inverted token index over it, a rolling buffer of recent lines, and the
// topic, tangent and lifecycle fields that the analysis engines read and write.
package transcript

import "time"

// DefaultSpeaker labels utterances whose speaker is blank.
const DefaultSpeaker = "unknown"

// Utterance is one finalized, attributed, timestamped unit of speech.
// Utterances are never mutated once appended.
type Utterance struct {
	Timestamp time.Time `json:"ts"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
}

// Line renders the utterance the way it appears in prompts and excerpts.
func (u Utterance) Line() string {
	return u.Speaker + ": " + u.Text
}

// Status is the lifecycle state of the meeting bot. New meetings start out
// joining.
type Status string

const (
	StatusJoining Status = "joining"
	StatusInCall  Status = "in_call"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// TangentState is the strike/cooldown bookkeeping of the tangent detector.
type TangentState struct {
	Strikes        int
	WindowExpiry   time.Time
	CooldownExpiry time.Time
	LastCheck      time.Time
}

package transcript

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/huddle/pkg/textsim"
)

// Meeting holds the state of a single meeting. All access goes through its
// methods, which hold the meeting's lock.
type Meeting struct {
	mu sync.RWMutex

	id  string
	tok *textsim.Tokenizer

	agenda          string
	agendaUpdatedAt time.Time

	recent    []string
	recentCap int

	log           []Utterance
	maxUtterances int
	index         map[string][]int

	topic          string
	topicCheckedAt time.Time

	tangent TangentState

	status          Status
	statusUpdatedAt time.Time

	participants map[string]string

	recordingStartedAt time.Time
	recordingURL       string
}

func newMeeting(id string, recentCap, maxUtterances int, tok *textsim.Tokenizer) *Meeting {
	return &Meeting{
		id:            id,
		tok:           tok,
		recent:        make([]string, 0, recentCap),
		recentCap:     recentCap,
		maxUtterances: maxUtterances,
		index:         make(map[string][]int),
		participants:  make(map[string]string),
		status:        StatusJoining,
	}
}

// ID returns the meeting id.
func (m *Meeting) ID() string {
	return m.id
}

// Agenda returns the current agenda, empty when none was set.
func (m *Meeting) Agenda() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agenda
}

// RecentContext joins the rolling buffer with newlines.
func (m *Meeting) RecentContext() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return strings.Join(m.recent, "\n")
}

// Len is the number of utterances currently in the log.
func (m *Meeting) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.log)
}

// Utterances returns a copy of the log.
func (m *Meeting) Utterances() []Utterance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.log)
}

// Positions returns a copy of the index list for token.
func (m *Meeting) Positions(token string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.index[token])
}

// View calls fn with the log and index under the read lock. fn must not
// retain or modify either.
func (m *Meeting) View(fn func(log []Utterance, index map[string][]int)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.log, m.index)
}

// Topic returns the current label and when it was last checked.
func (m *Meeting) Topic() (string, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.topic, m.topicCheckedAt
}

// SetTopic replaces the current label.
func (m *Meeting) SetTopic(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topic = label
}

// MarkTopicChecked records the time of a topic check.
func (m *Meeting) MarkTopicChecked(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topicCheckedAt = at
}

// Tangent returns a copy of the tangent bookkeeping.
func (m *Meeting) Tangent() TangentState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tangent
}

// UpdateTangent applies fn to the tangent bookkeeping atomically.
func (m *Meeting) UpdateTangent(fn func(*TangentState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.tangent)
}

// Status returns the lifecycle status and when it last changed.
func (m *Meeting) Status() (Status, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.statusUpdatedAt
}

// Participants returns a copy of the display name to provider id map.
func (m *Meeting) Participants() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.participants)
}

// RecordingStartedAt is the timestamp of the first accepted utterance.
func (m *Meeting) RecordingStartedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordingStartedAt
}

// RecordingURL returns the recording download url, empty until fetched.
func (m *Meeting) RecordingURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordingURL
}

// SetRecordingURL stores the recording download url.
func (m *Meeting) SetRecordingURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordingURL = url
}

func (m *Meeting) append(u Utterance) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recentCap > 0 {
		if len(m.recent) == m.recentCap {
			m.recent = append(m.recent[:0], m.recent[1:]...)
		}
		m.recent = append(m.recent, u.Line())
	}

	if m.recordingStartedAt.IsZero() {
		m.recordingStartedAt = u.Timestamp
	}

	pos := len(m.log)
	m.log = append(m.log, u)
	m.indexAt(pos)

	if m.maxUtterances > 0 && len(m.log) > m.maxUtterances {
		drop := len(m.log) - m.maxUtterances
		m.log = slices.Clone(m.log[drop:])
		m.rebuildIndex()
	}
}

// indexAt adds pos once for every distinct token of the utterance at pos.
func (m *Meeting) indexAt(pos int) {
	for tok := range m.tok.Set(m.log[pos].Text) {
		m.index[tok] = append(m.index[tok], pos)
	}
}

func (m *Meeting) rebuildIndex() {
	m.index = make(map[string][]int, len(m.index))
	for pos := range m.log {
		m.indexAt(pos)
	}
}

package transcript

import (
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/huddle/pkg/textsim"
)

const (
	// DefaultRecentCapacity is the size of the rolling buffer.
	DefaultRecentCapacity = 10

	// DefaultMaxUtterances of 0 keeps the whole log.
	DefaultMaxUtterances = 0
)

var speakerLine = regexp.MustCompile(`^([^:]{1,64}):\s+(.*)$`)

// Store is the registry of meetings. Meetings are created on first lookup and
// live until evicted.
type Store struct {
	mu       sync.Mutex
	meetings map[string]*Meeting

	recentCap     int
	maxUtterances int
	now           func() time.Time
	tok           *textsim.Tokenizer
}

// Option configures a Store.
type Option func(*Store)

// WithRecentCapacity sets the rolling buffer size.
func WithRecentCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentCap = n
		}
	}
}

// WithMaxUtterances caps the log; the oldest utterances are evicted past it.
// Zero means unlimited.
func WithMaxUtterances(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.maxUtterances = n
		}
	}
}

// WithClock overrides time.Now for timestamps assigned by the store.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		meetings:      make(map[string]*Meeting),
		recentCap:     DefaultRecentCapacity,
		maxUtterances: DefaultMaxUtterances,
		now:           time.Now,
		tok:           textsim.Index,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// Get returns the meeting for id, creating it if needed. It never fails.
func (s *Store) Get(id string) *Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok {
		m = newMeeting(id, s.recentCap, s.maxUtterances, s.tok)
		s.meetings[id] = m
	}
	return m
}

// Lookup returns the meeting for id without creating it.
func (s *Store) Lookup(id string) (*Meeting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	return m, ok
}

// IDs returns the resident meeting ids, sorted.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.meetings))
	for id := range s.meetings {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Evict drops a meeting and reports whether it was resident.
func (s *Store) Evict(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.meetings[id]
	delete(s.meetings, id)
	return ok
}

// Append records an utterance. Blank text is ignored and reported as false.
// A blank speaker becomes DefaultSpeaker and a zero ts becomes the clock time.
func (s *Store) Append(id, speaker, text string, ts time.Time) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		speaker = DefaultSpeaker
	}
	if ts.IsZero() {
		ts = s.now()
	}

	s.Get(id).append(Utterance{Timestamp: ts, Speaker: speaker, Text: text})
	return true
}

// AppendLine records a pre-formatted "Speaker: text" line. Lines without a
// speaker prefix are attributed to DefaultSpeaker.
func (s *Store) AppendLine(id, line string, ts time.Time) bool {
	line = strings.TrimSpace(line)
	if match := speakerLine.FindStringSubmatch(line); match != nil {
		return s.Append(id, match[1], match[2], ts)
	}
	return s.Append(id, DefaultSpeaker, line, ts)
}

// SetAgenda stores the trimmed agenda.
func (s *Store) SetAgenda(id, agenda string) {
	m := s.Get(id)
	now := s.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.agenda = strings.TrimSpace(agenda)
	m.agendaUpdatedAt = now
}

// SetStatus stores the lifecycle status. Transitions are not validated.
func (s *Store) SetStatus(id string, status Status) {
	m := s.Get(id)
	now := s.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.statusUpdatedAt = now
}

// RememberParticipant maps a display name to a provider id. Blank values are
// ignored.
func (s *Store) RememberParticipant(id, name, participantID string) {
	name = strings.TrimSpace(name)
	participantID = strings.TrimSpace(participantID)
	if name == "" || participantID == "" {
		return
	}

	m := s.Get(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[name] = participantID
}

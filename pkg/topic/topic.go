// Package topic periodically labels what a meeting is discussing and decides
// when a new label differs enough from the current one to announce it.
package topic

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/textsim"
	"github.com/papercomputeco/huddle/pkg/transcript"
	"github.com/papercomputeco/huddle/pkg/utils"
)

// AnnouncementPrefix starts every topic chat message.
const AnnouncementPrefix = "🧠 Topic check: "

// Config tunes the tracker.
type Config struct {
	Enabled bool

	// Interval is the minimum time between two checks of one meeting.
	Interval time.Duration

	// Threshold is the label similarity at or above which a new label is
	// considered the same topic.
	Threshold float64

	// MinConfidence is the lowest inference confidence that may change the
	// topic.
	MinConfidence float64

	// MinContextChars is how much rolling-buffer text a check needs.
	MinContextChars int

	// MaxLabelLen caps the label inside announcements.
	MaxLabelLen int

	Blend textsim.Blend
}

// DefaultConfig returns the stock tracker settings.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Interval:        30 * time.Second,
		Threshold:       0.72,
		MinConfidence:   0.5,
		MinContextChars: 80,
		MaxLabelLen:     120,
		Blend:           textsim.LabelBlend,
	}
}

// Detector is the inference operation the tracker needs.
type Detector interface {
	DetectTopic(ctx context.Context, meetingContext, recent string) (*inference.TopicResult, error)
}

// Tracker runs topic checks against meetings.
type Tracker struct {
	cfg    Config
	client Detector
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New returns a Tracker using client for inference.
func New(cfg Config, client Detector, opts ...Option) *Tracker {
	t := &Tracker{cfg: cfg, client: client, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ShouldCheck reports whether the interval since the last check has passed.
func (t *Tracker) ShouldCheck(m *transcript.Meeting) bool {
	if !t.cfg.Enabled || t.client == nil {
		return false
	}
	_, last := m.Topic()
	return t.now().Sub(last) >= t.cfg.Interval
}

// Infer asks for a label for the rolling buffer. The check time advances
// before anything else so overlapping triggers do not stack. A nil result
// with a nil error means there was too little context to ask.
func (t *Tracker) Infer(ctx context.Context, m *transcript.Meeting) (*inference.TopicResult, error) {
	m.MarkTopicChecked(t.now())

	recent := strings.TrimSpace(m.RecentContext())
	if utf8.RuneCountInString(recent) < t.cfg.MinContextChars {
		return nil, nil
	}
	return t.client.DetectTopic(ctx, m.Agenda(), recent)
}

// IsChangedEnough reports whether result should replace previous. Both gates
// must pass: a confident result, and a label that is not a near-duplicate.
func (t *Tracker) IsChangedEnough(previous string, result *inference.TopicResult) bool {
	if result == nil {
		return false
	}
	label := strings.TrimSpace(result.Topic)
	if label == "" || result.Confidence < t.cfg.MinConfidence {
		return false
	}
	previous = strings.TrimSpace(previous)
	if previous == "" {
		return true
	}
	return t.Similarity(previous, label) < t.cfg.Threshold
}

// Similarity compares two topic labels.
func (t *Tracker) Similarity(a, b string) float64 {
	return t.cfg.Blend.Similarity(textsim.Query, a, b)
}

// Announcement renders the chat message for a new label.
func (t *Tracker) Announcement(label string) string {
	return AnnouncementPrefix + utils.Truncate(strings.TrimSpace(label), t.cfg.MaxLabelLen)
}

// Check runs one full topic check. When the label changed it is stored on the
// meeting and its announcement returned; otherwise the announcement is empty.
func (t *Tracker) Check(ctx context.Context, m *transcript.Meeting) (*inference.TopicResult, string, error) {
	result, err := t.Infer(ctx, m)
	if err != nil || result == nil {
		return result, "", err
	}

	previous, _ := m.Topic()
	if !t.IsChangedEnough(previous, result) {
		return result, "", nil
	}

	label := strings.TrimSpace(result.Topic)
	m.SetTopic(label)
	return result, t.Announcement(label), nil
}

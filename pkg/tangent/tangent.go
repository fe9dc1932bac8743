// Package tangent detects when a meeting drifts away from its agenda. Every
// confident off-topic classification is a strike; two strikes inside the
// strike window trigger one intervention, followed by a cooldown in which
// further drift is ignored.
package tangent

import (
	"context"
	"strings"
	"time"

	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/transcript"
	"github.com/papercomputeco/huddle/pkg/utils"
)

// Config tunes the detector.
type Config struct {
	Enabled bool

	// Interval is the minimum time between two classifications of one meeting.
	Interval time.Duration

	// ConfidenceThreshold is the lowest confidence that counts as a strike.
	ConfidenceThreshold float64

	// StrikeWindow is how long a strike stays live.
	StrikeWindow time.Duration

	// Strikes is how many live strikes trigger an intervention.
	Strikes int

	// Cooldown suppresses strikes after an intervention.
	Cooldown time.Duration

	// MaxMessageLen caps the intervention chat message.
	MaxMessageLen int
}

// DefaultConfig returns the stock detector settings.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		Interval:            5 * time.Second,
		ConfidenceThreshold: 0.7,
		StrikeWindow:        20 * time.Second,
		Strikes:             2,
		Cooldown:            45 * time.Second,
		MaxMessageLen:       inference.MaxTangentMessageLen,
	}
}

// Phase is the logical state of a meeting's strike machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStriking
	PhaseCooling
)

func (p Phase) String() string {
	switch p {
	case PhaseStriking:
		return "striking"
	case PhaseCooling:
		return "cooling"
	default:
		return "idle"
	}
}

// Classifier is the inference operation the detector needs.
type Classifier interface {
	ClassifyTangent(ctx context.Context, agenda, recent string) (*inference.TangentResult, error)
}

// Detector runs tangent checks against meetings.
type Detector struct {
	cfg    Config
	client Classifier
	now    func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// New returns a Detector using client for inference.
func New(cfg Config, client Classifier, opts ...Option) *Detector {
	if cfg.Strikes <= 0 {
		cfg.Strikes = DefaultConfig().Strikes
	}
	d := &Detector{cfg: cfg, client: client, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Phase reports where m sits in the strike machine right now.
func (d *Detector) Phase(m *transcript.Meeting) Phase {
	st := m.Tangent()
	now := d.now()
	switch {
	case now.Before(st.CooldownExpiry):
		return PhaseCooling
	case st.Strikes > 0 && now.Before(st.WindowExpiry):
		return PhaseStriking
	default:
		return PhaseIdle
	}
}

// ShouldCheck requires an agenda and an elapsed interval since the last check.
func (d *Detector) ShouldCheck(m *transcript.Meeting) bool {
	if !d.cfg.Enabled || d.client == nil {
		return false
	}
	if m.Agenda() == "" {
		return false
	}
	return d.now().Sub(m.Tangent().LastCheck) >= d.cfg.Interval
}

// Classify advances the check time and classifies the rolling buffer against
// the agenda.
func (d *Detector) Classify(ctx context.Context, m *transcript.Meeting) (*inference.TangentResult, error) {
	now := d.now()
	m.UpdateTangent(func(st *transcript.TangentState) {
		st.LastCheck = now
	})
	return d.client.ClassifyTangent(ctx, m.Agenda(), m.RecentContext())
}

// Register feeds one classification into the strike machine and reports
// whether to intervene.
func (d *Detector) Register(m *transcript.Meeting, result *inference.TangentResult) bool {
	if result == nil {
		return false
	}

	now := d.now()
	intervene := false
	m.UpdateTangent(func(st *transcript.TangentState) {
		if now.Before(st.CooldownExpiry) {
			return
		}

		if result.OnTopic || result.Confidence < d.cfg.ConfidenceThreshold {
			st.Strikes = 0
			st.WindowExpiry = time.Time{}
			return
		}

		if !now.Before(st.WindowExpiry) {
			st.Strikes = 0
		}
		st.Strikes++
		st.WindowExpiry = now.Add(d.cfg.StrikeWindow)

		if st.Strikes >= d.cfg.Strikes {
			intervene = true
			st.Strikes = 0
			st.WindowExpiry = time.Time{}
			st.CooldownExpiry = now.Add(d.cfg.Cooldown)
		}
	})
	return intervene
}

// Message is the chat text for an intervention. A classification without a
// message gets a generic nudge toward the agenda.
func (d *Detector) Message(agenda string, result *inference.TangentResult) string {
	msg := ""
	if result != nil {
		msg = strings.TrimSpace(result.Message)
	}
	if msg == "" {
		msg = "Looks like we've drifted a bit. Back to the agenda: " + strings.TrimSpace(agenda)
	}
	return utils.Truncate(msg, d.cfg.MaxMessageLen)
}

// Check classifies m and runs the strike machine. The returned message is
// non-empty only when an intervention fired.
func (d *Detector) Check(ctx context.Context, m *transcript.Meeting) (*inference.TangentResult, string, error) {
	result, err := d.Classify(ctx, m)
	if err != nil {
		return nil, "", err
	}
	if !d.Register(m, result) {
		return result, "", nil
	}
	return result, d.Message(m.Agenda(), result), nil
}

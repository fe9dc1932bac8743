// Package moderator wires the meeting pipeline together. It turns provider
// webhooks into transcript state, schedules topic and tangent checks in the
// background, answers questions asked in chat or over the API, and reports
// lifecycle changes to the event stream.
package moderator

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/papercomputeco/huddle/pkg/eventstream"
	"github.com/papercomputeco/huddle/pkg/eventstream/nop"
	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/journal"
	"github.com/papercomputeco/huddle/pkg/logger"
	"github.com/papercomputeco/huddle/pkg/recall"
	"github.com/papercomputeco/huddle/pkg/retrieval"
	"github.com/papercomputeco/huddle/pkg/supervisor"
	"github.com/papercomputeco/huddle/pkg/tangent"
	"github.com/papercomputeco/huddle/pkg/topic"
	"github.com/papercomputeco/huddle/pkg/transcript"
)

// UnknownMeeting is the id used for events that carried no bot id. Nothing
// is sent or analysed for it.
const UnknownMeeting = "unknown"

const providerName = "recall"

// Provider is the meeting platform the bot lives in.
type Provider interface {
	CreateBot(ctx context.Context, meetingURL, webhookURL string) (*recall.Bot, error)
	SendChatMessage(ctx context.Context, botID, message string) error
	FetchRecordingURL(ctx context.Context, botID string) (string, error)
	LeaveCall(ctx context.Context, botID string) error
}

// QAConfig tunes question answering.
type QAConfig struct {
	Enabled bool

	// MinContextChars is the least amount of formatted excerpt text worth
	// sending to the model.
	MinContextChars int

	// MaxContextChars bounds the formatted excerpts.
	MaxContextChars int
}

// EchoConfig controls the debug echo of finalized utterances to chat.
type EchoConfig struct {
	Enabled     bool
	MinInterval time.Duration
	MaxMessages int
}

// Config holds configuration for the Moderator.
type Config struct {
	BotName        string
	MentionAliases []string

	// PublicBaseURL is where the provider can reach huddle's webhooks.
	PublicBaseURL string
	WebhookPath   string
	WebhookToken  string

	QA   QAConfig
	Echo EchoConfig

	// CheckTimeout bounds a single background inference call.
	CheckTimeout time.Duration

	// RecordingDelay is how long to wait after a meeting ends before asking
	// for its recording.
	RecordingDelay time.Duration
}

// DefaultConfig returns the stock moderator settings.
func DefaultConfig() Config {
	return Config{
		BotName:     recall.DefaultBotName,
		WebhookPath: "/webhooks/realtime",
		QA: QAConfig{
			Enabled:         true,
			MinContextChars: 40,
			MaxContextChars: 2200,
		},
		Echo: EchoConfig{
			MinInterval: 4 * time.Second,
			MaxMessages: 20,
		},
		CheckTimeout:   20 * time.Second,
		RecordingDelay: 2 * time.Second,
	}
}

// Moderator owns the transcript store and everything that reacts to it.
type Moderator struct {
	cfg Config

	store     *transcript.Store
	retriever *retrieval.Engine
	topics    *topic.Tracker
	tangents  *tangent.Detector
	llm       inference.Client
	provider  Provider
	journal   *journal.Journal
	publisher eventstream.Publisher

	sup     *supervisor.Supervisor
	logger  *slog.Logger
	now     func() time.Time
	mention *regexp.Regexp

	ctx    context.Context
	cancel context.CancelFunc

	rehydrateMu sync.Mutex

	echoMu sync.Mutex
	echoes map[string]*echoState
}

// Option configures a Moderator.
type Option func(*Moderator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Moderator) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Moderator) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRetrieval replaces the default retrieval engine.
func WithRetrieval(e *retrieval.Engine) Option {
	return func(m *Moderator) {
		if e != nil {
			m.retriever = e
		}
	}
}

// WithTopicTracker enables topic checks.
func WithTopicTracker(t *topic.Tracker) Option {
	return func(m *Moderator) {
		m.topics = t
	}
}

// WithTangentDetector enables tangent checks.
func WithTangentDetector(d *tangent.Detector) Option {
	return func(m *Moderator) {
		m.tangents = d
	}
}

// WithInference sets the client used for answers and summaries.
func WithInference(c inference.Client) Option {
	return func(m *Moderator) {
		m.llm = c
	}
}

// WithProvider sets the meeting provider.
func WithProvider(p Provider) Option {
	return func(m *Moderator) {
		m.provider = p
	}
}

// WithJournal enables persisting and rehydrating transcripts.
func WithJournal(j *journal.Journal) Option {
	return func(m *Moderator) {
		m.journal = j
	}
}

// WithPublisher sets the event stream publisher.
func WithPublisher(p eventstream.Publisher) Option {
	return func(m *Moderator) {
		if p != nil {
			m.publisher = p
		}
	}
}

// New creates a Moderator over store.
func New(cfg Config, store *transcript.Store, opts ...Option) *Moderator {
	def := DefaultConfig()
	if cfg.BotName == "" {
		cfg.BotName = def.BotName
	}
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = def.WebhookPath
	}
	if cfg.QA.MaxContextChars <= 0 {
		cfg.QA.MaxContextChars = def.QA.MaxContextChars
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = def.CheckTimeout
	}
	if cfg.Echo.MaxMessages <= 0 {
		cfg.Echo.MaxMessages = def.Echo.MaxMessages
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Moderator{
		cfg:       cfg,
		store:     store,
		retriever: retrieval.New(retrieval.DefaultConfig()),
		publisher: nop.NewPublisher(nil),
		logger:    logger.Nop(),
		now:       time.Now,
		mention:   mentionPattern(cfg.BotName, cfg.MentionAliases),
		ctx:       ctx,
		cancel:    cancel,
		echoes:    make(map[string]*echoState),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "moderator")
	m.sup = supervisor.New(m.logger)
	return m
}

// Store returns the transcript store.
func (m *Moderator) Store() *transcript.Store {
	return m.store
}

// Wait blocks until all background work has finished.
func (m *Moderator) Wait() {
	m.sup.Wait()
}

// Close cancels in-flight background work and waits for it to return.
func (m *Moderator) Close() {
	m.cancel()
	m.sup.Wait()
}

// say posts message to the meeting chat. Failures are logged.
func (m *Moderator) say(ctx context.Context, meetingID, message string) {
	if m.provider == nil || meetingID == UnknownMeeting {
		return
	}
	if err := m.provider.SendChatMessage(ctx, meetingID, message); err != nil {
		m.logger.Warn("failed to send chat message",
			"meeting_id", meetingID,
			"error", err,
		)
	}
}

func (m *Moderator) publish(ctx context.Context, event *eventstream.MeetingEvent) {
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("failed to publish meeting event",
			"meeting_id", event.MeetingID,
			"event_type", event.EventType,
			"error", err,
		)
	}
}

// setStatus stores status and emits a change event when it differs from the
// previous value.
func (m *Moderator) setStatus(ctx context.Context, meetingID string, status transcript.Status, providerEvent string) {
	previous, _ := m.store.Get(meetingID).Status()
	m.store.SetStatus(meetingID, status)
	if previous == status {
		return
	}

	m.logger.Info("meeting status changed",
		"meeting_id", meetingID,
		"previous", string(previous),
		"status", string(status),
	)

	ev := eventstream.NewEvent(eventstream.EventTypeStatusChanged, meetingID, m.now())
	if providerEvent != "" {
		ev.Source.Provider = providerName
	}
	ev.Status = &eventstream.StatusPayload{
		Previous:      string(previous),
		Current:       string(status),
		ProviderEvent: providerEvent,
	}
	m.publish(ctx, ev)
}

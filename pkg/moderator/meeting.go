package moderator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/journal"
	"github.com/papercomputeco/huddle/pkg/retrieval"
	"github.com/papercomputeco/huddle/pkg/transcript"
	"github.com/papercomputeco/huddle/pkg/upstream"
)

var (
	// ErrQADisabled is returned by Ask when question answering is turned off.
	ErrQADisabled = errors.New("question answering is disabled")

	// ErrNoPublicURL is returned by StartBot when the provider has no way to
	// reach the webhooks.
	ErrNoPublicURL = errors.New("public base url not configured")
)

const (
	NotEnoughContextAnswer = "I haven't heard enough yet to answer that. Try again after a bit more context."
	NoCleanAnswer          = "I don't have a clean answer yet based on what I've heard so far."
	UnavailableAnswer      = "I couldn't come up with an answer just now. Please try again in a moment."

	notEnoughContextConfidence = 0.1
	meetingDateLayout          = "January 02, 2006"
)

// Answer is the reply to a question about a meeting.
type Answer struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Excerpts   []string `json:"used_excerpts,omitempty"`
}

// Summary is a rendered meeting summary.
type Summary struct {
	Markdown   string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// StartResult describes a bot that was sent into a meeting.
type StartResult struct {
	MeetingID  string `json:"bot_id"`
	WebhookURL string `json:"webhook_url"`
}

// StatusView is a meeting's lifecycle snapshot.
type StatusView struct {
	MeetingID       string            `json:"bot_id"`
	Status          transcript.Status `json:"status"`
	StatusUpdatedAt time.Time         `json:"status_updated_at"`
	Topic           string            `json:"topic"`
	RecordingURL    string            `json:"recording_url"`
}

// TranscriptView is a meeting's full transcript.
type TranscriptView struct {
	MeetingID          string                 `json:"bot_id"`
	RecordingStartedAt time.Time              `json:"recording_started_at"`
	Utterances         []transcript.Utterance `json:"transcript"`
}

// Rehydrate returns the meeting, first replaying its journal when it has no
// utterances in memory. A replayed meeting is marked done.
func (m *Moderator) Rehydrate(meetingID string) *transcript.Meeting {
	meeting := m.store.Get(meetingID)
	if m.journal == nil {
		return meeting
	}

	m.rehydrateMu.Lock()
	defer m.rehydrateMu.Unlock()

	if meeting.Len() > 0 {
		return meeting
	}

	found, err := m.journal.Replay(meetingID, func(rec journal.Record) error {
		m.store.Append(meetingID, rec.Speaker, rec.Text, rec.TS)
		return nil
	})
	switch {
	case errors.Is(err, journal.ErrInvalidMeetingID):
		return meeting
	case err != nil:
		m.logger.Warn("failed to replay journal", "meeting_id", meetingID, "error", err)
	}
	if found {
		m.store.SetStatus(meetingID, transcript.StatusDone)
		m.logger.Debug("rehydrated meeting", "meeting_id", meetingID, "utterances", meeting.Len())
	}
	return meeting
}

// Ask answers question from the meeting's transcript. A model failure yields
// an apologetic answer with zero confidence; only configuration errors and
// ErrQADisabled are returned as errors.
func (m *Moderator) Ask(ctx context.Context, meetingID, question string) (*Answer, error) {
	if !m.cfg.QA.Enabled {
		return nil, ErrQADisabled
	}

	meeting := m.Rehydrate(meetingID)
	if m.llm == nil {
		return nil, upstream.NotConfigured("llm", "no inference provider configured")
	}

	excerpts := m.retriever.Retrieve(meeting, question)
	text := retrieval.Format(excerpts, m.cfg.QA.MaxContextChars)
	if utf8.RuneCountInString(strings.TrimSpace(text)) < m.cfg.QA.MinContextChars {
		return &Answer{Answer: NotEnoughContextAnswer, Confidence: notEnoughContextConfidence}, nil
	}

	label, _ := meeting.Topic()
	res, err := m.llm.AnswerQuestion(ctx, meeting.Agenda(), label, question, text)
	if err != nil {
		if upstream.IsNotConfigured(err) {
			return nil, err
		}
		m.logger.Warn("question answering failed", "meeting_id", meetingID, "error", err)
		return &Answer{Answer: UnavailableAnswer}, nil
	}

	lines := make([]string, 0, len(excerpts))
	for _, u := range excerpts {
		lines = append(lines, u.Line())
	}

	answer := strings.TrimSpace(res.Answer)
	if answer == "" {
		answer = NoCleanAnswer
	}
	return &Answer{Answer: answer, Confidence: res.Confidence, Excerpts: lines}, nil
}

// Search returns the transcript excerpts most relevant to query.
func (m *Moderator) Search(meetingID, query string) []transcript.Utterance {
	return m.retriever.Retrieve(m.Rehydrate(meetingID), query)
}

// Summarize produces a markdown summary of the whole meeting.
func (m *Moderator) Summarize(ctx context.Context, meetingID string) (*Summary, error) {
	utterances := m.Rehydrate(meetingID).Utterances()
	if len(utterances) == 0 {
		return &Summary{Markdown: inference.EmptyTranscriptSummary}, nil
	}
	if m.llm == nil {
		return nil, upstream.NotConfigured("llm", "no inference provider configured")
	}

	lines := make([]string, 0, len(utterances))
	for _, u := range utterances {
		lines = append(lines, u.Line())
	}
	date := utterances[0].Timestamp.Format(meetingDateLayout)

	res, err := m.llm.Summarize(ctx, strings.Join(lines, "\n"), date)
	if err != nil {
		if upstream.IsNotConfigured(err) {
			return nil, err
		}
		m.logger.Warn("summary failed", "meeting_id", meetingID, "error", err)
		return &Summary{Markdown: inference.FailedSummary}, nil
	}
	return &Summary{Markdown: res.Markdown, Confidence: res.Confidence}, nil
}

// WebhookURL is the realtime endpoint handed to new bots.
func (m *Moderator) WebhookURL() string {
	u := strings.TrimRight(m.cfg.PublicBaseURL, "/") + m.cfg.WebhookPath
	if m.cfg.WebhookToken != "" {
		u += "?token=" + url.QueryEscape(m.cfg.WebhookToken)
	}
	return u
}

// StartBot sends a bot into meetingURL and prepares its meeting state.
func (m *Moderator) StartBot(ctx context.Context, meetingURL, agenda string) (*StartResult, error) {
	if strings.TrimSpace(m.cfg.PublicBaseURL) == "" {
		return nil, ErrNoPublicURL
	}
	if m.provider == nil {
		return nil, upstream.NotConfigured("recall", "no meeting provider configured")
	}

	webhookURL := m.WebhookURL()
	bot, err := m.provider.CreateBot(ctx, meetingURL, webhookURL)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	m.resetEcho(bot.ID)
	m.setStatus(ctx, bot.ID, transcript.StatusJoining, "")
	if strings.TrimSpace(agenda) != "" {
		m.store.SetAgenda(bot.ID, agenda)
	}

	m.logger.Info("bot started", "meeting_id", bot.ID)
	return &StartResult{MeetingID: bot.ID, WebhookURL: webhookURL}, nil
}

// Leave makes the bot leave and marks the meeting done.
func (m *Moderator) Leave(ctx context.Context, meetingID string) error {
	if m.provider == nil {
		return upstream.NotConfigured("recall", "no meeting provider configured")
	}
	if err := m.provider.LeaveCall(ctx, meetingID); err != nil {
		return fmt.Errorf("leave call: %w", err)
	}
	m.setStatus(ctx, meetingID, transcript.StatusDone, "")
	return nil
}

// SetAgenda stores the agenda and returns it as stored.
func (m *Moderator) SetAgenda(meetingID, agenda string) string {
	m.store.SetAgenda(meetingID, agenda)
	return m.store.Get(meetingID).Agenda()
}

// Topic returns the current topic label and when it was last checked.
func (m *Moderator) Topic(meetingID string) (string, time.Time) {
	return m.store.Get(meetingID).Topic()
}

// Status reports the meeting's lifecycle. For a finished meeting with a
// transcript but no recording url, the url is fetched on demand.
func (m *Moderator) Status(ctx context.Context, meetingID string) StatusView {
	meeting := m.Rehydrate(meetingID)
	status, updatedAt := meeting.Status()

	if status == transcript.StatusDone && meeting.RecordingURL() == "" && meeting.Len() > 0 && m.provider != nil {
		u, err := m.provider.FetchRecordingURL(ctx, meetingID)
		switch {
		case err != nil:
			m.logger.Warn("failed to fetch recording", "meeting_id", meetingID, "error", err)
		case u != "":
			meeting.SetRecordingURL(u)
		}
	}

	label, _ := meeting.Topic()
	return StatusView{
		MeetingID:       meetingID,
		Status:          status,
		StatusUpdatedAt: updatedAt,
		Topic:           label,
		RecordingURL:    meeting.RecordingURL(),
	}
}

// Transcript returns the meeting's full transcript.
func (m *Moderator) Transcript(meetingID string) TranscriptView {
	meeting := m.Rehydrate(meetingID)
	return TranscriptView{
		MeetingID:          meetingID,
		RecordingStartedAt: meeting.RecordingStartedAt(),
		Utterances:         meeting.Utterances(),
	}
}

// Transcripts lists the journaled meetings, newest first.
func (m *Moderator) Transcripts() ([]journal.Info, error) {
	if m.journal == nil {
		return []journal.Info{}, nil
	}
	return m.journal.List()
}

func isSelf(speaker, botName string) bool {
	return strings.EqualFold(strings.TrimSpace(speaker), strings.TrimSpace(botName))
}

package moderator

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/papercomputeco/huddle/pkg/journal"
	"github.com/papercomputeco/huddle/pkg/recall"
	"github.com/papercomputeco/huddle/pkg/supervisor"
	"github.com/papercomputeco/huddle/pkg/transcript"
	"github.com/papercomputeco/huddle/pkg/upstream"
	"github.com/papercomputeco/huddle/pkg/utils"
)

const (
	maxEchoLen  = 180
	maxReplyLen = 380

	notConfiguredAnswer = "LLM isn't configured yet (set llm.api_key)."
)

// providerStatus maps bot lifecycle events to meeting status.
var providerStatus = map[string]transcript.Status{
	"bot.joining_call":          transcript.StatusJoining,
	"bot.in_waiting_room":       transcript.StatusJoining,
	"bot.in_call_not_recording": transcript.StatusInCall,
	"bot.in_call_recording":     transcript.StatusInCall,
	"bot.call_ended":            transcript.StatusDone,
	"bot.done":                  transcript.StatusDone,
	"bot.fatal":                 transcript.StatusError,
}

// HandleRealtime dispatches one realtime webhook delivery. Unknown events are
// ignored.
func (m *Moderator) HandleRealtime(wh *recall.RealtimeWebhook) {
	meetingID := wh.Data.Bot.ID
	if meetingID == "" {
		meetingID = UnknownMeeting
	}
	inner := wh.Data.Data

	switch wh.Event {
	case recall.EventTranscriptPartial, recall.EventTranscriptFinal:
		m.HandleTranscript(meetingID, wh.Event, inner.Words, inner.Participant)
	case recall.EventParticipantJoin:
		m.HandleParticipantJoin(meetingID, inner.Participant)
	case recall.EventChatMessage:
		m.HandleChat(meetingID, inner.Participant, inner.Data)
	default:
		m.logger.Debug("ignoring realtime event", "event", wh.Event, "meeting_id", meetingID)
	}
}

// HandleTranscript ingests a transcript segment. Partial segments are only
// logged. Final segments are stored, journaled and may trigger background
// checks. A segment is stamped with its first word's wall-clock start when
// the provider sends one, and with the moderator clock otherwise.
func (m *Moderator) HandleTranscript(meetingID, event string, words []recall.Word, participant recall.Participant) {
	text := recall.Text(words)
	speaker := participant.Speaker()

	if event == recall.EventTranscriptPartial {
		m.logger.Debug("partial transcript",
			"meeting_id", meetingID,
			"speaker", speaker,
			"text", text,
		)
		return
	}

	now := m.now()
	if spoken, ok := recall.SpokenAt(words); ok {
		now = spoken
	}
	if !m.store.Append(meetingID, speaker, text, now) {
		return
	}
	m.logger.Debug("final transcript",
		"meeting_id", meetingID,
		"speaker", speaker,
		"text", text,
	)

	meeting := m.store.Get(meetingID)
	if status, _ := meeting.Status(); status == transcript.StatusJoining {
		m.setStatus(m.ctx, meetingID, transcript.StatusInCall, "")
	}

	if m.journal != nil {
		err := m.journal.Append(journal.Record{
			TS:          now,
			MeetingID:   meetingID,
			Speaker:     speaker,
			Participant: participant.Fields(),
			Text:        text,
			Event:       event,
		})
		if err != nil && !errors.Is(err, journal.ErrInvalidMeetingID) {
			m.logger.Warn("failed to journal utterance", "meeting_id", meetingID, "error", err)
		}
	}

	if meetingID == UnknownMeeting {
		return
	}

	if m.cfg.Echo.Enabled && m.shouldEcho(meetingID) {
		msg := utils.Truncate("Echo 🧾 "+speaker+": "+text, maxEchoLen)
		m.sup.Go("echo/"+meetingID, func() {
			m.say(m.ctx, meetingID, msg)
		})
	}

	m.scheduleChecks(meeting)
}

// HandleParticipantJoin remembers who joined.
func (m *Moderator) HandleParticipantJoin(meetingID string, participant recall.Participant) {
	if meetingID == UnknownMeeting {
		return
	}
	m.store.RememberParticipant(meetingID, participant.Name, string(participant.ID))
}

// HandleChat answers chat messages addressed to the bot. The answer is
// produced in the background and posted back to the meeting chat.
func (m *Moderator) HandleChat(meetingID string, participant recall.Participant, chat recall.ChatData) {
	speaker := participant.Speaker()
	m.logger.Debug("chat message",
		"meeting_id", meetingID,
		"speaker", speaker,
		"to", chat.To,
		"text", chat.Text,
	)

	if isSelf(speaker, m.cfg.BotName) {
		return
	}

	question := m.Question(chat.Text, chat.To)
	if question == "" || meetingID == UnknownMeeting {
		return
	}
	m.logger.Info("chat question", "meeting_id", meetingID, "speaker", speaker, "question", question)

	m.sup.Go(supervisor.Key(meetingID, "qa"), func() {
		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.CheckTimeout)
		defer cancel()

		var reply string
		answer, err := m.Ask(ctx, meetingID, question)
		switch {
		case errors.Is(err, ErrQADisabled):
			return
		case upstream.IsNotConfigured(err):
			reply = notConfiguredAnswer
		case err != nil:
			m.logger.Warn("failed to answer chat question", "meeting_id", meetingID, "error", err)
			return
		default:
			reply = answer.Answer
		}

		m.say(ctx, meetingID, utils.Truncate("🤖 "+speaker+": "+reply, maxReplyLen))
	})
}

// HandleStatus applies a bot lifecycle event. When the meeting ends the
// recording url is fetched in the background after a short delay.
func (m *Moderator) HandleStatus(meetingID, event string) {
	m.logger.Debug("bot status event", "meeting_id", meetingID, "event", event)

	status, ok := providerStatus[event]
	if !ok || meetingID == UnknownMeeting {
		return
	}
	m.setStatus(m.ctx, meetingID, status, event)

	if status == transcript.StatusDone && m.provider != nil {
		m.sup.Go("recording/"+meetingID, func() {
			m.fetchRecording(meetingID)
		})
	}
}

func (m *Moderator) fetchRecording(meetingID string) {
	if m.cfg.RecordingDelay > 0 {
		timer := time.NewTimer(m.cfg.RecordingDelay)
		defer timer.Stop()
		select {
		case <-m.ctx.Done():
			return
		case <-timer.C:
		}
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.CheckTimeout)
	defer cancel()

	url, err := m.provider.FetchRecordingURL(ctx, meetingID)
	if err != nil {
		m.logger.Warn("failed to fetch recording", "meeting_id", meetingID, "error", err)
		return
	}
	if url != "" {
		m.store.Get(meetingID).SetRecordingURL(url)
		m.logger.Info("stored recording url", "meeting_id", meetingID)
	}
}

type echoState struct {
	limiter *rate.Limiter
	sent    int
}

// shouldEcho enforces the echo interval and total count per meeting.
func (m *Moderator) shouldEcho(meetingID string) bool {
	m.echoMu.Lock()
	defer m.echoMu.Unlock()

	st, ok := m.echoes[meetingID]
	if !ok {
		st = &echoState{limiter: rate.NewLimiter(rate.Every(m.cfg.Echo.MinInterval), 1)}
		m.echoes[meetingID] = st
	}
	if st.sent >= m.cfg.Echo.MaxMessages {
		return false
	}
	if !st.limiter.AllowN(m.now(), 1) {
		return false
	}
	st.sent++
	return true
}

func (m *Moderator) resetEcho(meetingID string) {
	m.echoMu.Lock()
	defer m.echoMu.Unlock()
	delete(m.echoes, meetingID)
}

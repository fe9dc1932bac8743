package moderator

import (
	"context"
	"strings"

	"github.com/papercomputeco/huddle/pkg/eventstream"
	"github.com/papercomputeco/huddle/pkg/supervisor"
	"github.com/papercomputeco/huddle/pkg/transcript"
)

const (
	topicEngine   = "topic"
	tangentEngine = "tangent"
)

// scheduleChecks starts the topic and tangent checks that are due. A check
// whose previous run is still in flight is skipped.
func (m *Moderator) scheduleChecks(meeting *transcript.Meeting) {
	id := meeting.ID()

	if m.topics != nil && m.topics.ShouldCheck(meeting) {
		m.sup.TrySpawn(supervisor.Key(id, topicEngine), func() {
			m.runTopicCheck(meeting)
		})
	}

	if m.tangents != nil && m.tangents.ShouldCheck(meeting) {
		m.sup.TrySpawn(supervisor.Key(id, tangentEngine), func() {
			m.runTangentCheck(meeting)
		})
	}
}

func (m *Moderator) runTopicCheck(meeting *transcript.Meeting) {
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.CheckTimeout)
	defer cancel()

	id := meeting.ID()
	previous, _ := meeting.Topic()

	result, announcement, err := m.topics.Check(ctx, meeting)
	if err != nil {
		m.logger.Warn("topic check failed", "meeting_id", id, "error", err)
		return
	}
	if result == nil {
		return
	}

	m.logger.Debug("topic check",
		"meeting_id", id,
		"topic", result.Topic,
		"confidence", result.Confidence,
		"reason", result.Reason,
		"previous", previous,
	)
	if announcement == "" {
		return
	}

	m.say(ctx, id, announcement)

	ev := eventstream.NewEvent(eventstream.EventTypeTopicChanged, id, m.now())
	ev.Topic = &eventstream.TopicPayload{
		Previous:   previous,
		Current:    strings.TrimSpace(result.Topic),
		Confidence: result.Confidence,
		Reason:     result.Reason,
	}
	m.publish(ctx, ev)
}

func (m *Moderator) runTangentCheck(meeting *transcript.Meeting) {
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.CheckTimeout)
	defer cancel()

	id := meeting.ID()
	result, message, err := m.tangents.Check(ctx, meeting)
	if err != nil {
		m.logger.Warn("tangent check failed", "meeting_id", id, "error", err)
		return
	}
	if result == nil {
		return
	}

	m.logger.Debug("tangent check",
		"meeting_id", id,
		"on_topic", result.OnTopic,
		"confidence", result.Confidence,
		"phase", m.tangents.Phase(meeting).String(),
	)
	if message == "" {
		return
	}

	m.say(ctx, id, message)

	ev := eventstream.NewEvent(eventstream.EventTypeTangentIntervened, id, m.now())
	ev.Tangent = &eventstream.TangentPayload{
		Agenda:     meeting.Agenda(),
		Message:    message,
		Confidence: result.Confidence,
		Reason:     result.Reason,
	}
	m.publish(ctx, ev)
}

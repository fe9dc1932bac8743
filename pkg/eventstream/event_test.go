package eventstream_test

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("stamps a versioned envelope with a unique id", func() {
		now := time.Unix(1735689600, 0)
		a := eventstream.NewEvent(eventstream.EventTypeTopicChanged, "bot-1", now)
		b := eventstream.NewEvent(eventstream.EventTypeTopicChanged, "bot-1", now)

		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(a.MeetingID).To(Equal("bot-1"))
		Expect(a.Source.Service).To(Equal("huddle"))
		Expect(a.EmittedAt.Location()).To(Equal(time.UTC))
		Expect(uuid.Validate(a.EventID)).To(Succeed())
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("marshals only the payload that is set", func() {
		event := eventstream.NewEvent(eventstream.EventTypeTopicChanged, "bot-1", time.Now())
		event.Topic = &eventstream.TopicPayload{Previous: "Budget", Current: "Hiring", Confidence: 0.8}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("meeting_id"))
		Expect(got).To(HaveKey("topic"))
		Expect(got).NotTo(HaveKey("tangent"))
		Expect(got).NotTo(HaveKey("status"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.EventTypeTopicChanged).To(Equal("huddle.topic.changed"))
		Expect(eventstream.EventTypeTangentIntervened).To(Equal("huddle.tangent.intervened"))
		Expect(eventstream.EventTypeStatusChanged).To(Equal("huddle.status.changed"))
	})
})

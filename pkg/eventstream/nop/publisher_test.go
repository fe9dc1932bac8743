package nop_test

import (
	"bytes"
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/eventstream"
	"github.com/papercomputeco/huddle/pkg/eventstream/nop"
	"github.com/papercomputeco/huddle/pkg/logger"
)

var _ = Describe("Publisher", func() {
	It("rejects nil events without counting them", func() {
		p := nop.NewPublisher(nil)
		Expect(p.Publish(context.Background(), nil)).To(MatchError(eventstream.ErrNilMeetingEvent))
		Expect(p.Published()).To(BeZero())
	})

	It("counts and logs accepted events", func() {
		var buf bytes.Buffer
		p := nop.NewPublisher(logger.New(logger.WithWriter(&buf), logger.WithDebug(true)))

		event := eventstream.NewEvent(eventstream.EventTypeStatusChanged, "bot-1", time.Now())
		Expect(p.Publish(context.Background(), event)).To(Succeed())
		Expect(p.Publish(context.Background(), event)).To(Succeed())

		Expect(p.Published()).To(Equal(int64(2)))
		Expect(buf.String()).To(ContainSubstring("event_type=huddle.status.changed"))
		Expect(buf.String()).To(ContainSubstring("meeting_id=bot-1"))
	})

	It("closes successfully", func() {
		Expect(nop.NewPublisher(nil).Close()).To(Succeed())
	})
})

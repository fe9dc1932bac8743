package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/cliui"
	"github.com/papercomputeco/huddle/pkg/journal"
)

var _ = Describe("cliui", func() {
	Describe("Step", func() {
		It("returns the wrapped error and ends on a failure line", func() {
			var buf bytes.Buffer
			boom := errors.New("boom")

			err := cliui.Step(&buf, "Summarizing", func() error { return boom })
			Expect(err).To(MatchError(boom))
			Expect(buf.String()).To(ContainSubstring("Summarizing"))
			Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
			Expect(buf.String()).To(HaveSuffix("\n"))
		})

		It("reports elapsed time on success", func() {
			var buf bytes.Buffer
			Expect(cliui.Step(&buf, "Loading", func() error { return nil })).To(Succeed())
			Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
			Expect(buf.String()).To(MatchRegexp(`\(\d+ms\)`))
		})
	})

	DescribeTable("Confidence",
		func(c float64, want string) {
			Expect(cliui.Confidence(c)).To(ContainSubstring(want))
		},
		Entry("high", 0.9, "90%"),
		Entry("middling", 0.5, "50%"),
		Entry("low", 0.1, "10%"),
		Entry("zero", 0.0, "0%"),
	)

	DescribeTable("Age",
		func(d time.Duration, want string) {
			now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
			Expect(cliui.Age(now.Add(-d), now)).To(Equal(want))
		},
		Entry("seconds", 20*time.Second, "just now"),
		Entry("minutes", 5*time.Minute, "5m ago"),
		Entry("hours", 3*time.Hour+10*time.Minute, "3h ago"),
		Entry("days", 50*time.Hour, "2d ago"),
	)

	Describe("Secret", func() {
		It("keeps only the tail", func() {
			Expect(cliui.Secret("")).To(BeEmpty())
			Expect(cliui.Secret("abc")).To(Equal("***"))
			Expect(cliui.Secret("sk-1234567890")).To(Equal("********7890"))
		})
	})

	Describe("RenderTranscripts", func() {
		It("prints a placeholder when empty", func() {
			var buf bytes.Buffer
			cliui.RenderTranscripts(&buf, nil, time.Now())
			Expect(buf.String()).To(ContainSubstring("No transcripts yet."))
		})

		It("lists meetings with utterance counts and age", func() {
			now := time.Now()
			var buf bytes.Buffer
			cliui.RenderTranscripts(&buf, []journal.Info{
				{MeetingID: "abc-1", Utterances: 12, ModTime: now.Add(-2 * time.Hour)},
			}, now)
			Expect(buf.String()).To(ContainSubstring("abc-1"))
			Expect(buf.String()).To(ContainSubstring("12 utterances"))
			Expect(buf.String()).To(ContainSubstring("2h ago"))
		})
	})
})

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/logger"
	"github.com/papercomputeco/huddle/pkg/moderator"
	"github.com/papercomputeco/huddle/pkg/transcript"
)

type answerOnly struct {
	answer  *inference.AnswerResult
	summary *inference.SummaryResult
}

func (a answerOnly) ClassifyTangent(context.Context, string, string) (*inference.TangentResult, error) {
	return nil, errors.New("not scripted")
}

func (a answerOnly) DetectTopic(context.Context, string, string) (*inference.TopicResult, error) {
	return nil, errors.New("not scripted")
}

func (a answerOnly) AnswerQuestion(context.Context, string, string, string, string) (*inference.AnswerResult, error) {
	return a.answer, nil
}

func (a answerOnly) Summarize(context.Context, string, string) (*inference.SummaryResult, error) {
	if a.summary == nil {
		return nil, errors.New("not scripted")
	}
	return a.summary, nil
}

func resultText(res *mcp.CallToolResult) string {
	Expect(res.Content).To(HaveLen(1))
	text, ok := res.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("Meeting tools", func() {
	var (
		store  *transcript.Store
		server *Server
		ctx    context.Context
	)

	t0 := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

	BeforeEach(func() {
		ctx = context.Background()
		store = transcript.NewStore()
		store.Append("m1", "Ana", "we agreed that Ben owns the budget review for next quarter", t0)
		store.Append("m1", "Ben", "and Carla takes the hiring plan", t0.Add(time.Minute))
		store.SetAgenda("m1", "budget, hiring")

		mod := moderator.New(moderator.DefaultConfig(), store,
			moderator.WithInference(answerOnly{
				answer:  &inference.AnswerResult{Answer: "Ben.", Confidence: 0.9},
				summary: &inference.SummaryResult{Markdown: "## Budget\nBen owns the review.", Confidence: 0.7},
			}),
		)
		DeferCleanup(mod.Close)

		var err error
		server, err = NewServer(mod, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("meeting_ask", func() {
		It("answers from the transcript", func() {
			res, out, err := server.handleAsk(ctx, nil, AskInput{MeetingID: "m1", Question: "who owns the budget review?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Answer).To(Equal("Ben."))
			Expect(out.Confidence).To(Equal(0.9))
			Expect(out.Excerpts).To(ContainElement("Ana: we agreed that Ben owns the budget review for next quarter"))

			var decoded AskOutput
			Expect(json.Unmarshal([]byte(resultText(res)), &decoded)).To(Succeed())
			Expect(decoded.Answer).To(Equal("Ben."))
		})

		It("flags missing arguments", func() {
			res, _, err := server.handleAsk(ctx, nil, AskInput{MeetingID: "m1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("meeting_search", func() {
		It("returns matching lines", func() {
			res, out, err := server.handleSearch(ctx, nil, SearchInput{MeetingID: "m1", Query: "hiring plan"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Count).To(Equal(len(out.Results)))
			Expect(out.Results).To(ContainElement(Excerpt{
				Timestamp: t0.Add(time.Minute),
				Speaker:   "Ben",
				Text:      "and Carla takes the hiring plan",
			}))
		})

		It("honours the limit", func() {
			_, out, err := server.handleSearch(ctx, nil, SearchInput{MeetingID: "m1", Query: "zzz", Limit: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Results).To(HaveLen(1))
		})
	})

	Describe("meeting_status", func() {
		It("reports the meeting snapshot", func() {
			store.SetStatus("m1", transcript.StatusInCall)

			res, out, err := server.handleStatus(ctx, nil, StatusInput{MeetingID: "m1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Status).To(Equal(transcript.StatusInCall))
			Expect(out.Agenda).To(Equal("budget, hiring"))
			Expect(out.Utterances).To(Equal(2))
		})

		It("flags a missing meeting id", func() {
			res, _, err := server.handleStatus(ctx, nil, StatusInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("meeting_summary", func() {
		It("summarizes the transcript", func() {
			res, out, err := server.handleSummary(ctx, nil, SummaryInput{MeetingID: "m1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Markdown).To(ContainSubstring("Ben owns the review."))
			Expect(out.Confidence).To(Equal(0.7))
		})

		It("reports an empty meeting without calling the model", func() {
			_, out, err := server.handleSummary(ctx, nil, SummaryInput{MeetingID: "m-empty"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Markdown).To(Equal(inference.EmptyTranscriptSummary))
		})

		It("flags a missing meeting id", func() {
			res, _, err := server.handleSummary(ctx, nil, SummaryInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})
})

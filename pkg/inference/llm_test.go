package inference

import (
	"context"
	"errors"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/upstream"
)

// scripted replays canned replies in order and records the prompts it saw.
type scripted struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []Prompt
}

func (s *scripted) call(_ context.Context, p Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, p)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

var _ = Describe("LLM", func() {
	ctx := context.Background()

	Describe("ClassifyTangent", func() {
		It("parses fenced JSON", func() {
			s := &scripted{replies: []string{"```json\n{\"on_topic\": false, \"confidence\": 0.9, \"reason\": \"lunch\", \"message\": \"Back to the roadmap?\"}\n```"}}
			res, err := NewLLM(s.call).ClassifyTangent(ctx, "roadmap", "Ana: pizza")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.OnTopic).To(BeFalse())
			Expect(res.Confidence).To(Equal(0.9))
			Expect(res.Message).To(Equal("Back to the roadmap?"))
			Expect(s.prompts[0].User).To(ContainSubstring("roadmap"))
			Expect(s.prompts[0].User).To(ContainSubstring("Ana: pizza"))
		})

		It("clears the message when on topic", func() {
			s := &scripted{replies: []string{`{"on_topic": true, "confidence": 0.8, "message": "ignored"}`}}
			res, err := NewLLM(s.call).ClassifyTangent(ctx, "a", "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Message).To(BeEmpty())
		})

		It("caps the message length", func() {
			long := strings.Repeat("x", 400)
			s := &scripted{replies: []string{`{"on_topic": false, "confidence": 1, "message": "` + long + `"}`}}
			res, err := NewLLM(s.call).ClassifyTangent(ctx, "a", "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Message).To(HaveLen(MaxTangentMessageLen))
			Expect(res.Message).To(HaveSuffix("..."))
		})

		It("clamps and coerces confidences", func() {
			s := &scripted{replies: []string{
				`{"on_topic": false, "confidence": "0.75"}`,
				`{"on_topic": false, "confidence": 3}`,
				`{"on_topic": false, "confidence": -1}`,
				`{"on_topic": false, "confidence": "high"}`,
			}}
			llm := NewLLM(s.call)
			for _, want := range []float64{0.75, 1, 0, 0} {
				res, err := llm.ClassifyTangent(ctx, "a", "b")
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Confidence).To(Equal(want))
			}
		})

		It("rejects replies without on_topic", func() {
			s := &scripted{replies: []string{`{"confidence": 0.9}`}}
			_, err := NewLLM(s.call).ClassifyTangent(ctx, "a", "b")
			var contentErr *upstream.ContentError
			Expect(errors.As(err, &contentErr)).To(BeTrue())
			Expect(contentErr.Op).To(Equal("classify_tangent"))
		})

		It("rejects replies that are not JSON", func() {
			s := &scripted{replies: []string{"I think they are on topic."}}
			_, err := NewLLM(s.call).ClassifyTangent(ctx, "a", "b")
			var contentErr *upstream.ContentError
			Expect(errors.As(err, &contentErr)).To(BeTrue())
		})

		It("passes transport errors through", func() {
			boom := upstream.NewStatusError("openai", 500, []byte("down"))
			s := &scripted{errs: []error{boom}}
			_, err := NewLLM(s.call).ClassifyTangent(ctx, "a", "b")
			Expect(err).To(MatchError(boom))
		})
	})

	Describe("DetectTopic", func() {
		It("accepts an array wrapping the object", func() {
			s := &scripted{replies: []string{`[{"topic": "Hiring plan", "confidence": 0.6}]`}}
			res, err := NewLLM(s.call).DetectTopic(ctx, "", "recent")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Topic).To(Equal("Hiring plan"))
			Expect(res.Confidence).To(Equal(0.6))
		})

		It("accepts an object embedded in prose and caps the label", func() {
			label := strings.Repeat("t", 200)
			s := &scripted{replies: []string{`Sure! {"topic": "` + label + `", "confidence": 0.9} Hope that helps.`}}
			res, err := NewLLM(s.call).DetectTopic(ctx, "", "recent")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Topic).To(HaveLen(MaxTopicLen))
		})

		It("rejects a non-string topic", func() {
			s := &scripted{replies: []string{`{"topic": 42, "confidence": 0.9}`}}
			_, err := NewLLM(s.call).DetectTopic(ctx, "", "recent")
			var contentErr *upstream.ContentError
			Expect(errors.As(err, &contentErr)).To(BeTrue())
		})
	})

	Describe("AnswerQuestion", func() {
		It("trims and caps the answer", func() {
			s := &scripted{replies: []string{`{"answer": "  ` + strings.Repeat("a", 500) + `  ", "confidence": 0.5}`}}
			res, err := NewLLM(s.call).AnswerQuestion(ctx, "agenda", "topic", "q?", "Ana: hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Answer).To(HaveLen(MaxAnswerLen))
			Expect(res.Confidence).To(Equal(0.5))
		})

		It("treats a null answer as empty", func() {
			s := &scripted{replies: []string{`{"answer": null, "confidence": 0.5}`}}
			res, err := NewLLM(s.call).AnswerQuestion(ctx, "", "", "q?", "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Answer).To(BeEmpty())
		})
	})

	Describe("Summarize", func() {
		It("short-circuits an empty transcript", func() {
			s := &scripted{}
			res, err := NewLLM(s.call).Summarize(ctx, "  \n", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Markdown).To(Equal(EmptyTranscriptSummary))
			Expect(res.Confidence).To(BeZero())
			Expect(s.prompts).To(BeEmpty())
		})

		It("summarizes chunks then merges them", func() {
			s := &scripted{
				replies: []string{
					`{"key_points": ["one"]}`,
					"",
					`{"key_points": ["three"]}`,
					`{"markdown": "# Meeting Summary"}`,
				},
				errs: []error{nil, errors.New("chunk two failed"), nil, nil},
			}
			transcript := strings.Join([]string{
				"Ana: " + strings.Repeat("a", 40),
				"Ben: " + strings.Repeat("b", 40),
				"Cy: " + strings.Repeat("c", 40),
			}, "\n")

			res, err := NewLLM(s.call, WithChunkChars(50)).Summarize(ctx, transcript, "2026-03-04")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Markdown).To(Equal("# Meeting Summary"))
			Expect(res.Confidence).To(Equal(defaultSummaryConfidence))

			Expect(s.prompts).To(HaveLen(4))
			Expect(s.prompts[0].User).To(ContainSubstring("part 1 of 3"))
			final := s.prompts[3].User
			Expect(final).To(ContainSubstring(`{"key_points": ["one"]}`))
			Expect(final).To(ContainSubstring("\n---\n{}\n---\n"))
			Expect(final).To(ContainSubstring("Meeting date: 2026-03-04"))
		})

		It("reports an empty merged summary as a failure message", func() {
			s := &scripted{replies: []string{`{}`, `{"markdown": ""}`}}
			res, err := NewLLM(s.call).Summarize(ctx, "Ana: hi", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Markdown).To(Equal(FailedSummary))
			Expect(res.Confidence).To(BeZero())
		})

		It("returns the error when merging fails", func() {
			s := &scripted{replies: []string{`{}`, "nonsense"}}
			_, err := NewLLM(s.call).Summarize(ctx, "Ana: hi", "")
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("chunkTranscript", func() {
	It("returns short text as one chunk", func() {
		Expect(chunkTranscript("a\nb", 10)).To(Equal([]string{"a\nb"}))
	})

	It("splits on line boundaries within the budget", func() {
		chunks := chunkTranscript("aaaa\nbbbb\ncccc", 10)
		Expect(chunks).To(Equal([]string{"aaaa\nbbbb", "cccc"}))
	})

	It("keeps an oversized line whole", func() {
		chunks := chunkTranscript("aaaaaaaaaaaaaaa\nbb", 10)
		Expect(chunks).To(Equal([]string{"aaaaaaaaaaaaaaa", "bb"}))
	})
})

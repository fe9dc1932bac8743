package inference

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/huddle/pkg/logger"
	"github.com/papercomputeco/huddle/pkg/upstream"
	"github.com/papercomputeco/huddle/pkg/utils"
)

const (
	// DefaultChunkChars is the largest transcript slice sent in one
	// summarization request.
	DefaultChunkChars = 25000

	// defaultSummaryConfidence applies when the model omits a confidence.
	defaultSummaryConfidence = 0.7

	serviceName = "llm"
)

// Messages returned in place of a summary the model failed to produce.
const (
	EmptyTranscriptSummary = "*No transcript available to summarize.*"
	FailedSummary          = "*Failed to generate summary. Please try again.*"
)

// LLM implements Client on top of a CallFunc.
type LLM struct {
	call       CallFunc
	logger     *slog.Logger
	chunkChars int
}

// Option configures an LLM.
type Option func(*LLM)

// WithLogger sets the logger used for per-chunk summary failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *LLM) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithChunkChars overrides DefaultChunkChars.
func WithChunkChars(n int) Option {
	return func(c *LLM) {
		if n > 0 {
			c.chunkChars = n
		}
	}
}

// NewLLM wraps call with prompt building and reply validation.
func NewLLM(call CallFunc, opts ...Option) *LLM {
	c := &LLM{
		call:       call,
		logger:     logger.Nop(),
		chunkChars: DefaultChunkChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// complete runs one prompt and decodes the reply into v. Transport and status
// failures pass through untouched; anything wrong with the reply itself is a
// ContentError.
func (c *LLM) complete(ctx context.Context, op string, p Prompt, v validator) error {
	reply, err := c.call(ctx, p)
	if err != nil {
		return err
	}

	obj, err := extractObject(reply)
	if err != nil {
		return &upstream.ContentError{Service: serviceName, Op: op, Err: err}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return &upstream.ContentError{Service: serviceName, Op: op, Err: err}
	}
	if err := json.Unmarshal(obj, v); err != nil {
		return &upstream.ContentError{Service: serviceName, Op: op, Err: err}
	}
	if err := v.validate(fields); err != nil {
		return &upstream.ContentError{Service: serviceName, Op: op, Err: err}
	}
	return nil
}

// ClassifyTangent judges whether recent discussion has drifted from agenda.
func (c *LLM) ClassifyTangent(ctx context.Context, agenda, recent string) (*TangentResult, error) {
	var r tangentReply
	if err := c.complete(ctx, "classify_tangent", tangentPrompt(agenda, recent), &r); err != nil {
		return nil, err
	}

	res := &TangentResult{
		OnTopic:    *r.OnTopic,
		Confidence: r.Confidence.clamped(0),
		Reason:     r.Reason.trimmed(),
	}
	if !res.OnTopic {
		res.Message = utils.Truncate(r.Message.trimmed(), MaxTangentMessageLen)
	}
	return res, nil
}

// DetectTopic labels the current discussion.
func (c *LLM) DetectTopic(ctx context.Context, meetingContext, recent string) (*TopicResult, error) {
	var r topicReply
	if err := c.complete(ctx, "detect_topic", topicPrompt(meetingContext, recent), &r); err != nil {
		return nil, err
	}

	return &TopicResult{
		Topic:      utils.Truncate(r.Topic.trimmed(), MaxTopicLen),
		Confidence: r.Confidence.clamped(0),
		Reason:     r.Reason.trimmed(),
	}, nil
}

// AnswerQuestion answers question using only excerpts.
func (c *LLM) AnswerQuestion(ctx context.Context, agenda, topic, question, excerpts string) (*AnswerResult, error) {
	var r answerReply
	if err := c.complete(ctx, "answer_question", answerPrompt(agenda, topic, question, excerpts), &r); err != nil {
		return nil, err
	}

	return &AnswerResult{
		Answer:     utils.Truncate(r.Answer.trimmed(), MaxAnswerLen),
		Confidence: r.Confidence.clamped(0),
	}, nil
}

// Summarize produces a markdown summary. Long transcripts are split into
// chunks that are summarized separately and then merged; a chunk that fails
// is logged and contributes an empty partial.
func (c *LLM) Summarize(ctx context.Context, transcript, meetingDate string) (*SummaryResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return &SummaryResult{Markdown: EmptyTranscriptSummary}, nil
	}

	chunks := chunkTranscript(transcript, c.chunkChars)
	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		partial, err := c.summarizeChunk(ctx, chunk, i+1, len(chunks))
		if err != nil {
			c.logger.Warn("summary chunk failed",
				"chunk", i+1,
				"chunks", len(chunks),
				"error", err,
			)
			partial = "{}"
		}
		partials = append(partials, partial)
	}

	var r summaryReply
	if err := c.complete(ctx, "summarize", combinePrompt(partials, meetingDate), &r); err != nil {
		return nil, err
	}

	md := r.Markdown.trimmed()
	if md == "" {
		return &SummaryResult{Markdown: FailedSummary}, nil
	}
	return &SummaryResult{
		Markdown:   md,
		Confidence: r.Confidence.clamped(defaultSummaryConfidence),
	}, nil
}

func (c *LLM) summarizeChunk(ctx context.Context, chunk string, n, total int) (string, error) {
	reply, err := c.call(ctx, chunkPrompt(chunk, n, total))
	if err != nil {
		return "", err
	}
	obj, err := extractObject(reply)
	if err != nil {
		return "", &upstream.ContentError{Service: serviceName, Op: "summarize_chunk", Err: err}
	}
	return string(obj), nil
}

// chunkTranscript splits text on line boundaries into pieces of at most
// maxChars characters. A single line longer than maxChars becomes its own
// chunk.
func chunkTranscript(text string, maxChars int) []string {
	if utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var (
		chunks  []string
		current []string
		size    int
	)
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line) + 1
		if size+n > maxChars && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current, size = nil, 0
		}
		current = append(current, line)
		size += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

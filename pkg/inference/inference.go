// Package inference is huddle's language-model collaborator. A CallFunc
// performs one provider round trip; LLM builds the prompts on top of it and
// turns replies into validated, typed results.
package inference

import "context"

// Length caps applied to model output before it reaches chat.
const (
	MaxTangentMessageLen = 160
	MaxTopicLen          = 80
	MaxAnswerLen         = 350
)

// TangentResult is the verdict on whether recent discussion follows the agenda.
type TangentResult struct {
	OnTopic    bool    `json:"on_topic"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Message    string  `json:"message"`
}

// TopicResult is a short label for the current discussion.
type TopicResult struct {
	Topic      string  `json:"topic"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// AnswerResult answers a question from transcript excerpts.
type AnswerResult struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// SummaryResult is a markdown meeting summary.
type SummaryResult struct {
	Markdown   string  `json:"markdown"`
	Confidence float64 `json:"confidence"`
}

// Client is the set of inference operations the moderator depends on.
// Every confidence is in [0,1].
type Client interface {
	ClassifyTangent(ctx context.Context, agenda, recent string) (*TangentResult, error)
	DetectTopic(ctx context.Context, meetingContext, recent string) (*TopicResult, error)
	AnswerQuestion(ctx context.Context, agenda, topic, question, excerpts string) (*AnswerResult, error)
	Summarize(ctx context.Context, transcript, meetingDate string) (*SummaryResult, error)
}

// Prompt is a system/user message pair.
type Prompt struct {
	System string
	User   string
}

// CallFunc sends a prompt to a model and returns the raw reply text.
type CallFunc func(ctx context.Context, p Prompt) (string, error)

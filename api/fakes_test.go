package api

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/huddle/pkg/inference"
	"github.com/papercomputeco/huddle/pkg/recall"
)

type stubProvider struct {
	mu       sync.Mutex
	messages []string
	left     []string
}

func (p *stubProvider) CreateBot(context.Context, string, string) (*recall.Bot, error) {
	return &recall.Bot{ID: "0f1e2d3c-4b5a-6978-8695-a4b3c2d1e0f9"}, nil
}

func (p *stubProvider) SendChatMessage(_ context.Context, _, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *stubProvider) FetchRecordingURL(context.Context, string) (string, error) {
	return "", nil
}

func (p *stubProvider) LeaveCall(_ context.Context, botID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.left = append(p.left, botID)
	return nil
}

func (p *stubProvider) Left() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.left)
}

type stubLLM struct {
	answer  *inference.AnswerResult
	summary *inference.SummaryResult
}

func (s *stubLLM) ClassifyTangent(context.Context, string, string) (*inference.TangentResult, error) {
	return nil, errors.New("not scripted")
}

func (s *stubLLM) DetectTopic(context.Context, string, string) (*inference.TopicResult, error) {
	return nil, errors.New("not scripted")
}

func (s *stubLLM) AnswerQuestion(context.Context, string, string, string, string) (*inference.AnswerResult, error) {
	if s.answer == nil {
		return nil, errors.New("not scripted")
	}
	return s.answer, nil
}

func (s *stubLLM) Summarize(context.Context, string, string) (*inference.SummaryResult, error) {
	if s.summary == nil {
		return nil, errors.New("not scripted")
	}
	return s.summary, nil
}

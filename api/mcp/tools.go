package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/huddle/pkg/transcript"
)

var (
	askToolName    = "meeting_ask"
	askDescription = "Answer a question about a meeting using only what was said in it. Returns a short answer, a confidence score and the transcript excerpts it was based on."

	searchToolName    = "meeting_search"
	searchDescription = "Find the transcript lines of a meeting that are most relevant to a query, in the order they were spoken."

	statusToolName    = "meeting_status"
	statusDescription = "Report a meeting's lifecycle status, current topic, agenda and recording url."

	summaryToolName    = "meeting_summary"
	summaryDescription = "Summarize a whole meeting as markdown: topics discussed, decisions, action items with owners, and open questions."
)

const defaultSearchLimit = 8

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"the bot id of the meeting"`
	Question  string `json:"question" jsonschema:"the question to answer from the transcript"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	MeetingID  string   `json:"meeting_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Excerpts   []string `json:"used_excerpts"`
}

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"the bot id of the meeting"`
	Query     string `json:"query" jsonschema:"the text to look for"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of lines to return (default: 8)"`
}

// Excerpt is one transcript line.
type Excerpt struct {
	Timestamp time.Time `json:"ts"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	MeetingID string    `json:"meeting_id"`
	Query     string    `json:"query"`
	Results   []Excerpt `json:"results"`
	Count     int       `json:"count"`
}

// StatusInput represents the input arguments for the status tool.
type StatusInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"the bot id of the meeting"`
}

// StatusOutput represents the output of the status tool.
type StatusOutput struct {
	MeetingID       string            `json:"meeting_id"`
	Status          transcript.Status `json:"status"`
	StatusUpdatedAt time.Time         `json:"status_updated_at"`
	Topic           string            `json:"topic"`
	Agenda          string            `json:"agenda"`
	RecordingURL    string            `json:"recording_url"`
	Utterances      int               `json:"utterance_count"`
}

// handleAsk answers a question about a meeting.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.MeetingID) == "" || strings.TrimSpace(input.Question) == "" {
		return errorResult("meeting_id and question are required"), AskOutput{}, nil
	}

	s.logger.Debug("MCP ask request",
		"meeting_id", input.MeetingID,
		"question", input.Question,
	)

	answer, err := s.mod.Ask(ctx, input.MeetingID, input.Question)
	if err != nil {
		s.logger.Error("failed to answer question", "meeting_id", input.MeetingID, "error", err)
		return errorResult(fmt.Sprintf("Failed to answer question: %v", err)), AskOutput{}, nil
	}

	excerpts := answer.Excerpts
	if excerpts == nil {
		excerpts = []string{}
	}
	return textResult(AskOutput{
		MeetingID:  input.MeetingID,
		Question:   input.Question,
		Answer:     answer.Answer,
		Confidence: answer.Confidence,
		Excerpts:   excerpts,
	})
}

// handleSearch returns the transcript lines most relevant to a query.
func (s *Server) handleSearch(_ context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.MeetingID) == "" || strings.TrimSpace(input.Query) == "" {
		return errorResult("meeting_id and query are required"), SearchOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.logger.Debug("MCP search request",
		"meeting_id", input.MeetingID,
		"query", input.Query,
		"limit", limit,
	)

	hits := s.mod.Search(input.MeetingID, input.Query)
	results := make([]Excerpt, 0, min(limit, len(hits)))
	for _, u := range hits[:min(limit, len(hits))] {
		results = append(results, Excerpt{Timestamp: u.Timestamp, Speaker: u.Speaker, Text: u.Text})
	}

	return textResult(SearchOutput{
		MeetingID: input.MeetingID,
		Query:     input.Query,
		Results:   results,
		Count:     len(results),
	})
}

// handleStatus reports a meeting's lifecycle snapshot.
func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	if strings.TrimSpace(input.MeetingID) == "" {
		return errorResult("meeting_id is required"), StatusOutput{}, nil
	}

	view := s.mod.Status(ctx, input.MeetingID)
	meeting := s.mod.Store().Get(input.MeetingID)

	return textResult(StatusOutput{
		MeetingID:       view.MeetingID,
		Status:          view.Status,
		StatusUpdatedAt: view.StatusUpdatedAt,
		Topic:           view.Topic,
		Agenda:          meeting.Agenda(),
		RecordingURL:    view.RecordingURL,
		Utterances:      meeting.Len(),
	})
}

// SummaryInput represents the input arguments for the summary tool.
type SummaryInput struct {
	MeetingID string `json:"meeting_id" jsonschema:"the bot id of the meeting"`
}

// SummaryOutput represents the output of the summary tool.
type SummaryOutput struct {
	MeetingID  string  `json:"meeting_id"`
	Markdown   string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// handleSummary summarizes the full transcript of a meeting.
func (s *Server) handleSummary(ctx context.Context, _ *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, SummaryOutput, error) {
	if strings.TrimSpace(input.MeetingID) == "" {
		return errorResult("meeting_id is required"), SummaryOutput{}, nil
	}

	s.logger.Debug("MCP summary request", "meeting_id", input.MeetingID)

	summary, err := s.mod.Summarize(ctx, input.MeetingID)
	if err != nil {
		s.logger.Error("failed to summarize meeting", "meeting_id", input.MeetingID, "error", err)
		return errorResult(fmt.Sprintf("Failed to summarize meeting: %v", err)), SummaryOutput{}, nil
	}

	return textResult(SummaryOutput{
		MeetingID:  input.MeetingID,
		Markdown:   summary.Markdown,
		Confidence: summary.Confidence,
	})
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

// textResult also serializes the structured output into a TextContent block
// for clients that ignore structured content.
func textResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/huddle/pkg/journal"
	"github.com/papercomputeco/huddle/pkg/moderator"
	"github.com/papercomputeco/huddle/pkg/upstream"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StartMeetingRequest asks for a bot to join a meeting.
type StartMeetingRequest struct {
	MeetingURL string `json:"meeting_url"`
	Agenda     string `json:"agenda,omitempty"`
}

// StartMeetingResponse describes the bot that was sent.
type StartMeetingResponse struct {
	BotID      string `json:"bot_id"`
	WebhookURL string `json:"webhook_url"`
	Note       string `json:"note"`
}

// AgendaRequest replaces a meeting's agenda.
type AgendaRequest struct {
	Agenda string `json:"agenda"`
}

// AgendaResponse echoes the stored agenda.
type AgendaResponse struct {
	BotID  string `json:"bot_id"`
	Agenda string `json:"agenda"`
}

// TopicResponse reports the current topic.
type TopicResponse struct {
	BotID       string     `json:"bot_id"`
	Topic       string     `json:"topic"`
	LastUpdated *time.Time `json:"last_updated"`
}

// SummaryResponse carries a rendered meeting summary.
type SummaryResponse struct {
	BotID      string  `json:"bot_id"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// LeaveResponse confirms the bot left.
type LeaveResponse struct {
	BotID  string `json:"bot_id"`
	Status string `json:"status"`
}

// QARequest is a private question about a meeting.
type QARequest struct {
	MeetingID string `json:"meeting_id"`
	Question  string `json:"question"`
}

// QAResponse is the answer to a QARequest.
type QAResponse struct {
	BotID        string   `json:"bot_id"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Confidence   float64  `json:"confidence"`
	UsedExcerpts []string `json:"used_excerpts,omitempty"`
}

// TranscriptsResponse lists journaled meetings.
type TranscriptsResponse struct {
	Transcripts []journal.Info `json:"transcripts"`
}

const startNote = "Bot created. Transcript will stream to the webhook and the bot posts topic updates and tangent nudges to chat."

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// handleStartMeeting sends a bot into a meeting.
func (s *Server) handleStartMeeting(c *fiber.Ctx) error {
	var req StartMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.MeetingURL) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "meeting_url is required"})
	}

	res, err := s.moderator.StartBot(c.UserContext(), req.MeetingURL, req.Agenda)
	if err != nil {
		return s.fail(c, "failed to start bot", err)
	}

	return c.JSON(StartMeetingResponse{
		BotID:      res.MeetingID,
		WebhookURL: res.WebhookURL,
		Note:       startNote,
	})
}

// handleSetAgenda replaces a meeting's agenda.
func (s *Server) handleSetAgenda(c *fiber.Ctx) error {
	id := c.Params("id")

	var req AgendaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	return c.JSON(AgendaResponse{
		BotID:  id,
		Agenda: s.moderator.SetAgenda(id, req.Agenda),
	})
}

// handleGetTopic returns the current topic label.
func (s *Server) handleGetTopic(c *fiber.Ctx) error {
	id := c.Params("id")
	label, checkedAt := s.moderator.Topic(id)

	resp := TopicResponse{BotID: id, Topic: label}
	if !checkedAt.IsZero() {
		resp.LastUpdated = &checkedAt
	}
	return c.JSON(resp)
}

// handleGetStatus returns the meeting's lifecycle snapshot.
func (s *Server) handleGetStatus(c *fiber.Ctx) error {
	return c.JSON(s.moderator.Status(c.UserContext(), c.Params("id")))
}

// handleGetTranscript returns the full transcript, replaying the journal for
// meetings that are no longer in memory.
func (s *Server) handleGetTranscript(c *fiber.Ctx) error {
	return c.JSON(s.moderator.Transcript(c.Params("id")))
}

// handleGetSummary renders a markdown summary of the meeting.
func (s *Server) handleGetSummary(c *fiber.Ctx) error {
	id := c.Params("id")

	summary, err := s.moderator.Summarize(c.UserContext(), id)
	if err != nil {
		return s.fail(c, "failed to generate summary", err)
	}

	return c.JSON(SummaryResponse{
		BotID:      id,
		Summary:    summary.Markdown,
		Confidence: summary.Confidence,
	})
}

// handleLeave tells the bot to leave the call.
func (s *Server) handleLeave(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.moderator.Leave(c.UserContext(), id); err != nil {
		return s.fail(c, "failed to leave call", err)
	}
	return c.JSON(LeaveResponse{BotID: id, Status: "done"})
}

// handleQA answers a private question about a meeting.
func (s *Server) handleQA(c *fiber.Ctx) error {
	var req QARequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.MeetingID == "" || strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "meeting_id and question are required"})
	}

	answer, err := s.moderator.Ask(c.UserContext(), req.MeetingID, req.Question)
	if err != nil {
		return s.fail(c, "failed to answer question", err)
	}

	return c.JSON(QAResponse{
		BotID:        req.MeetingID,
		Question:     req.Question,
		Answer:       answer.Answer,
		Confidence:   answer.Confidence,
		UsedExcerpts: answer.Excerpts,
	})
}

// handleListTranscripts lists the journaled meetings, newest first.
func (s *Server) handleListTranscripts(c *fiber.Ctx) error {
	infos, err := s.moderator.Transcripts()
	if err != nil {
		s.logger.Error("failed to list transcripts", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list transcripts"})
	}
	return c.JSON(TranscriptsResponse{Transcripts: infos})
}

// fail maps a moderator error onto a status code and error body.
func (s *Server) fail(c *fiber.Ctx, msg string, err error) error {
	var statusErr *upstream.StatusError
	var contentErr *upstream.ContentError

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, moderator.ErrQADisabled):
		status = fiber.StatusBadRequest
	case errors.Is(err, moderator.ErrNoPublicURL), upstream.IsNotConfigured(err):
		status = fiber.StatusServiceUnavailable
	case errors.As(err, &statusErr), errors.As(err, &contentErr):
		status = fiber.StatusBadGateway
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: msg + ": " + err.Error()})
}

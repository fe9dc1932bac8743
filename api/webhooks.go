package api

import (
	"crypto/subtle"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/huddle/pkg/moderator"
	"github.com/papercomputeco/huddle/pkg/recall"
)

// requireWebhookToken rejects webhook calls without the configured ?token=.
func (s *Server) requireWebhookToken(c *fiber.Ctx) error {
	if s.config.WebhookToken == "" {
		return c.Next()
	}
	token := c.Query("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.WebhookToken)) != 1 {
		s.logger.Warn("rejected webhook with invalid token", "path", c.Path())
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "invalid token"})
	}
	return c.Next()
}

// handleRealtimeWebhook accepts transcript, participant and chat events. The
// body is decoded regardless of content type since the provider does not
// always set one.
func (s *Server) handleRealtimeWebhook(c *fiber.Ctx) error {
	var wh recall.RealtimeWebhook
	if err := json.Unmarshal(c.Body(), &wh); err != nil {
		s.logger.Warn("invalid realtime webhook body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid webhook body"})
	}

	s.moderator.HandleRealtime(&wh)
	return c.SendStatus(fiber.StatusNoContent)
}

// handleStatusWebhook accepts bot status changes.
func (s *Server) handleStatusWebhook(c *fiber.Ctx) error {
	var wh recall.StatusWebhook
	if err := json.Unmarshal(c.Body(), &wh); err != nil {
		s.logger.Warn("invalid status webhook body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid webhook body"})
	}

	meetingID := wh.MeetingID()
	if meetingID == "" {
		meetingID = moderator.UnknownMeeting
	}

	s.moderator.HandleStatus(meetingID, wh.Event)
	return c.SendStatus(fiber.StatusNoContent)
}

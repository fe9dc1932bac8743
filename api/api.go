package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/huddle/pkg/moderator"
)

// Server is the API server fronting the meeting moderator.
type Server struct {
	config    Config
	moderator *moderator.Moderator
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server.
// The moderator is injected so the webhook handlers and the query routes share
// one set of meeting state.
func NewServer(config Config, mod *moderator.Moderator, logger *slog.Logger) (*Server, error) {
	if mod == nil {
		return nil, errors.New("moderator is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		moderator: mod,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/healthz", s.handleHealthz)

	app.Post(config.realtimePath(), s.requireWebhookToken, s.handleRealtimeWebhook)
	app.Post(config.statusPath(), s.requireWebhookToken, s.handleStatusWebhook)

	app.Post("/meetings", s.handleStartMeeting)
	app.Post("/meetings/:id/agenda", s.handleSetAgenda)
	app.Get("/meetings/:id/topic", s.handleGetTopic)
	app.Get("/meetings/:id/status", s.handleGetStatus)
	app.Get("/meetings/:id/transcript", s.handleGetTranscript)
	app.Get("/meetings/:id/summary", s.handleGetSummary)
	app.Post("/meetings/:id/leave", s.handleLeave)

	app.Post("/qa", s.handleQA)
	app.Get("/transcripts", s.handleListTranscripts)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

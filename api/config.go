// Package api provides the HTTP API server for meeting webhooks, bot control
// and transcript queries.
package api

import "net/http"

const (
	// DefaultRealtimePath receives realtime transcript, participant and chat events.
	DefaultRealtimePath = "/webhooks/realtime"

	// DefaultStatusPath receives bot status change events.
	DefaultStatusPath = "/webhooks/status"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// WebhookToken, when set, must be passed as ?token= on webhook calls.
	WebhookToken string

	// RealtimePath and StatusPath override the webhook routes.
	RealtimePath string
	StatusPath   string

	// MCPHandler is mounted at /mcp when non-nil.
	MCPHandler http.Handler
}

func (c Config) realtimePath() string {
	if c.RealtimePath == "" {
		return DefaultRealtimePath
	}
	return c.RealtimePath
}

func (c Config) statusPath() string {
	if c.StatusPath == "" {
		return DefaultStatusPath
	}
	return c.StatusPath
}

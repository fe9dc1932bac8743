// Package mcp exposes meetings to agents as Model Context Protocol tools,
// served statelessly over streamable HTTP.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/huddle/pkg/logger"
	"github.com/papercomputeco/huddle/pkg/moderator"
	"github.com/papercomputeco/huddle/pkg/utils"
)

// ErrNoModerator is returned by NewServer without a moderator.
var ErrNoModerator = errors.New("mcp: moderator is required")

// Server answers MCP tool calls from a Moderator.
type Server struct {
	mod    *moderator.Moderator
	logger *slog.Logger
	http   http.Handler
}

// NewServer registers the meeting tools. A nil logger discards.
func NewServer(mod *moderator.Moderator, log *slog.Logger) (*Server, error) {
	if mod == nil {
		return nil, ErrNoModerator
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{mod: mod, logger: log}

	impl := mcp.NewServer(&mcp.Implementation{Name: "huddle", Version: utils.Version}, nil)
	mcp.AddTool(impl, &mcp.Tool{Name: askToolName, Description: askDescription}, s.handleAsk)
	mcp.AddTool(impl, &mcp.Tool{Name: searchToolName, Description: searchDescription}, s.handleSearch)
	mcp.AddTool(impl, &mcp.Tool{Name: statusToolName, Description: statusDescription}, s.handleStatus)
	mcp.AddTool(impl, &mcp.Tool{Name: summaryToolName, Description: summaryDescription}, s.handleSummary)

	s.http = mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return impl },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)
	return s, nil
}

// ServeHTTP serves MCP over streamable HTTP.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.http.ServeHTTP(w, r)
}

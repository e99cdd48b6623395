package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/airsync/pkg/engine"
)

// Server exposes the sync engine as MCP tools
type Server struct {
	mcpServer *server.MCPServer
	monitor   engine.Monitor
	backend   string
}

// NewServer creates a new MCP server. backend is "" when running offline.
func NewServer(monitor engine.Monitor, backend string) *Server {
	s := &Server{
		monitor: monitor,
		backend: backend,
	}

	s.mcpServer = server.NewMCPServer(
		"airsync",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

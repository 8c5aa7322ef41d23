package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sentinelops/incidentdesk/internal/config"
)

// MCPServer wraps the mcp-go server with incidentdesk tool and resource
// registrations. It lets agents triage incidents without going through the
// HTTP admin API.
type MCPServer struct {
	store  *config.Store
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer with all tools and resources registered.
// The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(store *config.Store, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		store:  store,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"incidentdesk",
		"0.1.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, for clients that launch
// incidentdesk as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode on addr (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const adminsResourceURI = "incidentdesk://admins"

// registerResources adds MCP resource definitions to the server.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			adminsResourceURI,
			"Administrators",
			mcp.WithResourceDescription(
				"Usernames of every administrator of the incident desk. "+
					"Credentials and tokens are never included.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleAdminsResource,
	)
}

type adminInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// handleAdminsResource returns a JSON list of administrator usernames.
func (s *MCPServer) handleAdminsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	items := make([]adminInfo, len(admins))
	for i, a := range admins {
		items[i] = adminInfo{ID: a.ID, Username: a.Username}
	}

	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal admins: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      adminsResourceURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

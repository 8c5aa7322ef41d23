package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/model"
)

const (
	defaultPageEnd = 10
	maxPageSize    = 1000
)

// registerTools adds all incidentdesk tools to the MCP server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// incidentdesk_list_incidents
	// -------------------------------------------------------------------
	srv.AddTool(
		mcp.NewTool("incidentdesk_list_incidents",
			mcp.WithDescription(
				"List incidents in storage order. Use start and end to page "+
					"through results; the window is [start, end) and at most "+
					"1000 incidents are returned per call.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("start",
				mcp.Description("Index of the first incident to return (default 0)"),
			),
			mcp.WithNumber("end",
				mcp.Description("Index one past the last incident to return (default 10)"),
			),
		),
		s.handleListIncidents,
	)

	// -------------------------------------------------------------------
	// incidentdesk_update_incident_status
	// -------------------------------------------------------------------
	srv.AddTool(
		mcp.NewTool("incidentdesk_update_incident_status",
			mcp.WithDescription(
				"Change the status of one incident and return the updated record.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Incident ID"),
			),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("New status, e.g. open, investigating, resolved"),
			),
		),
		s.handleUpdateIncidentStatus,
	)

	// -------------------------------------------------------------------
	// incidentdesk_list_users
	// -------------------------------------------------------------------
	srv.AddTool(
		mcp.NewTool("incidentdesk_list_users",
			mcp.WithDescription("List all end users of the reporting apps."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListUsers,
	)
}

// handleListIncidents returns one page of incidents with its window.
func (s *MCPServer) handleListIncidents(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	start := max(optionalInt(request, "start", 0), 0)
	end := optionalInt(request, "end", defaultPageEnd)
	limit := clamp(end-start, 0, maxPageSize)

	incidents, err := s.store.ListIncidents(ctx, start, limit)
	if err != nil {
		return toolError("Failed to list incidents: %v", err)
	}
	if incidents == nil {
		incidents = []model.Incident{}
	}

	return successJSON(model.IncidentPage{
		Success: true,
		Data:    incidents,
		Pagination: model.Pagination{
			Start: start,
			End:   start + limit,
			Count: len(incidents),
		},
	})
}

// handleUpdateIncidentStatus moves an incident to a new status.
func (s *MCPServer) handleUpdateIncidentStatus(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id := optionalInt(request, "id", 0)
	if id <= 0 {
		return toolError("parameter \"id\" must be a positive incident ID")
	}
	status, err := requireString(request, "status")
	if err != nil {
		return toolError("%v", err)
	}
	if status == "" {
		return toolError("parameter \"status\" must not be empty")
	}

	inc, err := s.store.UpdateIncidentStatus(ctx, int64(id), status)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return toolError("Incident %d not found", id)
		}
		return toolError("Failed to update incident %d: %v", id, err)
	}

	s.logger.Info("incident status changed via MCP", "incident_id", id, "status", status)
	return successJSON(inc)
}

// handleListUsers returns every user record.
func (s *MCPServer) handleListUsers(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return toolError("Failed to list users: %v", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return successJSON(users)
}

package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sentinelops/incidentdesk/internal/model"
)

const incidentColumns = `id, title, description, severity, status, created_at, updated_at`

// CreateIncident inserts a new incident.
func (s *Store) CreateIncident(ctx context.Context, inc *model.Incident) error {
	ts := now()
	inc.CreatedAt = ts
	inc.UpdatedAt = ts

	const q = `INSERT INTO incidents (title, description, severity, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	id, err := s.insert(ctx, q, inc.Title, inc.Description, inc.Severity, inc.Status, inc.CreatedAt, inc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	inc.ID = id
	return nil
}

// GetIncident returns an incident by ID.
func (s *Store) GetIncident(ctx context.Context, id int64) (*model.Incident, error) {
	var inc model.Incident
	q := s.db.Rebind("SELECT " + incidentColumns + " FROM incidents WHERE id = ?")
	if err := s.db.GetContext(ctx, &inc, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return &inc, nil
}

// ListIncidents returns up to limit incidents after skipping offset, in
// insertion order.
func (s *Store) ListIncidents(ctx context.Context, offset, limit int) ([]model.Incident, error) {
	incidents := []model.Incident{}
	if limit <= 0 {
		return incidents, nil
	}
	q := s.db.Rebind("SELECT " + incidentColumns + " FROM incidents ORDER BY id LIMIT ? OFFSET ?")
	if err := s.db.SelectContext(ctx, &incidents, q, limit, offset); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

// UpdateIncidentStatus sets the status of an incident and returns the
// updated record.
func (s *Store) UpdateIncidentStatus(ctx context.Context, id int64, status string) (*model.Incident, error) {
	if err := s.execOne(ctx, "update incident status",
		"UPDATE incidents SET status = ?, updated_at = ? WHERE id = ?", status, now(), id); err != nil {
		return nil, err
	}
	return s.GetIncident(ctx, id)
}

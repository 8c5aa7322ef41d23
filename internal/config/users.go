package config

import (
	"context"
	"fmt"

	"github.com/sentinelops/incidentdesk/internal/model"
)

// CreateUser inserts a new end user.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = now()
	id, err := s.insert(ctx, "INSERT INTO users (name, email, phone, created_at) VALUES (?, ?, ?, ?)",
		u.Name, u.Email, u.Phone, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

// ListUsers returns every user ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := s.db.SelectContext(ctx, &users,
		"SELECT id, name, email, phone, created_at FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

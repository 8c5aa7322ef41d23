package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sentinelops/incidentdesk/internal/model"
)

const adminColumns = `id, username, password_hash, refresh_token,
	table_headings, malware_headings, victim_headings, created_at, updated_at`

// CreateAdmin inserts a new admin. The ID, CreatedAt and UpdatedAt fields are
// populated after a successful insert. A duplicate username yields ErrConflict.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	ts := now()
	admin.CreatedAt = ts
	admin.UpdatedAt = ts

	const q = `INSERT INTO admins
		(username, password_hash, refresh_token, table_headings, malware_headings, victim_headings,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := s.insert(ctx, q,
		admin.Username, admin.PasswordHash, admin.RefreshToken,
		admin.TableHeadings, admin.MalwareHeadings, admin.VictimHeadings,
		admin.CreatedAt, admin.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return nil
}

// GetAdmin returns an admin by ID.
func (s *Store) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	return s.getAdmin(ctx, "get admin", "id = ?", id)
}

// GetAdminByUsername returns an admin by its unique username.
func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	return s.getAdmin(ctx, "get admin by username", "username = ?", username)
}

func (s *Store) getAdmin(ctx context.Context, what, where string, arg interface{}) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT " + adminColumns + " FROM admins WHERE " + where)
	if err := s.db.GetContext(ctx, &admin, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts ordered by username.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.SelectContext(ctx, &admins, "SELECT "+adminColumns+" FROM admins ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// SetAdminRefreshToken overwrites the stored refresh token. Passing nil
// clears it.
func (s *Store) SetAdminRefreshToken(ctx context.Context, id int64, token *string) error {
	return s.execOne(ctx, "update admin refresh token",
		"UPDATE admins SET refresh_token = ?, updated_at = ? WHERE id = ?", token, now(), id)
}

// SetAdminHeadings replaces one of the admin's heading maps.
func (s *Store) SetAdminHeadings(ctx context.Context, id int64, kind model.HeadingKind, headings model.Headings) error {
	// kind.Column() only ever yields one of three fixed column names.
	q := "UPDATE admins SET " + kind.Column() + " = ?, updated_at = ? WHERE id = ?"
	return s.execOne(ctx, "update admin headings", q, headings, now(), id)
}

// now returns the current UTC time at the microsecond precision every
// supported engine can store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

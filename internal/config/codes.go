package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sentinelops/incidentdesk/internal/model"
)

// CreateVerificationCode stores a hashed one-time code.
func (s *Store) CreateVerificationCode(ctx context.Context, code *model.VerificationCode) error {
	code.CreatedAt = now()
	code.ExpiresAt = code.ExpiresAt.UTC().Truncate(time.Microsecond)

	const q = `INSERT INTO verification_codes (destination, purpose, code_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`

	id, err := s.insert(ctx, q, code.Destination, string(code.Purpose), code.CodeHash, code.ExpiresAt, code.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert verification code: %w", err)
	}
	code.ID = id
	return nil
}

// LatestVerificationCode returns the most recently issued, not yet consumed
// code for a destination and purpose. Expiry is left to the caller.
func (s *Store) LatestVerificationCode(ctx context.Context, destination string, purpose model.CodePurpose) (*model.VerificationCode, error) {
	var code model.VerificationCode
	q := s.db.Rebind(`SELECT id, destination, purpose, code_hash, expires_at, consumed_at, created_at
		FROM verification_codes
		WHERE destination = ? AND purpose = ? AND consumed_at IS NULL
		ORDER BY id DESC LIMIT 1`)
	if err := s.db.GetContext(ctx, &code, q, destination, string(purpose)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	return &code, nil
}

// ConsumeVerificationCode marks a code as used. A code can be consumed once;
// a second attempt returns ErrNotFound.
func (s *Store) ConsumeVerificationCode(ctx context.Context, id int64) error {
	return s.execOne(ctx, "consume verification code",
		"UPDATE verification_codes SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL", now(), id)
}

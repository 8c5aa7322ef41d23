package config

import (
	"fmt"
	"strings"
)

func (s *Store) migrate() error {
	d := s.dialect
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id ` + d.idColumn + `,
			username ` + d.keyText + ` UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			refresh_token TEXT,
			table_headings TEXT,
			malware_headings TEXT,
			victim_headings TEXT,
			created_at ` + d.timestamp + ` NOT NULL,
			updated_at ` + d.timestamp + ` NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS incidents (
			id ` + d.idColumn + `,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			severity ` + d.keyText + ` NOT NULL,
			status ` + d.keyText + ` NOT NULL,
			created_at ` + d.timestamp + ` NOT NULL,
			updated_at ` + d.timestamp + ` NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id ` + d.idColumn + `,
			name TEXT NOT NULL,
			email ` + d.keyText + ` NOT NULL,
			phone ` + d.keyText + ` NOT NULL,
			created_at ` + d.timestamp + ` NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS verification_codes (
			id ` + d.idColumn + `,
			destination ` + d.keyText + ` NOT NULL,
			purpose ` + d.keyText + ` NOT NULL,
			code_hash ` + d.keyText + ` NOT NULL,
			expires_at ` + d.timestamp + ` NOT NULL,
			consumed_at ` + d.timestamp + `,
			created_at ` + d.timestamp + ` NOT NULL
		)`,

		`CREATE INDEX idx_verification_codes_dest ON verification_codes(destination, purpose)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// CREATE INDEX has no portable IF NOT EXISTS; re-running it is a no-op.
			if isAlreadyExists(err) {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}

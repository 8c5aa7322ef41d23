package model

import "time"

// Admin represents an administrator of the incident desk. Passwords are
// stored as bcrypt hashes and the most recently issued refresh token is kept
// on the record; neither is ever serialized.
type Admin struct {
	ID              int64     `json:"id" db:"id"`
	Username        string    `json:"username" db:"username"`
	PasswordHash    string    `json:"-" db:"password_hash"` // bcrypt hash, never expose
	RefreshToken    *string   `json:"-" db:"refresh_token"`
	TableHeadings   Headings  `json:"tableHeadings,omitempty" db:"table_headings"`
	MalwareHeadings Headings  `json:"malwareHeadings,omitempty" db:"malware_headings"`
	VictimHeadings  Headings  `json:"victimHeadings,omitempty" db:"victim_headings"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// Headings returns the heading map for the given kind.
func (a *Admin) Headings(kind HeadingKind) Headings {
	switch kind {
	case HeadingsIncidents:
		return a.TableHeadings
	case HeadingsMalware:
		return a.MalwareHeadings
	case HeadingsVictims:
		return a.VictimHeadings
	}
	return nil
}

package model

import "time"

// Incident is a security incident reported by an upstream collector. The
// admin backend lists incidents and moves them between statuses.
type Incident struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Severity    string    `json:"severity" db:"severity"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Pagination describes the skip/limit window applied to a list response.
type Pagination struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Count int `json:"count"`
}

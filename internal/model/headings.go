package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// HeadingKind identifies which table a set of column headings belongs to.
type HeadingKind string

const (
	HeadingsIncidents HeadingKind = "incidents"
	HeadingsMalware   HeadingKind = "malware"
	HeadingsVictims   HeadingKind = "victims"
)

// ParseHeadingKind validates a heading kind taken from a URL or tool argument.
func ParseHeadingKind(s string) (HeadingKind, error) {
	switch k := HeadingKind(s); k {
	case HeadingsIncidents, HeadingsMalware, HeadingsVictims:
		return k, nil
	}
	return "", fmt.Errorf("unknown heading kind %q (want incidents, malware or victims)", s)
}

// Column returns the admins table column that stores headings of this kind.
func (k HeadingKind) Column() string {
	switch k {
	case HeadingsMalware:
		return "malware_headings"
	case HeadingsVictims:
		return "victim_headings"
	default:
		return "table_headings"
	}
}

// Headings maps a column key to its display label. A nil map means the admin
// has never customized that table. Stored as JSON text.
type Headings map[string]string

// Value implements driver.Valuer.
func (h Headings) Value() (driver.Value, error) {
	if h == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]string(h))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (h *Headings) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*h = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("headings: unsupported column type %T", src)
	}
	if len(raw) == 0 {
		*h = nil
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("headings: %w", err)
	}
	*h = m
	return nil
}

package config

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// dialect captures the per-engine differences the store has to care about:
// the sqlx driver name, DDL column types, and how generated IDs come back.
type dialect struct {
	name       string
	sqlxDriver string
	idColumn   string
	timestamp  string
	keyText    string // type for UNIQUE / lookup columns
	returning  bool
}

var dialects = map[string]dialect{
	"sqlite": {
		name:       "sqlite",
		sqlxDriver: "sqlite",
		idColumn:   "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestamp:  "DATETIME",
		keyText:    "TEXT",
	},
	"postgres": {
		name:       "postgres",
		sqlxDriver: "pgx",
		idColumn:   "BIGSERIAL PRIMARY KEY",
		timestamp:  "TIMESTAMPTZ",
		keyText:    "TEXT",
		returning:  true,
	},
	"mysql": {
		name:       "mysql",
		sqlxDriver: "mysql",
		idColumn:   "BIGINT AUTO_INCREMENT PRIMARY KEY",
		timestamp:  "DATETIME(6)",
		keyText:    "VARCHAR(191)",
	},
}

// SupportedDrivers lists the driver names accepted by Open.
func SupportedDrivers() []string {
	return []string{"sqlite", "postgres", "mysql"}
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver: %s (available: %v)", driver, SupportedDrivers())
	}
	return d, nil
}

// normalizeDSN adjusts a DSN so the driver returns values the store can scan.
func normalizeDSN(d dialect, dsn string) (string, error) {
	if d.name != "mysql" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	// DATETIME columns must scan into time.Time, and UPDATEs that leave a
	// row unchanged still have to count as a match for ErrNotFound checks.
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

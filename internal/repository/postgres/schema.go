package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the tables this service owns. The users table
// is read-only for us at runtime but is created here so a fresh database
// is immediately usable. Both session tables share one shape; only the
// id format differs (uuid for login sessions, random hex for csrf).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username VARCHAR(50) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS login_sessions (
		id VARCHAR(64) PRIMARY KEY,
		owner_id VARCHAR(64) NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		canceled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_login_sessions_expires_at ON login_sessions(expires_at)`,
	`CREATE TABLE IF NOT EXISTS csrf_sessions (
		id VARCHAR(64) PRIMARY KEY,
		owner_id VARCHAR(64) NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		canceled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_csrf_sessions_expires_at ON csrf_sessions(expires_at)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		created_by VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT customers_email_key UNIQUE (email)
	)`,
}

// EnsureSchema creates any missing tables. All statements run in a
// single transaction so a partially applied schema never survives a
// failed startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tm := NewTxManager(db)
	return tm.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement: %w", err)
			}
		}
		return nil
	})
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice-api/internal/domain"
)

// IDGenerator produces an opaque id for a new session record.
type IDGenerator func() (string, error)

// SessionStore implements domain.SessionStore for PostgreSQL. The same
// implementation backs both session tables; table name and id generator
// are fixed at construction.
type SessionStore struct {
	db         *sql.DB
	table      string
	newID      IDGenerator
	createStmt *sql.Stmt
	findStmt   *sql.Stmt
	deleteStmt *sql.Stmt
	cancelStmt *sql.Stmt
	sweepStmt  *sql.Stmt
}

// NewSessionStore creates a SessionStore over the named table with
// prepared statements. Returns an error if statement preparation fails.
// The table name must be a compile-time constant, never user input.
func NewSessionStore(db *sql.DB, table string, newID IDGenerator) (*SessionStore, error) {
	store := &SessionStore{db: db, table: table, newID: newID}

	var err error
	store.createStmt, err = db.Prepare(fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}

	// No expiry predicate here: expired and canceled rows are returned
	// as data and interpreted by the auth validator.
	store.findStmt, err = db.Prepare(fmt.Sprintf(`
		SELECT id, owner_id, expires_at, canceled, created_at
		FROM %s
		WHERE id = $1
	`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare find statement: %w", err)
	}

	store.deleteStmt, err = db.Prepare(fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	store.cancelStmt, err = db.Prepare(fmt.Sprintf(`UPDATE %s SET canceled = TRUE WHERE id = $1`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare cancel statement: %w", err)
	}

	store.sweepStmt, err = db.Prepare(fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= $1`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sweep statement: %w", err)
	}

	return store, nil
}

func (s *SessionStore) Create(ctx context.Context, ownerID string, ttl time.Duration) (*domain.Session, error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	session := &domain.Session{
		ID:        id,
		OwnerID:   ownerID,
		ExpiresAt: time.Now().Add(ttl),
	}

	err = s.createStmt.QueryRowContext(ctx,
		session.ID,
		session.OwnerID,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Find(ctx context.Context, id string) (*domain.Session, error) {
	session := &domain.Session{}
	err := s.findStmt.QueryRowContext(ctx, id).Scan(
		&session.ID,
		&session.OwnerID,
		&session.ExpiresAt,
		&session.Canceled,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := s.deleteStmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if count == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Cancel flags a session as revoked without removing the row.
func (s *SessionStore) Cancel(ctx context.Context, id string) error {
	result, err := s.cancelStmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel session: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if count == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes sessions past their expiry. Run by the
// background sweeper.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.sweepStmt.ExecContext(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}

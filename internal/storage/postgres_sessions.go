package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/terra-clan/interview-engine/internal/models"
)

const sessionColumns = `id, interview_id, association_id, token, status, created_at, expires_at, started_at, completed_at`

func scanSession(row pgx.Row) (*models.InterviewSession, error) {
	var s models.InterviewSession
	var status string
	var startedAt, completedAt sql.NullTime

	if err := row.Scan(
		&s.ID,
		&s.InterviewID,
		&s.AssociationID,
		&s.Token,
		&status,
		&s.CreatedAt,
		&s.ExpiresAt,
		&startedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}

	s.Status = models.SessionStatus(status)
	s.StartedAt = timePtr(startedAt)
	s.CompletedAt = timePtr(completedAt)
	return &s, nil
}

// CreateSession creates a new session record
func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.InterviewSession) error {
	query := `
		INSERT INTO interview_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.InterviewID,
		s.AssociationID,
		s.Token,
		string(s.Status),
		s.CreatedAt,
		s.ExpiresAt,
		nullTime(s.StartedAt),
		nullTime(s.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSessionByToken retrieves a session by its token
func (r *PostgresRepository) GetSessionByToken(ctx context.Context, token string) (*models.InterviewSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE token = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return s, nil
}

// UpdateSession updates status and lifecycle timestamps
func (r *PostgresRepository) UpdateSession(ctx context.Context, s *models.InterviewSession) error {
	query := `
		UPDATE interview_sessions
		SET status = $2, started_at = $3, completed_at = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		string(s.Status),
		nullTime(s.StartedAt),
		nullTime(s.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", s.ID)
	}

	return nil
}

// ListSessions returns all sessions issued for an interview
func (r *PostgresRepository) ListSessions(ctx context.Context, interviewID string) ([]*models.InterviewSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE interview_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.InterviewSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// ExpireSessions marks every pending or started session past its expiry as expired
// and returns the affected rows
func (r *PostgresRepository) ExpireSessions(ctx context.Context, now time.Time) ([]*models.InterviewSession, error) {
	query := `
		UPDATE interview_sessions
		SET status = 'expired'
		WHERE status IN ('pending', 'started')
		  AND expires_at <= $1
		RETURNING ` + sessionColumns

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.InterviewSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/terra-clan/interview-engine/internal/models"
)

// CreateInterview writes the interview and all of its questions in one transaction.
// The returned questions carry their generated ids.
func (r *PostgresRepository) CreateInterview(ctx context.Context, iv *models.Interview, questions []models.GeneratedQuestion) ([]models.GeneratedQuestion, error) {
	skillsJSON, err := json.Marshal(iv.RequiredSkills)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal required skills: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO interviews (id, owner_id, draft_id, job_title, job_description, required_skills, level, language,
			duration_minutes, total_questions, total_credits, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		iv.ID,
		iv.OwnerID,
		nullString(iv.DraftID),
		iv.JobTitle,
		iv.JobDescription,
		skillsJSON,
		string(iv.Level),
		iv.Language,
		iv.Duration,
		iv.TotalQuestions,
		iv.TotalCredits,
		string(iv.Status),
		iv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}

	saved := make([]models.GeneratedQuestion, len(questions))
	batch := &pgx.Batch{}
	for i, q := range questions {
		q.ID = uuid.New().String()
		saved[i] = q
		batch.Queue(`
			INSERT INTO interview_questions (id, interview_id, ordinal, category_id, text, model_answer, skill_measured,
				time_budget_seconds, ai_generated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, q.ID, iv.ID, q.Ordinal, q.CategoryID, q.Text, q.ModelAnswer, q.SkillMeasured, q.TimeBudgetSeconds, q.AIGenerated)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("failed to create questions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit interview: %w", err)
	}

	return saved, nil
}

// GetInterview retrieves an interview by ID
func (r *PostgresRepository) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	query := `
		SELECT id, owner_id, draft_id, job_title, job_description, required_skills, level, language,
			duration_minutes, total_questions, total_credits, status, created_at
		FROM interviews
		WHERE id = $1
	`

	var iv models.Interview
	var draftID sql.NullString
	var level, status string
	var skillsJSON []byte

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&iv.ID,
		&iv.OwnerID,
		&draftID,
		&iv.JobTitle,
		&iv.JobDescription,
		&skillsJSON,
		&level,
		&iv.Language,
		&iv.Duration,
		&iv.TotalQuestions,
		&iv.TotalCredits,
		&status,
		&iv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}

	iv.DraftID = draftID.String
	iv.Level = models.Level(level)
	iv.Status = models.DraftStatus(status)

	if skillsJSON != nil {
		if err := json.Unmarshal(skillsJSON, &iv.RequiredSkills); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required skills: %w", err)
		}
	}

	return &iv, nil
}

// UpdateInterviewStatus mirrors the workflow status onto the durable record
func (r *PostgresRepository) UpdateInterviewStatus(ctx context.Context, id string, status models.DraftStatus) error {
	result, err := r.pool.Exec(ctx, `UPDATE interviews SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update interview status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("interview not found: %s", id)
	}

	return nil
}

// ListQuestions returns the interview's questions in ordinal order
func (r *PostgresRepository) ListQuestions(ctx context.Context, interviewID string) ([]models.GeneratedQuestion, error) {
	query := `
		SELECT id, ordinal, category_id, text, model_answer, skill_measured, time_budget_seconds, ai_generated
		FROM interview_questions
		WHERE interview_id = $1
		ORDER BY ordinal ASC
	`

	rows, err := r.pool.Query(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []models.GeneratedQuestion
	for rows.Next() {
		var q models.GeneratedQuestion
		if err := rows.Scan(
			&q.ID,
			&q.Ordinal,
			&q.CategoryID,
			&q.Text,
			&q.ModelAnswer,
			&q.SkillMeasured,
			&q.TimeBudgetSeconds,
			&q.AIGenerated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

// --- Candidate associations ---

// CreateAssociations inserts one row per candidate. Rows for the test candidate have a NULL candidate_id.
func (r *PostgresRepository) CreateAssociations(ctx context.Context, assocs []*models.CandidateAssociation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range assocs {
		_, err := tx.Exec(ctx, `
			INSERT INTO candidate_associations (id, interview_id, candidate_id, name, email, resume_url, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			a.ID,
			a.InterviewID,
			nullString(a.CandidateID),
			a.Name,
			a.Email,
			nullString(a.ResumeURL),
			string(a.Status),
			a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create association for %s: %w", a.Email, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit associations: %w", err)
	}

	return nil
}

const associationColumns = `id, interview_id, candidate_id, name, email, resume_url, status, created_at`

func scanAssociation(row pgx.Row) (*models.CandidateAssociation, error) {
	var a models.CandidateAssociation
	var candidateID, resumeURL sql.NullString
	var status string

	if err := row.Scan(
		&a.ID,
		&a.InterviewID,
		&candidateID,
		&a.Name,
		&a.Email,
		&resumeURL,
		&status,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}

	a.CandidateID = candidateID.String
	a.ResumeURL = resumeURL.String
	a.Status = models.AssociationStatus(status)
	return &a, nil
}

// GetAssociation retrieves an association by ID
func (r *PostgresRepository) GetAssociation(ctx context.Context, id string) (*models.CandidateAssociation, error) {
	query := `SELECT ` + associationColumns + ` FROM candidate_associations WHERE id = $1`

	a, err := scanAssociation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get association: %w", err)
	}

	return a, nil
}

// ListAssociations returns the interview's associations in creation order
func (r *PostgresRepository) ListAssociations(ctx context.Context, interviewID string) ([]*models.CandidateAssociation, error) {
	query := `SELECT ` + associationColumns + ` FROM candidate_associations WHERE interview_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list associations: %w", err)
	}
	defer rows.Close()

	var assocs []*models.CandidateAssociation
	for rows.Next() {
		a, err := scanAssociation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		assocs = append(assocs, a)
	}

	return assocs, rows.Err()
}

// UpdateAssociationStatus sets the association status
func (r *PostgresRepository) UpdateAssociationStatus(ctx context.Context, id string, status models.AssociationStatus) error {
	result, err := r.pool.Exec(ctx, `UPDATE candidate_associations SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update association status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("association not found: %s", id)
	}

	return nil
}

// --- Candidate pool ---

// ListCandidates returns the operator's previously discovered candidates, newest first
func (r *PostgresRepository) ListCandidates(ctx context.Context, ownerID string) ([]*models.Candidate, error) {
	query := `
		SELECT id, owner_id, name, email, resume_url, discovered_at
		FROM candidates
		WHERE owner_id = $1
		ORDER BY discovered_at DESC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*models.Candidate
	for rows.Next() {
		var c models.Candidate
		var resumeURL sql.NullString
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &resumeURL, &c.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.ResumeURL = resumeURL.String
		candidates = append(candidates, &c)
	}

	return candidates, rows.Err()
}

// CreateCandidate adds a candidate to an operator's pool
func (r *PostgresRepository) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	query := `
		INSERT INTO candidates (id, owner_id, name, email, resume_url, discovered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, c.ID, c.OwnerID, c.Name, c.Email, nullString(c.ResumeURL), c.DiscoveredAt)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}

	return nil
}

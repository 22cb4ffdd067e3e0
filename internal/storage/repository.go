package storage

import (
	"context"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Repository defines the interface for interview persistence.
// Getters return nil, nil when the row does not exist.
type Repository interface {
	// Interviews
	CreateInterview(ctx context.Context, iv *models.Interview, questions []models.GeneratedQuestion) ([]models.GeneratedQuestion, error)
	GetInterview(ctx context.Context, id string) (*models.Interview, error)
	UpdateInterviewStatus(ctx context.Context, id string, status models.DraftStatus) error
	ListQuestions(ctx context.Context, interviewID string) ([]models.GeneratedQuestion, error)

	// Candidate associations
	CreateAssociations(ctx context.Context, assocs []*models.CandidateAssociation) error
	GetAssociation(ctx context.Context, id string) (*models.CandidateAssociation, error)
	ListAssociations(ctx context.Context, interviewID string) ([]*models.CandidateAssociation, error)
	UpdateAssociationStatus(ctx context.Context, id string, status models.AssociationStatus) error

	// Candidate pool
	ListCandidates(ctx context.Context, ownerID string) ([]*models.Candidate, error)
	CreateCandidate(ctx context.Context, c *models.Candidate) error

	// Sessions
	CreateSession(ctx context.Context, s *models.InterviewSession) error
	GetSessionByToken(ctx context.Context, token string) (*models.InterviewSession, error)
	UpdateSession(ctx context.Context, s *models.InterviewSession) error
	ListSessions(ctx context.Context, interviewID string) ([]*models.InterviewSession, error)
	ExpireSessions(ctx context.Context, now time.Time) ([]*models.InterviewSession, error)

	// Credits
	GetBalance(ctx context.Context, ownerID string) (int, error)
	DeductCredits(ctx context.Context, ownerID string, amount int, description string) (int, error)
	GrantCredits(ctx context.Context, ownerID string, amount int, description string) (int, error)
	ListCreditTransactions(ctx context.Context, ownerID string, limit int) ([]models.CreditTransaction, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Store is what token validation reads and writes
type Store interface {
	GetSessionByToken(ctx context.Context, token string) (*models.InterviewSession, error)
	UpdateSession(ctx context.Context, s *models.InterviewSession) error
	ListSessions(ctx context.Context, interviewID string) ([]*models.InterviewSession, error)
	GetInterview(ctx context.Context, id string) (*models.Interview, error)
	GetAssociation(ctx context.Context, id string) (*models.CandidateAssociation, error)
	UpdateAssociationStatus(ctx context.Context, id string, status models.AssociationStatus) error
}

// Service validates candidate tokens and moves sessions through their lifecycle
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a session service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Get loads the session by token and persists expiry if it is overdue
func (s *Service) Get(ctx context.Context, token string) (*models.InterviewSession, error) {
	session, err := s.store.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, models.ErrNotFound
	}

	if !session.IsTerminal() && session.IsExpired(s.now()) {
		session.Status = models.SessionExpired
		if err := s.store.UpdateSession(ctx, session); err != nil {
			slog.Warn("failed to persist session expiry", "error", err, "session", session.ID)
		}
	}

	return session, nil
}

// Validate returns the session only if it can still be used
func (s *Service) Validate(ctx context.Context, token string) (*models.InterviewSession, error) {
	session, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if !session.IsUsable(s.now()) {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionUnusable, session.Status)
	}
	return session, nil
}

// View returns what the candidate sees when opening the link
func (s *Service) View(ctx context.Context, token string) (*models.PublicSessionView, error) {
	session, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	iv, err := s.store.GetInterview(ctx, session.InterviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	if iv == nil {
		return nil, models.ErrNotFound
	}

	assoc, err := s.store.GetAssociation(ctx, session.AssociationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get association: %w", err)
	}

	now := s.now()
	view := &models.PublicSessionView{
		Status:           session.Status,
		JobTitle:         iv.JobTitle,
		Duration:         iv.Duration,
		Language:         iv.Language,
		QuestionCount:    iv.TotalQuestions,
		ExpiresAt:        session.ExpiresAt,
		SecondsRemaining: int64(session.TimeRemaining(now).Seconds()),
		Usable:           session.IsUsable(now),
	}
	if assoc != nil {
		view.CandidateName = assoc.Name
	}

	return view, nil
}

// Start moves pending -> started on first use. Opening a started session again is allowed.
func (s *Service) Start(ctx context.Context, token string) (*models.InterviewSession, error) {
	session, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Status == models.SessionStarted {
		return session, nil
	}

	now := s.now().UTC()
	session.Status = models.SessionStarted
	session.StartedAt = &now

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	slog.Info("interview session started", "session", session.ID, "interview", session.InterviewID)
	return session, nil
}

// Complete moves started -> completed and marks the association completed
func (s *Service) Complete(ctx context.Context, token string) (*models.InterviewSession, error) {
	session, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionStarted {
		return nil, fmt.Errorf("%w: session has not been started", models.ErrInvalidTransition)
	}

	now := s.now().UTC()
	session.Status = models.SessionCompleted
	session.CompletedAt = &now

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	if err := s.store.UpdateAssociationStatus(ctx, session.AssociationID, models.AssociationCompleted); err != nil {
		slog.Warn("failed to mark association completed", "error", err, "association", session.AssociationID)
	}

	slog.Info("interview session completed", "session", session.ID, "interview", session.InterviewID)
	return session, nil
}

// List returns the sessions issued for an interview
func (s *Service) List(ctx context.Context, interviewID string) ([]*models.InterviewSession, error) {
	sessions, err := s.store.ListSessions(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

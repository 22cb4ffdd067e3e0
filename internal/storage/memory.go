package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/interview-engine/internal/models"
)

// MemoryRepository keeps everything in process memory. It backs local runs without
// DATABASE_DSN and the service-level tests.
type MemoryRepository struct {
	mu           sync.RWMutex
	interviews   map[string]*models.Interview
	questions    map[string][]models.GeneratedQuestion
	associations map[string]*models.CandidateAssociation
	assocOrder   []string
	candidates   map[string][]*models.Candidate
	sessions     map[string]*models.InterviewSession // by token
	sessionOrder []string
	balances     map[string]int
	transactions []models.CreditTransaction
	clients      map[string]*models.ApiClient
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		interviews:   make(map[string]*models.Interview),
		questions:    make(map[string][]models.GeneratedQuestion),
		associations: make(map[string]*models.CandidateAssociation),
		candidates:   make(map[string][]*models.Candidate),
		sessions:     make(map[string]*models.InterviewSession),
		balances:     make(map[string]int),
		clients:      make(map[string]*models.ApiClient),
	}
}

// AddClient registers an API client
func (r *MemoryRepository) AddClient(c *models.ApiClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.clients[c.ApiKey] = &cp
}

func (r *MemoryRepository) CreateInterview(_ context.Context, iv *models.Interview, questions []models.GeneratedQuestion) ([]models.GeneratedQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.interviews[iv.ID]; ok {
		return nil, fmt.Errorf("failed to create interview: duplicate id %s", iv.ID)
	}

	cp := *iv
	cp.RequiredSkills = append([]string(nil), iv.RequiredSkills...)
	r.interviews[iv.ID] = &cp

	saved := make([]models.GeneratedQuestion, len(questions))
	for i, q := range questions {
		q.ID = uuid.New().String()
		saved[i] = q
	}
	r.questions[iv.ID] = append([]models.GeneratedQuestion(nil), saved...)

	return saved, nil
}

func (r *MemoryRepository) GetInterview(_ context.Context, id string) (*models.Interview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	iv, ok := r.interviews[id]
	if !ok {
		return nil, nil
	}
	cp := *iv
	return &cp, nil
}

func (r *MemoryRepository) UpdateInterviewStatus(_ context.Context, id string, status models.DraftStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	iv, ok := r.interviews[id]
	if !ok {
		return fmt.Errorf("interview not found: %s", id)
	}
	iv.Status = status
	return nil
}

func (r *MemoryRepository) ListQuestions(_ context.Context, interviewID string) ([]models.GeneratedQuestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.GeneratedQuestion(nil), r.questions[interviewID]...), nil
}

func (r *MemoryRepository) CreateAssociations(_ context.Context, assocs []*models.CandidateAssociation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range assocs {
		if _, ok := r.interviews[a.InterviewID]; !ok {
			return fmt.Errorf("failed to create association for %s: interview %s not found", a.Email, a.InterviewID)
		}
		if _, ok := r.associations[a.ID]; ok {
			return fmt.Errorf("failed to create association for %s: duplicate id %s", a.Email, a.ID)
		}
	}

	for _, a := range assocs {
		cp := *a
		r.associations[a.ID] = &cp
		r.assocOrder = append(r.assocOrder, a.ID)
	}
	return nil
}

func (r *MemoryRepository) GetAssociation(_ context.Context, id string) (*models.CandidateAssociation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.associations[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) ListAssociations(_ context.Context, interviewID string) ([]*models.CandidateAssociation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.CandidateAssociation
	for _, id := range r.assocOrder {
		if a := r.associations[id]; a.InterviewID == interviewID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryRepository) UpdateAssociationStatus(_ context.Context, id string, status models.AssociationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.associations[id]
	if !ok {
		return fmt.Errorf("association not found: %s", id)
	}
	a.Status = status
	return nil
}

func (r *MemoryRepository) ListCandidates(_ context.Context, ownerID string) ([]*models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Candidate, 0, len(r.candidates[ownerID]))
	for _, c := range r.candidates[ownerID] {
		cp := *c
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DiscoveredAt.After(out[j].DiscoveredAt)
	})
	return out, nil
}

func (r *MemoryRepository) CreateCandidate(_ context.Context, c *models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *c
	r.candidates[c.OwnerID] = append(r.candidates[c.OwnerID], &cp)
	return nil
}

func (r *MemoryRepository) CreateSession(_ context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.Token]; ok {
		return fmt.Errorf("failed to create session: duplicate token")
	}
	cp := *s
	r.sessions[s.Token] = &cp
	r.sessionOrder = append(r.sessionOrder, s.Token)
	return nil
}

func (r *MemoryRepository) GetSessionByToken(_ context.Context, token string) (*models.InterviewSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) UpdateSession(_ context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sessions[s.Token]
	if !ok || existing.ID != s.ID {
		return fmt.Errorf("session not found: %s", s.ID)
	}
	existing.Status = s.Status
	existing.StartedAt = s.StartedAt
	existing.CompletedAt = s.CompletedAt
	return nil
}

func (r *MemoryRepository) ListSessions(_ context.Context, interviewID string) ([]*models.InterviewSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.InterviewSession
	for _, token := range r.sessionOrder {
		if s := r.sessions[token]; s.InterviewID == interviewID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryRepository) ExpireSessions(_ context.Context, now time.Time) ([]*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.InterviewSession
	for _, token := range r.sessionOrder {
		s := r.sessions[token]
		if (s.Status == models.SessionPending || s.Status == models.SessionStarted) && s.IsExpired(now) {
			s.Status = models.SessionExpired
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryRepository) GetBalance(_ context.Context, ownerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[ownerID], nil
}

func (r *MemoryRepository) DeductCredits(_ context.Context, ownerID string, amount int, description string) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("deduct amount must not be negative: %d", amount)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	balance := r.balances[ownerID]
	if balance < amount {
		return 0, &models.InsufficientCreditsError{Required: amount, Available: balance}
	}
	r.balances[ownerID] = balance - amount
	r.record(ownerID, models.CreditDeduct, -amount, description)
	return r.balances[ownerID], nil
}

func (r *MemoryRepository) GrantCredits(_ context.Context, ownerID string, amount int, description string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive: %d", amount)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.balances[ownerID] += amount
	r.record(ownerID, models.CreditGrant, amount, description)
	return r.balances[ownerID], nil
}

func (r *MemoryRepository) ListCreditTransactions(_ context.Context, ownerID string, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.CreditTransaction
	for i := len(r.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if r.transactions[i].OwnerID == ownerID {
			out = append(out, r.transactions[i])
		}
	}
	return out, nil
}

// record must be called with mu held
func (r *MemoryRepository) record(ownerID string, kind models.CreditTransactionKind, amount int, description string) {
	r.transactions = append(r.transactions, models.CreditTransaction{
		ID:           int64(len(r.transactions) + 1),
		OwnerID:      ownerID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: r.balances[ownerID],
		Description:  description,
		CreatedAt:    time.Now().UTC(),
	})
}

func (r *MemoryRepository) GetClientByApiKey(_ context.Context, apiKey string) (*models.ApiClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[apiKey]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) UpdateClientLastUsed(_ context.Context, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[apiKey]; ok {
		now := time.Now().UTC()
		c.LastUsedAt = &now
	}
	return nil
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }

// Package drafts caches in-progress interview drafts between operator requests.
package drafts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// DefaultTTL is how long an untouched draft is kept
const DefaultTTL = 72 * time.Hour

const defaultLockTTL = 10 * time.Minute

// Store persists drafts per owner. Get returns nil, nil when the draft does not exist.
type Store interface {
	Get(ctx context.Context, ownerID, id string) (*models.InterviewDraft, error)
	Save(ctx context.Context, d *models.InterviewDraft) error
	Delete(ctx context.Context, ownerID, id string) error
	// Lock reserves the draft for one long-running operation. It fails with models.ErrBusy
	// if the draft is already locked.
	Lock(ctx context.Context, id string) (unlock func(), err error)
	Ping(ctx context.Context) error
}

// MemoryStore keeps drafts in process memory
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]*models.InterviewDraft
	locks  map[string]bool
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[string]*models.InterviewDraft),
		locks:  make(map[string]bool),
	}
}

func (s *MemoryStore) Get(_ context.Context, ownerID, id string) (*models.InterviewDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftKey(ownerID, id)]
	if !ok {
		return nil, nil
	}
	return d.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, d *models.InterviewDraft) error {
	if d == nil || d.ID == "" {
		return errors.New("draft id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draftKey(d.OwnerID, d.ID)] = d.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftKey(ownerID, id))
	return nil
}

func (s *MemoryStore) Lock(_ context.Context, id string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks[id] {
		return nil, models.ErrBusy
	}
	s.locks[id] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.locks, id)
			s.mu.Unlock()
		})
	}, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func draftKey(ownerID, id string) string {
	return "draft:" + ownerID + ":" + id
}

func lockKey(id string) string {
	return "draft-lock:" + id
}

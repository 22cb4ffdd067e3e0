// Package candidates lists an operator's candidate pool and builds the invitation selection.
package candidates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/terra-clan/interview-engine/internal/models"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	defaultCacheSize = 512
)

// Source reads previously discovered candidates
type Source interface {
	ListCandidates(ctx context.Context, ownerID string) ([]*models.Candidate, error)
}

// Pool serves candidate lists per operator from a short-lived cache
type Pool struct {
	source Source
	cache  *expirable.LRU[string, []models.Candidate]
}

// NewPool creates a pool; ttl <= 0 uses the default of five minutes
func NewPool(source Source, ttl time.Duration) *Pool {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Pool{
		source: source,
		cache:  expirable.NewLRU[string, []models.Candidate](defaultCacheSize, nil, ttl),
	}
}

// List returns the operator's candidates, newest first
func (p *Pool) List(ctx context.Context, ownerID string) ([]models.Candidate, error) {
	if cached, ok := p.cache.Get(ownerID); ok {
		return append([]models.Candidate(nil), cached...), nil
	}

	rows, err := p.source.ListCandidates(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	out := make([]models.Candidate, 0, len(rows))
	for _, c := range rows {
		out = append(out, *c)
	}

	p.cache.Add(ownerID, out)
	slog.Debug("candidate pool loaded", "owner", ownerID, "count", len(out))

	return append([]models.Candidate(nil), out...), nil
}

// Invalidate drops the cached list for an operator
func (p *Pool) Invalidate(ownerID string) {
	p.cache.Remove(ownerID)
}

// Select builds a selection from candidate ids. The reserved id models.TestCandidateID
// requires test to be set.
func (p *Pool) Select(ctx context.Context, ownerID string, ids []string, test *TestCandidate) ([]models.CandidateRef, error) {
	pool, err := p.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	sel := NewSelection(pool)
	for _, id := range ids {
		if id == models.TestCandidateID {
			if test == nil {
				return nil, models.NewValidationError("test_candidate", "name and email are required for the test candidate")
			}
			if err := sel.SetTestCandidate(test.Name, test.Email); err != nil {
				return nil, err
			}
			continue
		}
		if err := sel.Select(id); err != nil {
			return nil, err
		}
	}

	if test != nil && !sel.HasTestCandidate() {
		if err := sel.SetTestCandidate(test.Name, test.Email); err != nil {
			return nil, err
		}
	}

	refs := sel.Refs()
	if len(refs) == 0 {
		return nil, models.NewValidationError("candidates", "select at least one candidate")
	}
	return refs, nil
}

// EditAction names a change to an existing selection
type EditAction string

const (
	EditToggle              EditAction = "toggle"
	EditSelectAll           EditAction = "select_all"
	EditClear               EditAction = "clear"
	EditRemoveTestCandidate EditAction = "remove_test_candidate"
)

// Edit is one change to a draft's current candidate selection
type Edit struct {
	Action      EditAction `json:"action" validate:"required,oneof=toggle select_all clear remove_test_candidate"`
	CandidateID string     `json:"candidate_id,omitempty" validate:"required_if=Action toggle"`
}

// Apply replays current against the operator's pool and applies edit. Unlike Select,
// the result may be empty.
func (p *Pool) Apply(ctx context.Context, ownerID string, current []models.CandidateRef, edit Edit) ([]models.CandidateRef, error) {
	pool, err := p.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	sel := NewSelection(pool)
	sel.Restore(current)

	switch edit.Action {
	case EditToggle:
		if err := sel.Toggle(edit.CandidateID); err != nil {
			return nil, err
		}
	case EditSelectAll:
		sel.SelectAll()
	case EditClear:
		sel.Clear()
	case EditRemoveTestCandidate:
		sel.RemoveTestCandidate()
	default:
		return nil, models.NewValidationError("action", fmt.Sprintf("unknown action: %s", edit.Action))
	}

	return sel.Refs(), nil
}

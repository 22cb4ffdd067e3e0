package candidates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/interview-engine/internal/models"
)

var validate = validator.New()

// TestCandidate is the operator inviting themselves
type TestCandidate struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
}

// Selection tracks which pool candidates will be invited. Refs come back in pool order
// with the test candidate last.
type Selection struct {
	pool     []models.Candidate
	index    map[string]int
	selected map[string]bool
	test     *models.CandidateRef
}

// NewSelection starts an empty selection over the pool
func NewSelection(pool []models.Candidate) *Selection {
	index := make(map[string]int, len(pool))
	for i, c := range pool {
		index[c.ID] = i
	}
	return &Selection{
		pool:     pool,
		index:    index,
		selected: make(map[string]bool),
	}
}

// Restore re-selects previously chosen refs. Pool candidates that have since left the
// pool are dropped.
func (s *Selection) Restore(refs []models.CandidateRef) {
	for _, ref := range refs {
		if ref.IsTest() {
			r := ref
			s.test = &r
			continue
		}
		if _, ok := s.index[ref.ID]; ok {
			s.selected[ref.ID] = true
		}
	}
}

// Toggle flips a pool candidate in or out of the selection
func (s *Selection) Toggle(id string) error {
	if _, ok := s.index[id]; !ok {
		return models.NewValidationError("candidates", fmt.Sprintf("unknown candidate: %s", id))
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	return nil
}

// Select adds a pool candidate; selecting twice is a no-op
func (s *Selection) Select(id string) error {
	if _, ok := s.index[id]; !ok {
		return models.NewValidationError("candidates", fmt.Sprintf("unknown candidate: %s", id))
	}
	s.selected[id] = true
	return nil
}

// SelectAll selects every pool candidate
func (s *Selection) SelectAll() {
	for _, c := range s.pool {
		s.selected[c.ID] = true
	}
}

// Clear removes every selection, including the test candidate
func (s *Selection) Clear() {
	s.selected = make(map[string]bool)
	s.test = nil
}

// SetTestCandidate adds or replaces the test candidate
func (s *Selection) SetTestCandidate(name, email string) error {
	tc := TestCandidate{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := validate.Struct(tc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := "test_candidate." + strings.ToLower(verrs[0].Field())
			return models.NewValidationError(field, fmt.Sprintf("failed on '%s'", verrs[0].Tag()))
		}
		return models.NewValidationError("test_candidate", err.Error())
	}

	ref := models.NewTestCandidate(tc.Name, tc.Email)
	s.test = &ref
	return nil
}

// RemoveTestCandidate drops the test candidate
func (s *Selection) RemoveTestCandidate() {
	s.test = nil
}

// HasTestCandidate reports whether the test candidate is selected
func (s *Selection) HasTestCandidate() bool {
	return s.test != nil
}

// Len returns the number of selected candidates
func (s *Selection) Len() int {
	n := len(s.selected)
	if s.test != nil {
		n++
	}
	return n
}

// Refs returns the selected candidates as refs
func (s *Selection) Refs() []models.CandidateRef {
	refs := make([]models.CandidateRef, 0, s.Len())
	for i := range s.pool {
		if s.selected[s.pool[i].ID] {
			refs = append(refs, s.pool[i].Ref())
		}
	}
	if s.test != nil {
		refs = append(refs, *s.test)
	}
	return refs
}

// Package workflow owns the in-progress interview draft and its lifecycle.
//
// Every mutation that touches the selected categories or the duration reprices the
// draft through the pricing engine before returning, so derived totals are never stale.
// The workflow never advances its own status: the orchestrator, the persistence gateway
// and the session issuer call the Mark* methods.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/pricing"
)

// WarningCategoryLimit is emitted when a toggle would exceed the duration's category cap
const WarningCategoryLimit = "category_limit"

// Warning is a user-facing notice that did not change state
type Warning struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	CategoryID string `json:"category_id,omitempty"`
}

// ToggleAction describes what ToggleCategory did
type ToggleAction string

const (
	ToggleAdded    ToggleAction = "added"
	ToggleReplaced ToggleAction = "replaced"
	ToggleRemoved  ToggleAction = "removed"
	ToggleRejected ToggleAction = "rejected"
)

// ToggleResult is returned by ToggleCategory
type ToggleResult struct {
	Action  ToggleAction `json:"action"`
	Warning *Warning     `json:"warning,omitempty"`
}

// Workflow wraps a single draft. It is not safe for concurrent use; one operator
// session drives one workflow at a time.
type Workflow struct {
	catalog  *catalog.Catalog
	draft    *models.InterviewDraft
	quote    pricing.Quote
	warnings []Warning
	now      func() time.Time
}

// Option configures a Workflow
type Option func(*Workflow)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

// New starts a fresh draft for the owner
func New(cat *catalog.Catalog, ownerID string, opts ...Option) *Workflow {
	w := &Workflow{catalog: cat, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	w.draft = w.freshDraft(ownerID)
	w.reprice()
	return w
}

// Resume continues from a cached draft, or starts fresh when cached is nil
func Resume(cat *catalog.Catalog, ownerID string, cached *models.InterviewDraft, opts ...Option) *Workflow {
	if cached == nil {
		return New(cat, ownerID, opts...)
	}

	w := &Workflow{catalog: cat, now: time.Now, draft: cached.Clone()}
	for _, opt := range opts {
		opt(w)
	}

	// Cached drafts may predate a catalog change
	if _, ok := cat.Duration(w.draft.Duration); !ok {
		w.draft.Duration = cat.DefaultDuration().Minutes
	}
	kept := w.draft.Categories[:0]
	for _, sc := range w.draft.Categories {
		if _, ok := cat.Category(sc.CategoryID); ok {
			kept = append(kept, sc)
		}
	}
	w.draft.Categories = kept
	w.reprice()
	return w
}

// Draft returns a copy of the current draft
func (w *Workflow) Draft() *models.InterviewDraft {
	return w.draft.Clone()
}

// Quote returns the pricing for the current selection
func (w *Workflow) Quote() pricing.Quote {
	return w.quote
}

// Catalog returns the catalog the workflow prices against
func (w *Workflow) Catalog() *catalog.Catalog {
	return w.catalog
}

// Warnings returns warnings recorded since the workflow was created or reset
func (w *Workflow) Warnings() []Warning {
	return append([]Warning(nil), w.warnings...)
}

// UpdateFields merges the patch into the draft and reprices if needed.
// Nothing is applied if any field is invalid.
func (w *Workflow) UpdateFields(patch models.DraftPatch) error {
	if err := w.requireEditable(); err != nil {
		return err
	}

	next := w.draft.Clone()

	if patch.JobTitle != nil {
		next.JobTitle = strings.TrimSpace(*patch.JobTitle)
	}
	if patch.JobDescription != nil {
		next.JobDescription = strings.TrimSpace(*patch.JobDescription)
	}
	if patch.RequiredSkills != nil {
		next.RequiredSkills = normalizeSkills(*patch.RequiredSkills)
	}
	if patch.Level != nil {
		switch *patch.Level {
		case models.LevelJunior, models.LevelMiddle, models.LevelSenior:
			next.Level = *patch.Level
		default:
			return models.NewValidationError("level", fmt.Sprintf("unknown level: %s", *patch.Level))
		}
	}
	if patch.Language != nil {
		next.Language = strings.TrimSpace(*patch.Language)
	}
	if patch.Duration != nil {
		if _, ok := w.catalog.Duration(*patch.Duration); !ok {
			return models.NewValidationError("duration", fmt.Sprintf("unsupported duration: %d minutes", *patch.Duration))
		}
		next.Duration = *patch.Duration
	}
	if patch.Categories != nil {
		categories, err := w.resolveSelection(*patch.Categories)
		if err != nil {
			return err
		}
		next.Categories = categories
	}

	w.draft = next
	if patch.AffectsPricing() {
		w.reprice()
	}
	w.touch()
	return nil
}

// ToggleCategory adds, rebinds or removes a category.
// With plan == nil a selected category is removed and an unselected one is added on its
// first tier. With a plan, a selected category is rebound and an unselected one is added
// on that plan. Adding beyond the active duration's cap is rejected with a warning.
func (w *Workflow) ToggleCategory(categoryID string, plan *models.CategoryTier) (ToggleResult, error) {
	if err := w.requireEditable(); err != nil {
		return ToggleResult{}, err
	}

	category, ok := w.catalog.Category(categoryID)
	if !ok {
		return ToggleResult{}, models.NewValidationError("category_id", fmt.Sprintf("unknown category: %s", categoryID))
	}
	if plan != nil && !category.HasTier(*plan) {
		return ToggleResult{}, models.NewValidationError("plan", fmt.Sprintf("plan is not offered for category %s", categoryID))
	}

	idx := w.draft.CategoryIndex(categoryID)

	switch {
	case idx >= 0 && plan != nil:
		w.draft.Categories[idx].Plan = *plan
		w.reprice()
		w.touch()
		return ToggleResult{Action: ToggleReplaced}, nil

	case idx >= 0:
		w.draft.Categories = append(w.draft.Categories[:idx:idx], w.draft.Categories[idx+1:]...)
		w.reprice()
		w.touch()
		return ToggleResult{Action: ToggleRemoved}, nil
	}

	tier, _ := w.catalog.Duration(w.draft.Duration)
	if len(w.draft.Categories) >= tier.MaxCategoriesAllowed {
		warning := Warning{
			Code:       WarningCategoryLimit,
			Message:    fmt.Sprintf("%s allows at most %d test categories", tier.Label, tier.MaxCategoriesAllowed),
			CategoryID: categoryID,
		}
		w.warnings = append(w.warnings, warning)
		return ToggleResult{Action: ToggleRejected, Warning: &warning}, nil
	}

	selected := models.SelectedCategory{CategoryID: categoryID}
	if plan != nil {
		selected.Plan = *plan
	} else if def, ok := category.DefaultTier(); ok {
		selected.Plan = def
	}

	w.draft.Categories = append(w.draft.Categories, selected)
	w.reprice()
	w.touch()
	return ToggleResult{Action: ToggleAdded}, nil
}

// Reset discards categories, questions and candidates and returns to a fresh setup draft.
// The draft keeps its ID so cached mirrors are overwritten rather than orphaned.
func (w *Workflow) Reset() {
	id, owner := w.draft.ID, w.draft.OwnerID
	w.draft = w.freshDraft(owner)
	w.draft.ID = id
	w.warnings = nil
	w.reprice()
}

// SetCandidates replaces the candidate selection. Only allowed once the interview is
// committed and before candidates are associated.
func (w *Workflow) SetCandidates(refs []models.CandidateRef) error {
	if w.draft.Status != models.DraftQuestionsReady || w.draft.InterviewID == "" {
		return fmt.Errorf("%w: candidates can only be chosen for a committed interview", models.ErrInvalidTransition)
	}
	w.draft.Candidates = append([]models.CandidateRef(nil), refs...)
	w.touch()
	return nil
}

// MarkQuestionsReady stores generated questions and moves setup -> questions_ready
func (w *Workflow) MarkQuestionsReady(questions []models.GeneratedQuestion) error {
	if w.draft.Status != models.DraftSetup {
		return fmt.Errorf("%w: questions can only be generated during setup", models.ErrInvalidTransition)
	}
	if err := w.advance(models.DraftQuestionsReady); err != nil {
		return err
	}
	w.draft.Questions = append([]models.GeneratedQuestion(nil), questions...)
	return nil
}

// MarkInterviewCommitted records the durable interview id
func (w *Workflow) MarkInterviewCommitted(interviewID string) error {
	if err := w.advance(models.DraftQuestionsReady); err != nil {
		return err
	}
	w.draft.InterviewID = interviewID
	return nil
}

// MarkCandidatesAdded records associations and moves questions_ready -> candidates_added
func (w *Workflow) MarkCandidatesAdded(associations []models.CandidateAssociation) error {
	if w.draft.InterviewID == "" {
		return fmt.Errorf("%w: interview is not committed", models.ErrInvalidTransition)
	}
	if err := w.advance(models.DraftCandidatesAdded); err != nil {
		return err
	}
	w.draft.Associations = append([]models.CandidateAssociation(nil), associations...)
	return nil
}

// UpdateAssociations refreshes association rows after sessions were issued
func (w *Workflow) UpdateAssociations(associations []models.CandidateAssociation) {
	w.draft.Associations = append([]models.CandidateAssociation(nil), associations...)
	w.touch()
}

// MarkCompleted moves candidates_added -> completed
func (w *Workflow) MarkCompleted() error {
	return w.advance(models.DraftCompleted)
}

// advance applies a forward transition. Re-applying the current status is a no-op.
func (w *Workflow) advance(to models.DraftStatus) error {
	from := w.draft.Status
	if from != to {
		next, ok := from.Next()
		if !ok || next != to {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
		}
	}
	w.draft.Status = to
	w.draft.Step = to.Step()
	w.touch()
	return nil
}

func (w *Workflow) requireEditable() error {
	if w.draft.Status != models.DraftSetup {
		return models.ErrDraftLocked
	}
	return nil
}

func (w *Workflow) resolveSelection(in []models.SelectedCategory) ([]models.SelectedCategory, error) {
	out := make([]models.SelectedCategory, 0, len(in))
	seen := make(map[string]bool, len(in))

	for _, sc := range in {
		category, ok := w.catalog.Category(sc.CategoryID)
		if !ok {
			return nil, models.NewValidationError("categories", fmt.Sprintf("unknown category: %s", sc.CategoryID))
		}
		if seen[sc.CategoryID] {
			return nil, models.NewValidationError("categories", fmt.Sprintf("category selected twice: %s", sc.CategoryID))
		}
		seen[sc.CategoryID] = true

		if sc.Plan == (models.CategoryTier{}) {
			sc.Plan, _ = category.DefaultTier()
		} else if !category.HasTier(sc.Plan) {
			return nil, models.NewValidationError("categories", fmt.Sprintf("plan is not offered for category %s", sc.CategoryID))
		}
		out = append(out, sc)
	}

	return out, nil
}

// reprice overwrites the derived totals from the current selection
func (w *Workflow) reprice() {
	q, err := pricing.Compute(w.catalog, w.draft.Categories, w.draft.Duration)
	if err != nil {
		// Selection and duration are validated before they reach the draft
		q = pricing.Quote{Duration: w.draft.Duration}
	}
	w.quote = q
	w.draft.TotalQuestions = q.TotalQuestions
	w.draft.TotalCredits = q.TotalCredits
}

func (w *Workflow) touch() {
	w.draft.UpdatedAt = w.now().UTC()
}

func (w *Workflow) freshDraft(ownerID string) *models.InterviewDraft {
	now := w.now().UTC()
	return &models.InterviewDraft{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Level:      models.LevelMiddle,
		Language:   "en",
		Duration:   w.catalog.DefaultDuration().Minutes,
		Categories: []models.SelectedCategory{},
		Status:     models.DraftSetup,
		Step:       models.DraftSetup.Step(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

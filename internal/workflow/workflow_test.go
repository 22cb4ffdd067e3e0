package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/models"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func newWorkflow(t *testing.T, duration int) *Workflow {
	t.Helper()
	w := New(catalog.Default(), "owner-1", WithClock(fixedClock()))
	require.NoError(t, w.UpdateFields(models.DraftPatch{Duration: &duration}))
	return w
}

func TestNewDraftDefaults(t *testing.T) {
	w := New(catalog.Default(), "owner-1", WithClock(fixedClock()))
	d := w.Draft()

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "owner-1", d.OwnerID)
	assert.Equal(t, models.DraftSetup, d.Status)
	assert.Equal(t, 1, d.Step)
	assert.Equal(t, 15, d.Duration)
	assert.Empty(t, d.Categories)
	assert.Zero(t, d.TotalCredits)
}

func TestToggleCategoryAddsWithFirstTierAndReprices(t *testing.T) {
	w := newWorkflow(t, 30)

	res, err := w.ToggleCategory("iq", nil)
	require.NoError(t, err)
	assert.Equal(t, ToggleAdded, res.Action)

	res, err = w.ToggleCategory("eq", nil)
	require.NoError(t, err)
	assert.Equal(t, ToggleAdded, res.Action)

	d := w.Draft()
	require.Len(t, d.Categories, 2)
	assert.Equal(t, 15, d.Categories[0].Plan.Duration, "default plan is the first tier")
	assert.Equal(t, 20, d.TotalQuestions)
	assert.Equal(t, 40, d.TotalCredits)
}

func TestToggleCategoryRejectsBeyondCap(t *testing.T) {
	w := newWorkflow(t, 30)

	_, err := w.ToggleCategory("iq", nil)
	require.NoError(t, err)
	_, err = w.ToggleCategory("eq", nil)
	require.NoError(t, err)

	before := w.Draft()

	res, err := w.ToggleCategory("technical", nil)
	require.NoError(t, err)
	assert.Equal(t, ToggleRejected, res.Action)
	require.NotNil(t, res.Warning)
	assert.Equal(t, WarningCategoryLimit, res.Warning.Code)

	after := w.Draft()
	assert.Equal(t, before.Categories, after.Categories)
	assert.Equal(t, before.TotalCredits, after.TotalCredits)
	assert.Len(t, w.Warnings(), 1, "exactly one warning per rejected toggle")
}

func TestToggleCategoryRemovesAndRebinds(t *testing.T) {
	w := newWorkflow(t, 30)
	cat := w.Catalog()

	_, err := w.ToggleCategory("iq", nil)
	require.NoError(t, err)

	iq, _ := cat.Category("iq")
	plan := iq.Tiers[1]
	res, err := w.ToggleCategory("iq", &plan)
	require.NoError(t, err)
	assert.Equal(t, ToggleReplaced, res.Action)
	assert.Equal(t, plan, w.Draft().Categories[0].Plan)

	res, err = w.ToggleCategory("iq", nil)
	require.NoError(t, err)
	assert.Equal(t, ToggleRemoved, res.Action)
	assert.Empty(t, w.Draft().Categories)
	assert.Zero(t, w.Draft().TotalCredits)
}

func TestToggleCategoryValidation(t *testing.T) {
	w := newWorkflow(t, 30)

	_, err := w.ToggleCategory("astrology", nil)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))

	bogus := models.CategoryTier{Duration: 90, QuestionCount: 1}
	_, err = w.ToggleCategory("iq", &bogus)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "plan", verr.Field)
}

func TestShorterDurationKeepsSelectionButStopsCosting(t *testing.T) {
	w := newWorkflow(t, 30)
	_, _ = w.ToggleCategory("iq", nil)
	_, _ = w.ToggleCategory("eq", nil)

	fifteen := 15
	require.NoError(t, w.UpdateFields(models.DraftPatch{Duration: &fifteen}))

	d := w.Draft()
	assert.Len(t, d.Categories, 2, "excess categories stay selected")
	assert.Equal(t, 10, d.TotalQuestions)
	assert.Equal(t, 20, d.TotalCredits)
	assert.Equal(t, []string{"eq"}, w.Quote().Excluded)
}

func TestUpdateFieldsIsAtomic(t *testing.T) {
	w := newWorkflow(t, 30)

	title := "Backend engineer"
	bad := models.Level("principal")
	err := w.UpdateFields(models.DraftPatch{JobTitle: &title, Level: &bad})
	require.Error(t, err)
	assert.Empty(t, w.Draft().JobTitle, "nothing applied when any field is invalid")

	skills := []string{" Go ", "go", "", "SQL"}
	require.NoError(t, w.UpdateFields(models.DraftPatch{JobTitle: &title, RequiredSkills: &skills}))
	assert.Equal(t, "Backend engineer", w.Draft().JobTitle)
	assert.Equal(t, []string{"Go", "SQL"}, w.Draft().RequiredSkills)
}

func TestUpdateFieldsCategoriesFillDefaultPlan(t *testing.T) {
	w := newWorkflow(t, 45)

	sel := []models.SelectedCategory{{CategoryID: "technical"}, {CategoryID: "iq"}}
	require.NoError(t, w.UpdateFields(models.DraftPatch{Categories: &sel}))

	d := w.Draft()
	require.Len(t, d.Categories, 2)
	assert.Equal(t, 15, d.Categories[0].Plan.Duration)
	// 45 minutes: 30 questions over 2 categories
	assert.Equal(t, 30, d.TotalQuestions)
	assert.Equal(t, 15*3+15*2, d.TotalCredits)

	dup := []models.SelectedCategory{{CategoryID: "iq"}, {CategoryID: "iq"}}
	require.Error(t, w.UpdateFields(models.DraftPatch{Categories: &dup}))
}

func TestTransitions(t *testing.T) {
	w := newWorkflow(t, 15)
	_, _ = w.ToggleCategory("iq", nil)

	// Cannot skip ahead
	require.ErrorIs(t, w.MarkCompleted(), models.ErrInvalidTransition)

	require.NoError(t, w.MarkQuestionsReady([]models.GeneratedQuestion{{Text: "q", CategoryID: "iq", Ordinal: 1}}))
	assert.Equal(t, 2, w.Draft().Step)

	// Locked after questions exist
	_, err := w.ToggleCategory("eq", nil)
	require.ErrorIs(t, err, models.ErrDraftLocked)
	title := "x"
	require.ErrorIs(t, w.UpdateFields(models.DraftPatch{JobTitle: &title}), models.ErrDraftLocked)

	require.ErrorIs(t, w.SetCandidates(nil), models.ErrInvalidTransition, "interview not committed yet")
	require.ErrorIs(t, w.MarkCandidatesAdded(nil), models.ErrInvalidTransition)

	require.NoError(t, w.MarkInterviewCommitted("int-1"))
	require.NoError(t, w.SetCandidates([]models.CandidateRef{models.NewTestCandidate("Me", "me@example.com")}))
	require.NoError(t, w.MarkCandidatesAdded([]models.CandidateAssociation{{ID: "a1", InterviewID: "int-1"}}))
	assert.Equal(t, models.DraftCandidatesAdded, w.Draft().Status)

	// Re-applying the current status is a no-op
	require.NoError(t, w.MarkCandidatesAdded([]models.CandidateAssociation{{ID: "a1", InterviewID: "int-1"}}))

	require.NoError(t, w.MarkCompleted())
	assert.Equal(t, models.DraftCompleted, w.Draft().Status)
	assert.Equal(t, 3, w.Draft().Step)

	// No way back
	require.ErrorIs(t, w.MarkQuestionsReady(nil), models.ErrInvalidTransition)
}

func TestResetKeepsIDAndClearsState(t *testing.T) {
	w := newWorkflow(t, 30)
	_, _ = w.ToggleCategory("iq", nil)
	_, _ = w.ToggleCategory("eq", nil)
	_, _ = w.ToggleCategory("technical", nil)
	require.NoError(t, w.MarkQuestionsReady(nil))

	id := w.Draft().ID
	w.Reset()

	d := w.Draft()
	assert.Equal(t, id, d.ID)
	assert.Equal(t, models.DraftSetup, d.Status)
	assert.Empty(t, d.Categories)
	assert.Empty(t, d.Questions)
	assert.Empty(t, w.Warnings())

	_, err := w.ToggleCategory("iq", nil)
	require.NoError(t, err)
}

func TestResumeDropsStaleSelections(t *testing.T) {
	cached := &models.InterviewDraft{
		ID:       "d1",
		OwnerID:  "owner-1",
		Duration: 25,
		Status:   models.DraftSetup,
		Categories: []models.SelectedCategory{
			{CategoryID: "iq"},
			{CategoryID: "retired"},
		},
	}

	w := Resume(catalog.Default(), "owner-1", cached, WithClock(fixedClock()))
	d := w.Draft()

	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, 15, d.Duration)
	require.Len(t, d.Categories, 1)
	assert.Equal(t, 10, d.TotalQuestions)
	assert.Len(t, cached.Categories, 2, "cached draft is not mutated")
}

func TestDraftReturnsCopy(t *testing.T) {
	w := newWorkflow(t, 30)
	_, _ = w.ToggleCategory("iq", nil)

	d := w.Draft()
	d.Categories[0].CategoryID = "eq"

	assert.Equal(t, "iq", w.Draft().Categories[0].CategoryID)
}

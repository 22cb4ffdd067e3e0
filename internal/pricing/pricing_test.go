package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/models"
)

func selection(ids ...string) []models.SelectedCategory {
	out := make([]models.SelectedCategory, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.SelectedCategory{CategoryID: id})
	}
	return out
}

func TestComputeTwoCategoriesAtThirtyMinutes(t *testing.T) {
	cat := catalog.Default()

	// 30 minutes: 20 questions, cap 2; iq and eq cost 2 credits per question
	q, err := Compute(cat, selection("iq", "eq"), 30)
	require.NoError(t, err)

	assert.Equal(t, 10, q.QuestionsPerCategory)
	assert.Equal(t, 20, q.TotalQuestions)
	assert.Equal(t, 40, q.TotalCredits)
	assert.Equal(t, []string{"iq", "eq"}, q.Priced)
	assert.Empty(t, q.Excluded)
}

func TestComputeWithinCapForEveryTier(t *testing.T) {
	cat := catalog.Default()
	all := cat.Categories()

	for _, d := range cat.Durations() {
		for k := 1; k <= d.MaxCategoriesAllowed && k <= len(all); k++ {
			ids := make([]string, 0, k)
			wantCredits := 0
			for _, c := range all[:k] {
				ids = append(ids, c.ID)
				wantCredits += (d.QuestionCount / k) * c.CreditsPerQuestion
			}

			q, err := Compute(cat, selection(ids...), d.Minutes)
			require.NoError(t, err)
			assert.Equal(t, k*(d.QuestionCount/k), q.TotalQuestions, "duration %d, k=%d", d.Minutes, k)
			assert.Equal(t, wantCredits, q.TotalCredits, "duration %d, k=%d", d.Minutes, k)
		}
	}
}

func TestComputeTruncatesBeyondCapInSelectionOrder(t *testing.T) {
	cat := catalog.Default()

	// technical costs 3 per question; it is third in selection order so it is excluded
	q, err := Compute(cat, selection("iq", "eq", "technical"), 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"iq", "eq"}, q.Priced)
	assert.Equal(t, []string{"technical"}, q.Excluded)
	assert.Equal(t, 20, q.TotalQuestions)
	assert.Equal(t, 40, q.TotalCredits)

	// Reordered so technical is retained instead of eq
	q, err = Compute(cat, selection("technical", "iq", "eq"), 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"technical", "iq"}, q.Priced)
	assert.Equal(t, []string{"eq"}, q.Excluded)
	assert.Equal(t, 10*3+10*2, q.TotalCredits)
}

func TestPriceDoesNotReconcileRemainder(t *testing.T) {
	tier := models.DurationTier{Minutes: 45, MaxCategoriesAllowed: 3, QuestionCount: 20}
	cats := []models.TestCategory{
		{ID: "a", CreditsPerQuestion: 1},
		{ID: "b", CreditsPerQuestion: 1},
		{ID: "c", CreditsPerQuestion: 1},
	}

	q := Price(tier, cats)

	assert.Equal(t, 6, q.QuestionsPerCategory)
	assert.Equal(t, 18, q.TotalQuestions, "20/3 floors to 6 per category")
	assert.Equal(t, 18, q.TotalCredits)
}

func TestPriceEmptySelection(t *testing.T) {
	q := Price(models.DurationTier{Minutes: 15, MaxCategoriesAllowed: 1, QuestionCount: 10}, nil)

	assert.Zero(t, q.TotalQuestions)
	assert.Zero(t, q.TotalCredits)
	assert.Empty(t, q.Priced)
}

func TestComputeRejectsUnknownInputs(t *testing.T) {
	cat := catalog.Default()

	_, err := Compute(cat, selection("iq"), 25)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "duration", verr.Field)

	_, err = Compute(cat, selection("astrology"), 30)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "categories", verr.Field)
}

// Package pricing computes question counts and credit costs for an interview configuration.
package pricing

import (
	"fmt"

	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/models"
)

// Quote is the result of pricing a selection at a duration
type Quote struct {
	Duration             int      `json:"duration"`
	TotalQuestions       int      `json:"total_questions"`
	TotalCredits         int      `json:"total_credits"`
	QuestionsPerCategory int      `json:"questions_per_category"`
	Priced               []string `json:"priced"`
	// Excluded lists categories beyond the duration's cap; they stay selected but are not costed
	Excluded []string `json:"excluded,omitempty"`
}

// Price applies the duration tier to categories in selection order.
// Only the first tier.MaxCategoriesAllowed categories are priced. Each gets
// floor(tier.QuestionCount / retained) questions; the remainder is dropped.
func Price(tier models.DurationTier, categories []models.TestCategory) Quote {
	q := Quote{Duration: tier.Minutes}

	retained := categories
	if len(retained) > tier.MaxCategoriesAllowed {
		retained = categories[:tier.MaxCategoriesAllowed]
		for _, c := range categories[tier.MaxCategoriesAllowed:] {
			q.Excluded = append(q.Excluded, c.ID)
		}
	}

	if len(retained) == 0 {
		return q
	}

	q.QuestionsPerCategory = tier.QuestionCount / len(retained)
	for _, c := range retained {
		q.Priced = append(q.Priced, c.ID)
		q.TotalQuestions += q.QuestionsPerCategory
		q.TotalCredits += q.QuestionsPerCategory * c.CreditsPerQuestion
	}

	return q
}

// Compute resolves the selection against the catalog and prices it
func Compute(cat *catalog.Catalog, selected []models.SelectedCategory, duration int) (Quote, error) {
	tier, ok := cat.Duration(duration)
	if !ok {
		return Quote{}, models.NewValidationError("duration", fmt.Sprintf("unsupported duration: %d minutes", duration))
	}

	categories := make([]models.TestCategory, 0, len(selected))
	for _, s := range selected {
		c, ok := cat.Category(s.CategoryID)
		if !ok {
			return Quote{}, models.NewValidationError("categories", fmt.Sprintf("unknown category: %s", s.CategoryID))
		}
		categories = append(categories, c)
	}

	return Price(tier, categories), nil
}

package catalog

import (
	"github.com/terra-clan/interview-engine/internal/models"
)

var defaultDurations = []models.DurationTier{
	{Minutes: 15, Label: "15 minutes", MaxCategoriesAllowed: 1, QuestionCount: 10},
	{Minutes: 30, Label: "30 minutes", MaxCategoriesAllowed: 2, QuestionCount: 20},
	{Minutes: 45, Label: "45 minutes", MaxCategoriesAllowed: 3, QuestionCount: 30},
	{Minutes: 60, Label: "60 minutes", MaxCategoriesAllowed: 4, QuestionCount: 40},
}

var defaultCategories = []struct {
	id, label, description string
	creditsPerQuestion     int
}{
	{"iq", "Cognitive ability", "Logical, numerical and verbal reasoning", 2},
	{"eq", "Emotional intelligence", "Self-awareness, empathy and relationship management", 2},
	{"technical", "Technical skills", "Role-specific knowledge derived from the required skills", 3},
	{"situational", "Situational judgement", "Workplace scenarios with a best course of action", 2},
	{"personality", "Personality fit", "Work style and culture preferences", 1},
}

// Default returns the built-in catalog
func Default() *Catalog {
	categories := make([]models.TestCategory, 0, len(defaultCategories))
	for _, d := range defaultCategories {
		categories = append(categories, models.TestCategory{
			ID:                 d.id,
			Label:              d.label,
			Description:        d.description,
			CreditsPerQuestion: d.creditsPerQuestion,
			Tiers:              tiersFor(d.creditsPerQuestion, defaultDurations),
		})
	}

	c, err := New(categories, defaultDurations)
	if err != nil {
		panic("catalog: built-in catalog is invalid: " + err.Error())
	}
	return c
}

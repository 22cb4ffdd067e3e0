package models

// TestCategory represents a kind of assessment questions can be generated for (e.g. iq, eq, technical)
type TestCategory struct {
	ID                 string         `json:"id" yaml:"id"`
	Label              string         `json:"label" yaml:"label"`
	Description        string         `json:"description,omitempty" yaml:"description"`
	CreditsPerQuestion int            `json:"credits_per_question" yaml:"credits_per_question"`
	Tiers              []CategoryTier `json:"tiers" yaml:"tiers"`
}

// CategoryTier is a per-duration plan a category can be bound to
type CategoryTier struct {
	Duration             int `json:"duration" yaml:"duration"` // minutes
	QuestionCount        int `json:"question_count" yaml:"question_count"`
	MaxCategoriesAllowed int `json:"max_categories_allowed" yaml:"max_categories_allowed"`
	CreditCost           int `json:"credit_cost" yaml:"credit_cost"`
}

// DefaultTier returns the first available tier of the category
func (c *TestCategory) DefaultTier() (CategoryTier, bool) {
	if len(c.Tiers) == 0 {
		return CategoryTier{}, false
	}
	return c.Tiers[0], true
}

// HasTier reports whether plan is one of the category's tiers
func (c *TestCategory) HasTier(plan CategoryTier) bool {
	for _, t := range c.Tiers {
		if t == plan {
			return true
		}
	}
	return false
}

// DurationTier describes how many categories and questions an interview length allows
type DurationTier struct {
	Minutes              int    `json:"minutes" yaml:"minutes"`
	Label                string `json:"label" yaml:"label"`
	MaxCategoriesAllowed int    `json:"max_categories_allowed" yaml:"max_categories_allowed"`
	QuestionCount        int    `json:"question_count" yaml:"question_count"`
}

// SelectedCategory binds a chosen category to one of its plans
type SelectedCategory struct {
	CategoryID string       `json:"category_id"`
	Plan       CategoryTier `json:"plan"`
}

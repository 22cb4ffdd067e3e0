// Package catalog holds the immutable reference data interviews are priced against:
// test categories with their per-duration plans and the duration tiers themselves.
//
// A Catalog is built once (from a YAML file or the built-in default) and passed
// explicitly to the pricing engine and the workflow; there is no package-level instance.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Catalog is safe for concurrent reads; it is never mutated after construction
type Catalog struct {
	categories []models.TestCategory
	durations  []models.DurationTier

	categoryIdx map[string]int
	durationIdx map[int]int
}

// New validates the given data and builds a catalog
func New(categories []models.TestCategory, durations []models.DurationTier) (*Catalog, error) {
	c := &Catalog{
		categories:  append([]models.TestCategory(nil), categories...),
		durations:   append([]models.DurationTier(nil), durations...),
		categoryIdx: make(map[string]int, len(categories)),
		durationIdx: make(map[int]int, len(durations)),
	}

	sort.SliceStable(c.durations, func(i, j int) bool {
		return c.durations[i].Minutes < c.durations[j].Minutes
	})

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadFromFile loads a catalog from a YAML file
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	durations := cf.Durations
	categories := make([]models.TestCategory, 0, len(cf.Categories))
	for _, entry := range cf.Categories {
		cat := models.TestCategory{
			ID:                 entry.ID,
			Label:              entry.Label,
			Description:        entry.Description,
			CreditsPerQuestion: entry.CreditsPerQuestion,
			Tiers:              entry.Tiers,
		}
		// Categories may omit tiers and inherit one per duration tier
		if len(cat.Tiers) == 0 {
			cat.Tiers = tiersFor(cat.CreditsPerQuestion, durations)
		}
		categories = append(categories, cat)
	}

	c, err := New(categories, durations)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	slog.Info("catalog loaded", "file", path, "categories", len(c.categories), "durations", len(c.durations))
	return c, nil
}

// LoadOrDefault loads the file when a path is given, otherwise returns the built-in catalog
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		c := Default()
		slog.Info("using built-in catalog", "categories", len(c.categories), "durations", len(c.durations))
		return c, nil
	}
	return LoadFromFile(path)
}

// Categories returns all categories in catalog order
func (c *Catalog) Categories() []models.TestCategory {
	return append([]models.TestCategory(nil), c.categories...)
}

// Durations returns all duration tiers sorted by length
func (c *Catalog) Durations() []models.DurationTier {
	return append([]models.DurationTier(nil), c.durations...)
}

// Category returns a category by ID
func (c *Catalog) Category(id string) (models.TestCategory, bool) {
	i, ok := c.categoryIdx[id]
	if !ok {
		return models.TestCategory{}, false
	}
	return c.categories[i], true
}

// Duration returns the tier for an interview length in minutes
func (c *Catalog) Duration(minutes int) (models.DurationTier, bool) {
	i, ok := c.durationIdx[minutes]
	if !ok {
		return models.DurationTier{}, false
	}
	return c.durations[i], true
}

// DefaultDuration returns the shortest duration tier
func (c *Catalog) DefaultDuration() models.DurationTier {
	return c.durations[0]
}

func (c *Catalog) validate() error {
	if len(c.durations) == 0 {
		return fmt.Errorf("at least one duration tier is required")
	}
	if len(c.categories) == 0 {
		return fmt.Errorf("at least one test category is required")
	}

	prevMax := 0
	for i, d := range c.durations {
		if d.Minutes <= 0 {
			return fmt.Errorf("duration tier %q: minutes must be positive", d.Label)
		}
		if _, dup := c.durationIdx[d.Minutes]; dup {
			return fmt.Errorf("duplicate duration tier: %d minutes", d.Minutes)
		}
		if d.MaxCategoriesAllowed <= 0 {
			return fmt.Errorf("duration tier %d: max_categories_allowed must be positive", d.Minutes)
		}
		if d.MaxCategoriesAllowed < prevMax {
			return fmt.Errorf("duration tier %d: max_categories_allowed must not decrease with duration", d.Minutes)
		}
		if d.QuestionCount <= 0 {
			return fmt.Errorf("duration tier %d: question_count must be positive", d.Minutes)
		}
		prevMax = d.MaxCategoriesAllowed
		c.durationIdx[d.Minutes] = i
	}

	for i, cat := range c.categories {
		if cat.ID == "" {
			return fmt.Errorf("category at position %d has no id", i)
		}
		if _, dup := c.categoryIdx[cat.ID]; dup {
			return fmt.Errorf("duplicate category: %s", cat.ID)
		}
		if cat.Label == "" {
			return fmt.Errorf("category %s: label is required", cat.ID)
		}
		if cat.CreditsPerQuestion < 0 {
			return fmt.Errorf("category %s: credits_per_question must not be negative", cat.ID)
		}
		if len(cat.Tiers) == 0 {
			return fmt.Errorf("category %s: at least one tier is required", cat.ID)
		}
		for j := 1; j < len(cat.Tiers); j++ {
			prev, cur := cat.Tiers[j-1], cat.Tiers[j]
			if cur.Duration <= prev.Duration {
				return fmt.Errorf("category %s: tiers must increase in duration", cat.ID)
			}
			if cur.QuestionCount < prev.QuestionCount {
				return fmt.Errorf("category %s: tiers must not decrease in question count", cat.ID)
			}
		}
		c.categoryIdx[cat.ID] = i
	}

	return nil
}

// tiersFor derives one plan per duration tier from the per-question cost
func tiersFor(creditsPerQuestion int, durations []models.DurationTier) []models.CategoryTier {
	sorted := append([]models.DurationTier(nil), durations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Minutes < sorted[j].Minutes })

	tiers := make([]models.CategoryTier, 0, len(sorted))
	for _, d := range sorted {
		tiers = append(tiers, models.CategoryTier{
			Duration:             d.Minutes,
			QuestionCount:        d.QuestionCount,
			MaxCategoriesAllowed: d.MaxCategoriesAllowed,
			CreditCost:           d.QuestionCount * creditsPerQuestion,
		})
	}
	return tiers
}

// --- YAML file structs ---

type catalogFile struct {
	Durations  []models.DurationTier `yaml:"durations"`
	Categories []categoryEntry       `yaml:"categories"`
}

type categoryEntry struct {
	ID                 string                `yaml:"id"`
	Label              string                `yaml:"label"`
	Description        string                `yaml:"description"`
	CreditsPerQuestion int                   `yaml:"credits_per_question"`
	Tiers              []models.CategoryTier `yaml:"tiers"`
}

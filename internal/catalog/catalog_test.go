package catalog

import (
	"path/filepath"
	"testing"

	"github.com/terra-clan/interview-engine/internal/models"
)

func TestLoadFromFile(t *testing.T) {
	c, err := LoadFromFile(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	// Durations are sorted regardless of file order
	durations := c.Durations()
	if len(durations) != 2 {
		t.Fatalf("expected 2 durations, got %d", len(durations))
	}
	if durations[0].Minutes != 15 || durations[1].Minutes != 30 {
		t.Errorf("durations not sorted: %+v", durations)
	}
	if c.DefaultDuration().Minutes != 15 {
		t.Errorf("expected default duration 15, got %d", c.DefaultDuration().Minutes)
	}

	iq, ok := c.Category("iq")
	if !ok {
		t.Fatal("iq category not found")
	}
	if len(iq.Tiers) != 2 {
		t.Fatalf("expected iq to inherit 2 tiers, got %d", len(iq.Tiers))
	}
	if iq.Tiers[1] != (models.CategoryTier{Duration: 30, QuestionCount: 20, MaxCategoriesAllowed: 2, CreditCost: 40}) {
		t.Errorf("unexpected derived tier: %+v", iq.Tiers[1])
	}

	eq, ok := c.Category("eq")
	if !ok {
		t.Fatal("eq category not found")
	}
	if eq.Tiers[1].QuestionCount != 15 {
		t.Errorf("expected explicit eq tier to be kept, got %+v", eq.Tiers[1])
	}

	if _, ok := c.Duration(45); ok {
		t.Error("unexpected 45 minute tier")
	}
}

func TestLoadFromFileRejectsDecreasingCap(t *testing.T) {
	_, err := LoadFromFile(filepath.Join("testdata", "decreasing_cap.yaml"))
	if err == nil {
		t.Fatal("expected error for decreasing max_categories_allowed")
	}
}

func TestLoadOrDefault(t *testing.T) {
	c, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if len(c.Categories()) != 5 {
		t.Errorf("expected 5 built-in categories, got %d", len(c.Categories()))
	}

	if _, err := LoadOrDefault(filepath.Join("testdata", "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultCatalogInvariants(t *testing.T) {
	c := Default()

	prevMax := 0
	for _, d := range c.Durations() {
		if d.MaxCategoriesAllowed < prevMax {
			t.Errorf("max categories decreases at %d minutes", d.Minutes)
		}
		prevMax = d.MaxCategoriesAllowed
	}

	for _, cat := range c.Categories() {
		for i := 1; i < len(cat.Tiers); i++ {
			if cat.Tiers[i].Duration <= cat.Tiers[i-1].Duration {
				t.Errorf("%s: tiers not increasing in duration", cat.ID)
			}
			if cat.Tiers[i].QuestionCount < cat.Tiers[i-1].QuestionCount {
				t.Errorf("%s: tiers decreasing in question count", cat.ID)
			}
		}
		def, ok := cat.DefaultTier()
		if !ok || def != cat.Tiers[0] {
			t.Errorf("%s: default tier should be the first tier", cat.ID)
		}
	}

	thirty, ok := c.Duration(30)
	if !ok {
		t.Fatal("30 minute tier missing")
	}
	if thirty.QuestionCount != 20 || thirty.MaxCategoriesAllowed != 2 {
		t.Errorf("unexpected 30 minute tier: %+v", thirty)
	}
}

func TestNewRejectsDuplicateCategory(t *testing.T) {
	durations := []models.DurationTier{{Minutes: 15, Label: "15", MaxCategoriesAllowed: 1, QuestionCount: 10}}
	tiers := tiersFor(1, durations)
	_, err := New([]models.TestCategory{
		{ID: "iq", Label: "IQ", CreditsPerQuestion: 1, Tiers: tiers},
		{ID: "iq", Label: "IQ again", CreditsPerQuestion: 1, Tiers: tiers},
	}, durations)
	if err == nil {
		t.Fatal("expected duplicate category error")
	}
}

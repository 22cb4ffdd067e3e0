// Package orchestrator runs question generation for a draft against the credit ledger.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/workflow"
)

// Ledger is the metered credit balance of an operator
type Ledger interface {
	Balance(ctx context.Context, ownerID string) (int, error)
	// Deduct fails with *models.InsufficientCreditsError if the balance is too low at call time
	Deduct(ctx context.Context, ownerID string, amount int, description string) (int, error)
}

// GenerationRequest is the job context sent for a single category
type GenerationRequest struct {
	JobTitle       string
	JobDescription string
	RequiredSkills []string
	Level          models.Level
	Category       models.TestCategory
	Language       string
	Count          int
	Duration       int
}

// GeneratedItem is a single question returned by a generator
type GeneratedItem struct {
	Text          string `json:"text"`
	ModelAnswer   string `json:"model_answer"`
	SkillMeasured string `json:"skill_measured"`
}

// QuestionGenerator produces questions for one category
type QuestionGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) ([]GeneratedItem, error)
}

// EventType identifies a progress event
type EventType string

const (
	EventCategoryStarted   EventType = "category_started"
	EventCategoryCompleted EventType = "category_completed"
	EventCategoryFailed    EventType = "category_failed"
	EventCompleted         EventType = "completed"
)

// ProgressEvent is emitted while a run is in flight
type ProgressEvent struct {
	Type       EventType `json:"type"`
	CategoryID string    `json:"category_id,omitempty"`
	Index      int       `json:"index"` // 1-based position of the category in the run
	Total      int       `json:"total"`
	Questions  int       `json:"questions"`
	Message    string    `json:"message,omitempty"`
}

// ProgressFunc receives progress events; it must not block
type ProgressFunc func(ProgressEvent)

// Result describes a successful run
type Result struct {
	Questions        []models.GeneratedQuestion `json:"questions"`
	CreditsDeducted  int                        `json:"credits_deducted"`
	RemainingBalance int                        `json:"remaining_balance"`
}

// Orchestrator generates questions category by category
type Orchestrator struct {
	ledger    Ledger
	generator QuestionGenerator
}

// New creates an orchestrator
func New(ledger Ledger, generator QuestionGenerator) *Orchestrator {
	return &Orchestrator{
		ledger:    ledger,
		generator: generator,
	}
}

// Run checks preconditions, deducts the draft's total cost and generates questions for
// every priced category in selection order. On success the workflow moves to
// questions_ready. Credits are not refunded when generation fails, and calling Run twice
// charges twice.
func (o *Orchestrator) Run(ctx context.Context, wf *workflow.Workflow, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	draft := wf.Draft()
	quote := wf.Quote()

	if draft.Status != models.DraftSetup {
		return nil, fmt.Errorf("%w: questions were already generated", models.ErrInvalidTransition)
	}
	if strings.TrimSpace(draft.JobTitle) == "" {
		return nil, models.NewValidationError("job_title", "job title is required")
	}
	if len(quote.Priced) == 0 {
		return nil, models.NewValidationError("categories", "select at least one test category")
	}

	balance, err := o.ledger.Balance(ctx, draft.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check credit balance: %w", err)
	}
	if balance < draft.TotalCredits {
		return nil, &models.InsufficientCreditsError{Required: draft.TotalCredits, Available: balance}
	}

	description := fmt.Sprintf("Question generation: %s (%d questions)", draft.JobTitle, draft.TotalQuestions)
	remaining, err := o.ledger.Deduct(ctx, draft.OwnerID, draft.TotalCredits, description)
	if err != nil {
		var insufficient *models.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to deduct credits: %w", err)
	}

	slog.Info("credits deducted for question generation",
		"draft", draft.ID,
		"owner", draft.OwnerID,
		"credits", draft.TotalCredits,
		"remaining", remaining,
	)

	questions, err := o.generate(ctx, wf, quote.Priced, quote.QuestionsPerCategory, progress)
	if err != nil {
		return nil, err
	}

	if err := wf.MarkQuestionsReady(questions); err != nil {
		return nil, err
	}

	progress(ProgressEvent{Type: EventCompleted, Total: len(quote.Priced), Questions: len(questions)})
	slog.Info("question generation completed", "draft", draft.ID, "questions", len(questions))

	return &Result{
		Questions:        questions,
		CreditsDeducted:  draft.TotalCredits,
		RemainingBalance: remaining,
	}, nil
}

func (o *Orchestrator) generate(
	ctx context.Context,
	wf *workflow.Workflow,
	categoryIDs []string,
	perCategory int,
	progress ProgressFunc,
) ([]models.GeneratedQuestion, error) {
	draft := wf.Draft()
	total := len(categoryIDs)

	budget := 0
	if draft.TotalQuestions > 0 {
		budget = draft.Duration * 60 / draft.TotalQuestions
	}

	questions := make([]models.GeneratedQuestion, 0, draft.TotalQuestions)

	for i, id := range categoryIDs {
		category, ok := wf.Catalog().Category(id)
		if !ok {
			return nil, &models.CategoryGenerationError{CategoryID: id, Err: models.ErrNotFound}
		}

		progress(ProgressEvent{Type: EventCategoryStarted, CategoryID: id, Index: i + 1, Total: total})

		items, err := o.generator.Generate(ctx, GenerationRequest{
			JobTitle:       draft.JobTitle,
			JobDescription: draft.JobDescription,
			RequiredSkills: draft.RequiredSkills,
			Level:          draft.Level,
			Category:       category,
			Language:       draft.Language,
			Count:          perCategory,
			Duration:       draft.Duration,
		})
		if err == nil && len(items) == 0 {
			err = errors.New("no questions returned")
		}
		if err != nil {
			slog.Error("question generation failed", "error", err, "draft", draft.ID, "category", id)
			progress(ProgressEvent{Type: EventCategoryFailed, CategoryID: id, Index: i + 1, Total: total, Message: err.Error()})
			return nil, &models.CategoryGenerationError{CategoryID: id, Err: err}
		}

		if len(items) > perCategory {
			items = items[:perCategory]
		}

		for _, item := range items {
			questions = append(questions, models.GeneratedQuestion{
				Text:              strings.TrimSpace(item.Text),
				CategoryID:        id,
				ModelAnswer:       strings.TrimSpace(item.ModelAnswer),
				SkillMeasured:     strings.TrimSpace(item.SkillMeasured),
				TimeBudgetSeconds: budget,
				Ordinal:           len(questions) + 1,
				AIGenerated:       true,
			})
		}

		progress(ProgressEvent{Type: EventCategoryCompleted, CategoryID: id, Index: i + 1, Total: total, Questions: len(items)})
	}

	return questions, nil
}

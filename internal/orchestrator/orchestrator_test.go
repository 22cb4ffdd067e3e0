package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/workflow"
)

type fakeLedger struct {
	balance      int
	balanceCalls int
	deductCalls  int
}

func (l *fakeLedger) Balance(ctx context.Context, ownerID string) (int, error) {
	l.balanceCalls++
	return l.balance, nil
}

func (l *fakeLedger) Deduct(ctx context.Context, ownerID string, amount int, description string) (int, error) {
	l.deductCalls++
	if amount > l.balance {
		return 0, &models.InsufficientCreditsError{Required: amount, Available: l.balance}
	}
	l.balance -= amount
	return l.balance, nil
}

type fakeGenerator struct {
	calls    []GenerationRequest
	failOn   string
	emptyOn  string
	extraOut int
}

func (g *fakeGenerator) Generate(ctx context.Context, req GenerationRequest) ([]GeneratedItem, error) {
	g.calls = append(g.calls, req)
	if req.Category.ID == g.failOn {
		return nil, errors.New("model unavailable")
	}
	if req.Category.ID == g.emptyOn {
		return nil, nil
	}
	items := make([]GeneratedItem, 0, req.Count+g.extraOut)
	for i := 0; i < req.Count+g.extraOut; i++ {
		items = append(items, GeneratedItem{
			Text:          fmt.Sprintf("%s-%d", req.Category.ID, i),
			ModelAnswer:   "answer",
			SkillMeasured: "skill",
		})
	}
	return items, nil
}

func readyWorkflow(t *testing.T, duration int, categories ...string) *workflow.Workflow {
	t.Helper()
	wf := workflow.New(catalog.Default(), "owner-1")
	title := "Backend engineer"
	require.NoError(t, wf.UpdateFields(models.DraftPatch{JobTitle: &title, Duration: &duration}))
	for _, id := range categories {
		_, err := wf.ToggleCategory(id, nil)
		require.NoError(t, err)
	}
	return wf
}

func TestRunInsufficientBalanceMakesNoCalls(t *testing.T) {
	wf := readyWorkflow(t, 30, "iq", "eq") // 40 credits
	ledger := &fakeLedger{balance: 39}
	gen := &fakeGenerator{}

	_, err := New(ledger, gen).Run(context.Background(), wf, nil)

	var insufficient *models.InsufficientCreditsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 40, insufficient.Required)
	assert.Equal(t, 39, insufficient.Available)
	assert.Equal(t, 39, ledger.balance)
	assert.Zero(t, ledger.deductCalls)
	assert.Empty(t, gen.calls)
	assert.Equal(t, models.DraftSetup, wf.Draft().Status)
}

func TestRunValidationMakesNoCalls(t *testing.T) {
	ledger := &fakeLedger{balance: 1000}
	gen := &fakeGenerator{}
	o := New(ledger, gen)

	noCategories := readyWorkflow(t, 30)
	_, err := o.Run(context.Background(), noCategories, nil)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "categories", verr.Field)

	noTitle := workflow.New(catalog.Default(), "owner-1")
	_, _ = noTitle.ToggleCategory("iq", nil)
	_, err = o.Run(context.Background(), noTitle, nil)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "job_title", verr.Field)

	assert.Zero(t, ledger.balanceCalls)
	assert.Zero(t, ledger.deductCalls)
	assert.Empty(t, gen.calls)
}

func TestRunDeductsExactlyOnceEvenWhenGenerationFails(t *testing.T) {
	wf := readyWorkflow(t, 30, "iq", "eq")
	ledger := &fakeLedger{balance: 100}
	gen := &fakeGenerator{failOn: "eq"}

	var events []ProgressEvent
	_, err := New(ledger, gen).Run(context.Background(), wf, func(e ProgressEvent) {
		events = append(events, e)
	})

	var genErr *models.CategoryGenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "eq", genErr.CategoryID)

	assert.Equal(t, 60, ledger.balance, "balance drops by exactly totalCredits with no refund")
	assert.Equal(t, 1, ledger.deductCalls)

	d := wf.Draft()
	assert.Equal(t, models.DraftSetup, d.Status, "step does not advance")
	assert.Empty(t, d.Questions, "earlier categories are discarded")

	require.NotEmpty(t, events)
	assert.Equal(t, EventCategoryFailed, events[len(events)-1].Type)
}

func TestRunEmptyResultIsCategoryFailure(t *testing.T) {
	wf := readyWorkflow(t, 15, "technical")
	gen := &fakeGenerator{emptyOn: "technical"}

	_, err := New(&fakeLedger{balance: 100}, gen).Run(context.Background(), wf, nil)

	var genErr *models.CategoryGenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "technical", genErr.CategoryID)
}

func TestRunAssignsGlobalOrdinalsInSelectionOrder(t *testing.T) {
	wf := readyWorkflow(t, 30, "eq", "iq")
	ledger := &fakeLedger{balance: 100}
	gen := &fakeGenerator{extraOut: 2}

	res, err := New(ledger, gen).Run(context.Background(), wf, nil)
	require.NoError(t, err)

	require.Len(t, gen.calls, 2)
	assert.Equal(t, "eq", gen.calls[0].Category.ID)
	assert.Equal(t, "iq", gen.calls[1].Category.ID)
	assert.Equal(t, 10, gen.calls[0].Count)
	assert.Equal(t, "Backend engineer", gen.calls[0].JobTitle)

	require.Len(t, res.Questions, 20, "extra items beyond the requested count are dropped")
	for i, q := range res.Questions {
		assert.Equal(t, i+1, q.Ordinal)
		assert.True(t, q.AIGenerated)
		assert.Equal(t, 90, q.TimeBudgetSeconds) // 30*60/20
	}
	assert.Equal(t, "eq", res.Questions[0].CategoryID)
	assert.Equal(t, "eq-0", res.Questions[0].Text)
	assert.Equal(t, "eq-9", res.Questions[9].Text)
	assert.Equal(t, "iq-0", res.Questions[10].Text)

	assert.Equal(t, 40, res.CreditsDeducted)
	assert.Equal(t, 60, res.RemainingBalance)
	assert.Equal(t, models.DraftQuestionsReady, wf.Draft().Status)
	assert.Len(t, wf.Draft().Questions, 20)
}

func TestRunSkipsCategoriesBeyondCap(t *testing.T) {
	wf := readyWorkflow(t, 30, "iq", "eq")
	fifteen := 15
	require.NoError(t, wf.UpdateFields(models.DraftPatch{Duration: &fifteen}))

	gen := &fakeGenerator{}
	res, err := New(&fakeLedger{balance: 100}, gen).Run(context.Background(), wf, nil)
	require.NoError(t, err)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "iq", gen.calls[0].Category.ID)
	assert.Len(t, res.Questions, 10)
}

func TestRunTwiceIsRejected(t *testing.T) {
	wf := readyWorkflow(t, 15, "iq")
	ledger := &fakeLedger{balance: 100}
	o := New(ledger, &fakeGenerator{})

	_, err := o.Run(context.Background(), wf, nil)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), wf, nil)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, 1, ledger.deductCalls)
}

func TestRunProgressEvents(t *testing.T) {
	wf := readyWorkflow(t, 30, "iq", "eq")

	var types []EventType
	_, err := New(&fakeLedger{balance: 100}, &fakeGenerator{}).Run(context.Background(), wf, func(e ProgressEvent) {
		types = append(types, e.Type)
	})
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventCategoryStarted, EventCategoryCompleted,
		EventCategoryStarted, EventCategoryCompleted,
		EventCompleted,
	}, types)
}

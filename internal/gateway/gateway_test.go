package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/storage"
	"github.com/terra-clan/interview-engine/internal/workflow"
)

type failingStore struct {
	*storage.MemoryRepository
	failInterview    bool
	failAssociations bool
}

func (s *failingStore) CreateInterview(ctx context.Context, iv *models.Interview, q []models.GeneratedQuestion) ([]models.GeneratedQuestion, error) {
	if s.failInterview {
		return nil, errors.New("connection reset")
	}
	return s.MemoryRepository.CreateInterview(ctx, iv, q)
}

func (s *failingStore) CreateAssociations(ctx context.Context, a []*models.CandidateAssociation) error {
	if s.failAssociations {
		return errors.New("connection reset")
	}
	return s.MemoryRepository.CreateAssociations(ctx, a)
}

func generatedWorkflow(t *testing.T) *workflow.Workflow {
	t.Helper()
	wf := workflow.New(catalog.Default(), "owner-1")
	title := "Data engineer"
	require.NoError(t, wf.UpdateFields(models.DraftPatch{JobTitle: &title}))
	_, err := wf.ToggleCategory("iq", nil)
	require.NoError(t, err)
	require.NoError(t, wf.MarkQuestionsReady([]models.GeneratedQuestion{
		{Text: "q1", CategoryID: "iq", Ordinal: 1, AIGenerated: true},
		{Text: "q2", CategoryID: "iq", Ordinal: 2, AIGenerated: true},
	}))
	return wf
}

func TestCommitInterview(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	wf := generatedWorkflow(t)

	iv, err := New(repo).CommitInterview(ctx, wf)
	require.NoError(t, err)

	assert.Equal(t, iv.ID, wf.Draft().InterviewID)
	assert.Equal(t, models.DraftQuestionsReady, wf.Draft().Status)
	assert.Equal(t, 2, wf.Draft().Step)

	stored, err := repo.GetInterview(ctx, iv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Data engineer", stored.JobTitle)
	assert.Equal(t, 2, stored.TotalQuestions)

	questions, err := repo.ListQuestions(ctx, iv.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "q1", questions[0].Text)
}

func TestCommitInterviewFailureKeepsDraft(t *testing.T) {
	store := &failingStore{MemoryRepository: storage.NewMemoryRepository(), failInterview: true}
	wf := generatedWorkflow(t)

	_, err := New(store).CommitInterview(context.Background(), wf)

	var perr *models.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Empty(t, wf.Draft().InterviewID)
	assert.Len(t, wf.Draft().Questions, 2, "questions stay in memory for retry")

	store.failInterview = false
	_, err = New(store).CommitInterview(context.Background(), wf)
	require.NoError(t, err)
}

func TestCommitInterviewRequiresQuestions(t *testing.T) {
	wf := workflow.New(catalog.Default(), "owner-1")
	_, err := New(storage.NewMemoryRepository()).CommitInterview(context.Background(), wf)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCommitCandidatesStoresTestCandidateWithoutID(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	g := New(repo)
	wf := generatedWorkflow(t)

	iv, err := g.CommitInterview(ctx, wf)
	require.NoError(t, err)

	require.NoError(t, wf.SetCandidates([]models.CandidateRef{
		{Kind: models.CandidateFromPool, ID: "cand-1", Name: "Ada", Email: "ada@example.com"},
		models.NewTestCandidate("Operator", "op@example.com"),
	}))

	assocs, err := g.CommitCandidates(ctx, wf)
	require.NoError(t, err)
	require.Len(t, assocs, 2)

	assert.Equal(t, "cand-1", assocs[0].CandidateID)
	assert.Empty(t, assocs[1].CandidateID)
	assert.Equal(t, "op@example.com", assocs[1].Email)
	assert.Equal(t, models.AssociationPending, assocs[1].Status)

	d := wf.Draft()
	assert.Equal(t, models.DraftCandidatesAdded, d.Status)
	assert.Equal(t, 3, d.Step)
	assert.Len(t, d.Associations, 2)

	stored, err := repo.ListAssociations(ctx, iv.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	updated, err := repo.GetInterview(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftCandidatesAdded, updated.Status)
}

func TestCommitCandidatesFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryRepository: storage.NewMemoryRepository()}
	g := New(store)
	wf := generatedWorkflow(t)

	_, err := g.CommitInterview(ctx, wf)
	require.NoError(t, err)
	require.NoError(t, wf.SetCandidates([]models.CandidateRef{models.NewTestCandidate("Op", "op@example.com")}))

	store.failAssociations = true
	_, err = g.CommitCandidates(ctx, wf)

	var perr *models.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.DraftQuestionsReady, wf.Draft().Status)
	assert.Len(t, wf.Draft().Candidates, 1)
}

func TestCommitCandidatesRequiresSelection(t *testing.T) {
	ctx := context.Background()
	g := New(storage.NewMemoryRepository())
	wf := generatedWorkflow(t)

	_, err := g.CommitCandidates(ctx, wf)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = g.CommitInterview(ctx, wf)
	require.NoError(t, err)

	_, err = g.CommitCandidates(ctx, wf)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
}

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-engine/internal/models"
)

func TestMigrationNamesAreOrdered(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_initial.sql", names[0])
	assert.IsNonDecreasing(t, names)
}

func TestLedgerDeductAndGrant(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(NewMemoryRepository())

	balance, err := ledger.Grant(ctx, "owner-1", 100, "seed")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	remaining, err := ledger.Deduct(ctx, "owner-1", 40, "generation")
	require.NoError(t, err)
	assert.Equal(t, 60, remaining)

	_, err = ledger.Deduct(ctx, "owner-1", 61, "generation")
	var insufficient *models.InsufficientCreditsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 60, insufficient.Available)

	summary, err := ledger.Summary(ctx, "owner-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 60, summary.Balance)
	require.Len(t, summary.Recent, 2)
	assert.Equal(t, models.CreditDeduct, summary.Recent[0].Kind, "newest first")
	assert.Equal(t, -40, summary.Recent[0].Amount)
	assert.Equal(t, 60, summary.Recent[0].BalanceAfter)

	_, err = ledger.Grant(ctx, "owner-1", 0, "nothing")
	require.Error(t, err)
}

func TestMemoryRepositoryExpireSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sessions := []*models.InterviewSession{
		{ID: "s1", InterviewID: "i1", Token: "t1", Status: models.SessionPending, ExpiresAt: now.Add(-time.Minute)},
		{ID: "s2", InterviewID: "i1", Token: "t2", Status: models.SessionStarted, ExpiresAt: now},
		{ID: "s3", InterviewID: "i1", Token: "t3", Status: models.SessionPending, ExpiresAt: now.Add(time.Hour)},
		{ID: "s4", InterviewID: "i1", Token: "t4", Status: models.SessionCompleted, ExpiresAt: now.Add(-time.Hour)},
	}
	for _, s := range sessions {
		require.NoError(t, repo.CreateSession(ctx, s))
	}

	expired, err := repo.ExpireSessions(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "s1", expired[0].ID)
	assert.Equal(t, "s2", expired[1].ID)

	s4, err := repo.GetSessionByToken(ctx, "t4")
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, s4.Status)

	missing, err := repo.GetSessionByToken(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryRepositoryAssociationsRequireInterview(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	err := repo.CreateAssociations(ctx, []*models.CandidateAssociation{{ID: "a1", InterviewID: "missing"}})
	require.Error(t, err)

	_, err = repo.CreateInterview(ctx, &models.Interview{ID: "i1"}, []models.GeneratedQuestion{{Text: "q", Ordinal: 1}})
	require.NoError(t, err)

	require.NoError(t, repo.CreateAssociations(ctx, []*models.CandidateAssociation{
		{ID: "a1", InterviewID: "i1", Email: "a@example.com"},
		{ID: "a2", InterviewID: "i1", Email: "b@example.com"},
	}))

	assocs, err := repo.ListAssociations(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, assocs, 2)
	assert.Equal(t, "a1", assocs[0].ID)

	questions, err := repo.ListQuestions(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.NotEmpty(t, questions[0].ID)
}

package sessions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/gateway"
	"github.com/terra-clan/interview-engine/internal/mailer"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/storage"
	"github.com/terra-clan/interview-engine/internal/workflow"
)

type fakeSender struct {
	sent   []mailer.Invitation
	failTo string
}

func (s *fakeSender) Send(ctx context.Context, inv mailer.Invitation) error {
	if inv.RecipientEmail == s.failTo {
		return errors.New("mailbox unavailable")
	}
	s.sent = append(s.sent, inv)
	return nil
}

type flakyStore struct {
	*storage.MemoryRepository
	failFor string
}

func (s *flakyStore) CreateSession(ctx context.Context, sess *models.InterviewSession) error {
	if s.failFor != "" && sess.AssociationID == s.failFor {
		return errors.New("unique violation")
	}
	return s.MemoryRepository.CreateSession(ctx, sess)
}

// committedWorkflow drives a draft through generation and both commits
func committedWorkflow(t *testing.T, repo *storage.MemoryRepository, refs ...models.CandidateRef) *workflow.Workflow {
	t.Helper()
	ctx := context.Background()

	wf := workflow.New(catalog.Default(), "owner-1")
	title := "QA engineer"
	require.NoError(t, wf.UpdateFields(models.DraftPatch{JobTitle: &title}))
	_, err := wf.ToggleCategory("iq", nil)
	require.NoError(t, err)
	require.NoError(t, wf.MarkQuestionsReady([]models.GeneratedQuestion{{Text: "q", CategoryID: "iq", Ordinal: 1}}))

	g := gateway.New(repo)
	_, err = g.CommitInterview(ctx, wf)
	require.NoError(t, err)
	require.NoError(t, wf.SetCandidates(refs))
	_, err = g.CommitCandidates(ctx, wf)
	require.NoError(t, err)

	return wf
}

func threeCandidates() []models.CandidateRef {
	return []models.CandidateRef{
		{Kind: models.CandidateFromPool, ID: "c1", Name: "Ada", Email: "ada@example.com"},
		{Kind: models.CandidateFromPool, ID: "c2", Name: "Grace", Email: "grace@example.com"},
		models.NewTestCandidate("Operator", "op@example.com"),
	}
}

func TestIssueEmailFailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	wf := committedWorkflow(t, repo, threeCandidates()...)
	sender := &fakeSender{failTo: "grace@example.com"}

	report, err := NewIssuer(repo, sender, "https://app.example.com/").Issue(ctx, wf)
	require.NoError(t, err)

	assert.Len(t, report.Issued, 3)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 1, report.EmailFailures)
	assert.Len(t, sender.sent, 2)

	sessions, err := repo.ListSessions(ctx, wf.Draft().InterviewID)
	require.NoError(t, err)
	require.Len(t, sessions, 3, "every candidate has a session even when email failed")

	tokens := map[string]bool{}
	for _, s := range sessions {
		assert.Len(t, s.Token, 64)
		assert.Equal(t, models.SessionPending, s.Status)
		assert.Equal(t, s.CreatedAt.Add(7*24*time.Hour), s.ExpiresAt)
		assert.True(t, s.IsUsable(s.CreatedAt))
		tokens[s.Token] = true
	}
	assert.Len(t, tokens, 3, "tokens are unique")

	d := wf.Draft()
	assert.Equal(t, models.DraftCompleted, d.Status)
	for _, a := range d.Associations {
		assert.Equal(t, models.AssociationScheduled, a.Status)
	}

	for _, issued := range report.Issued {
		assert.True(t, strings.HasPrefix(issued.InterviewURL, "https://app.example.com/interview/"))
	}

	iv, err := repo.GetInterview(ctx, d.InterviewID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftCompleted, iv.Status)
}

func TestIssueSkipsCandidateWhoseSessionFails(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	wf := committedWorkflow(t, repo, threeCandidates()...)

	failing := wf.Draft().Associations[1]
	store := &flakyStore{MemoryRepository: repo, failFor: failing.ID}

	report, err := NewIssuer(store, &fakeSender{}, "https://app.example.com").Issue(ctx, wf)
	require.NoError(t, err)

	assert.Len(t, report.Issued, 2)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, failing.ID, report.Errors[0].AssociationID)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "grace@example.com", report.Failed[0].Email)

	assert.Equal(t, models.DraftCompleted, wf.Draft().Status)
	assert.Equal(t, models.AssociationPending, wf.Draft().Associations[1].Status)
}

func TestIssueRequiresCandidates(t *testing.T) {
	wf := workflow.New(catalog.Default(), "owner-1")
	_, err := NewIssuer(storage.NewMemoryRepository(), &fakeSender{}, "https://x").Issue(context.Background(), wf)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestInterviewURLEscapesToken(t *testing.T) {
	i := NewIssuer(nil, nil, "https://app.example.com/")
	assert.Equal(t, "https://app.example.com/interview/a%20b%2Fc", i.InterviewURL("a b/c"))
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	wf := committedWorkflow(t, repo, threeCandidates()[0])

	_, err := NewIssuer(repo, &fakeSender{}, "https://x").Issue(ctx, wf)
	require.NoError(t, err)

	sessions, err := repo.ListSessions(ctx, wf.Draft().InterviewID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	token := sessions[0].Token

	svc := NewService(repo)

	view, err := svc.View(ctx, token)
	require.NoError(t, err)
	assert.True(t, view.Usable)
	assert.Equal(t, "QA engineer", view.JobTitle)
	assert.Equal(t, "Ada", view.CandidateName)
	assert.Positive(t, view.SecondsRemaining)

	_, err = svc.Complete(ctx, token)
	require.ErrorIs(t, err, models.ErrInvalidTransition, "cannot complete before starting")

	started, err := svc.Start(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStarted, started.Status)
	require.NotNil(t, started.StartedAt)

	again, err := svc.Start(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStarted, again.Status)

	completed, err := svc.Complete(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, completed.Status)

	assoc, err := repo.GetAssociation(ctx, sessions[0].AssociationID)
	require.NoError(t, err)
	assert.Equal(t, models.AssociationCompleted, assoc.Status)

	_, err = svc.Start(ctx, token)
	require.ErrorIs(t, err, models.ErrSessionUnusable)
}

func TestServiceExpiresOverdueSessionOnAccess(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateSession(ctx, &models.InterviewSession{
		ID:        "s1",
		Token:     "tok",
		Status:    models.SessionPending,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(models.SessionTTL),
	}))

	svc := NewService(repo)

	svc.now = func() time.Time { return issuedAt.Add(models.SessionTTL - time.Second) }
	_, err := svc.Validate(ctx, "tok")
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(models.SessionTTL) }
	_, err = svc.Start(ctx, "tok")
	require.ErrorIs(t, err, models.ErrSessionUnusable)

	stored, err := repo.GetSessionByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, models.SessionExpired, stored.Status)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}

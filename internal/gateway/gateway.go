// Package gateway commits a draft's interview and candidate set to durable storage.
//
// Each commit is meant to run at most once per draft. The gateway itself does not
// de-duplicate; the provisioning service checks InterviewID and Associations first.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/workflow"
)

// Store is the subset of storage the gateway writes to
type Store interface {
	CreateInterview(ctx context.Context, iv *models.Interview, questions []models.GeneratedQuestion) ([]models.GeneratedQuestion, error)
	UpdateInterviewStatus(ctx context.Context, id string, status models.DraftStatus) error
	CreateAssociations(ctx context.Context, assocs []*models.CandidateAssociation) error
}

// Gateway writes workflow state to the store
type Gateway struct {
	store Store
	now   func() time.Time
}

// New creates a gateway
func New(store Store) *Gateway {
	return &Gateway{store: store, now: time.Now}
}

// CommitInterview creates the interview record and all question rows in one unit.
// On failure the workflow is left as it was so the operator can retry.
func (g *Gateway) CommitInterview(ctx context.Context, wf *workflow.Workflow) (*models.Interview, error) {
	draft := wf.Draft()

	if draft.Status != models.DraftQuestionsReady {
		return nil, fmt.Errorf("%w: interview can only be committed once questions are ready", models.ErrInvalidTransition)
	}
	if len(draft.Questions) == 0 {
		return nil, models.NewValidationError("questions", "no questions to commit")
	}

	iv := &models.Interview{
		ID:             uuid.New().String(),
		OwnerID:        draft.OwnerID,
		DraftID:        draft.ID,
		JobTitle:       draft.JobTitle,
		JobDescription: draft.JobDescription,
		RequiredSkills: draft.RequiredSkills,
		Level:          draft.Level,
		Language:       draft.Language,
		Duration:       draft.Duration,
		TotalQuestions: len(draft.Questions),
		TotalCredits:   draft.TotalCredits,
		Status:         models.DraftQuestionsReady,
		CreatedAt:      g.now().UTC(),
	}

	if _, err := g.store.CreateInterview(ctx, iv, draft.Questions); err != nil {
		return nil, &models.PersistenceError{Op: "save interview", Err: err}
	}

	if err := wf.MarkInterviewCommitted(iv.ID); err != nil {
		return nil, err
	}

	slog.Info("interview committed", "interview", iv.ID, "draft", draft.ID, "questions", len(draft.Questions))
	return iv, nil
}

// CommitCandidates creates one association per selected candidate and moves the workflow to
// candidates_added. The test candidate is stored without a candidate id.
func (g *Gateway) CommitCandidates(ctx context.Context, wf *workflow.Workflow) ([]models.CandidateAssociation, error) {
	draft := wf.Draft()

	if draft.InterviewID == "" {
		return nil, fmt.Errorf("%w: interview is not committed", models.ErrInvalidTransition)
	}
	if len(draft.Candidates) == 0 {
		return nil, models.NewValidationError("candidates", "select at least one candidate")
	}

	now := g.now().UTC()
	rows := make([]*models.CandidateAssociation, 0, len(draft.Candidates))
	for _, ref := range draft.Candidates {
		a := &models.CandidateAssociation{
			ID:          uuid.New().String(),
			InterviewID: draft.InterviewID,
			Name:        ref.Name,
			Email:       ref.Email,
			ResumeURL:   ref.ResumeURL,
			Status:      models.AssociationPending,
			CreatedAt:   now,
		}
		if !ref.IsTest() {
			a.CandidateID = ref.ID
		}
		rows = append(rows, a)
	}

	if err := g.store.CreateAssociations(ctx, rows); err != nil {
		return nil, &models.PersistenceError{Op: "save candidates", Err: err}
	}

	associations := make([]models.CandidateAssociation, 0, len(rows))
	for _, a := range rows {
		associations = append(associations, *a)
	}

	if err := wf.MarkCandidatesAdded(associations); err != nil {
		return nil, err
	}

	if err := g.store.UpdateInterviewStatus(ctx, draft.InterviewID, models.DraftCandidatesAdded); err != nil {
		slog.Warn("failed to mirror interview status", "error", err, "interview", draft.InterviewID)
	}

	slog.Info("candidates committed", "interview", draft.InterviewID, "count", len(rows))
	return associations, nil
}

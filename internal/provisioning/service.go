// Package provisioning runs the operator's interview provisioning steps against a cached draft.
package provisioning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/interview-engine/internal/candidates"
	"github.com/terra-clan/interview-engine/internal/catalog"
	"github.com/terra-clan/interview-engine/internal/drafts"
	"github.com/terra-clan/interview-engine/internal/gateway"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/orchestrator"
	"github.com/terra-clan/interview-engine/internal/pricing"
	"github.com/terra-clan/interview-engine/internal/sessions"
	"github.com/terra-clan/interview-engine/internal/workflow"
)

// InterviewReader loads committed interviews for ownership checks
type InterviewReader interface {
	GetInterview(ctx context.Context, id string) (*models.Interview, error)
}

// CreditSummary reports an owner's balance
type CreditSummary interface {
	Summary(ctx context.Context, ownerID string, limit int) (*models.CreditBalance, error)
}

// Deps are the collaborators of the service
type Deps struct {
	Catalog      *catalog.Catalog
	Drafts       drafts.Store
	Orchestrator *orchestrator.Orchestrator
	Gateway      *gateway.Gateway
	Candidates   *candidates.Pool
	Issuer       *sessions.Issuer
	Sessions     *sessions.Service
	Interviews   InterviewReader
	Credits      CreditSummary
}

// DraftView is a draft with its current pricing and any warnings from the last change
type DraftView struct {
	Draft    *models.InterviewDraft `json:"draft"`
	Quote    pricing.Quote          `json:"quote"`
	Warnings []workflow.Warning     `json:"warnings,omitempty"`
}

// Service is the single entry point for the HTTP layer
type Service struct {
	deps Deps
}

// NewService creates a provisioning service
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Catalog returns the active catalog
func (s *Service) Catalog() *catalog.Catalog {
	return s.deps.Catalog
}

// Quote prices a selection without touching any draft
func (s *Service) Quote(selected []models.SelectedCategory, duration int) (pricing.Quote, error) {
	return pricing.Compute(s.deps.Catalog, selected, duration)
}

// Credits returns the owner's balance and recent ledger rows
func (s *Service) Credits(ctx context.Context, ownerID string) (*models.CreditBalance, error) {
	return s.deps.Credits.Summary(ctx, ownerID, 20)
}

// CreateDraft starts a new draft for the owner
func (s *Service) CreateDraft(ctx context.Context, ownerID string) (*DraftView, error) {
	wf := workflow.New(s.deps.Catalog, ownerID)
	if err := s.save(ctx, wf); err != nil {
		return nil, err
	}
	return view(wf, nil), nil
}

// GetDraft returns a cached draft
func (s *Service) GetDraft(ctx context.Context, ownerID, id string) (*DraftView, error) {
	wf, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return view(wf, nil), nil
}

// UpdateDraft applies a partial update
func (s *Service) UpdateDraft(ctx context.Context, ownerID, id string, patch models.DraftPatch) (*DraftView, error) {
	wf, err := s.withLockedDraft(ctx, ownerID, id, func(wf *workflow.Workflow) error {
		return wf.UpdateFields(patch)
	})
	if err != nil {
		return nil, err
	}
	return view(wf, nil), nil
}

// ToggleCategory adds, rebinds or removes a category. A rejected add is not an error;
// the view carries the warning.
func (s *Service) ToggleCategory(ctx context.Context, ownerID, id, categoryID string, plan *models.CategoryTier) (*DraftView, workflow.ToggleResult, error) {
	var res workflow.ToggleResult
	wf, err := s.withLockedDraft(ctx, ownerID, id, func(wf *workflow.Workflow) error {
		var err error
		res, err = wf.ToggleCategory(categoryID, plan)
		return err
	})
	if err != nil {
		return nil, res, err
	}

	var warnings []workflow.Warning
	if res.Warning != nil {
		warnings = append(warnings, *res.Warning)
	}
	return view(wf, warnings), res, nil
}

// ResetDraft discards the draft's progress
func (s *Service) ResetDraft(ctx context.Context, ownerID, id string) (*DraftView, error) {
	wf, err := s.withLockedDraft(ctx, ownerID, id, func(wf *workflow.Workflow) error {
		wf.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view(wf, nil), nil
}

// DeleteDraft drops a cached draft. Committed interviews and sessions are not touched.
func (s *Service) DeleteDraft(ctx context.Context, ownerID, id string) error {
	unlock, err := s.deps.Drafts.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.load(ctx, ownerID, id); err != nil {
		return err
	}
	return s.deps.Drafts.Delete(ctx, ownerID, id)
}

// GenerateQuestions deducts credits and generates questions. The draft lock keeps a
// second request from charging again while the first one runs.
func (s *Service) GenerateQuestions(ctx context.Context, ownerID, id string, progress orchestrator.ProgressFunc) (*DraftView, *orchestrator.Result, error) {
	unlock, err := s.deps.Drafts.Lock(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	wf, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.deps.Orchestrator.Run(ctx, wf, progress)
	if err != nil {
		return nil, nil, err
	}

	if err := s.save(ctx, wf); err != nil {
		slog.Error("generated questions could not be cached", "error", err, "draft", id, "questions", len(res.Questions))
		return nil, nil, err
	}

	return view(wf, nil), res, nil
}

// CommitInterview persists the interview and its questions once
func (s *Service) CommitInterview(ctx context.Context, ownerID, id string) (*DraftView, error) {
	wf, err := s.withLockedDraft(ctx, ownerID, id, func(wf *workflow.Workflow) error {
		if wf.Draft().InterviewID != "" {
			return fmt.Errorf("%w: interview %s", models.ErrAlreadyCommitted, wf.Draft().InterviewID)
		}
		_, err := s.deps.Gateway.CommitInterview(ctx, wf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(wf, nil), nil
}

// ListCandidates returns the owner's candidate pool. refresh bypasses the cache.
func (s *Service) ListCandidates(ctx context.Context, ownerID string, refresh bool) ([]models.Candidate, error) {
	if refresh {
		s.deps.Candidates.Invalidate(ownerID)
	}
	return s.deps.Candidates.List(ctx, ownerID)
}

// SelectCandidates replaces the draft's candidate selection
func (s *Service) SelectCandidates(ctx context.Context, ownerID, id string, ids []string, test *candidates.TestCandidate) (*DraftView, error) {
	wf, err := s.withLockedDraft(ctx, ownerID, id, func(wf *workflow.Workflow) error {
		refs, err := s.deps.Candidates.Select(ctx, ownerID, ids, test)
		if err != nil {
			return err
		}
		return wf.SetCandidates(refs)
	})
	if err != nil {
		return nil, err
	}
	return view(wf, nil), nil
}

// EditCandidates applies one change to the draft's current selection
func (s *Service) EditCandidates(ctx context.Context, ownerID, id string, edit candidates.Edit) (*DraftView, error) {
	wf, err := s.withLockedDraft(ctx, ownerID, id, func(wf *workflow.Workflow) error {
		refs, err := s.deps.Candidates.Apply(ctx, ownerID, wf.Draft().Candidates, edit)
		if err != nil {
			return err
		}
		return wf.SetCandidates(refs)
	})
	if err != nil {
		return nil, err
	}
	return view(wf, nil), nil
}

// CommitCandidates persists the selected candidates once
func (s *Service) CommitCandidates(ctx context.Context, ownerID, id string) (*DraftView, error) {
	wf, err := s.withLockedDraft(ctx, ownerID, id, func(wf *workflow.Workflow) error {
		if len(wf.Draft().Associations) > 0 {
			return fmt.Errorf("%w: candidates", models.ErrAlreadyCommitted)
		}
		_, err := s.deps.Gateway.CommitCandidates(ctx, wf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(wf, nil), nil
}

// IssueSessions creates candidate sessions and sends invitations
func (s *Service) IssueSessions(ctx context.Context, ownerID, id string) (*DraftView, *sessions.Report, error) {
	var report *sessions.Report
	wf, err := s.withLockedDraft(ctx, ownerID, id, func(wf *workflow.Workflow) error {
		var err error
		report, err = s.deps.Issuer.Issue(ctx, wf)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return view(wf, nil), report, nil
}

// ListSessions returns the sessions of an interview the owner created
func (s *Service) ListSessions(ctx context.Context, ownerID, interviewID string) ([]*models.InterviewSession, error) {
	iv, err := s.deps.Interviews.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	if iv == nil || iv.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return s.deps.Sessions.List(ctx, interviewID)
}

// withLockedDraft loads, changes and saves a draft under its lock, so no two requests
// work from the same snapshot.
func (s *Service) withLockedDraft(ctx context.Context, ownerID, id string, fn func(*workflow.Workflow) error) (*workflow.Workflow, error) {
	unlock, err := s.deps.Drafts.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	wf, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := fn(wf); err != nil {
		return nil, err
	}

	if err := s.save(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *Service) load(ctx context.Context, ownerID, id string) (*workflow.Workflow, error) {
	cached, err := s.deps.Drafts.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, models.ErrNotFound
	}
	return workflow.Resume(s.deps.Catalog, ownerID, cached), nil
}

func (s *Service) save(ctx context.Context, wf *workflow.Workflow) error {
	return s.deps.Drafts.Save(ctx, wf.Draft())
}

func view(wf *workflow.Workflow, warnings []workflow.Warning) *DraftView {
	return &DraftView{
		Draft:    wf.Draft(),
		Quote:    wf.Quote(),
		Warnings: warnings,
	}
}

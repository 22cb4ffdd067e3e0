package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/interview-engine/internal/candidates"
	"github.com/terra-clan/interview-engine/internal/models"
)

type toggleCategoryRequest struct {
	Plan *models.CategoryTier `json:"plan,omitempty"`
}

type selectCandidatesRequest struct {
	CandidateIDs  []string                  `json:"candidate_ids" validate:"max=500,dive,required"`
	TestCandidate *candidates.TestCandidate `json:"test_candidate,omitempty"`
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.CreateDraft(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "create draft")
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetDraft(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "get draft")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var patch models.DraftPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}
	if patch.IsEmpty() {
		respondError(w, http.StatusBadRequest, "validation_error", "the update must change at least one field")
		return
	}

	view, err := s.service.UpdateDraft(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondServiceError(w, r, err, "update draft")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleToggleCategory(w http.ResponseWriter, r *http.Request) {
	var req toggleCategoryRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	view, result, err := s.service.ToggleCategory(r.Context(), ownerFromContext(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "categoryId"), req.Plan)
	if err != nil {
		respondServiceError(w, r, err, "toggle category")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"action": result.Action,
		"draft":  view,
	})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "id")
	if err := s.service.DeleteDraft(r.Context(), ownerFromContext(r.Context()), draftID); err != nil {
		respondServiceError(w, r, err, "delete draft")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": draftID})
}

func (s *Server) handleResetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.ResetDraft(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "reset draft")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	// Credits are spent before the first category, so a dropped client does not abort the run
	ctx := context.WithoutCancel(r.Context())

	view, result, err := s.service.GenerateQuestions(ctx, ownerFromContext(r.Context()), chi.URLParam(r, "id"), nil)
	if err != nil {
		respondServiceError(w, r, err, "generate questions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"draft":             view,
		"credits_deducted":  result.CreditsDeducted,
		"remaining_balance": result.RemainingBalance,
	})
}

func (s *Server) handleCommitInterview(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.CommitInterview(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "save interview")
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleSelectCandidates(w http.ResponseWriter, r *http.Request) {
	var req selectCandidatesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := s.service.SelectCandidates(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"), req.CandidateIDs, req.TestCandidate)
	if err != nil {
		respondServiceError(w, r, err, "select candidates")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleEditCandidates(w http.ResponseWriter, r *http.Request) {
	var edit candidates.Edit
	if !decodeAndValidate(w, r, &edit) {
		return
	}

	view, err := s.service.EditCandidates(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"), edit)
	if err != nil {
		respondServiceError(w, r, err, "edit candidates")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCommitCandidates(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.CommitCandidates(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "save candidates")
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleIssueSessions(w http.ResponseWriter, r *http.Request) {
	view, report, err := s.service.IssueSessions(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "issue sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"draft":  view,
		"report": report,
	})
}

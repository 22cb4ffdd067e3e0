package api

import (
	"net/http"

	"github.com/terra-clan/interview-engine/internal/models"
)

type quoteRequest struct {
	CategoryIDs []string `json:"category_ids" validate:"max=20,dive,required"`
	Duration    int      `json:"duration" validate:"required,gt=0"`
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.service.Catalog()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cat.Categories(),
		"durations":  cat.Durations(),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	selected := make([]models.SelectedCategory, 0, len(req.CategoryIDs))
	for _, id := range req.CategoryIDs {
		selected = append(selected, models.SelectedCategory{CategoryID: id})
	}

	quote, err := s.service.Quote(selected, req.Duration)
	if err != nil {
		respondServiceError(w, r, err, "compute quote")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

func (s *Server) handleGetCredits(w http.ResponseWriter, r *http.Request) {
	balance, err := s.service.Credits(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "get credits")
		return
	}

	respondJSON(w, http.StatusOK, balance)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"

	pool, err := s.service.ListCandidates(r.Context(), ownerFromContext(r.Context()), refresh)
	if err != nil {
		respondServiceError(w, r, err, "list candidates")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": pool,
		"total":      len(pool),
	})
}

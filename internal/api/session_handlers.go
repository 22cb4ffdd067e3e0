package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/interview-engine/internal/models"
)

// --- Operator handlers (API key auth) ---

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	interviewID := chi.URLParam(r, "id")

	list, err := s.service.ListSessions(r.Context(), ownerFromContext(r.Context()), interviewID)
	if err != nil {
		respondServiceError(w, r, err, "list sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": list,
		"total":    len(list),
	})
}

// --- Public handlers (token auth) ---

// publicSession hides the token and internal ids from the candidate
type publicSession struct {
	Status      models.SessionStatus `json:"status"`
	ExpiresAt   string               `json:"expires_at"`
	StartedAt   string               `json:"started_at,omitempty"`
	CompletedAt string               `json:"completed_at,omitempty"`
}

func toPublicSession(sess *models.InterviewSession) publicSession {
	out := publicSession{
		Status:    sess.Status,
		ExpiresAt: sess.ExpiresAt.UTC().Format(timeLayout),
	}
	if sess.StartedAt != nil {
		out.StartedAt = sess.StartedAt.UTC().Format(timeLayout)
	}
	if sess.CompletedAt != nil {
		out.CompletedAt = sess.CompletedAt.UTC().Format(timeLayout)
	}
	return out
}

func (s *Server) handleGetPublicSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.View(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondServiceError(w, r, err, "get session")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Start(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondServiceError(w, r, err, "start session")
		return
	}

	respondJSON(w, http.StatusOK, toPublicSession(sess))
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Complete(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondServiceError(w, r, err, "complete session")
		return
	}

	respondJSON(w, http.StatusOK, toPublicSession(sess))
}

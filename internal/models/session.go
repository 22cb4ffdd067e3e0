package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SessionTTL is how long a candidate can use an invitation
const SessionTTL = 7 * 24 * time.Hour

// SessionStatus represents the current state of an interview session
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"   // Issued, candidate has not opened it
	SessionStarted   SessionStatus = "started"   // Candidate opened the interview
	SessionCompleted SessionStatus = "completed" // Final answers submitted
	SessionExpired   SessionStatus = "expired"   // TTL elapsed
)

// InterviewSession is the single credential a candidate needs to take an interview
type InterviewSession struct {
	ID            string        `json:"id"`
	InterviewID   string        `json:"interview_id"`
	AssociationID string        `json:"association_id"`
	Token         string        `json:"token"`
	Status        SessionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     time.Time     `json:"expires_at"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// IsTerminal returns true if the session is in a final state
func (s *InterviewSession) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionExpired
}

// IsExpired checks if the session TTL has elapsed at now
func (s *InterviewSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsUsable reports whether the token can still be used to act as the candidate
func (s *InterviewSession) IsUsable(now time.Time) bool {
	if s.Status != SessionPending && s.Status != SessionStarted {
		return false
	}
	return !s.IsExpired(now)
}

// TimeRemaining returns the duration until expiry (0 if expired)
func (s *InterviewSession) TimeRemaining(now time.Time) time.Duration {
	remaining := s.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GenerateSessionToken creates a cryptographically random 64-char hex token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// PublicSessionView is what an anonymous candidate sees when opening the link
type PublicSessionView struct {
	Status           SessionStatus `json:"status"`
	JobTitle         string        `json:"job_title"`
	Duration         int           `json:"duration"`
	Language         string        `json:"language"`
	QuestionCount    int           `json:"question_count"`
	CandidateName    string        `json:"candidate_name"`
	ExpiresAt        time.Time     `json:"expires_at"`
	SecondsRemaining int64         `json:"seconds_remaining"`
	Usable           bool          `json:"usable"`
}

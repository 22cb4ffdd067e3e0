package models

import (
	"strings"
	"time"
)

// Interview is the committed, authoritative record of a provisioned interview
type Interview struct {
	ID             string      `json:"id"`
	OwnerID        string      `json:"owner_id"`
	DraftID        string      `json:"draft_id"`
	JobTitle       string      `json:"job_title"`
	JobDescription string      `json:"job_description"`
	RequiredSkills []string    `json:"required_skills"`
	Level          Level       `json:"level"`
	Language       string      `json:"language"`
	Duration       int         `json:"duration"`
	TotalQuestions int         `json:"total_questions"`
	TotalCredits   int         `json:"total_credits"`
	Status         DraftStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
}

// GeneratedQuestion is produced only by the question orchestrator and never mutated afterwards
type GeneratedQuestion struct {
	ID                string `json:"id,omitempty"`
	Text              string `json:"text"`
	CategoryID        string `json:"category_id"`
	ModelAnswer       string `json:"model_answer"`
	SkillMeasured     string `json:"skill_measured"`
	TimeBudgetSeconds int    `json:"time_budget_seconds"`
	Ordinal           int    `json:"ordinal"`
	AIGenerated       bool   `json:"ai_generated"`
}

// TestCandidateID is the reserved identifier operators use to invite themselves
const TestCandidateID = "test-candidate"

// CandidateKind tags which variant a CandidateRef is
type CandidateKind string

const (
	CandidateFromPool CandidateKind = "pool"
	CandidateTest     CandidateKind = "test"
)

// CandidateRef points at a candidate to invite. Pool refs carry the real candidate id,
// test refs have no backing candidate and only inline name/email.
type CandidateRef struct {
	Kind      CandidateKind `json:"kind"`
	ID        string        `json:"id,omitempty"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	ResumeURL string        `json:"resume_url,omitempty"`
}

// IsTest reports whether the ref is the test-candidate variant
func (c CandidateRef) IsTest() bool {
	return c.Kind == CandidateTest
}

// NewTestCandidate builds the test-candidate variant
func NewTestCandidate(name, email string) CandidateRef {
	return CandidateRef{
		Kind:  CandidateTest,
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
}

// Candidate is a previously discovered candidate in the operator's pool
type Candidate struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ResumeURL    string    `json:"resume_url,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Ref converts the pool candidate into a CandidateRef
func (c *Candidate) Ref() CandidateRef {
	return CandidateRef{
		Kind:      CandidateFromPool,
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		ResumeURL: c.ResumeURL,
	}
}

// AssociationStatus tracks a candidate's progress within an interview
type AssociationStatus string

const (
	AssociationPending   AssociationStatus = "pending"
	AssociationScheduled AssociationStatus = "scheduled"
	AssociationCompleted AssociationStatus = "completed"
	AssociationCancelled AssociationStatus = "cancelled"
)

// CandidateAssociation links a candidate to an interview. CandidateID is empty for the test candidate.
type CandidateAssociation struct {
	ID          string            `json:"id"`
	InterviewID string            `json:"interview_id"`
	CandidateID string            `json:"candidate_id,omitempty"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	ResumeURL   string            `json:"resume_url,omitempty"`
	Status      AssociationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

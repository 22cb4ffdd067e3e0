package models

import (
	"time"
)

// DraftStatus represents the lifecycle position of an interview draft
type DraftStatus string

const (
	DraftSetup           DraftStatus = "setup"
	DraftQuestionsReady  DraftStatus = "questions_ready"
	DraftCandidatesAdded DraftStatus = "candidates_added"
	DraftCompleted       DraftStatus = "completed"
)

// Step returns the UI step pointer that corresponds to the status
func (s DraftStatus) Step() int {
	switch s {
	case DraftQuestionsReady:
		return 2
	case DraftCandidatesAdded, DraftCompleted:
		return 3
	default:
		return 1
	}
}

// Next returns the status that follows s, or false if s is terminal
func (s DraftStatus) Next() (DraftStatus, bool) {
	switch s {
	case DraftSetup:
		return DraftQuestionsReady, true
	case DraftQuestionsReady:
		return DraftCandidatesAdded, true
	case DraftCandidatesAdded:
		return DraftCompleted, true
	default:
		return "", false
	}
}

// Level is the seniority the interview targets
type Level string

const (
	LevelJunior Level = "junior"
	LevelMiddle Level = "middle"
	LevelSenior Level = "senior"
)

// InterviewDraft is the in-progress interview owned by an operator until committed.
// TotalQuestions and TotalCredits are derived and only written by the workflow.
type InterviewDraft struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"owner_id"`
	JobTitle       string             `json:"job_title"`
	JobDescription string             `json:"job_description"`
	RequiredSkills []string           `json:"required_skills"`
	Level          Level              `json:"level"`
	Language       string             `json:"language"`
	Duration       int                `json:"duration"` // minutes
	Categories     []SelectedCategory `json:"categories"`
	TotalQuestions int                `json:"total_questions"`
	TotalCredits   int                `json:"total_credits"`
	Status         DraftStatus        `json:"status"`
	Step           int                `json:"step"`

	Questions    []GeneratedQuestion    `json:"questions,omitempty"`
	Candidates   []CandidateRef         `json:"candidates,omitempty"`
	InterviewID  string                 `json:"interview_id,omitempty"`
	Associations []CandidateAssociation `json:"associations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCategory reports whether the category is currently selected
func (d *InterviewDraft) HasCategory(id string) bool {
	return d.CategoryIndex(id) >= 0
}

// CategoryIndex returns the selection position of the category or -1
func (d *InterviewDraft) CategoryIndex(id string) int {
	for i, c := range d.Categories {
		if c.CategoryID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so cached mirrors never alias the live draft
func (d *InterviewDraft) Clone() *InterviewDraft {
	if d == nil {
		return nil
	}
	c := *d
	c.RequiredSkills = append([]string(nil), d.RequiredSkills...)
	c.Categories = append([]SelectedCategory(nil), d.Categories...)
	c.Questions = append([]GeneratedQuestion(nil), d.Questions...)
	c.Candidates = append([]CandidateRef(nil), d.Candidates...)
	c.Associations = append([]CandidateAssociation(nil), d.Associations...)
	return &c
}

// DraftPatch carries a partial update; nil fields are left untouched
type DraftPatch struct {
	JobTitle       *string             `json:"job_title,omitempty" validate:"omitempty,max=200"`
	JobDescription *string             `json:"job_description,omitempty" validate:"omitempty,max=10000"`
	RequiredSkills *[]string           `json:"required_skills,omitempty" validate:"omitempty,max=50,dive,max=100"`
	Level          *Level              `json:"level,omitempty" validate:"omitempty,oneof=junior middle senior"`
	Language       *string             `json:"language,omitempty" validate:"omitempty,max=32"`
	Duration       *int                `json:"duration,omitempty" validate:"omitempty,gt=0"`
	Categories     *[]SelectedCategory `json:"categories,omitempty"`
}

// AffectsPricing reports whether applying the patch requires repricing
func (p DraftPatch) AffectsPricing() bool {
	return p.Duration != nil || p.Categories != nil
}

// IsEmpty reports whether the patch changes nothing
func (p DraftPatch) IsEmpty() bool {
	return p.JobTitle == nil && p.JobDescription == nil && p.RequiredSkills == nil &&
		p.Level == nil && p.Language == nil && p.Duration == nil && p.Categories == nil
}

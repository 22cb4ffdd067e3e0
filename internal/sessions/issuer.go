// Package sessions issues interview sessions to candidates and validates their tokens.
package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/interview-engine/internal/mailer"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/workflow"
)

// IssuerStore is the subset of storage the issuer writes to
type IssuerStore interface {
	CreateSession(ctx context.Context, s *models.InterviewSession) error
	UpdateAssociationStatus(ctx context.Context, id string, status models.AssociationStatus) error
	UpdateInterviewStatus(ctx context.Context, id string, status models.DraftStatus) error
}

// Issued describes one session that was created
type Issued struct {
	AssociationID string    `json:"association_id"`
	SessionID     string    `json:"session_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	InterviewURL  string    `json:"interview_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	EmailSent     bool      `json:"email_sent"`
	EmailError    string    `json:"email_error,omitempty"`
}

// Failure describes a candidate that did not get a session
type Failure struct {
	AssociationID string `json:"association_id"`
	Email         string `json:"email"`
	Error         string `json:"error"`
}

// Report summarizes an issuance run. The run counts as successful even when some
// sessions or emails failed.
type Report struct {
	InterviewID   string    `json:"interview_id"`
	Issued        []Issued  `json:"issued"`
	Failed        []Failure `json:"failed,omitempty"`
	EmailFailures int       `json:"email_failures"`

	Errors []*models.SessionIssuanceError `json:"-"`
}

// Issuer mints sessions for committed candidates
type Issuer struct {
	store    IssuerStore
	sender   mailer.Sender
	origin   string
	now      func() time.Time
	newToken func() (string, error)
}

// NewIssuer creates an issuer. origin is the public base URL candidates open, e.g. https://app.example.com
func NewIssuer(store IssuerStore, sender mailer.Sender, origin string) *Issuer {
	return &Issuer{
		store:    store,
		sender:   sender,
		origin:   strings.TrimRight(origin, "/"),
		now:      time.Now,
		newToken: models.GenerateSessionToken,
	}
}

// InterviewURL builds the candidate link for a token
func (i *Issuer) InterviewURL(token string) string {
	return i.origin + "/interview/" + url.PathEscape(token)
}

// Issue creates one pending session per association, marks each association scheduled
// and sends invitations. A candidate whose session cannot be created is skipped. Email
// failures are logged and reported but never fail the run. The workflow ends completed.
func (i *Issuer) Issue(ctx context.Context, wf *workflow.Workflow) (*Report, error) {
	draft := wf.Draft()

	if draft.Status != models.DraftCandidatesAdded {
		return nil, fmt.Errorf("%w: sessions can only be issued once candidates are added", models.ErrInvalidTransition)
	}

	report := &Report{InterviewID: draft.InterviewID}
	associations := draft.Associations

	for idx := range associations {
		a := &associations[idx]

		issued, err := i.issueOne(ctx, draft, a)
		if err != nil {
			ierr := &models.SessionIssuanceError{AssociationID: a.ID, Email: a.Email, Err: err}
			slog.Error("failed to issue session", "error", err, "interview", draft.InterviewID, "association", a.ID)
			report.Errors = append(report.Errors, ierr)
			report.Failed = append(report.Failed, Failure{AssociationID: a.ID, Email: a.Email, Error: err.Error()})
			continue
		}

		if !issued.EmailSent {
			report.EmailFailures++
		}
		report.Issued = append(report.Issued, *issued)
	}

	wf.UpdateAssociations(associations)
	if err := wf.MarkCompleted(); err != nil {
		return nil, err
	}

	if err := i.store.UpdateInterviewStatus(ctx, draft.InterviewID, models.DraftCompleted); err != nil {
		slog.Warn("failed to mirror interview status", "error", err, "interview", draft.InterviewID)
	}

	slog.Info("sessions issued",
		"interview", draft.InterviewID,
		"issued", len(report.Issued),
		"failed", len(report.Failed),
		"email_failures", report.EmailFailures,
	)

	return report, nil
}

func (i *Issuer) issueOne(ctx context.Context, draft *models.InterviewDraft, a *models.CandidateAssociation) (*Issued, error) {
	token, err := i.newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := i.now().UTC()
	session := &models.InterviewSession{
		ID:            uuid.New().String(),
		InterviewID:   draft.InterviewID,
		AssociationID: a.ID,
		Token:         token,
		Status:        models.SessionPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(models.SessionTTL),
	}

	if err := i.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	if err := i.store.UpdateAssociationStatus(ctx, a.ID, models.AssociationScheduled); err != nil {
		slog.Warn("failed to mark association scheduled", "error", err, "association", a.ID)
	} else {
		a.Status = models.AssociationScheduled
	}

	issued := &Issued{
		AssociationID: a.ID,
		SessionID:     session.ID,
		Name:          a.Name,
		Email:         a.Email,
		InterviewURL:  i.InterviewURL(token),
		ExpiresAt:     session.ExpiresAt,
	}

	err = i.sender.Send(ctx, mailer.Invitation{
		RecipientEmail:  a.Email,
		RecipientName:   a.Name,
		InterviewURL:    issued.InterviewURL,
		JobTitle:        draft.JobTitle,
		DurationMinutes: draft.Duration,
		ExpiresAt:       session.ExpiresAt,
	})
	if err != nil {
		slog.Warn("failed to send invitation", "error", err, "email", a.Email, "association", a.ID)
		issued.EmailError = err.Error()
	} else {
		issued.EmailSent = true
	}

	return issued, nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/pricing"
	"github.com/terra-clan/interview-engine/internal/provisioning"
	"github.com/terra-clan/interview-engine/internal/sessions"
)

// Client is a Go SDK for interview-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new interview-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			// Question generation can take minutes
			Timeout: 5 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("API error %d: %s (%s) - %s", e.StatusCode, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("API error %d: %s - %s", e.StatusCode, e.Code, e.Message)
}

// Catalog lists the categories and durations an interview can use
type Catalog struct {
	Categories []models.TestCategory `json:"categories"`
	Durations  []models.DurationTier `json:"durations"`
}

// ToggleResult is the outcome of toggling a category on a draft
type ToggleResult struct {
	Action string                 `json:"action"`
	Draft  provisioning.DraftView `json:"draft"`
}

// GenerationResult is the draft after question generation
type GenerationResult struct {
	Draft            provisioning.DraftView `json:"draft"`
	CreditsDeducted  int                    `json:"credits_deducted"`
	RemainingBalance int                    `json:"remaining_balance"`
}

// InvitationResult is the draft and the issuance report
type InvitationResult struct {
	Draft  provisioning.DraftView `json:"draft"`
	Report sessions.Report        `json:"report"`
}

// TestCandidate invites the operator alongside pool candidates
type TestCandidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SelectCandidatesRequest replaces a draft's candidate selection
type SelectCandidatesRequest struct {
	CandidateIDs  []string       `json:"candidate_ids"`
	TestCandidate *TestCandidate `json:"test_candidate,omitempty"`
}

// CandidateEdit changes a draft's selection in place. Action is one of toggle,
// select_all, clear or remove_test_candidate; toggle needs CandidateID.
type CandidateEdit struct {
	Action      string `json:"action"`
	CandidateID string `json:"candidate_id,omitempty"`
}

// GetCatalog retrieves the test catalog
func (c *Client) GetCatalog(ctx context.Context) (*Catalog, error) {
	var out Catalog
	if err := c.call(ctx, http.MethodGet, "/api/v1/catalog", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Quote prices categories at a duration without creating a draft
func (c *Client) Quote(ctx context.Context, categoryIDs []string, duration int) (*pricing.Quote, error) {
	req := map[string]interface{}{"category_ids": categoryIDs, "duration": duration}

	var out pricing.Quote
	if err := c.call(ctx, http.MethodPost, "/api/v1/quotes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCredits retrieves the caller's balance and recent ledger rows
func (c *Client) GetCredits(ctx context.Context) (*models.CreditBalance, error) {
	var out models.CreditBalance
	if err := c.call(ctx, http.MethodGet, "/api/v1/credits", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDraft starts a new interview draft
func (c *Client) CreateDraft(ctx context.Context) (*provisioning.DraftView, error) {
	return c.draftCall(ctx, http.MethodPost, "/api/v1/drafts", nil)
}

// GetDraft retrieves a draft by ID
func (c *Client) GetDraft(ctx context.Context, id string) (*provisioning.DraftView, error) {
	return c.draftCall(ctx, http.MethodGet, draftPath(id, ""), nil)
}

// UpdateDraft applies a partial update to a draft
func (c *Client) UpdateDraft(ctx context.Context, id string, patch models.DraftPatch) (*provisioning.DraftView, error) {
	return c.draftCall(ctx, http.MethodPatch, draftPath(id, ""), patch)
}

// ToggleCategory adds, rebinds or removes a category. plan may be nil.
func (c *Client) ToggleCategory(ctx context.Context, id, categoryID string, plan *models.CategoryTier) (*ToggleResult, error) {
	var body interface{}
	if plan != nil {
		body = map[string]interface{}{"plan": plan}
	}

	var out ToggleResult
	if err := c.call(ctx, http.MethodPost, draftPath(id, "/categories/"+url.PathEscape(categoryID)), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDraft discards a draft. Saved interviews are kept.
func (c *Client) DeleteDraft(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, draftPath(id, ""), nil, nil)
}

// ResetDraft clears a draft back to its defaults
func (c *Client) ResetDraft(ctx context.Context, id string) (*provisioning.DraftView, error) {
	return c.draftCall(ctx, http.MethodPost, draftPath(id, "/reset"), nil)
}

// GenerateQuestions deducts credits and generates the draft's questions
func (c *Client) GenerateQuestions(ctx context.Context, id string) (*GenerationResult, error) {
	var out GenerationResult
	if err := c.call(ctx, http.MethodPost, draftPath(id, "/questions"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CommitInterview saves the interview and its questions
func (c *Client) CommitInterview(ctx context.Context, id string) (*provisioning.DraftView, error) {
	return c.draftCall(ctx, http.MethodPost, draftPath(id, "/interview"), nil)
}

// ListCandidates retrieves the caller's candidate pool
func (c *Client) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	return c.listCandidates(ctx, "/api/v1/candidates")
}

// RefreshCandidates retrieves the candidate pool, bypassing the server's cache
func (c *Client) RefreshCandidates(ctx context.Context) ([]models.Candidate, error) {
	return c.listCandidates(ctx, "/api/v1/candidates?refresh=true")
}

func (c *Client) listCandidates(ctx context.Context, path string) ([]models.Candidate, error) {
	var out struct {
		Candidates []models.Candidate `json:"candidates"`
		Total      int                `json:"total"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Candidates, nil
}

// SelectCandidates replaces the draft's candidate selection
func (c *Client) SelectCandidates(ctx context.Context, id string, req SelectCandidatesRequest) (*provisioning.DraftView, error) {
	return c.draftCall(ctx, http.MethodPut, draftPath(id, "/candidates"), req)
}

// EditCandidates applies one change to the draft's current candidate selection
func (c *Client) EditCandidates(ctx context.Context, id string, edit CandidateEdit) (*provisioning.DraftView, error) {
	return c.draftCall(ctx, http.MethodPatch, draftPath(id, "/candidates"), edit)
}

// CommitCandidates saves the selected candidates
func (c *Client) CommitCandidates(ctx context.Context, id string) (*provisioning.DraftView, error) {
	return c.draftCall(ctx, http.MethodPost, draftPath(id, "/candidates/commit"), nil)
}

// SendInvitations issues sessions and emails candidates
func (c *Client) SendInvitations(ctx context.Context, id string) (*InvitationResult, error) {
	var out InvitationResult
	if err := c.call(ctx, http.MethodPost, draftPath(id, "/invitations"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions retrieves the sessions issued for an interview
func (c *Client) ListSessions(ctx context.Context, interviewID string) ([]models.InterviewSession, error) {
	var out struct {
		Sessions []models.InterviewSession `json:"sessions"`
		Total    int                       `json:"total"`
	}
	path := "/api/v1/interviews/" + url.PathEscape(interviewID) + "/sessions"
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) draftCall(ctx context.Context, method, path string, body interface{}) (*provisioning.DraftView, error) {
	var out provisioning.DraftView
	if err := c.call(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func draftPath(id, suffix string) string {
	return "/api/v1/drafts/" + url.PathEscape(id) + suffix
}

// call sends body as JSON and decodes the envelope's data into out
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	status, resp, err := c.doRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		if status >= 400 {
			return &APIError{StatusCode: status, Code: "http_error", Message: string(resp)}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || status >= 400 {
		apiErr := result.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "unknown_error", Message: http.StatusText(status)}
		}
		apiErr.StatusCode = status
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

package models

import (
	"strings"
	"time"
)

// ApiClient represents an authenticated operator (recruiter workspace) calling the API
type ApiClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	OwnerID     string            `json:"owner_id"`
	ApiKey      string            `json:"-"` // Never serialize
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasPermission checks if client has specific permission
// Supports wildcard permissions like "drafts:*"
func (c *ApiClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}

	for _, perm := range c.Permissions {
		if perm == required || perm == "*" {
			return true
		}

		// "drafts:*" matches "drafts:read"
		if strings.HasSuffix(perm, ":*") {
			prefix := strings.TrimSuffix(perm, "*")
			if strings.HasPrefix(required, prefix) {
				return true
			}
		}
	}

	return false
}

// Owner returns the id credits, drafts and candidates are scoped to
func (c *ApiClient) Owner() string {
	if c == nil {
		return ""
	}
	if c.OwnerID != "" {
		return c.OwnerID
	}
	return c.Name
}

// MaskedApiKey returns first 8 characters of API key for logging
func (c *ApiClient) MaskedApiKey() string {
	if len(c.ApiKey) < 8 {
		return "***"
	}
	return c.ApiKey[:8] + "..."
}

package models

import (
	"strings"
	"time"
)

// Permissions understood by the API
const (
	PermFrameworksRead   = "frameworks:read"
	PermAssessmentsRead  = "assessments:read"
	PermAssessmentsWrite = "assessments:write"
	PermAnalyze          = "analyze:run"
)

// ApiClient represents an authenticated API client
type ApiClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	ApiKey      string            `json:"-"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasPermission checks if client has specific permission.
// "assessments:*" grants every assessments verb, "*" grants everything.
func (c *ApiClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}

	for _, perm := range c.Permissions {
		switch {
		case perm == "*", perm == required:
			return true
		case strings.HasSuffix(perm, ":*"):
			if strings.HasPrefix(required, strings.TrimSuffix(perm, "*")) {
				return true
			}
		}
	}

	return false
}

// MaskedApiKey returns first 8 characters of API key for logging
func (c *ApiClient) MaskedApiKey() string {
	return MaskKey(c.ApiKey)
}

// MaskKey keeps the first 8 characters of a key for safe logging
func MaskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}

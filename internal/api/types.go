// Package api defines the request and response types of the admin API.
package api

import "github.com/kpreslar/connectrix/internal/models"

type ErrorResponse struct {
	Error string `json:"error"`
}

// TestBeforeSaveRequest carries unsaved wizard input for a dry-run test.
type TestBeforeSaveRequest struct {
	IntegrationID string            `json:"integration_id"`
	AuthMethodID  string            `json:"auth_method_id"`
	Credentials   map[string]string `json:"credentials"`
	Variables     map[string]string `json:"variables,omitempty"`
}

type RequestInfo struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// TestOutcomeResponse mirrors a test outcome. Header values in Request are
// already redacted.
type TestOutcomeResponse struct {
	Success    bool         `json:"success"`
	StatusCode *int         `json:"status_code,omitempty"`
	DurationMS int64        `json:"duration_ms"`
	Message    string       `json:"message"`
	Request    *RequestInfo `json:"request,omitempty"`
	Error      *ErrorInfo   `json:"error,omitempty"`
	Timestamp  string       `json:"timestamp"`
}

// ValidateSchemaRequest carries an auth schema document for static
// validation.
type ValidateSchemaRequest struct {
	AuthSchema models.AuthSchema `json:"auth_schema"`
}

type SchemaIssueInfo struct {
	AuthMethodID string `json:"auth_method_id"`
	Field        string `json:"field"`
	Placeholder  string `json:"placeholder"`
	Message      string `json:"message"`
	Suggestion   string `json:"suggestion,omitempty"`
}

type ValidateSchemaResponse struct {
	Valid  bool              `json:"valid"`
	Issues []SchemaIssueInfo `json:"issues,omitempty"`
}

// ConnectionResponse is a connection with its secrets stripped.
type ConnectionResponse struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	IntegrationID   string            `json:"integration_id"`
	AuthMethodID    string            `json:"auth_method_id"`
	SchemeKey       string            `json:"scheme_key,omitempty"`
	Variables       map[string]string `json:"variables,omitempty"`
	HasTokens       bool              `json:"has_tokens"`
	LastTestStatus  string            `json:"last_test_status,omitempty"`
	LastTestMessage string            `json:"last_test_message,omitempty"`
	LastTestAt      string            `json:"last_test_at,omitempty"`
}

// Package models defines the entity types shared across the subsystem.
package models

import (
	"encoding/json"
	"time"
)

// FieldSpec describes one credential or configuration field of an auth scheme.
type FieldSpec struct {
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
	Secret   bool   `json:"secret,omitempty"`
}

// AuthTypeDefinition is a static catalog entry describing one authentication
// scheme: which credential fields it needs, which configuration options it
// accepts, and the shape of its test configuration. Catalog entries are
// loaded once at startup and never mutated.
type AuthTypeDefinition struct {
	SchemeKey        string               `json:"scheme_key"`
	Category         string               `json:"category"`
	CredentialFields map[string]FieldSpec `json:"credential_fields"`
	ConfigFields     map[string]FieldSpec `json:"config_fields"`
	TestConfigFields map[string]FieldSpec `json:"test_config_fields"`
}

// DynamicFieldMarker marks schemes whose credential fields are declared
// per-integration rather than in the static catalog. Credential validation
// skips it.
const DynamicFieldMarker = "_dynamic"

// AdditionalField is a named extra value contributed to request construction,
// filled either from an admin-set default or from end-user input.
type AdditionalField struct {
	Name         string `json:"name"`
	UseAs        string `json:"use_as"`    // header|query|body
	FilledBy     string `json:"filled_by"` // admin|user
	DefaultValue string `json:"default_value,omitempty"`
}

// AuthMethodConfig is one integration's concrete configuration of a scheme.
type AuthMethodConfig struct {
	ID               string            `json:"id"`
	SchemeKey        string            `json:"scheme_key"`
	Label            string            `json:"label,omitempty"`
	Default          bool              `json:"default,omitempty"`
	Priority         int               `json:"priority,omitempty"`
	Config           map[string]any    `json:"config,omitempty"`
	AdditionalFields []AdditionalField `json:"additional_fields,omitempty"`
	TestConfig       map[string]any    `json:"test_config,omitempty"`
}

// AuthSchema is the set of auth methods an integration supports.
type AuthSchema struct {
	AuthMethods []AuthMethodConfig `json:"auth_methods"`
}

// AuthMethodByID returns the auth method with the given id, or nil.
func (s *AuthSchema) AuthMethodByID(id string) *AuthMethodConfig {
	for i := range s.AuthMethods {
		if s.AuthMethods[i].ID == id {
			return &s.AuthMethods[i]
		}
	}
	return nil
}

// Integration is a registered third-party API with its auth schema document.
type Integration struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	AuthSchema AuthSchema `json:"auth_schema"`
}

// StoredTokenRecord is the access/refresh token bundle for an OAuth2
// connection. It is replaced wholesale on each refresh.
type StoredTokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Scope        string    `json:"scope,omitempty"`
}

// Connection is a user's concrete binding to one auth method of one
// integration. Credentials is kept as a raw document: the wizard layer has
// historically written either a flat map of decrypted values or an
// {encrypted, decrypted} envelope, and both forms remain in storage.
type Connection struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	IntegrationID   string             `json:"integration_id"`
	AuthMethodID    string             `json:"auth_method_id"`
	SchemeKey       string             `json:"scheme_key,omitempty"`
	Credentials     json.RawMessage    `json:"credentials,omitempty"`
	Variables       map[string]string  `json:"variables,omitempty"`
	Tokens          *StoredTokenRecord `json:"tokens,omitempty"`
	LastTestStatus  string             `json:"last_test_status,omitempty"`
	LastTestMessage string             `json:"last_test_message,omitempty"`
	LastTestAt      *time.Time         `json:"last_test_at,omitempty"`
}

// RequestSummary describes the request a test issued, safe for display:
// header values are redacted before the summary is built.
type RequestSummary struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ClassifiedError is a transport or protocol failure mapped into the closed
// error taxonomy.
type ClassifiedError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// TestOutcome is the structured result of one connectivity test.
type TestOutcome struct {
	Success    bool             `json:"success"`
	StatusCode *int             `json:"status_code,omitempty"`
	DurationMS int64            `json:"duration_ms"`
	Message    string           `json:"message"`
	Request    *RequestSummary  `json:"request,omitempty"`
	Error      *ClassifiedError `json:"error,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// APIKey represents an admin API key record in the database.
type APIKey struct {
	ID        int64
	KeyPrefix string
	KeyHash   []byte
	Label     *string
	CreatedAt int64
	RevokedAt *int64
}

// Package auth implements the authentication strategies and the manager that
// binds a connection to the right strategy for a connectivity test.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/kpreslar/connectrix/internal/models"
	"github.com/kpreslar/connectrix/internal/template"
	"github.com/kpreslar/connectrix/internal/transport"
)

// Scheme keys recognized by the registry. The set is closed; adding a scheme
// means adding a strategy.
const (
	SchemeAPIKey            = "api_key"
	SchemeBearerToken       = "bearer_token"
	SchemeBasicAuth         = "basic_auth"
	SchemeCustomHeaders     = "custom_headers"
	SchemeOAuth2AuthCode    = "oauth2_authorization_code"
	SchemeOAuth2ClientCreds = "oauth2_client_credentials"
	SchemeOAuth2ServiceAcct = "oauth2_service_account"
)

var (
	// ErrUnknownScheme is returned when a connection references a scheme key
	// with no registered strategy.
	ErrUnknownScheme = errors.New("unknown auth scheme")

	// ErrNoStoredToken is returned when an OAuth2 connection has no stored
	// access token to attach.
	ErrNoStoredToken = errors.New("no stored access token")
)

// Credentials is the decrypted credential map of a connection.
type Credentials map[string]string

// Decryptor is the slice of the encryption service strategies need.
type Decryptor interface {
	Decrypt(value string) string
}

// BuildInput carries everything a strategy may need to shape a request.
// Config and the caller's test configuration are effective maps, already
// merged with catalog defaults.
type BuildInput struct {
	Credentials      Credentials
	Variables        map[string]string
	Config           map[string]any
	AdditionalFields []models.AdditionalField
	Tokens           *models.StoredTokenRecord
}

// Strategy is one authentication scheme. TestConnection has a shared default
// implementation provided by the embedded base; strategies override it only
// when scheme-specific request shaping is required.
type Strategy interface {
	BuildHeaders(in BuildInput) (map[string]string, error)
	TestConnection(ctx context.Context, url string, headers map[string]string, in BuildInput, testConfig map[string]any) *models.TestOutcome
}

// TokenRefresher is the optional capability of strategies whose tokens can
// expire and be renewed. The manager consults the token validator before
// testing only when the selected strategy implements it.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, in BuildInput) (*models.StoredTokenRecord, error)
}

// Deps are the collaborators shared by all strategies.
type Deps struct {
	Transport *transport.Client
	Template  *template.Engine
	Decryptor Decryptor
	Logger    *zap.Logger
}

// NewRegistry constructs the closed scheme-key to strategy mapping. The three
// OAuth2 variants differ only in how tokens were originally obtained, which
// is outside this subsystem; they share one strategy instance.
func NewRegistry(deps Deps) map[string]Strategy {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	b := base{deps: deps}

	oauth := &oauth2Strategy{base: b}
	return map[string]Strategy{
		SchemeAPIKey:            &apiKeyStrategy{base: b},
		SchemeBearerToken:       &bearerTokenStrategy{base: b},
		SchemeBasicAuth:         &basicAuthStrategy{base: b},
		SchemeCustomHeaders:     &customHeadersStrategy{base: b},
		SchemeOAuth2AuthCode:    oauth,
		SchemeOAuth2ClientCreds: oauth,
		SchemeOAuth2ServiceAcct: oauth,
	}
}

// ValidateCredentials checks every required field of the definition against
// the credential map and reports all missing fields, not just the first.
// The dynamic-field marker is skipped.
func ValidateCredentials(def *models.AuthTypeDefinition, creds Credentials) error {
	names := make([]string, 0, len(def.CredentialFields))
	for name := range def.CredentialFields {
		names = append(names, name)
	}
	sort.Strings(names)

	var result *multierror.Error
	for _, name := range names {
		spec := def.CredentialFields[name]
		if name == models.DynamicFieldMarker || !spec.Required {
			continue
		}
		if strings.TrimSpace(creds[name]) == "" {
			result = multierror.Append(result, fmt.Errorf("missing required credential field %q", name))
		}
	}
	return result.ErrorOrNil()
}

// RedactHeaders returns a display copy of the headers with every value
// reduced to a short prefix.
func RedactHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	redacted := make(map[string]string, len(headers))
	for name, value := range headers {
		redacted[name] = redactValue(value)
	}
	return redacted
}

func redactValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:6] + "***"
}

func stringValue(cfg map[string]any, key, fallback string) string {
	if v, ok := cfg[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func boolValue(cfg map[string]any, key string, fallback bool) bool {
	if v, ok := cfg[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// intValue tolerates both native ints and the float64 that encoding/json
// produces for numbers in untyped maps.
func intValue(cfg map[string]any, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func timeoutValue(cfg map[string]any, fallback time.Duration) time.Duration {
	ms := intValue(cfg, "timeout_ms", 0)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// expectedStatuses reads the expected-status allowlist from test config,
// defaulting to [200, 201].
func expectedStatuses(cfg map[string]any) []int {
	raw, ok := cfg["expected_status"]
	if !ok {
		return []int{200, 201}
	}

	var statuses []int
	switch v := raw.(type) {
	case []int:
		statuses = v
	case []any:
		for _, item := range v {
			switch n := item.(type) {
			case int:
				statuses = append(statuses, n)
			case float64:
				statuses = append(statuses, int(n))
			}
		}
	}
	if len(statuses) == 0 {
		return []int{200, 201}
	}
	return statuses
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kpreslar/connectrix/internal/classify"
	"github.com/kpreslar/connectrix/internal/logging"
	"github.com/kpreslar/connectrix/internal/models"
	"github.com/kpreslar/connectrix/internal/token"
)

// Manager binds a connection to the right strategy and runs the full test
// sequence: credential validation, token expiry handling, header building
// and the connectivity call. Errors never cross its boundary raw; every
// failure path yields a classified TestOutcome.
type Manager struct {
	registry map[string]Strategy
	logger   *zap.Logger
}

// NewManager constructs a manager with the closed strategy registry.
func NewManager(deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{registry: NewRegistry(deps), logger: logger}
}

// TestRequest carries one fully-resolved test invocation. Config and
// TestConfig are effective maps, merged with catalog defaults; TestURL has
// already had its variables substituted.
type TestRequest struct {
	SchemeKey        string
	Definition       *models.AuthTypeDefinition
	Credentials      Credentials
	Variables        map[string]string
	Config           map[string]any
	AdditionalFields []models.AdditionalField
	Tokens           *models.StoredTokenRecord
	TestURL          string
	TestConfig       map[string]any

	// PersistTokens stores a refreshed token record before the test call
	// proceeds. Nil for before-save tests, where nothing may be written.
	PersistTokens func(ctx context.Context, rec *models.StoredTokenRecord) error
}

// Test runs the test sequence and always returns an outcome.
func (m *Manager) Test(ctx context.Context, req TestRequest) (outcome *models.TestOutcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic during connection test",
				logging.Component("auth"), logging.Scheme(req.SchemeKey), zap.Any("panic", r))
			outcome = failureOutcome(
				classify.FromError(fmt.Errorf("internal error: %v", r)), nil, nil, start)
		}
	}()

	strategy, ok := m.registry[req.SchemeKey]
	if !ok {
		cerr := classify.Validation(fmt.Sprintf("%v: %q", ErrUnknownScheme, req.SchemeKey))
		return failureOutcome(cerr, nil, nil, start)
	}

	if err := ValidateCredentials(req.Definition, req.Credentials); err != nil {
		return failureOutcome(classify.Validation(err.Error()), nil, nil, start)
	}

	in := BuildInput{
		Credentials:      req.Credentials,
		Variables:        req.Variables,
		Config:           req.Config,
		AdditionalFields: req.AdditionalFields,
		Tokens:           req.Tokens,
	}

	if refresher, ok := strategy.(TokenRefresher); ok && boolValue(req.TestConfig, "check_token_expiry", false) {
		status := token.CheckExpiry(req.Tokens)
		if status.Expired {
			if !boolValue(req.TestConfig, "auto_refresh", false) {
				// Short-circuit without any network call.
				return failureOutcome(&models.ClassifiedError{
					Kind:    classify.KindAuthentication,
					Message: "Access token expired",
					Detail:  status.Message,
				}, nil, nil, start)
			}

			rec, err := refresher.RefreshToken(ctx, in)
			if err != nil {
				cerr := classify.FromError(err)
				cerr.Message = "Token refresh failed: " + cerr.Message
				return failureOutcome(cerr, nil, nil, start)
			}
			if req.PersistTokens != nil {
				if err := req.PersistTokens(ctx, rec); err != nil {
					cerr := classify.FromError(fmt.Errorf("store refreshed token: %w", err))
					cerr.Message = "Token refresh failed: " + cerr.Message
					return failureOutcome(cerr, nil, nil, start)
				}
			}
			in.Tokens = rec
		}
	}

	headers, err := strategy.BuildHeaders(in)
	if err != nil {
		if errors.Is(err, ErrNoStoredToken) {
			return failureOutcome(&models.ClassifiedError{
				Kind:    classify.KindAuthentication,
				Message: "No access token stored; complete the authorization flow first",
				Detail:  err.Error(),
			}, nil, nil, start)
		}
		return failureOutcome(classify.Validation(err.Error()), nil, nil, start)
	}

	return strategy.TestConnection(ctx, req.TestURL, headers, in, req.TestConfig)
}

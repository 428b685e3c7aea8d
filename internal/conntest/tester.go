// Package conntest orchestrates connectivity tests: it loads the connection
// and schema documents, merges test configuration, resolves the test URL and
// hands off to the authentication manager.
package conntest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kpreslar/connectrix/internal/auth"
	"github.com/kpreslar/connectrix/internal/catalog"
	"github.com/kpreslar/connectrix/internal/classify"
	"github.com/kpreslar/connectrix/internal/logging"
	"github.com/kpreslar/connectrix/internal/models"
	"github.com/kpreslar/connectrix/internal/template"
)

// ErrConnectionNotFound is returned when the connection id does not exist.
var ErrConnectionNotFound = errors.New("connection not found")

// Store is the slice of the document store the tester needs. All writes are
// single-document updates keyed by connection id.
type Store interface {
	GetConnection(ctx context.Context, id string) (*models.Connection, error)
	GetIntegration(ctx context.Context, id string) (*models.Integration, error)
	UpdateConnectionTest(ctx context.Context, id, status, message string, at time.Time) error
	UpdateConnectionTokens(ctx context.Context, id string, rec *models.StoredTokenRecord) error
}

// Tester is the caller-facing entry point of the subsystem.
type Tester struct {
	store   Store
	catalog *catalog.Catalog
	manager *auth.Manager
	tmpl    *template.Engine
	logger  *zap.Logger
}

// New constructs a tester.
func New(store Store, cat *catalog.Catalog, manager *auth.Manager, tmpl *template.Engine, logger *zap.Logger) *Tester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tester{store: store, catalog: cat, manager: manager, tmpl: tmpl, logger: logger}
}

// TestExistingConnection tests a persisted connection and writes the outcome
// back onto its last-test fields, exactly once, after the outcome is known.
func (t *Tester) TestExistingConnection(ctx context.Context, connectionID string) (*models.TestOutcome, error) {
	conn, err := t.store.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("load connection %s: %w", connectionID, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, connectionID)
	}

	outcome := t.run(ctx, conn, func(ctx context.Context, rec *models.StoredTokenRecord) error {
		return t.store.UpdateConnectionTokens(ctx, conn.ID, rec)
	})

	status := "failed"
	if outcome.Success {
		status = "success"
	}
	if err := t.store.UpdateConnectionTest(ctx, conn.ID, status, outcome.Message, outcome.Timestamp); err != nil {
		t.logger.Error("persist test outcome failed",
			logging.Component("conntest"), logging.ConnectionID(conn.ID), zap.Error(err))
	}

	t.logger.Info("connection tested",
		logging.Component("conntest"), logging.ConnectionID(conn.ID),
		logging.Scheme(conn.SchemeKey), zap.Bool("success", outcome.Success),
		logging.DurationMS(outcome.DurationMS))
	return outcome, nil
}

// BeforeSaveInput carries the wizard's in-progress input for a test that runs
// before anything is persisted.
type BeforeSaveInput struct {
	IntegrationID string
	AuthMethodID  string
	Credentials   map[string]string
	Variables     map[string]string
}

// TestBeforeSave tests unsaved credentials against an integration's auth
// method. No token record exists yet, so refresh handling is skipped, and
// nothing is written back to storage.
func (t *Tester) TestBeforeSave(ctx context.Context, in BeforeSaveInput) (*models.TestOutcome, error) {
	credentials, err := json.Marshal(in.Credentials)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	conn := &models.Connection{
		IntegrationID: in.IntegrationID,
		AuthMethodID:  in.AuthMethodID,
		Credentials:   credentials,
		Variables:     in.Variables,
	}
	return t.run(ctx, conn, nil), nil
}

// run is the shared pipeline: resolve scheme and definitions, merge test
// config, substitute the test URL, and invoke the manager.
func (t *Tester) run(ctx context.Context, conn *models.Connection, persistTokens func(context.Context, *models.StoredTokenRecord) error) *models.TestOutcome {
	integ, err := t.store.GetIntegration(ctx, conn.IntegrationID)
	if err != nil {
		return validationOutcome(fmt.Sprintf("load integration %s: %v", conn.IntegrationID, err))
	}
	if integ == nil {
		return validationOutcome(fmt.Sprintf("integration %s not found", conn.IntegrationID))
	}

	method := integ.AuthSchema.AuthMethodByID(conn.AuthMethodID)
	scheme := conn.SchemeKey
	if scheme == "" && method != nil {
		scheme = method.SchemeKey
	}
	if scheme == "" {
		return validationOutcome(fmt.Sprintf("no auth scheme resolvable for auth method %s", conn.AuthMethodID))
	}
	if method == nil {
		return validationOutcome(fmt.Sprintf("auth method %s no longer exists in the integration schema", conn.AuthMethodID))
	}
	// The stored scheme and the schema must agree; if the schema was edited
	// after the connection was created, fail closed rather than guess.
	if conn.SchemeKey != "" && method.SchemeKey != "" && conn.SchemeKey != method.SchemeKey {
		return validationOutcome(fmt.Sprintf("connection scheme %q does not match auth method scheme %q",
			conn.SchemeKey, method.SchemeKey))
	}

	def, ok := t.catalog.Get(scheme)
	if !ok {
		return validationOutcome(fmt.Sprintf("unknown auth scheme %q", scheme))
	}

	testConfig := catalog.MergeConfig(def.TestConfigFields, method.TestConfig)
	testURL, _ := testConfig["test_url"].(string)
	if testURL == "" {
		return validationOutcome("no test URL configured for this auth method")
	}

	credentials, err := normalizeCredentials(conn.Credentials)
	if err != nil {
		return validationOutcome(fmt.Sprintf("credentials document malformed: %v", err))
	}

	testURL = t.tmpl.Substitute(testURL, credentials, conn.Variables)

	return t.manager.Test(ctx, auth.TestRequest{
		SchemeKey:        scheme,
		Definition:       def,
		Credentials:      credentials,
		Variables:        conn.Variables,
		Config:           catalog.MergeConfig(def.ConfigFields, method.Config),
		AdditionalFields: method.AdditionalFields,
		Tokens:           conn.Tokens,
		TestURL:          testURL,
		TestConfig:       testConfig,
		PersistTokens:    persistTokens,
	})
}

// normalizeCredentials accepts either a flat map of values or an
// {encrypted, decrypted} envelope, and always returns the decrypted form.
func normalizeCredentials(raw json.RawMessage) (auth.Credentials, error) {
	if len(raw) == 0 {
		return auth.Credentials{}, nil
	}

	var envelope struct {
		Encrypted json.RawMessage   `json:"encrypted"`
		Decrypted map[string]string `json:"decrypted"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Decrypted != nil {
		return auth.Credentials(envelope.Decrypted), nil
	}

	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, err
	}
	credentials := make(auth.Credentials, len(flat))
	for name, value := range flat {
		switch v := value.(type) {
		case string:
			credentials[name] = v
		case nil:
			// skip
		default:
			credentials[name] = fmt.Sprint(v)
		}
	}
	return credentials, nil
}

func validationOutcome(detail string) *models.TestOutcome {
	cerr := classify.Validation(detail)
	return &models.TestOutcome{
		Success:   false,
		Message:   cerr.Message,
		Error:     cerr,
		Timestamp: time.Now(),
	}
}

package conntest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kpreslar/connectrix/internal/auth"
	"github.com/kpreslar/connectrix/internal/catalog"
	"github.com/kpreslar/connectrix/internal/classify"
	"github.com/kpreslar/connectrix/internal/models"
	"github.com/kpreslar/connectrix/internal/secrets"
	"github.com/kpreslar/connectrix/internal/template"
	"github.com/kpreslar/connectrix/internal/transport"
)

type testUpdate struct {
	id, status, message string
	at                  time.Time
}

type fakeStore struct {
	connections  map[string]*models.Connection
	integrations map[string]*models.Integration
	testUpdates  []testUpdate
	tokenUpdates []*models.StoredTokenRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		connections:  make(map[string]*models.Connection),
		integrations: make(map[string]*models.Integration),
	}
}

func (f *fakeStore) GetConnection(_ context.Context, id string) (*models.Connection, error) {
	return f.connections[id], nil
}

func (f *fakeStore) GetIntegration(_ context.Context, id string) (*models.Integration, error) {
	return f.integrations[id], nil
}

func (f *fakeStore) UpdateConnectionTest(_ context.Context, id, status, message string, at time.Time) error {
	f.testUpdates = append(f.testUpdates, testUpdate{id, status, message, at})
	return nil
}

func (f *fakeStore) UpdateConnectionTokens(_ context.Context, _ string, rec *models.StoredTokenRecord) error {
	f.tokenUpdates = append(f.tokenUpdates, rec)
	return nil
}

func newTester(t *testing.T, store Store) *Tester {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)

	svc := secrets.New("test-passphrase")
	logger := zap.NewNop()
	tmpl := template.New(svc, logger)
	manager := auth.NewManager(auth.Deps{
		Transport: transport.New(logger),
		Template:  tmpl,
		Decryptor: svc,
		Logger:    logger,
	})
	return New(store, cat, manager, tmpl, logger)
}

func bearerIntegration(testURL string) *models.Integration {
	return &models.Integration{
		ID:   "integ-1",
		Name: "Example CRM",
		AuthSchema: models.AuthSchema{AuthMethods: []models.AuthMethodConfig{{
			ID:         "am-1",
			SchemeKey:  "bearer_token",
			TestConfig: map[string]any{"test_url": testURL},
		}}},
	}
}

func TestBeforeSaveSubstitutesTestURL(t *testing.T) {
	var gotPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	store := newFakeStore()
	store.integrations["integ-1"] = bearerIntegration("http://{{host}}/ping")

	tester := newTester(t, store)
	outcome, err := tester.TestBeforeSave(context.Background(), BeforeSaveInput{
		IntegrationID: "integ-1",
		AuthMethodID:  "am-1",
		Credentials:   map[string]string{"token": "abc"},
		Variables:     map[string]string{"host": host},
	})
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, "/ping", gotPath.Load())
	assert.Empty(t, store.testUpdates, "before-save must not persist")
	assert.Empty(t, store.tokenUpdates)
}

func TestExistingConnectionPersistsOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newFakeStore()
	store.integrations["integ-1"] = bearerIntegration(srv.URL + "/ping")
	store.connections["conn-1"] = &models.Connection{
		ID:            "conn-1",
		UserID:        "user-1",
		IntegrationID: "integ-1",
		AuthMethodID:  "am-1",
		SchemeKey:     "bearer_token",
		Credentials:   json.RawMessage(`{"token":"abc"}`),
	}

	tester := newTester(t, store)
	outcome, err := tester.TestExistingConnection(context.Background(), "conn-1")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	require.Len(t, store.testUpdates, 1)
	assert.Equal(t, "success", store.testUpdates[0].status)
	assert.Equal(t, outcome.Message, store.testUpdates[0].message)
}

func TestExistingConnectionFailurePersistsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newFakeStore()
	store.integrations["integ-1"] = bearerIntegration(srv.URL)
	store.connections["conn-1"] = &models.Connection{
		ID: "conn-1", IntegrationID: "integ-1", AuthMethodID: "am-1",
		SchemeKey:   "bearer_token",
		Credentials: json.RawMessage(`{"token":"abc"}`),
	}

	tester := newTester(t, store)
	outcome, err := tester.TestExistingConnection(context.Background(), "conn-1")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, classify.KindAuthentication, outcome.Error.Kind)
	require.Len(t, store.testUpdates, 1)
	assert.Equal(t, "failed", store.testUpdates[0].status)
}

func TestExistingConnectionNotFound(t *testing.T) {
	tester := newTester(t, newFakeStore())

	_, err := tester.TestExistingConnection(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestExpiredTokenNoAutoRefreshMakesNoRequest(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	store := newFakeStore()
	store.integrations["integ-1"] = &models.Integration{
		ID: "integ-1",
		AuthSchema: models.AuthSchema{AuthMethods: []models.AuthMethodConfig{{
			ID:        "am-1",
			SchemeKey: "oauth2_client_credentials",
			TestConfig: map[string]any{
				"test_url":     srv.URL,
				"auto_refresh": false,
			},
		}}},
	}
	store.connections["conn-1"] = &models.Connection{
		ID: "conn-1", IntegrationID: "integ-1", AuthMethodID: "am-1",
		SchemeKey:   "oauth2_client_credentials",
		Credentials: json.RawMessage(`{"clientId":"cid","clientSecret":"csec"}`),
		Tokens: &models.StoredTokenRecord{
			AccessToken:  "at",
			RefreshToken: "rt",
			ExpiresAt:    time.Now().Add(-time.Minute),
		},
	}

	tester := newTester(t, store)
	outcome, err := tester.TestExistingConnection(context.Background(), "conn-1")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, "Access token expired", outcome.Message)
	assert.Equal(t, int64(0), requests.Load())
	require.Len(t, store.testUpdates, 1)
	assert.Equal(t, "failed", store.testUpdates[0].status)
}

func TestSchemeResolutionFromSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newFakeStore()
	store.integrations["integ-1"] = bearerIntegration(srv.URL)
	// No stored scheme key; it must come from the schema.
	store.connections["conn-1"] = &models.Connection{
		ID: "conn-1", IntegrationID: "integ-1", AuthMethodID: "am-1",
		Credentials: json.RawMessage(`{"token":"abc"}`),
	}

	tester := newTester(t, store)
	outcome, err := tester.TestExistingConnection(context.Background(), "conn-1")
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestSchemaDivergenceFailsClosed(t *testing.T) {
	store := newFakeStore()
	store.integrations["integ-1"] = bearerIntegration("https://x.test/ping")
	store.connections["conn-1"] = &models.Connection{
		ID: "conn-1", IntegrationID: "integ-1", AuthMethodID: "am-1",
		SchemeKey:   "api_key", // disagrees with the schema's bearer_token
		Credentials: json.RawMessage(`{"apiKey":"k"}`),
	}

	tester := newTester(t, store)
	outcome, err := tester.TestExistingConnection(context.Background(), "conn-1")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, classify.KindValidation, outcome.Error.Kind)
	assert.Contains(t, outcome.Error.Detail, "does not match")
}

func TestRemovedAuthMethodFailsClosed(t *testing.T) {
	store := newFakeStore()
	store.integrations["integ-1"] = bearerIntegration("https://x.test/ping")
	store.connections["conn-1"] = &models.Connection{
		ID: "conn-1", IntegrationID: "integ-1", AuthMethodID: "am-gone",
		SchemeKey:   "bearer_token",
		Credentials: json.RawMessage(`{"token":"abc"}`),
	}

	tester := newTester(t, store)
	outcome, err := tester.TestExistingConnection(context.Background(), "conn-1")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, classify.KindValidation, outcome.Error.Kind)
}

func TestMissingTestURLIsValidationError(t *testing.T) {
	store := newFakeStore()
	integ := bearerIntegration("")
	integ.AuthSchema.AuthMethods[0].TestConfig = nil
	store.integrations["integ-1"] = integ

	tester := newTester(t, store)
	outcome, err := tester.TestBeforeSave(context.Background(), BeforeSaveInput{
		IntegrationID: "integ-1",
		AuthMethodID:  "am-1",
		Credentials:   map[string]string{"token": "abc"},
	})
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, classify.KindValidation, outcome.Error.Kind)
	assert.Contains(t, outcome.Error.Detail, "test URL")
}

func TestEnvelopeCredentialsNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newFakeStore()
	store.integrations["integ-1"] = bearerIntegration(srv.URL)
	store.connections["conn-1"] = &models.Connection{
		ID: "conn-1", IntegrationID: "integ-1", AuthMethodID: "am-1",
		SchemeKey:   "bearer_token",
		Credentials: json.RawMessage(`{"encrypted":"opaque-blob","decrypted":{"token":"abc"}}`),
	}

	tester := newTester(t, store)
	outcome, err := tester.TestExistingConnection(context.Background(), "conn-1")
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestNormalizeCredentials(t *testing.T) {
	creds, err := normalizeCredentials(nil)
	require.NoError(t, err)
	assert.Empty(t, creds)

	creds, err = normalizeCredentials(json.RawMessage(`{"token":"abc","retries":3,"skip":null}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", creds["token"])
	assert.Equal(t, "3", creds["retries"])
	assert.NotContains(t, creds, "skip")

	_, err = normalizeCredentials(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

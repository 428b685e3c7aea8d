package db

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/kpreslar/connectrix/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return NewStore(database)
}

func TestMigrationsApplied(t *testing.T) {
	store := openTestStore(t)

	tables := []string{"schema_migrations", "api_keys", "integrations", "connections"}
	for _, table := range tables {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestConnectionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	integ := &models.Integration{
		ID:   "integ-1",
		Name: "Example CRM",
		AuthSchema: models.AuthSchema{AuthMethods: []models.AuthMethodConfig{
			{ID: "am-1", SchemeKey: "bearer_token", Label: "Bearer"},
		}},
	}
	if err := store.CreateIntegration(ctx, integ); err != nil {
		t.Fatalf("CreateIntegration failed: %v", err)
	}

	conn := &models.Connection{
		ID:            "conn-1",
		UserID:        "user-1",
		IntegrationID: "integ-1",
		AuthMethodID:  "am-1",
		SchemeKey:     "bearer_token",
		Credentials:   json.RawMessage(`{"token":"abc"}`),
		Variables:     map[string]string{"host": "api.example.com"},
	}
	if err := store.CreateConnection(ctx, conn); err != nil {
		t.Fatalf("CreateConnection failed: %v", err)
	}

	got, err := store.GetConnection(ctx, "conn-1")
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	if got == nil {
		t.Fatal("connection not found")
	}
	if got.SchemeKey != "bearer_token" {
		t.Errorf("scheme = %q, want bearer_token", got.SchemeKey)
	}
	if got.Variables["host"] != "api.example.com" {
		t.Errorf("variables not round-tripped: %v", got.Variables)
	}
	if string(got.Credentials) != `{"token":"abc"}` {
		t.Errorf("credentials = %s", got.Credentials)
	}
	if got.Tokens != nil {
		t.Error("tokens should be absent")
	}
}

func TestGetConnectionMissing(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetConnection(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing connection")
	}
}

func TestUpdateConnectionTestFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	mustSeedConnection(t, store)

	at := time.Now()
	if err := store.UpdateConnectionTest(ctx, "conn-1", "failed", "HTTP 401", at); err != nil {
		t.Fatalf("UpdateConnectionTest failed: %v", err)
	}

	got, err := store.GetConnection(ctx, "conn-1")
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	if got.LastTestStatus != "failed" || got.LastTestMessage != "HTTP 401" {
		t.Errorf("last test = %q / %q", got.LastTestStatus, got.LastTestMessage)
	}
	if got.LastTestAt == nil || got.LastTestAt.Unix() != at.Unix() {
		t.Errorf("last test at = %v, want %v", got.LastTestAt, at)
	}
	// Other fields untouched.
	if string(got.Credentials) != `{"token":"abc"}` {
		t.Errorf("credentials mutated: %s", got.Credentials)
	}
}

func TestUpdateConnectionTokens(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	mustSeedConnection(t, store)

	rec := &models.StoredTokenRecord{
		AccessToken:  "at-new",
		RefreshToken: "rt",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	if err := store.UpdateConnectionTokens(ctx, "conn-1", rec); err != nil {
		t.Fatalf("UpdateConnectionTokens failed: %v", err)
	}

	got, err := store.GetConnection(ctx, "conn-1")
	if err != nil {
		t.Fatalf("GetConnection failed: %v", err)
	}
	if got.Tokens == nil || got.Tokens.AccessToken != "at-new" {
		t.Fatalf("tokens = %+v", got.Tokens)
	}
	if !got.Tokens.ExpiresAt.Equal(rec.ExpiresAt) {
		t.Errorf("expires at = %v, want %v", got.Tokens.ExpiresAt, rec.ExpiresAt)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	label := "ci"
	id, err := store.CreateAPIKey(ctx, "abcdef123456", []byte("hash"), &label)
	if err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	key, err := store.GetAPIKeyByPrefix(ctx, "abcdef123456")
	if err != nil {
		t.Fatalf("GetAPIKeyByPrefix failed: %v", err)
	}
	if key == nil || key.ID != id || key.RevokedAt != nil {
		t.Fatalf("key = %+v", key)
	}

	if err := store.RevokeAPIKey(ctx, id); err != nil {
		t.Fatalf("RevokeAPIKey failed: %v", err)
	}
	key, err = store.GetAPIKeyByPrefix(ctx, "abcdef123456")
	if err != nil {
		t.Fatalf("GetAPIKeyByPrefix failed: %v", err)
	}
	if key.RevokedAt == nil {
		t.Error("key should be revoked")
	}
}

func mustSeedConnection(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	err := store.CreateIntegration(ctx, &models.Integration{ID: "integ-1", Name: "Example"})
	if err != nil {
		t.Fatalf("seed integration: %v", err)
	}
	err = store.CreateConnection(ctx, &models.Connection{
		ID: "conn-1", UserID: "user-1", IntegrationID: "integ-1",
		AuthMethodID: "am-1", SchemeKey: "bearer_token",
		Credentials: json.RawMessage(`{"token":"abc"}`),
	})
	if err != nil {
		t.Fatalf("seed connection: %v", err)
	}
}

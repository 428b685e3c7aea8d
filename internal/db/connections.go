package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kpreslar/connectrix/internal/models"
)

// CreateConnection inserts a new connection record. An id is generated when
// the caller does not supply one.
func (s *Store) CreateConnection(ctx context.Context, conn *models.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	variables, err := json.Marshal(conn.Variables)
	if err != nil {
		return fmt.Errorf("marshal variables: %w", err)
	}
	var tokens *string
	if conn.Tokens != nil {
		raw, err := json.Marshal(conn.Tokens)
		if err != nil {
			return fmt.Errorf("marshal tokens: %w", err)
		}
		t := string(raw)
		tokens = &t
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO connections
			(id, user_id, integration_id, auth_method_id, scheme_key, credentials, variables, tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conn.ID, conn.UserID, conn.IntegrationID, conn.AuthMethodID, conn.SchemeKey,
		string(conn.Credentials), string(variables), tokens, time.Now().Unix(),
	)
	return err
}

// GetConnection retrieves a connection by id, or nil when absent.
func (s *Store) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, integration_id, auth_method_id, scheme_key,
		       credentials, variables, tokens,
		       last_test_status, last_test_message, last_test_at
		FROM connections WHERE id = ?`, id)

	var conn models.Connection
	var schemeKey, credentials, variables, tokens, testStatus, testMessage sql.NullString
	var testAt sql.NullInt64
	err := row.Scan(&conn.ID, &conn.UserID, &conn.IntegrationID, &conn.AuthMethodID, &schemeKey,
		&credentials, &variables, &tokens, &testStatus, &testMessage, &testAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	conn.SchemeKey = schemeKey.String
	conn.LastTestStatus = testStatus.String
	conn.LastTestMessage = testMessage.String
	if testAt.Valid {
		at := time.Unix(testAt.Int64, 0).UTC()
		conn.LastTestAt = &at
	}
	if credentials.Valid && credentials.String != "" {
		conn.Credentials = json.RawMessage(credentials.String)
	}
	if variables.Valid && variables.String != "" {
		if err := json.Unmarshal([]byte(variables.String), &conn.Variables); err != nil {
			return nil, fmt.Errorf("unmarshal variables for %s: %w", id, err)
		}
	}
	if tokens.Valid && tokens.String != "" {
		conn.Tokens = &models.StoredTokenRecord{}
		if err := json.Unmarshal([]byte(tokens.String), conn.Tokens); err != nil {
			return nil, fmt.Errorf("unmarshal tokens for %s: %w", id, err)
		}
	}
	return &conn, nil
}

// UpdateConnectionTest records the outcome of a test on the connection.
// Only the last-test fields are touched.
func (s *Store) UpdateConnectionTest(ctx context.Context, id, status, message string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE connections
		SET last_test_status = ?, last_test_message = ?, last_test_at = ?
		WHERE id = ?`,
		status, message, at.Unix(), id,
	)
	return err
}

// UpdateConnectionTokens replaces the stored token record wholesale.
func (s *Store) UpdateConnectionTokens(ctx context.Context, id string, rec *models.StoredTokenRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE connections SET tokens = ? WHERE id = ?", string(raw), id)
	return err
}

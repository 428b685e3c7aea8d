package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kpreslar/connectrix/internal/models"
)

// CreateIntegration inserts an integration with its auth schema document.
func (s *Store) CreateIntegration(ctx context.Context, integ *models.Integration) error {
	schema, err := json.Marshal(integ.AuthSchema)
	if err != nil {
		return fmt.Errorf("marshal auth schema: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO integrations (id, name, auth_schema, created_at) VALUES (?, ?, ?, ?)",
		integ.ID, integ.Name, string(schema), time.Now().Unix(),
	)
	return err
}

// GetIntegration retrieves an integration by id, or nil when absent.
func (s *Store) GetIntegration(ctx context.Context, id string) (*models.Integration, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, auth_schema FROM integrations WHERE id = ?", id)

	var integ models.Integration
	var schema string
	err := row.Scan(&integ.ID, &integ.Name, &schema)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(schema), &integ.AuthSchema); err != nil {
		return nil, fmt.Errorf("unmarshal auth schema for %s: %w", id, err)
	}
	return &integ, nil
}

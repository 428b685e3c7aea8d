package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/kpreslar/connectrix/internal/models"
)

// CreateAPIKey inserts a new admin API key and returns its id.
func (s *Store) CreateAPIKey(ctx context.Context, prefix string, hash []byte, label *string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO api_keys (key_prefix, key_hash, label, created_at) VALUES (?, ?, ?, ?)",
		prefix, hash, label, time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetAPIKeyByPrefix retrieves an admin API key by its prefix, or nil.
func (s *Store) GetAPIKeyByPrefix(ctx context.Context, prefix string) (*models.APIKey, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, key_prefix, key_hash, label, created_at, revoked_at FROM api_keys WHERE key_prefix = ?",
		prefix,
	)
	var key models.APIKey
	err := row.Scan(&key.ID, &key.KeyPrefix, &key.KeyHash, &key.Label, &key.CreatedAt, &key.RevokedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// RevokeAPIKey marks a key revoked. Revoked keys fail authentication but are
// kept for audit.
func (s *Store) RevokeAPIKey(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL",
		time.Now().Unix(), id,
	)
	return err
}

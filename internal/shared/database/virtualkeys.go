package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/llmgate/llmgate/internal/shared/models"
)

// CreateVirtualKey mints a new virtual key for a project. The generated
// UUID is both the primary key and the bearer secret handed to clients.
func (db *DB) CreateVirtualKey(ctx context.Context, projectName string) (*models.VirtualKey, error) {
	id := uuid.NewString()

	query := `
		INSERT INTO virtual_keys (id, project_name)
		VALUES ($1, $2)
		RETURNING id, project_name, created_at, is_active
	`

	var key models.VirtualKey
	err := db.conn.QueryRowContext(ctx, query, id, projectName).Scan(
		&key.ID,
		&key.ProjectName,
		&key.CreatedAt,
		&key.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual key: %w", err)
	}

	return &key, nil
}

// ListVirtualKeys returns all virtual keys, newest first.
func (db *DB) ListVirtualKeys(ctx context.Context) ([]models.VirtualKey, error) {
	query := `
		SELECT id, project_name, created_at, is_active
		FROM virtual_keys
		ORDER BY created_at DESC
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list virtual keys: %w", err)
	}
	defer rows.Close()

	keys := []models.VirtualKey{}
	for rows.Next() {
		var key models.VirtualKey
		if err := rows.Scan(&key.ID, &key.ProjectName, &key.CreatedAt, &key.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan virtual key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// RevokeVirtualKey flips is_active to false. Revoking an already-revoked
// key succeeds; an id that never existed returns models.ErrKeyNotFound.
func (db *DB) RevokeVirtualKey(ctx context.Context, id string) error {
	query := `UPDATE virtual_keys SET is_active = FALSE WHERE id = $1`

	result, err := db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke virtual key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrKeyNotFound
	}
	return nil
}

// GetActiveVirtualKey looks up a key by id, restricted to active keys.
// Revoked and unknown ids both yield models.ErrKeyNotFound so callers
// cannot distinguish key history.
func (db *DB) GetActiveVirtualKey(ctx context.Context, id string) (*models.VirtualKey, error) {
	query := `
		SELECT id, project_name, created_at, is_active
		FROM virtual_keys
		WHERE id = $1 AND is_active = TRUE
	`

	var key models.VirtualKey
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&key.ID,
		&key.ProjectName,
		&key.CreatedAt,
		&key.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &key, nil
}

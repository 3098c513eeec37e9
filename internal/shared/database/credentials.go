package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/llmgate/llmgate/internal/shared/models"
)

// UpsertCredential stores or replaces the real credential for a provider.
func (db *DB) UpsertCredential(ctx context.Context, cred models.ProviderCredential) error {
	query := `
		INSERT INTO provider_credentials (provider, api_key, base_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider) DO UPDATE
		SET api_key = EXCLUDED.api_key, base_url = EXCLUDED.base_url
	`

	if _, err := db.conn.ExecContext(ctx, query, cred.Provider, cred.APIKey, cred.BaseURL); err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}

// GetCredential fetches the real credential for a provider.
func (db *DB) GetCredential(ctx context.Context, provider string) (*models.ProviderCredential, error) {
	query := `SELECT provider, api_key, base_url FROM provider_credentials WHERE provider = $1`

	var cred models.ProviderCredential
	err := db.conn.QueryRowContext(ctx, query, provider).Scan(&cred.Provider, &cred.APIKey, &cred.BaseURL)
	if err == sql.ErrNoRows {
		return nil, models.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &cred, nil
}

// ListCredentials returns every configured credential. Callers are
// responsible for masking api_key values before display.
func (db *DB) ListCredentials(ctx context.Context) ([]models.ProviderCredential, error) {
	query := `SELECT provider, api_key, base_url FROM provider_credentials ORDER BY provider`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	creds := []models.ProviderCredential{}
	for rows.Next() {
		var cred models.ProviderCredential
		if err := rows.Scan(&cred.Provider, &cred.APIKey, &cred.BaseURL); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

package database

import (
	"context"
	"fmt"

	"github.com/llmgate/llmgate/internal/shared/models"
)

// AppendUsage writes one usage record and returns its assigned id.
// Ids come from a single BIGSERIAL sequence, so they stay monotonic and
// collision-free under concurrent appenders.
func (db *DB) AppendUsage(ctx context.Context, rec *models.UsageRecord) (int64, error) {
	query := `
		INSERT INTO usage_records (virtual_key_id, provider, endpoint, request_tokens, response_tokens, estimated_cost)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := db.conn.QueryRowContext(ctx, query,
		rec.VirtualKeyID,
		rec.Provider,
		rec.Endpoint,
		rec.RequestTokens,
		rec.ResponseTokens,
		rec.EstimatedCost,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append usage record: %w", err)
	}

	return id, nil
}

// UsageStats aggregates the usage ledger per virtual key. Keys with zero
// usage still appear with zero totals (left join), newest keys first.
func (db *DB) UsageStats(ctx context.Context) ([]models.UsageStats, error) {
	query := `
		SELECT
			vk.id,
			vk.project_name,
			COUNT(ur.id) AS total_requests,
			COALESCE(SUM(ur.request_tokens + ur.response_tokens), 0) AS total_tokens,
			COALESCE(SUM(ur.estimated_cost), 0) AS estimated_cost
		FROM virtual_keys vk
		LEFT JOIN usage_records ur ON vk.id = ur.virtual_key_id
		GROUP BY vk.id, vk.project_name, vk.created_at
		ORDER BY vk.created_at DESC
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	defer rows.Close()

	stats := []models.UsageStats{}
	for rows.Next() {
		var s models.UsageStats
		if err := rows.Scan(&s.VirtualKeyID, &s.ProjectName, &s.TotalRequests, &s.TotalTokens, &s.EstimatedCost); err != nil {
			return nil, fmt.Errorf("failed to scan usage stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-roulette-bot/internal/model"
)

// AuditRepository stores game audit records as JSONB.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository instance.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Create inserts an audit record.
func (r *AuditRepository) Create(ctx context.Context, fromID, toID int64, subject string, data map[string]any) (*model.AuditEntry, error) {
	const query = `
		INSERT INTO audit_log (from_id, to_id, subject, data, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, from_id, to_id, subject, data, created_at
	`

	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit data: %w", err)
	}

	var entry model.AuditEntry
	err = r.pool.QueryRow(ctx, query, fromID, toID, subject, raw).Scan(
		&entry.ID,
		&entry.FromID,
		&entry.ToID,
		&entry.Subject,
		&entry.Data,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit entry: %w", err)
	}

	return &entry, nil
}

// GetBySubject returns the latest audit records with the given subject.
func (r *AuditRepository) GetBySubject(ctx context.Context, subject string, limit int) ([]*model.AuditEntry, error) {
	const query = `
		SELECT id, from_id, to_id, subject, data, created_at
		FROM audit_log
		WHERE subject = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.AuditEntry
	for rows.Next() {
		var entry model.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.FromID,
			&entry.ToID,
			&entry.Subject,
			&entry.Data,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

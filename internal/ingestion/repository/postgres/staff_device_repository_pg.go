package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type PgStaffDeviceRepository struct {
	db     DB
	logger *slog.Logger
}

func NewPgStaffDeviceRepository(db DB, logger *slog.Logger) *PgStaffDeviceRepository {
	return &PgStaffDeviceRepository{db: db, logger: logger.With("component", "staff_device_repository_pg")}
}

func (r *PgStaffDeviceRepository) ListTokensByTenant(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	query := `SELECT push_token FROM staff_devices WHERE tenant_id = $1`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing staff push tokens", "error", err, "tenant_id", tenantID)
		return nil, fmt.Errorf("failed to list staff push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan staff push token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read staff push tokens: %w", err)
	}
	return tokens, nil
}

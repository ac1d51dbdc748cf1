package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

type PgRequestRepository struct {
	db     DB
	logger *slog.Logger
}

func NewPgRequestRepository(db DB, logger *slog.Logger) *PgRequestRepository {
	return &PgRequestRepository{db: db, logger: logger.With("component", "request_repository_pg")}
}

// CreateIfAbsent inserts the request unless its provider message id already
// produced a row. The partial unique index on provider_message_id makes the
// insert itself the idempotency check; a read-then-write would race.
func (r *PgRequestRepository) CreateIfAbsent(ctx context.Context, req *domain.Request) (bool, error) {
	query := `
		INSERT INTO requests (
			id, tenant_id, phone, message, department, priority,
			room_number, staff, vip, provider_message_id, source,
			acknowledged, completed, cancelled, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		ON CONFLICT (provider_message_id) WHERE provider_message_id IS NOT NULL
		DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		req.ID, req.TenantID, req.Phone, req.Message, req.Department, req.Priority,
		req.RoomNumber, req.Staff, req.VIP, req.ProviderMessageID, req.Source,
		req.Acknowledged, req.Completed, req.Cancelled, req.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting request",
			"error", err,
			"request_id", req.ID,
			"provider_message_id", req.ProviderMessageID.String,
		)
		return false, fmt.Errorf("failed to insert request: %w", err)
	}

	created := tag.RowsAffected() == 1
	if !created {
		r.logger.InfoContext(ctx, "Request insert skipped, provider message id already persisted",
			"provider_message_id", req.ProviderMessageID.String)
	}
	return created, nil
}

func (r *PgRequestRepository) ExistsByProviderMessageID(ctx context.Context, providerMessageID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM requests WHERE provider_message_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, providerMessageID).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "Error checking request existence", "error", err, "provider_message_id", providerMessageID)
		return false, fmt.Errorf("failed to check request existence: %w", err)
	}
	return exists, nil
}

func (r *PgRequestRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.Request, error) {
	query := `
		SELECT id, tenant_id, phone, message, department, priority,
		       room_number, staff, vip, provider_message_id, source,
		       acknowledged, completed, cancelled, created_at,
		       acknowledged_at, completed_at
		FROM requests
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing requests", "error", err, "tenant_id", tenantID)
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.Request
	for rows.Next() {
		var req domain.Request
		if err := rows.Scan(
			&req.ID, &req.TenantID, &req.Phone, &req.Message, &req.Department, &req.Priority,
			&req.RoomNumber, &req.Staff, &req.VIP, &req.ProviderMessageID, &req.Source,
			&req.Acknowledged, &req.Completed, &req.Cancelled, &req.CreatedAt,
			&req.AcknowledgedAt, &req.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read requests: %w", err)
	}
	return requests, nil
}

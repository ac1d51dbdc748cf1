package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

type PgGuestRepository struct {
	db     DB
	logger *slog.Logger
}

func NewPgGuestRepository(db DB, logger *slog.Logger) *PgGuestRepository {
	return &PgGuestRepository{db: db, logger: logger.With("component", "guest_repository_pg")}
}

// IncrementRequests upserts the guest row and derives the vip flag in the
// same statement, so concurrent messages from one sender cannot lose counts.
func (r *PgGuestRepository) IncrementRequests(ctx context.Context, tenantID uuid.UUID, phone string) (*domain.Guest, error) {
	query := `
		INSERT INTO guests (tenant_id, phone, total_requests, vip, last_request_at)
		VALUES ($1, $2, 1, FALSE, NOW())
		ON CONFLICT (tenant_id, phone) DO UPDATE
		SET total_requests = guests.total_requests + 1,
		    vip = guests.total_requests + 1 > $3,
		    last_request_at = NOW()
		RETURNING tenant_id, phone, total_requests, vip, last_request_at`

	var g domain.Guest
	err := r.db.QueryRow(ctx, query, tenantID, phone, domain.VIPThreshold).Scan(
		&g.TenantID, &g.Phone, &g.TotalRequests, &g.VIP, &g.LastRequestAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting guest stats", "error", err, "tenant_id", tenantID, "phone", phone)
		return nil, fmt.Errorf("failed to upsert guest stats: %w", err)
	}
	return &g, nil
}

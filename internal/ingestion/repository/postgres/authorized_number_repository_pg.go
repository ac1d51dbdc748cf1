package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

type PgAuthorizedNumberRepository struct {
	db     DB
	logger *slog.Logger
}

func NewPgAuthorizedNumberRepository(db DB, logger *slog.Logger) *PgAuthorizedNumberRepository {
	return &PgAuthorizedNumberRepository{db: db, logger: logger.With("component", "authorized_number_repository_pg")}
}

// FindByPhone returns the authorization for (phone, tenant) or nil when none
// exists. Expiry is not evaluated here.
func (r *PgAuthorizedNumberRepository) FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*domain.AuthorizedNumber, error) {
	query := `
		SELECT id, tenant_id, phone, room_number, expires_at, staff, created_at
		FROM authorized_numbers
		WHERE tenant_id = $1 AND phone = $2
		LIMIT 1`

	var a domain.AuthorizedNumber
	err := r.db.QueryRow(ctx, query, tenantID, phone).Scan(
		&a.ID, &a.TenantID, &a.Phone, &a.RoomNumber, &a.ExpiresAt, &a.Staff, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Error looking up authorized number", "error", err, "tenant_id", tenantID, "phone", phone)
		return nil, fmt.Errorf("failed to look up authorized number: %w", err)
	}
	return &a, nil
}

// Upsert writes the authorization under the (tenant_id, phone) unique key.
// An expired row from a previous stay is simply overwritten.
func (r *PgAuthorizedNumberRepository) Upsert(ctx context.Context, auth *domain.AuthorizedNumber) error {
	query := `
		INSERT INTO authorized_numbers (id, tenant_id, phone, room_number, expires_at, staff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, phone) DO UPDATE
		SET room_number = EXCLUDED.room_number,
		    expires_at = EXCLUDED.expires_at,
		    staff = EXCLUDED.staff`

	_, err := r.db.Exec(ctx, query,
		auth.ID, auth.TenantID, auth.Phone, auth.RoomNumber, auth.ExpiresAt, auth.Staff, auth.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting authorized number", "error", err, "tenant_id", auth.TenantID, "phone", auth.Phone)
		return fmt.Errorf("failed to upsert authorized number: %w", err)
	}
	return nil
}

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

type PgTenantRepository struct {
	db     DB
	logger *slog.Logger
}

func NewPgTenantRepository(db DB, logger *slog.Logger) *PgTenantRepository {
	return &PgTenantRepository{db: db, logger: logger.With("component", "tenant_repository_pg")}
}

// FindByReceivingNumber resolves the DID to its owning tenant. The dedicated
// tenant_numbers mapping table wins; the tenant's own recorded contact
// numbers are the fallback. Inactive tenants never match.
func (r *PgTenantRepository) FindByReceivingNumber(ctx context.Context, number string) (*domain.Tenant, error) {
	directQuery := `
		SELECT t.id, t.name, t.active, t.enabled_departments, t.contact_numbers, t.created_at
		FROM tenant_numbers tn
		JOIN tenants t ON t.id = tn.tenant_id
		WHERE tn.number = $1 AND t.active = TRUE
		LIMIT 1`

	tenant, err := r.scanTenant(r.db.QueryRow(ctx, directQuery, number))
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.ErrorContext(ctx, "Error resolving tenant by number mapping", "error", err, "number", number)
		return nil, fmt.Errorf("failed to resolve tenant by number: %w", err)
	}

	fallbackQuery := `
		SELECT id, name, active, enabled_departments, contact_numbers, created_at
		FROM tenants
		WHERE $1 = ANY(contact_numbers) AND active = TRUE
		LIMIT 1`

	tenant, err = r.scanTenant(r.db.QueryRow(ctx, fallbackQuery, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		r.logger.ErrorContext(ctx, "Error resolving tenant by contact numbers", "error", err, "number", number)
		return nil, fmt.Errorf("failed to resolve tenant by contact number: %w", err)
	}
	return tenant, nil
}

func (r *PgTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `
		SELECT id, name, active, enabled_departments, contact_numbers, created_at
		FROM tenants
		WHERE id = $1`

	tenant, err := r.scanTenant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		r.logger.ErrorContext(ctx, "Error loading tenant by id", "error", err, "tenant_id", id)
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	return tenant, nil
}

func (r *PgTenantRepository) scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Active, &t.EnabledDepartments, &t.ContactNumbers, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

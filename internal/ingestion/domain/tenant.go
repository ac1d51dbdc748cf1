package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant represents a property (hotel) that owns rooms, authorizations and
// service requests. All other rows are scoped to a tenant id; nothing is
// shared across tenants.
type Tenant struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Active             bool      `json:"active"`
	EnabledDepartments []string  `json:"enabled_departments"`
	ContactNumbers     []string  `json:"contact_numbers"`
	CreatedAt          time.Time `json:"created_at"`
}

// DefaultDepartment returns the first enabled department, the deterministic
// fallback used when classification fails or returns an unknown department.
func (t *Tenant) DefaultDepartment() string {
	if len(t.EnabledDepartments) == 0 {
		return "front_desk"
	}
	return t.EnabledDepartments[0]
}

// DepartmentEnabled reports whether dept is in the tenant's enabled list.
func (t *Tenant) DepartmentEnabled(dept string) bool {
	for _, d := range t.EnabledDepartments {
		if d == dept {
			return true
		}
	}
	return false
}

// TenantRepository resolves and loads tenants.
type TenantRepository interface {
	// FindByReceivingNumber maps the DID that received a message to its
	// owning tenant. The direct number mapping table is consulted first,
	// then the tenant's own recorded contact numbers. Returns
	// ErrTenantNotFound when no active tenant matches.
	FindByReceivingNumber(ctx context.Context, number string) (*Tenant, error)

	// GetByID loads a tenant by id. Returns ErrTenantNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}

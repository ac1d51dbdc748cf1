package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// AuthState classifies a sender for a given tenant.
type AuthState int

const (
	AuthUnauthorized AuthState = iota
	AuthGuest
	AuthStaff
)

func (s AuthState) String() string {
	switch s {
	case AuthStaff:
		return "staff"
	case AuthGuest:
		return "guest"
	default:
		return "unauthorized"
	}
}

// AuthorizedNumber grants a phone number the right to message a tenant.
// A nil ExpiresAt means the authorization never expires (staff); an expiry
// in the past is treated identically to no record at all.
type AuthorizedNumber struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	Phone      string         `json:"phone"`
	RoomNumber sql.NullString `json:"room_number,omitempty"`
	ExpiresAt  sql.NullTime   `json:"expires_at,omitempty"`
	Staff      bool           `json:"staff"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ActiveAt reports whether the authorization is usable at the given instant.
// Staff authorizations ignore expiry entirely.
func (a *AuthorizedNumber) ActiveAt(now time.Time) bool {
	if a.Staff {
		return true
	}
	if !a.ExpiresAt.Valid {
		return true
	}
	return a.ExpiresAt.Time.After(now)
}

// AuthorizedNumberRepository persists sender authorizations. Unique per
// (phone, tenant).
type AuthorizedNumberRepository interface {
	// FindByPhone returns the authorization for (phone, tenant) or nil when
	// no row exists. Expiry is NOT evaluated here; callers decide.
	FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*AuthorizedNumber, error)

	// Upsert writes the authorization, replacing any previous row for the
	// same (phone, tenant). Auto-pairing relies on this to supersede an
	// expired authorization left from an earlier stay.
	Upsert(ctx context.Context, auth *AuthorizedNumber) error
}

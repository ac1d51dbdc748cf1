package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VIPThreshold is the total-request count above which a guest is flagged VIP.
const VIPThreshold = 10

// Guest accumulates per-sender request statistics for a tenant. Upserted on
// every inbound message from a non-staff sender.
type Guest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	Phone         string    `json:"phone"`
	TotalRequests int       `json:"total_requests"`
	VIP           bool      `json:"vip"`
	LastRequestAt time.Time `json:"last_request_at"`
}

// GuestRepository maintains guest statistics.
type GuestRepository interface {
	// IncrementRequests upserts the guest row, bumps total_requests, stamps
	// last_request_at and derives the vip flag (total_requests > VIPThreshold).
	// Returns the post-update row.
	IncrementRequests(ctx context.Context, tenantID uuid.UUID, phone string) (*Guest, error)
}

// StaffDevice is a registered staff push target. Token CRUD lives in a
// separate collaborator; this pipeline only reads tokens for fanout.
type StaffDevice struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	PushToken string    `json:"push_token"`
	CreatedAt time.Time `json:"created_at"`
}

// StaffDeviceRepository reads staff push tokens.
type StaffDeviceRepository interface {
	ListTokensByTenant(ctx context.Context, tenantID uuid.UUID) ([]string, error)
}

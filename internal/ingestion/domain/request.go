package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Priority is the triage urgency of a request.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityUrgent, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Source channels for requests.
const (
	SourceSMS = "sms"
	SourceAPI = "api"
)

// Request is a persisted, actionable guest service request. Created exactly
// once per unique provider message id for the SMS source; mutated later by
// the acknowledge/complete collaborator, which is outside this pipeline.
type Request struct {
	ID                uuid.UUID      `json:"id"`
	TenantID          uuid.UUID      `json:"tenant_id"`
	Phone             string         `json:"phone"`
	Message           string         `json:"message"`
	Department        string         `json:"department"`
	Priority          Priority       `json:"priority"`
	RoomNumber        sql.NullString `json:"room_number,omitempty"`
	Staff             bool           `json:"staff"`
	VIP               bool           `json:"vip"`
	ProviderMessageID sql.NullString `json:"provider_message_id,omitempty"`
	Source            string         `json:"source"`
	Acknowledged      bool           `json:"acknowledged"`
	Completed         bool           `json:"completed"`
	Cancelled         bool           `json:"cancelled"`
	CreatedAt         time.Time      `json:"created_at"`
	AcknowledgedAt    sql.NullTime   `json:"acknowledged_at,omitempty"`
	CompletedAt       sql.NullTime   `json:"completed_at,omitempty"`
}

// RequestRepository persists requests. The provider message id carries a
// unique constraint; the insert is the idempotency source of truth.
type RequestRepository interface {
	// CreateIfAbsent inserts the request unless a row with the same provider
	// message id already exists. Returns false (and no error) for the
	// duplicate case. Requests without a provider message id always insert.
	CreateIfAbsent(ctx context.Context, req *Request) (created bool, err error)

	// ExistsByProviderMessageID reports whether a request for the provider
	// message id has been persisted. Cheap short-circuit only; CreateIfAbsent
	// remains authoritative under races.
	ExistsByProviderMessageID(ctx context.Context, providerMessageID string) (bool, error)

	// ListByTenant returns a tenant's requests, newest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]Request, error)
}

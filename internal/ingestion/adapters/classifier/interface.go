package classifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// Classification is the raw triage result from the external service. The
// pipeline snaps the department to the tenant's enabled list and normalizes
// the priority before trusting either field.
type Classification struct {
	Department string          `json:"department"`
	Priority   domain.Priority `json:"priority"`
}

// Classifier is the external text-triage contract. Calls must be idempotent
// and side-effect-free from the caller's perspective; any failure is handled
// by the caller's deterministic fallback, never propagated as a pipeline
// failure.
type Classifier interface {
	Classify(ctx context.Context, text string, tenantID uuid.UUID) (*Classification, error)
}

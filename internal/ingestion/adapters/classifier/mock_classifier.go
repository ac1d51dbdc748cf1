package classifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// MockClassifier returns a fixed classification; useful for development when
// no triage service is running.
type MockClassifier struct {
	Department string
	Priority   domain.Priority
	Err        error
}

func (m *MockClassifier) Classify(ctx context.Context, text string, tenantID uuid.UUID) (*Classification, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &Classification{Department: m.Department, Priority: m.Priority}, nil
}

package smsprovider

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a simulated SMS provider for testing and development.
type MockProvider struct {
	logger       *slog.Logger
	name         string
	failRate     float64 // Chance to simulate failure (0.0 to 1.0)
	minLatencyMs int
	maxLatencyMs int
}

// NewMockProvider creates a new MockProvider.
func NewMockProvider(logger *slog.Logger, name string, failRate float64, minLatencyMs, maxLatencyMs int) Adapter {
	if name == "" {
		name = "mock-provider"
	}
	return &MockProvider{
		logger:       logger.With("provider", name),
		name:         name,
		failRate:     failRate,
		minLatencyMs: minLatencyMs,
		maxLatencyMs: maxLatencyMs,
	}
}

func (p *MockProvider) GetName() string {
	return p.name
}

func (p *MockProvider) Send(ctx context.Context, request SendRequest) (*SendResponse, error) {
	if p.maxLatencyMs > p.minLatencyMs {
		latency := p.minLatencyMs + rand.Intn(p.maxLatencyMs-p.minLatencyMs+1)
		time.Sleep(time.Duration(latency) * time.Millisecond)
	}

	p.logger.InfoContext(ctx, "MockProvider: Send called",
		"from", request.From,
		"to", request.To,
		"text_len", len(request.Text))

	if rand.Float64() < p.failRate {
		errMsg := fmt.Sprintf("MockProvider simulated failure for recipient %s", request.To)
		p.logger.WarnContext(ctx, errMsg)
		return &SendResponse{
			Success:      false,
			StatusCode:   500,
			ErrorMessage: errMsg,
			ProviderName: p.name,
		}, nil
	}

	return &SendResponse{
		ProviderMessageID: uuid.NewString(),
		Success:           true,
		StatusCode:        200,
		ProviderName:      p.name,
	}, nil
}

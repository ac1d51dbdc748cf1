package smsprovider

import (
	"context"
)

// SendRequest holds the data for one outbound text message.
type SendRequest struct {
	From string
	To   string
	Text string
}

// SendResponse holds the outcome of a send attempt.
type SendResponse struct {
	ProviderMessageID string
	Success           bool
	StatusCode        int
	ErrorMessage      string
	ProviderName      string
}

// Adapter is the outbound messaging contract. Sends are best-effort in the
// ingestion pipeline: a failed send is logged and never retried, since a
// retry would duplicate the user-visible message.
type Adapter interface {
	Send(ctx context.Context, request SendRequest) (*SendResponse, error)
	GetName() string
}

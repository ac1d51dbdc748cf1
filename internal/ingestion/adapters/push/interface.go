package push

import "context"

// Notification is a staff-facing push alert.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Ticket is a per-message delivery receipt from the push service.
type Ticket struct {
	ID      string `json:"id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Sender delivers push notifications. Implementations de-duplicate tokens
// and drop malformed ones before sending; an empty or fully-invalid token
// set is a no-op, not an error.
type Sender interface {
	Send(ctx context.Context, tokens []string, notification Notification) ([]Ticket, error)
}

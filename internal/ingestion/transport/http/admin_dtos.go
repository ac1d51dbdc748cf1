package http

import "time"

type checkInRequest struct {
	TenantID   string    `json:"tenant_id" validate:"required,uuid"`
	RoomNumber string    `json:"room_number" validate:"required"`
	Phone      string    `json:"phone" validate:"required,e164"`
	CheckoutAt time.Time `json:"checkout_at" validate:"required"`
}

type checkOutRequest struct {
	TenantID   string `json:"tenant_id" validate:"required,uuid"`
	RoomNumber string `json:"room_number" validate:"required"`
}

type checkOutResponse struct {
	Status                string `json:"status"`
	AuthorizationsRemoved int64  `json:"authorizations_removed"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// errorResponse carries a machine-readable reason code alongside the message.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type requestListItem struct {
	ID           string     `json:"id"`
	Phone        string     `json:"phone"`
	Message      string     `json:"message"`
	Department   string     `json:"department"`
	Priority     string     `json:"priority"`
	RoomNumber   string     `json:"room_number,omitempty"`
	Staff        bool       `json:"staff"`
	VIP          bool       `json:"vip"`
	Source       string     `json:"source"`
	Acknowledged bool       `json:"acknowledged"`
	Completed    bool       `json:"completed"`
	Cancelled    bool       `json:"cancelled"`
	CreatedAt    time.Time  `json:"created_at"`
}

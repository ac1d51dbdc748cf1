package http

// Provider webhook envelope. Only message.received events with inbound
// direction are processed; everything else is acknowledged and ignored.
const (
	eventTypeMessageReceived = "message.received"
	recordTypeEvent          = "event"
	recordTypeMessage        = "message"
	directionInbound         = "inbound"
)

type webhookPhone struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type webhookMessagePayload struct {
	RecordType string         `json:"record_type" validate:"required"`
	ID         string         `json:"id" validate:"required"`
	Direction  string         `json:"direction" validate:"required"`
	From       webhookPhone   `json:"from"`
	To         []webhookPhone `json:"to" validate:"min=1,dive"`
	Text       string         `json:"text"`
}

type webhookEvent struct {
	EventType  string                `json:"event_type" validate:"required"`
	RecordType string                `json:"record_type" validate:"required"`
	Payload    webhookMessagePayload `json:"payload"`
}

type webhookResponse struct {
	Status string `json:"status"`
}

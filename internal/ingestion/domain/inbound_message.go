package domain

// InboundMessage is the validated, provider-neutral form of a received text
// message. It is never stored as its own row; the provider message id
// becomes the idempotency key on the persisted Request.
type InboundMessage struct {
	ProviderMessageID string
	From              string
	To                string
	Text              string
}

package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/app"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

const maxWebhookBodySize = 1 << 20 // 1 MB

// InboundProcessor is the pipeline contract the webhook handler needs.
// Interface-typed so tests can mock it.
type InboundProcessor interface {
	ProcessInbound(ctx context.Context, msg domain.InboundMessage) (app.Outcome, error)
}

type WebhookHandler struct {
	pipeline InboundProcessor
	logger   *slog.Logger
	validate *validator.Validate
	secret   string
}

func NewWebhookHandler(pipeline InboundProcessor, logger *slog.Logger, validate *validator.Validate, secret string) *WebhookHandler {
	return &WebhookHandler{
		pipeline: pipeline,
		logger:   logger.With("handler", "webhook"),
		validate: validate,
		secret:   secret,
	}
}

// HandleMessageEvent receives message webhooks from the telephony provider.
// Business outcomes never produce a non-2xx status: the provider retries on
// failure, and a retry storm would duplicate side effects. The short body
// string is the only signal of what happened.
func (h *WebhookHandler) HandleMessageEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi_middleware.GetReqID(ctx)
	logger := h.logger.With("request_id", requestID)

	if h.secret != "" {
		provided := r.Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			logger.WarnContext(ctx, "Webhook secret mismatch", "remote_addr", r.RemoteAddr)
			respond(w, logger, "ignored:bad-secret")
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read webhook body", "error", err)
		respond(w, logger, "ignored:unreadable-body")
		return
	}
	defer r.Body.Close()

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.WarnContext(ctx, "Failed to decode webhook JSON", "error", err)
		respond(w, logger, "ignored:malformed-json")
		return
	}

	if event.EventType != eventTypeMessageReceived || event.RecordType != recordTypeEvent {
		logger.InfoContext(ctx, "Non-message event acknowledged and ignored", "event_type", event.EventType)
		respond(w, logger, "ignored:event-type")
		return
	}
	if event.Payload.RecordType != recordTypeMessage || event.Payload.Direction != directionInbound {
		logger.InfoContext(ctx, "Non-inbound payload acknowledged and ignored",
			"record_type", event.Payload.RecordType, "direction", event.Payload.Direction)
		respond(w, logger, "ignored:direction")
		return
	}

	if err := h.validate.StructCtx(ctx, event); err != nil {
		logger.WarnContext(ctx, "Webhook payload failed validation", "error", err)
		respond(w, logger, "ignored:invalid-payload")
		return
	}

	msg := domain.InboundMessage{
		ProviderMessageID: event.Payload.ID,
		From:              event.Payload.From.PhoneNumber,
		To:                event.Payload.To[0].PhoneNumber,
		Text:              event.Payload.Text,
	}

	outcome, err := h.pipeline.ProcessInbound(ctx, msg)
	if err != nil {
		// Already alarmed inside the pipeline; the provider still gets a 200.
		logger.ErrorContext(ctx, "Pipeline reported internal failure", "error", err, "outcome", string(outcome))
	}

	switch outcome {
	case app.OutcomeDuplicate:
		respond(w, logger, "ignored:duplicate")
	case app.OutcomeUnknownTenant:
		respond(w, logger, "ignored:unknown-tenant")
	case app.OutcomeBlocked:
		respond(w, logger, "blocked:unauthorized")
	default:
		respond(w, logger, "ok")
	}
}

func respond(w http.ResponseWriter, logger *slog.Logger, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(webhookResponse{Status: status}); err != nil {
		logger.Warn("Failed to write webhook response", "error", err)
	}
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/classifier"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/push"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/smsprovider"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// Outcome is the pipeline's disposition for one inbound delivery. The
// webhook layer maps it to a response body; every outcome is an HTTP 200.
type Outcome string

const (
	OutcomeProcessed     Outcome = "processed"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeUnknownTenant Outcome = "unknown_tenant"
	OutcomeBlocked       Outcome = "blocked"
	OutcomeStoreFailed   Outcome = "store_failed"
)

// PipelineConfig carries the ingestion policy knobs. Built once at startup;
// never mutated.
type PipelineConfig struct {
	// GuestAuthRequired blocks ingestion for senders that resolve to
	// Unauthorized. When false, unauthorized messages ingest with
	// staff=false and no room.
	GuestAuthRequired bool

	ConfirmationText string
	RejectionText    string

	// SendTimeout bounds each outbound messaging call; PushTimeout bounds
	// the staff fanout. A hung provider must not stall the webhook response.
	SendTimeout time.Duration
	PushTimeout time.Duration
}

// SenderAuthorizer resolves a sender's authorization state for a tenant.
type SenderAuthorizer interface {
	Resolve(ctx context.Context, tenant *domain.Tenant, phone string) (*Authorization, error)
}

// MessagePipeline orchestrates inbound message ingestion: idempotency,
// tenant resolution, authorization, confirmation, classification, guest
// stats, persistence and staff notification.
type MessagePipeline struct {
	cfg         PipelineConfig
	tenantRepo  domain.TenantRepository
	authorizer  SenderAuthorizer
	requestRepo domain.RequestRepository
	guestRepo   domain.GuestRepository
	staffRepo   domain.StaffDeviceRepository
	classify    classifier.Classifier
	sms         smsprovider.Adapter
	pusher      push.Sender
	logger      *slog.Logger

	notifyWG sync.WaitGroup
}

func NewMessagePipeline(
	cfg PipelineConfig,
	tenantRepo domain.TenantRepository,
	authorizer SenderAuthorizer,
	requestRepo domain.RequestRepository,
	guestRepo domain.GuestRepository,
	staffRepo domain.StaffDeviceRepository,
	classify classifier.Classifier,
	sms smsprovider.Adapter,
	pusher push.Sender,
	logger *slog.Logger,
) *MessagePipeline {
	return &MessagePipeline{
		cfg:         cfg,
		tenantRepo:  tenantRepo,
		authorizer:  authorizer,
		requestRepo: requestRepo,
		guestRepo:   guestRepo,
		staffRepo:   staffRepo,
		classify:    classify,
		sms:         sms,
		pusher:      pusher,
		logger:      logger.With("component", "message_pipeline"),
	}
}

// ProcessInbound runs the full ingestion pipeline for one delivery. It never
// returns an error for business outcomes; the error return covers only
// internal failures, and even those are absorbed into OutcomeStoreFailed by
// the webhook layer so the provider never sees a non-success status.
func (p *MessagePipeline) ProcessInbound(ctx context.Context, msg domain.InboundMessage) (Outcome, error) {
	start := time.Now()
	outcome, err := p.processInbound(ctx, msg)
	pipelineDurationHist.Observe(time.Since(start).Seconds())
	messagesProcessedCounter.WithLabelValues(string(outcome)).Inc()
	return outcome, err
}

func (p *MessagePipeline) processInbound(ctx context.Context, msg domain.InboundMessage) (Outcome, error) {
	logger := p.logger.With("provider_message_id", msg.ProviderMessageID, "from", msg.From, "to", msg.To)

	// Cheap duplicate short-circuit. The request insert below stays
	// authoritative; a racing duplicate that slips past this check still
	// cannot produce a second row.
	if msg.ProviderMessageID != "" {
		exists, err := p.requestRepo.ExistsByProviderMessageID(ctx, msg.ProviderMessageID)
		if err != nil {
			logger.WarnContext(ctx, "Duplicate pre-check failed, relying on insert constraint", "error", err)
		} else if exists {
			logger.InfoContext(ctx, "Duplicate delivery dropped")
			return OutcomeDuplicate, nil
		}
	}

	tenant, err := p.tenantRepo.FindByReceivingNumber(ctx, msg.To)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			logger.InfoContext(ctx, "No active tenant for receiving number, message dropped")
			return OutcomeUnknownTenant, nil
		}
		logger.ErrorContext(ctx, "Tenant resolution failed", "error", err)
		return OutcomeStoreFailed, err
	}
	logger = logger.With("tenant_id", tenant.ID)

	authz, err := p.authorizer.Resolve(ctx, tenant, msg.From)
	if err != nil {
		logger.ErrorContext(ctx, "Authorization resolution failed", "error", err)
		return OutcomeStoreFailed, err
	}
	logger = logger.With("auth_state", authz.State.String())

	if authz.State == domain.AuthUnauthorized {
		if p.cfg.GuestAuthRequired {
			logger.InfoContext(ctx, "Unauthorized sender blocked, sending rejection notice")
			p.sendOutbound(ctx, logger, "rejection", msg.To, msg.From, p.cfg.RejectionText)
			return OutcomeBlocked, nil
		}
		logger.InfoContext(ctx, "Unauthorized sender admitted, guest authorization not required")
	}

	// Confirmation is best-effort and never retried: a retry would hand the
	// guest a duplicate confirmation.
	p.sendOutbound(ctx, logger, "confirmation", msg.To, msg.From, p.cfg.ConfirmationText)

	cls, clsErr := p.classify.Classify(ctx, msg.Text, tenant.ID)
	department, priority := resolveTriage(ctx, logger, tenant, cls, clsErr)

	staff := authz.State == domain.AuthStaff
	vip := false
	if !staff {
		guest, err := p.guestRepo.IncrementRequests(ctx, tenant.ID, msg.From)
		if err != nil {
			logger.WarnContext(ctx, "Guest stats update failed, continuing", "error", err)
		} else {
			vip = guest.VIP
		}
	}

	request := &domain.Request{
		ID:         uuid.New(),
		TenantID:   tenant.ID,
		Phone:      msg.From,
		Message:    msg.Text,
		Department: department,
		Priority:   priority,
		RoomNumber: authz.RoomNumber,
		Staff:      staff,
		VIP:        vip,
		Source:     domain.SourceSMS,
		CreatedAt:  time.Now().UTC(),
	}
	if msg.ProviderMessageID != "" {
		request.ProviderMessageID = sql.NullString{String: msg.ProviderMessageID, Valid: true}
	}

	created, err := p.requestRepo.CreateIfAbsent(ctx, request)
	if err != nil {
		// Deliberate tradeoff: the webhook still acknowledges so the
		// provider does not retry-storm us; the loss is alarmed instead.
		logger.ErrorContext(ctx, "ALARM: request persistence failed, message not captured",
			"error", err, "department", department, "priority", string(priority))
		return OutcomeStoreFailed, err
	}
	if !created {
		logger.InfoContext(ctx, "Concurrent duplicate lost the insert race, no request persisted")
		return OutcomeDuplicate, nil
	}

	logger.InfoContext(ctx, "Request persisted",
		"request_id", request.ID,
		"department", department,
		"priority", string(priority),
		"room_number", request.RoomNumber.String,
		"staff", staff,
		"vip", vip,
	)

	// Persistence happens-before staff notification; the fanout itself is
	// fire-and-forget relative to the webhook response.
	p.notifyWG.Add(1)
	notifyCtx := context.WithoutCancel(ctx)
	go func() {
		defer p.notifyWG.Done()
		p.notifyStaff(notifyCtx, tenant, request)
	}()

	return OutcomeProcessed, nil
}

// Drain waits for in-flight staff notifications; called on shutdown.
func (p *MessagePipeline) Drain() {
	p.notifyWG.Wait()
}

func (p *MessagePipeline) sendOutbound(ctx context.Context, logger *slog.Logger, kind, from, to, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, p.cfg.SendTimeout)
	defer cancel()

	resp, err := p.sms.Send(sendCtx, smsprovider.SendRequest{From: from, To: to, Text: text})
	if err != nil || (resp != nil && !resp.Success) {
		status := "failed"
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		} else {
			errMsg = resp.ErrorMessage
		}
		logger.WarnContext(ctx, "Outbound message failed, not retried", "kind", kind, "error", errMsg)
		outboundSendCounter.WithLabelValues(kind, status).Inc()
		return
	}
	outboundSendCounter.WithLabelValues(kind, "sent").Inc()
}

func (p *MessagePipeline) notifyStaff(ctx context.Context, tenant *domain.Tenant, request *domain.Request) {
	pushCtx, cancel := context.WithTimeout(ctx, p.cfg.PushTimeout)
	defer cancel()

	logger := p.logger.With("tenant_id", tenant.ID, "request_id", request.ID)

	tokens, err := p.staffRepo.ListTokensByTenant(pushCtx, tenant.ID)
	if err != nil {
		logger.WarnContext(ctx, "Staff token lookup failed, notification skipped", "error", err)
		staffNotifyCounter.WithLabelValues("failed").Inc()
		return
	}
	if len(tokens) == 0 {
		staffNotifyCounter.WithLabelValues("no_tokens").Inc()
		return
	}

	title := fmt.Sprintf("New %s request", request.Department)
	if request.Priority == domain.PriorityUrgent {
		title = fmt.Sprintf("URGENT %s request", request.Department)
	}
	body := request.Message
	if len(body) > 140 {
		body = body[:137] + "..."
	}

	_, err = p.pusher.Send(pushCtx, tokens, push.Notification{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"request_id": request.ID.String(),
			"department": request.Department,
			"priority":   string(request.Priority),
		},
	})
	if err != nil {
		logger.WarnContext(ctx, "Staff push fanout failed", "error", err)
		staffNotifyCounter.WithLabelValues("failed").Inc()
		return
	}
	staffNotifyCounter.WithLabelValues("sent").Inc()
}

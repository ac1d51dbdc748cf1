package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// RoomLifecycle is the room-ops contract the admin handler needs.
type RoomLifecycle interface {
	CheckIn(ctx context.Context, tenantID uuid.UUID, roomNumber, phone string, checkoutAt time.Time) error
	CheckOut(ctx context.Context, tenantID uuid.UUID, roomNumber string) (int64, error)
}

// RequestLister reads persisted requests for the front office.
type RequestLister interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.Request, error)
}

// AdminHandler serves the front-office surface: room lifecycle and request
// history. Unlike the webhook, these endpoints return structured errors with
// reason codes.
type AdminHandler struct {
	roomOps  RoomLifecycle
	requests RequestLister
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAdminHandler(roomOps RoomLifecycle, requests RequestLister, logger *slog.Logger, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{
		roomOps:  roomOps,
		requests: requests,
		logger:   logger.With("handler", "admin"),
		validate: validate,
	}
}

// HandleCheckIn processes POST /admin/rooms/checkin.
func (h *AdminHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tenant_id", "tenant_id is not a valid UUID")
		return
	}

	if err := h.roomOps.CheckIn(ctx, tenantID, req.RoomNumber, req.Phone, req.CheckoutAt); err != nil {
		switch {
		case errors.Is(err, domain.ErrTenantNotFound):
			writeError(w, http.StatusNotFound, "tenant_not_found", "no tenant with that id")
		case errors.Is(err, domain.ErrRoomSlotNotFound):
			writeError(w, http.StatusNotFound, "room_not_found", "no device slot configured for that room")
		default:
			logger.ErrorContext(ctx, "Check-in failed", "error", err, "tenant_id", tenantID, "room_number", req.RoomNumber)
			writeError(w, http.StatusInternalServerError, "internal_error", "check-in could not be completed")
		}
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "checked_in"})
}

// HandleCheckOut processes POST /admin/rooms/checkout.
func (h *AdminHandler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req checkOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tenant_id", "tenant_id is not a valid UUID")
		return
	}

	removed, err := h.roomOps.CheckOut(ctx, tenantID, req.RoomNumber)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTenantNotFound):
			writeError(w, http.StatusNotFound, "tenant_not_found", "no tenant with that id")
		case errors.Is(err, domain.ErrRoomSlotNotFound):
			writeError(w, http.StatusNotFound, "room_not_found", "no device slot configured for that room")
		default:
			logger.ErrorContext(ctx, "Check-out failed", "error", err, "tenant_id", tenantID, "room_number", req.RoomNumber)
			writeError(w, http.StatusInternalServerError, "internal_error", "check-out could not be completed")
		}
		return
	}

	writeJSON(w, http.StatusOK, checkOutResponse{Status: "checked_out", AuthorizationsRemoved: removed})
}

// HandleListRequests processes GET /admin/requests?tenant_id=...&limit=...&offset=...
func (h *AdminHandler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	tenantID, err := uuid.Parse(r.URL.Query().Get("tenant_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tenant_id", "tenant_id is not a valid UUID")
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	requests, err := h.requests.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		logger.ErrorContext(ctx, "Request listing failed", "error", err, "tenant_id", tenantID)
		writeError(w, http.StatusInternalServerError, "internal_error", "request listing failed")
		return
	}

	items := make([]requestListItem, 0, len(requests))
	for _, req := range requests {
		items = append(items, requestListItem{
			ID:           req.ID.String(),
			Phone:        req.Phone,
			Message:      req.Message,
			Department:   req.Department,
			Priority:     string(req.Priority),
			RoomNumber:   req.RoomNumber.String,
			Staff:        req.Staff,
			VIP:          req.VIP,
			Source:       req.Source,
			Acknowledged: req.Acknowledged,
			Completed:    req.Completed,
			Cancelled:    req.Cancelled,
			CreatedAt:    req.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, reason, message string) {
	writeJSON(w, code, errorResponse{Error: message, Reason: reason})
}

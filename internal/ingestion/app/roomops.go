package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// RoomOpsService exposes the administrative room lifecycle to the front
// office surface: check-in and check-out, both scoped to one (room, tenant).
type RoomOpsService struct {
	lifecycle  domain.RoomLifecycleRepository
	tenantRepo domain.TenantRepository
	logger     *slog.Logger
}

func NewRoomOpsService(lifecycle domain.RoomLifecycleRepository, tenantRepo domain.TenantRepository, logger *slog.Logger) *RoomOpsService {
	return &RoomOpsService{
		lifecycle:  lifecycle,
		tenantRepo: tenantRepo,
		logger:     logger.With("component", "room_ops_service"),
	}
}

// CheckIn registers the primary guest for a room and starts a fresh
// occupancy cycle (device count reset to exactly 1).
func (s *RoomOpsService) CheckIn(ctx context.Context, tenantID uuid.UUID, roomNumber, phone string, checkoutAt time.Time) error {
	if _, err := s.tenantRepo.GetByID(ctx, tenantID); err != nil {
		return err
	}
	if !checkoutAt.After(time.Now()) {
		return fmt.Errorf("checkout time %s is not in the future", checkoutAt.Format(time.RFC3339))
	}

	if err := s.lifecycle.CheckIn(ctx, tenantID, roomNumber, phone, checkoutAt); err != nil {
		if errors.Is(err, domain.ErrRoomSlotNotFound) {
			return err
		}
		s.logger.ErrorContext(ctx, "Check-in failed", "error", err, "tenant_id", tenantID, "room_number", roomNumber)
		return err
	}

	s.logger.InfoContext(ctx, "Guest checked in",
		"tenant_id", tenantID, "room_number", roomNumber, "checkout_at", checkoutAt)
	return nil
}

// CheckOut ends the room's occupancy cycle: all non-staff authorizations for
// the room are removed and the device count drops to 0.
func (s *RoomOpsService) CheckOut(ctx context.Context, tenantID uuid.UUID, roomNumber string) (int64, error) {
	if _, err := s.tenantRepo.GetByID(ctx, tenantID); err != nil {
		return 0, err
	}

	removed, err := s.lifecycle.CheckOut(ctx, tenantID, roomNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRoomSlotNotFound) {
			return 0, err
		}
		s.logger.ErrorContext(ctx, "Check-out failed", "error", err, "tenant_id", tenantID, "room_number", roomNumber)
		return 0, err
	}

	s.logger.InfoContext(ctx, "Room checked out",
		"tenant_id", tenantID, "room_number", roomNumber, "authorizations_removed", removed)
	return removed, nil
}

package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// Authorization is the resolved sender state for one (phone, tenant) pair.
type Authorization struct {
	State      domain.AuthState
	RoomNumber sql.NullString
}

// AuthorizationResolver classifies a sender as staff, authorized guest or
// unauthorized, and attempts the auto-pair transition for unknown senders.
type AuthorizationResolver struct {
	authRepo domain.AuthorizedNumberRepository
	slotRepo domain.RoomSlotRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthorizationResolver(authRepo domain.AuthorizedNumberRepository, slotRepo domain.RoomSlotRepository, logger *slog.Logger) *AuthorizationResolver {
	return &AuthorizationResolver{
		authRepo: authRepo,
		slotRepo: slotRepo,
		logger:   logger.With("component", "authorization_resolver"),
		now:      time.Now,
	}
}

// Resolve looks up the sender's authorization and, when none is active,
// tries to auto-pair the sender to a room with an active guest and spare
// device capacity. An expired authorization counts as no authorization.
func (r *AuthorizationResolver) Resolve(ctx context.Context, tenant *domain.Tenant, phone string) (*Authorization, error) {
	now := r.now()

	existing, err := r.authRepo.FindByPhone(ctx, tenant.ID, phone)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Staff {
			return &Authorization{State: domain.AuthStaff, RoomNumber: existing.RoomNumber}, nil
		}
		if existing.ActiveAt(now) {
			return &Authorization{State: domain.AuthGuest, RoomNumber: existing.RoomNumber}, nil
		}
		r.logger.DebugContext(ctx, "Authorization expired, treating sender as unknown",
			"tenant_id", tenant.ID, "phone", phone, "expired_at", existing.ExpiresAt.Time)
	}

	return r.autoPair(ctx, tenant, phone, now)
}

// autoPair scans the tenant's pairable rooms in ascending room-number order
// and claims the first one whose capacity gate admits the new device. The
// acquire runs before the authorization write so a failed write can release
// the slot instead of leaking it past capacity.
func (r *AuthorizationResolver) autoPair(ctx context.Context, tenant *domain.Tenant, phone string, now time.Time) (*Authorization, error) {
	rooms, err := r.slotRepo.ListPairable(ctx, tenant.ID)
	if err != nil {
		autoPairCounter.WithLabelValues("error").Inc()
		return nil, err
	}

	for _, room := range rooms {
		acquired, err := r.slotRepo.TryAcquire(ctx, tenant.ID, room.RoomNumber)
		if err != nil {
			autoPairCounter.WithLabelValues("error").Inc()
			return nil, err
		}
		if !acquired {
			// Lost the race for this room; the next candidate may still fit.
			continue
		}

		auth := &domain.AuthorizedNumber{
			ID:         uuid.New(),
			TenantID:   tenant.ID,
			Phone:      phone,
			RoomNumber: sql.NullString{String: room.RoomNumber, Valid: true},
			ExpiresAt:  room.GuestExpiresAt,
			Staff:      false,
			CreatedAt:  now,
		}
		if err := r.authRepo.Upsert(ctx, auth); err != nil {
			if relErr := r.slotRepo.Release(ctx, tenant.ID, room.RoomNumber); relErr != nil {
				r.logger.ErrorContext(ctx, "Failed to release device slot after pairing write failure",
					"error", relErr, "tenant_id", tenant.ID, "room_number", room.RoomNumber)
			}
			autoPairCounter.WithLabelValues("error").Inc()
			return nil, err
		}

		r.logger.InfoContext(ctx, "Sender auto-paired to room",
			"tenant_id", tenant.ID,
			"phone", phone,
			"room_number", room.RoomNumber,
			"expires_at", room.GuestExpiresAt.Time,
		)
		autoPairCounter.WithLabelValues("paired").Inc()
		return &Authorization{State: domain.AuthGuest, RoomNumber: auth.RoomNumber}, nil
	}

	autoPairCounter.WithLabelValues("no_room").Inc()
	return &Authorization{State: domain.AuthUnauthorized}, nil
}

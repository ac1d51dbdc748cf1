package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// RoomDeviceSlot tracks the finite number of concurrently authorized devices
// for a room. Invariant: 0 <= CurrentCount <= MaxCapacity, including under
// concurrent auto-pairing.
type RoomDeviceSlot struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	RoomNumber   string    `json:"room_number"`
	MaxCapacity  int       `json:"max_capacity"`
	CurrentCount int       `json:"current_count"`
}

// PairableRoom is a room eligible for auto-pairing: it has at least one
// currently-active guest authorization and spare device capacity. The
// expiry of the room's existing guest is carried so the paired sender
// inherits it.
type PairableRoom struct {
	RoomNumber     string
	GuestExpiresAt sql.NullTime
}

// RoomSlotRepository manages per-room device capacity.
type RoomSlotRepository interface {
	// ListPairable returns the tenant's rooms that have an active guest
	// authorization and current_count < max_capacity, in ascending room
	// number order. The ordering is a stable tie-break, not business
	// meaning.
	ListPairable(ctx context.Context, tenantID uuid.UUID) ([]PairableRoom, error)

	// TryAcquire increments current_count only while it is below
	// max_capacity. Returns false when the room is at capacity (or the slot
	// row does not exist); the check and the increment are one atomic
	// statement.
	TryAcquire(ctx context.Context, tenantID uuid.UUID, roomNumber string) (bool, error)

	// Release decrements current_count, flooring at zero. Used to roll back
	// an acquire whose follow-up authorization insert failed.
	Release(ctx context.Context, tenantID uuid.UUID, roomNumber string) error

	// Get loads the slot row for (room, tenant). Returns ErrRoomSlotNotFound
	// when absent.
	Get(ctx context.Context, tenantID uuid.UUID, roomNumber string) (*RoomDeviceSlot, error)
}

// RoomLifecycleRepository performs the administrative room transitions. Both
// operations run in a single transaction so a concurrent auto-pair on the
// same room observes either the old or the new occupancy cycle, never a mix.
type RoomLifecycleRepository interface {
	// CheckIn upserts the primary guest authorization for the room and
	// resets current_count to exactly 1. A fresh check-in always starts a
	// new occupancy cycle, superseding any stale count.
	CheckIn(ctx context.Context, tenantID uuid.UUID, roomNumber, phone string, checkoutAt time.Time) error

	// CheckOut deletes every non-staff authorization for the room and
	// resets current_count to 0. Staff authorizations are untouched.
	// Returns the number of authorizations removed.
	CheckOut(ctx context.Context, tenantID uuid.UUID, roomNumber string) (int64, error)
}

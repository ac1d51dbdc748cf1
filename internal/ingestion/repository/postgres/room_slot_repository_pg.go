package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

type PgRoomSlotRepository struct {
	db     DB
	logger *slog.Logger
}

func NewPgRoomSlotRepository(db DB, logger *slog.Logger) *PgRoomSlotRepository {
	return &PgRoomSlotRepository{db: db, logger: logger.With("component", "room_slot_repository_pg")}
}

// ListPairable returns rooms with an active guest authorization and spare
// capacity, ascending by room number. When a room has several active guests
// the latest expiry wins (NULL, meaning no expiry, sorts first).
func (r *PgRoomSlotRepository) ListPairable(ctx context.Context, tenantID uuid.UUID) ([]domain.PairableRoom, error) {
	query := `
		SELECT DISTINCT ON (s.room_number) s.room_number, a.expires_at
		FROM room_device_slots s
		JOIN authorized_numbers a
		  ON a.tenant_id = s.tenant_id AND a.room_number = s.room_number
		WHERE s.tenant_id = $1
		  AND s.current_count < s.max_capacity
		  AND a.staff = FALSE
		  AND (a.expires_at IS NULL OR a.expires_at > NOW())
		ORDER BY s.room_number ASC, a.expires_at DESC NULLS FIRST`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing pairable rooms", "error", err, "tenant_id", tenantID)
		return nil, fmt.Errorf("failed to list pairable rooms: %w", err)
	}
	defer rows.Close()

	var pairable []domain.PairableRoom
	for rows.Next() {
		var p domain.PairableRoom
		if err := rows.Scan(&p.RoomNumber, &p.GuestExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan pairable room: %w", err)
		}
		pairable = append(pairable, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pairable rooms: %w", err)
	}
	return pairable, nil
}

// TryAcquire is the capacity gate: the increment only happens while
// current_count < max_capacity, in one atomic statement, so concurrent
// pairings can never push a room past its capacity.
func (r *PgRoomSlotRepository) TryAcquire(ctx context.Context, tenantID uuid.UUID, roomNumber string) (bool, error) {
	query := `
		UPDATE room_device_slots
		SET current_count = current_count + 1
		WHERE tenant_id = $1 AND room_number = $2 AND current_count < max_capacity`

	tag, err := r.db.Exec(ctx, query, tenantID, roomNumber)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error acquiring device slot", "error", err, "tenant_id", tenantID, "room_number", roomNumber)
		return false, fmt.Errorf("failed to acquire device slot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgRoomSlotRepository) Release(ctx context.Context, tenantID uuid.UUID, roomNumber string) error {
	query := `
		UPDATE room_device_slots
		SET current_count = GREATEST(current_count - 1, 0)
		WHERE tenant_id = $1 AND room_number = $2`

	if _, err := r.db.Exec(ctx, query, tenantID, roomNumber); err != nil {
		r.logger.ErrorContext(ctx, "Error releasing device slot", "error", err, "tenant_id", tenantID, "room_number", roomNumber)
		return fmt.Errorf("failed to release device slot: %w", err)
	}
	return nil
}

func (r *PgRoomSlotRepository) Get(ctx context.Context, tenantID uuid.UUID, roomNumber string) (*domain.RoomDeviceSlot, error) {
	query := `
		SELECT tenant_id, room_number, max_capacity, current_count
		FROM room_device_slots
		WHERE tenant_id = $1 AND room_number = $2`

	var s domain.RoomDeviceSlot
	err := r.db.QueryRow(ctx, query, tenantID, roomNumber).Scan(
		&s.TenantID, &s.RoomNumber, &s.MaxCapacity, &s.CurrentCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomSlotNotFound
		}
		r.logger.ErrorContext(ctx, "Error loading device slot", "error", err, "tenant_id", tenantID, "room_number", roomNumber)
		return nil, fmt.Errorf("failed to load device slot: %w", err)
	}
	return &s, nil
}

// CheckIn runs the check-in transition in one transaction: the primary
// guest's authorization is upserted and current_count is reset to exactly 1,
// regardless of whatever stale value the previous cycle left behind.
func (r *PgRoomSlotRepository) CheckIn(ctx context.Context, tenantID uuid.UUID, roomNumber, phone string, checkoutAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin check-in transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slotQuery := `
		UPDATE room_device_slots
		SET current_count = 1
		WHERE tenant_id = $1 AND room_number = $2`
	tag, err := tx.Exec(ctx, slotQuery, tenantID, roomNumber)
	if err != nil {
		return fmt.Errorf("failed to reset device slot on check-in: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomSlotNotFound
	}

	authQuery := `
		INSERT INTO authorized_numbers (id, tenant_id, phone, room_number, expires_at, staff, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
		ON CONFLICT (tenant_id, phone) DO UPDATE
		SET room_number = EXCLUDED.room_number,
		    expires_at = EXCLUDED.expires_at,
		    staff = FALSE`
	if _, err := tx.Exec(ctx, authQuery, uuid.New(), tenantID, phone, roomNumber, checkoutAt); err != nil {
		return fmt.Errorf("failed to upsert guest authorization on check-in: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit check-in: %w", err)
	}

	r.logger.InfoContext(ctx, "Room checked in", "tenant_id", tenantID, "room_number", roomNumber, "checkout_at", checkoutAt)
	return nil
}

// CheckOut removes the room's non-staff authorizations and zeroes the slot
// count in one transaction.
func (r *PgRoomSlotRepository) CheckOut(ctx context.Context, tenantID uuid.UUID, roomNumber string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin check-out transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slotQuery := `
		UPDATE room_device_slots
		SET current_count = 0
		WHERE tenant_id = $1 AND room_number = $2`
	tag, err := tx.Exec(ctx, slotQuery, tenantID, roomNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to reset device slot on check-out: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, domain.ErrRoomSlotNotFound
	}

	authQuery := `
		DELETE FROM authorized_numbers
		WHERE tenant_id = $1 AND room_number = $2 AND staff = FALSE`
	authTag, err := tx.Exec(ctx, authQuery, tenantID, roomNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to delete guest authorizations on check-out: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit check-out: %w", err)
	}

	removed := authTag.RowsAffected()
	r.logger.InfoContext(ctx, "Room checked out", "tenant_id", tenantID, "room_number", roomNumber, "authorizations_removed", removed)
	return removed, nil
}

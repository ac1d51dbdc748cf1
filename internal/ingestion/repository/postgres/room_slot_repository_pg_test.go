package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

func TestPgRoomSlotRepository_ListPairable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tenantID := uuid.New()

	t.Run("ReturnsRoomsAscending", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		expiry := time.Now().Add(24 * time.Hour)
		rows := mockPool.NewRows([]string{"room_number", "expires_at"}).
			AddRow("101", sql.NullTime{Time: expiry, Valid: true}).
			AddRow("104", sql.NullTime{})
		mockPool.ExpectQuery(`SELECT DISTINCT ON \(s.room_number\) s.room_number, a.expires_at`).
			WithArgs(tenantID).
			WillReturnRows(rows)

		pairable, err := repo.ListPairable(context.Background(), tenantID)
		assert.NoError(t, err)
		require.Len(t, pairable, 2)
		assert.Equal(t, "101", pairable[0].RoomNumber)
		assert.True(t, pairable[0].GuestExpiresAt.Valid)
		assert.Equal(t, "104", pairable[1].RoomNumber)
		assert.False(t, pairable[1].GuestExpiresAt.Valid)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("QueryError", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		mockPool.ExpectQuery(`SELECT DISTINCT ON \(s.room_number\)`).
			WithArgs(tenantID).
			WillReturnError(errors.New("DB error"))

		_, err = repo.ListPairable(context.Background(), tenantID)
		assert.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgRoomSlotRepository_TryAcquire(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tenantID := uuid.New()

	t.Run("AcquiresWhenCapacityLeft", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		mockPool.ExpectExec(`UPDATE room_device_slots`).
			WithArgs(tenantID, "101").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		acquired, err := repo.TryAcquire(context.Background(), tenantID, "101")
		assert.NoError(t, err)
		assert.True(t, acquired)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("RefusesWhenFull", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		// The conditional update touches zero rows once the room is at
		// max_capacity.
		mockPool.ExpectExec(`UPDATE room_device_slots`).
			WithArgs(tenantID, "101").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		acquired, err := repo.TryAcquire(context.Background(), tenantID, "101")
		assert.NoError(t, err)
		assert.False(t, acquired)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgRoomSlotRepository_Get(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tenantID := uuid.New()

	t.Run("Found", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		rows := mockPool.NewRows([]string{"tenant_id", "room_number", "max_capacity", "current_count"}).
			AddRow(tenantID, "101", 4, 2)
		mockPool.ExpectQuery(`SELECT tenant_id, room_number, max_capacity, current_count`).
			WithArgs(tenantID, "101").
			WillReturnRows(rows)

		slot, err := repo.Get(context.Background(), tenantID, "101")
		assert.NoError(t, err)
		require.NotNil(t, slot)
		assert.Equal(t, 4, slot.MaxCapacity)
		assert.Equal(t, 2, slot.CurrentCount)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		mockPool.ExpectQuery(`SELECT tenant_id, room_number, max_capacity, current_count`).
			WithArgs(tenantID, "999").
			WillReturnRows(mockPool.NewRows([]string{"tenant_id", "room_number", "max_capacity", "current_count"}))

		_, err = repo.Get(context.Background(), tenantID, "999")
		assert.ErrorIs(t, err, domain.ErrRoomSlotNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgRoomSlotRepository_CheckIn(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tenantID := uuid.New()
	checkout := time.Now().Add(48 * time.Hour)

	t.Run("ResetsSlotAndUpsertsGuest", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE room_device_slots`).
			WithArgs(tenantID, "310").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec(`INSERT INTO authorized_numbers`).
			WithArgs(pgxmock.AnyArg(), tenantID, "+15557770000", "310", checkout).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		err = repo.CheckIn(context.Background(), tenantID, "310", "+15557770000", checkout)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UnknownRoomRollsBack", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE room_device_slots`).
			WithArgs(tenantID, "999").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mockPool.ExpectRollback()

		err = repo.CheckIn(context.Background(), tenantID, "999", "+15557770000", checkout)
		assert.ErrorIs(t, err, domain.ErrRoomSlotNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("AuthUpsertFailureRollsBack", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE room_device_slots`).
			WithArgs(tenantID, "310").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec(`INSERT INTO authorized_numbers`).
			WithArgs(pgxmock.AnyArg(), tenantID, "+15557770000", "310", checkout).
			WillReturnError(errors.New("DB error"))
		mockPool.ExpectRollback()

		err = repo.CheckIn(context.Background(), tenantID, "310", "+15557770000", checkout)
		assert.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgRoomSlotRepository_CheckOut(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tenantID := uuid.New()

	t.Run("RemovesGuestAuthorizations", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE room_device_slots`).
			WithArgs(tenantID, "310").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec(`DELETE FROM authorized_numbers`).
			WithArgs(tenantID, "310").
			WillReturnResult(pgxmock.NewResult("DELETE", 3))
		mockPool.ExpectCommit()

		removed, err := repo.CheckOut(context.Background(), tenantID, "310")
		assert.NoError(t, err)
		assert.Equal(t, int64(3), removed)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgRoomSlotRepository(mockPool, logger)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE room_device_slots`).
			WithArgs(tenantID, "999").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mockPool.ExpectRollback()

		_, err = repo.CheckOut(context.Background(), tenantID, "999")
		assert.ErrorIs(t, err, domain.ErrRoomSlotNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

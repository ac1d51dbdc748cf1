package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

func setupAuthorizerTest(t *testing.T) (*AuthorizationResolver, *MockAuthorizedNumberRepository, *MockRoomSlotRepository) {
	t.Helper()
	authRepo := new(MockAuthorizedNumberRepository)
	slotRepo := new(MockRoomSlotRepository)
	resolver := NewAuthorizationResolver(authRepo, slotRepo, testLogger(t))
	return resolver, authRepo, slotRepo
}

func TestResolve_StaffIgnoresExpiry(t *testing.T) {
	resolver, authRepo, _ := setupAuthorizerTest(t)
	tenant := testTenant()

	// An expiry in the past must not matter for staff.
	authRepo.On("FindByPhone", mock.Anything, tenant.ID, "+15551230000").Return(&domain.AuthorizedNumber{
		TenantID:  tenant.ID,
		Phone:     "+15551230000",
		Staff:     true,
		ExpiresAt: sql.NullTime{Time: time.Now().Add(-48 * time.Hour), Valid: true},
	}, nil)

	authz, err := resolver.Resolve(context.Background(), tenant, "+15551230000")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthStaff, authz.State)
}

func TestResolve_ActiveGuest(t *testing.T) {
	resolver, authRepo, _ := setupAuthorizerTest(t)
	tenant := testTenant()

	authRepo.On("FindByPhone", mock.Anything, tenant.ID, "+15551230001").Return(&domain.AuthorizedNumber{
		TenantID:   tenant.ID,
		Phone:      "+15551230001",
		RoomNumber: sql.NullString{String: "204", Valid: true},
		ExpiresAt:  sql.NullTime{Time: time.Now().Add(24 * time.Hour), Valid: true},
	}, nil)

	authz, err := resolver.Resolve(context.Background(), tenant, "+15551230001")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthGuest, authz.State)
	assert.Equal(t, "204", authz.RoomNumber.String)
}

func TestResolve_ExpiredGuestTreatedAsUnknown(t *testing.T) {
	resolver, authRepo, slotRepo := setupAuthorizerTest(t)
	tenant := testTenant()

	authRepo.On("FindByPhone", mock.Anything, tenant.ID, "+15551230002").Return(&domain.AuthorizedNumber{
		TenantID:  tenant.ID,
		Phone:     "+15551230002",
		ExpiresAt: sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true},
	}, nil)
	// Expired row falls through to auto-pairing; no rooms available here.
	slotRepo.On("ListPairable", mock.Anything, tenant.ID).Return([]domain.PairableRoom{}, nil)

	authz, err := resolver.Resolve(context.Background(), tenant, "+15551230002")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthUnauthorized, authz.State)
	slotRepo.AssertExpectations(t)
}

func TestAutoPair_PairsToFirstEligibleRoom(t *testing.T) {
	resolver, authRepo, slotRepo := setupAuthorizerTest(t)
	tenant := testTenant()
	expiry := sql.NullTime{Time: time.Now().Add(24 * time.Hour), Valid: true}

	authRepo.On("FindByPhone", mock.Anything, tenant.ID, "+15559998888").Return(nil, nil)
	slotRepo.On("ListPairable", mock.Anything, tenant.ID).Return([]domain.PairableRoom{
		{RoomNumber: "101", GuestExpiresAt: expiry},
		{RoomNumber: "102", GuestExpiresAt: expiry},
	}, nil)
	slotRepo.On("TryAcquire", mock.Anything, tenant.ID, "101").Return(true, nil)
	authRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(auth *domain.AuthorizedNumber) bool {
		return auth.Phone == "+15559998888" &&
			auth.RoomNumber.String == "101" &&
			auth.ExpiresAt.Time.Equal(expiry.Time) &&
			!auth.Staff
	})).Return(nil)

	authz, err := resolver.Resolve(context.Background(), tenant, "+15559998888")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthGuest, authz.State)
	assert.Equal(t, "101", authz.RoomNumber.String)
	slotRepo.AssertNotCalled(t, "TryAcquire", mock.Anything, tenant.ID, "102")
}

func TestAutoPair_SkipsFullRoomAfterLostRace(t *testing.T) {
	resolver, authRepo, slotRepo := setupAuthorizerTest(t)
	tenant := testTenant()
	expiry := sql.NullTime{Time: time.Now().Add(24 * time.Hour), Valid: true}

	authRepo.On("FindByPhone", mock.Anything, tenant.ID, "+15559998888").Return(nil, nil)
	slotRepo.On("ListPairable", mock.Anything, tenant.ID).Return([]domain.PairableRoom{
		{RoomNumber: "101", GuestExpiresAt: expiry},
		{RoomNumber: "102", GuestExpiresAt: expiry},
	}, nil)
	// Room 101 fills up between the list and the acquire.
	slotRepo.On("TryAcquire", mock.Anything, tenant.ID, "101").Return(false, nil)
	slotRepo.On("TryAcquire", mock.Anything, tenant.ID, "102").Return(true, nil)
	authRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	authz, err := resolver.Resolve(context.Background(), tenant, "+15559998888")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthGuest, authz.State)
	assert.Equal(t, "102", authz.RoomNumber.String)
}

func TestAutoPair_ReleasesSlotWhenUpsertFails(t *testing.T) {
	resolver, authRepo, slotRepo := setupAuthorizerTest(t)
	tenant := testTenant()

	authRepo.On("FindByPhone", mock.Anything, tenant.ID, "+15559998888").Return(nil, nil)
	slotRepo.On("ListPairable", mock.Anything, tenant.ID).Return([]domain.PairableRoom{
		{RoomNumber: "101"},
	}, nil)
	slotRepo.On("TryAcquire", mock.Anything, tenant.ID, "101").Return(true, nil)
	authRepo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	slotRepo.On("Release", mock.Anything, tenant.ID, "101").Return(nil)

	_, err := resolver.Resolve(context.Background(), tenant, "+15559998888")
	require.Error(t, err)
	slotRepo.AssertCalled(t, "Release", mock.Anything, tenant.ID, "101")
}

func TestAutoPair_NoEligibleRoom(t *testing.T) {
	resolver, authRepo, slotRepo := setupAuthorizerTest(t)
	tenant := testTenant()

	authRepo.On("FindByPhone", mock.Anything, tenant.ID, "+15559998888").Return(nil, nil)
	slotRepo.On("ListPairable", mock.Anything, tenant.ID).Return([]domain.PairableRoom{}, nil)

	authz, err := resolver.Resolve(context.Background(), tenant, "+15559998888")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthUnauthorized, authz.State)
}

package app

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/classifier"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/push"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/smsprovider"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// --- Mocks ---

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByReceivingNumber(ctx context.Context, number string) (*domain.Tenant, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

type MockAuthorizedNumberRepository struct {
	mock.Mock
}

func (m *MockAuthorizedNumberRepository) FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*domain.AuthorizedNumber, error) {
	args := m.Called(ctx, tenantID, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizedNumber), args.Error(1)
}

func (m *MockAuthorizedNumberRepository) Upsert(ctx context.Context, auth *domain.AuthorizedNumber) error {
	args := m.Called(ctx, auth)
	return args.Error(0)
}

type MockRoomSlotRepository struct {
	mock.Mock
}

func (m *MockRoomSlotRepository) ListPairable(ctx context.Context, tenantID uuid.UUID) ([]domain.PairableRoom, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PairableRoom), args.Error(1)
}

func (m *MockRoomSlotRepository) TryAcquire(ctx context.Context, tenantID uuid.UUID, roomNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, roomNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomSlotRepository) Release(ctx context.Context, tenantID uuid.UUID, roomNumber string) error {
	args := m.Called(ctx, tenantID, roomNumber)
	return args.Error(0)
}

func (m *MockRoomSlotRepository) Get(ctx context.Context, tenantID uuid.UUID, roomNumber string) (*domain.RoomDeviceSlot, error) {
	args := m.Called(ctx, tenantID, roomNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoomDeviceSlot), args.Error(1)
}

type MockRoomLifecycleRepository struct {
	mock.Mock
}

func (m *MockRoomLifecycleRepository) CheckIn(ctx context.Context, tenantID uuid.UUID, roomNumber, phone string, checkoutAt time.Time) error {
	args := m.Called(ctx, tenantID, roomNumber, phone, checkoutAt)
	return args.Error(0)
}

func (m *MockRoomLifecycleRepository) CheckOut(ctx context.Context, tenantID uuid.UUID, roomNumber string) (int64, error) {
	args := m.Called(ctx, tenantID, roomNumber)
	return args.Get(0).(int64), args.Error(1)
}

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) CreateIfAbsent(ctx context.Context, req *domain.Request) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) ExistsByProviderMessageID(ctx context.Context, providerMessageID string) (bool, error) {
	args := m.Called(ctx, providerMessageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.Request, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Request), args.Error(1)
}

type MockGuestRepository struct {
	mock.Mock
}

func (m *MockGuestRepository) IncrementRequests(ctx context.Context, tenantID uuid.UUID, phone string) (*domain.Guest, error) {
	args := m.Called(ctx, tenantID, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guest), args.Error(1)
}

type MockStaffDeviceRepository struct {
	mock.Mock
}

func (m *MockStaffDeviceRepository) ListTokensByTenant(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, text string, tenantID uuid.UUID) (*classifier.Classification, error) {
	args := m.Called(ctx, text, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*classifier.Classification), args.Error(1)
}

type MockSMSAdapter struct {
	mock.Mock
}

func (m *MockSMSAdapter) Send(ctx context.Context, request smsprovider.SendRequest) (*smsprovider.SendResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*smsprovider.SendResponse), args.Error(1)
}

func (m *MockSMSAdapter) GetName() string { return "mock" }

type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, tokens []string, notification push.Notification) ([]push.Ticket, error) {
	args := m.Called(ctx, tokens, notification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]push.Ticket), args.Error(1)
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Resolve(ctx context.Context, tenant *domain.Tenant, phone string) (*Authorization, error) {
	args := m.Called(ctx, tenant, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Authorization), args.Error(1)
}

// --- Helpers ---

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func testTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:                 uuid.New(),
		Name:               "Seaside Grand",
		Active:             true,
		EnabledDepartments: []string{"front_desk", "housekeeping", "maintenance"},
		ContactNumbers:     []string{"+15550001111"},
		CreatedAt:          time.Now().UTC(),
	}
}

package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/inventory"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/models"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateTicketType(ctx context.Context, tt *models.TicketType) error {
	args := m.Called(ctx, tt)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateTicketType(ctx context.Context, tt *models.TicketType) error {
	args := m.Called(ctx, tt)
	return args.Error(0)
}

func (m *MockDBLayer) GetTicketTypeByID(ctx context.Context, typeID int64) (*models.TicketType, error) {
	args := m.Called(ctx, typeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketType), args.Error(1)
}

func (m *MockDBLayer) GetTicketByID(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockDBLayer) CountAvailableTickets(ctx context.Context, typeID int64) (int, error) {
	args := m.Called(ctx, typeID)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) EventOwnerByPeriod(ctx context.Context, periodID int64) (string, error) {
	args := m.Called(ctx, periodID)
	return args.String(0), args.Error(1)
}

func (m *MockDBLayer) EventOwnerByType(ctx context.Context, typeID int64) (string, error) {
	args := m.Called(ctx, typeID)
	return args.String(0), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Lookup(ctx context.Context, userID string) (*models.Identity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

func newService() (*inventory.TicketTypeService, *MockDBLayer, *MockDirectory) {
	db := new(MockDBLayer)
	directory := new(MockDirectory)
	svc := inventory.NewTicketTypeService(db, directory, logger.NewLogger())
	return svc, db, directory
}

func organizer(userID string) *models.Identity {
	return &models.Identity{UserID: userID, Role: models.RoleOrganizer, Status: models.UserActive}
}

func validRequest(periodID int64) models.CreateTicketTypeRequest {
	return models.CreateTicketTypeRequest{
		PeriodID:   periodID,
		CategoryID: 1,
		Price:      decimal.NewFromInt(100),
		Quota:      10,
		Status:     models.TicketTypeAvailable,
	}
}

func TestCreateTicketTypeHappyPath(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "org-1").Return(organizer("org-1"), nil)
	db.On("EventOwnerByPeriod", mock.Anything, int64(5)).Return("org-1", nil)
	db.On("CreateTicketType", mock.Anything, mock.Anything).Return(nil)

	tt, err := svc.CreateTicketType(context.Background(), "org-1", validRequest(5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), tt.PeriodID)
	assert.Equal(t, 10, tt.Quota)
}

func TestCreateTicketTypeRejectsNonOwner(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "org-2").Return(organizer("org-2"), nil)
	db.On("EventOwnerByPeriod", mock.Anything, int64(5)).Return("org-1", nil)

	_, err := svc.CreateTicketType(context.Background(), "org-2", validRequest(5))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	db.AssertNotCalled(t, "CreateTicketType")
}

func TestCreateTicketTypeAdminBypassesOwnership(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "admin-1").
		Return(&models.Identity{UserID: "admin-1", Role: models.RoleAdmin, Status: models.UserActive}, nil)
	db.On("EventOwnerByPeriod", mock.Anything, int64(5)).Return("org-1", nil)
	db.On("CreateTicketType", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.CreateTicketType(context.Background(), "admin-1", validRequest(5))
	assert.NoError(t, err)
}

func TestCreateTicketTypeValidatesPricing(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "org-1").Return(organizer("org-1"), nil)

	// Negative price
	req := validRequest(5)
	req.Price = decimal.NewFromInt(-1)
	_, err := svc.CreateTicketType(context.Background(), "org-1", req)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	// Negative discount
	req = validRequest(5)
	negative := decimal.NewFromInt(-5)
	req.Discount = &negative
	_, err = svc.CreateTicketType(context.Background(), "org-1", req)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	// Discount exceeding price
	req = validRequest(5)
	tooBig := decimal.NewFromInt(101)
	req.Discount = &tooBig
	_, err = svc.CreateTicketType(context.Background(), "org-1", req)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	// Negative quota
	req = validRequest(5)
	req.Quota = -1
	_, err = svc.CreateTicketType(context.Background(), "org-1", req)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	db.AssertNotCalled(t, "CreateTicketType")
}

func TestUpdateTicketTypeAppliesPatch(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "org-1").Return(organizer("org-1"), nil)
	db.On("EventOwnerByType", mock.Anything, int64(3)).Return("org-1", nil)

	current := &models.TicketType{
		TypeID:     3,
		PeriodID:   5,
		CategoryID: 1,
		Price:      decimal.NewFromInt(100),
		Quota:      10,
		Status:     models.TicketTypeAvailable,
	}
	db.On("GetTicketTypeByID", mock.Anything, int64(3)).Return(current, nil)
	db.On("UpdateTicketType", mock.Anything, mock.Anything).Return(nil)

	newQuota := 25
	updated, err := svc.UpdateTicketType(context.Background(), "org-1", 3, models.UpdateTicketTypeRequest{
		Quota: &newQuota,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Quota)
	// Untouched fields keep their values
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(1), updated.CategoryID)
}

func TestAvailabilityRequiresExistingType(t *testing.T) {
	svc, db, _ := newService()
	db.On("GetTicketTypeByID", mock.Anything, int64(404)).Return(nil, apperr.NotFound("ticket type 404 not found"))

	_, err := svc.Availability(context.Background(), 404)
	assert.True(t, apperr.IsNotFound(err))
	db.AssertNotCalled(t, "CountAvailableTickets")
}

func TestGetTicketForBuyer(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "buyer-1").Return(organizer("buyer-1"), nil)
	directory.On("Lookup", mock.Anything, "intruder").Return(organizer("intruder"), nil)

	buyer := "buyer-1"
	txnID := "txn-1"
	sold := &models.Ticket{TicketID: 7, TicketCode: "TKT-ABC", TransactionID: &txnID, BuyerID: &buyer}
	unsold := &models.Ticket{TicketID: 8, TicketCode: "TKT-DEF"}
	db.On("GetTicketByID", mock.Anything, int64(7)).Return(sold, nil)
	db.On("GetTicketByID", mock.Anything, int64(8)).Return(unsold, nil)

	got, err := svc.GetTicketForBuyer(context.Background(), "buyer-1", 7)
	require.NoError(t, err)
	assert.Equal(t, "TKT-ABC", got.TicketCode)

	// Not the buyer
	_, err = svc.GetTicketForBuyer(context.Background(), "intruder", 7)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Not sold yet
	_, err = svc.GetTicketForBuyer(context.Background(), "buyer-1", 8)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

package event_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/event"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/models"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetEventByID(ctx context.Context, eventID int64) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetPeriodByID(ctx context.Context, periodID int64) (*models.EventPeriod, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventPeriod), args.Error(1)
}

func (m *MockDBLayer) SoftDeleteEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) SoftDeletePeriod(ctx context.Context, periodID int64) (*models.EventPeriod, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventPeriod), args.Error(1)
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

func newService() (*event.EventService, *MockDBLayer, *MockDirectory) {
	db := new(MockDBLayer)
	directory := new(MockDirectory)
	svc := event.NewEventService(db, directory, logger.NewLogger())
	return svc, db, directory
}

func TestDeleteEventByOrganizer(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "org-1").
		Return(&models.Identity{UserID: "org-1", Role: models.RoleOrganizer, Status: models.UserActive}, nil)

	ev := &models.Event{EventID: 1, OrganizerID: "org-1"}
	db.On("GetEventByID", mock.Anything, int64(1)).Return(ev, nil)
	db.On("SoftDeleteEvent", mock.Anything, int64(1)).Return(ev, nil)

	deleted, err := svc.DeleteEvent(context.Background(), "org-1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted.EventID)
}

func TestDeleteEventRejectsStranger(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "org-2").
		Return(&models.Identity{UserID: "org-2", Role: models.RoleOrganizer, Status: models.UserActive}, nil)

	ev := &models.Event{EventID: 1, OrganizerID: "org-1"}
	db.On("GetEventByID", mock.Anything, int64(1)).Return(ev, nil)

	_, err := svc.DeleteEvent(context.Background(), "org-2", 1)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	db.AssertNotCalled(t, "SoftDeleteEvent")
}

func TestDeleteEventAdminOverride(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "admin-1").
		Return(&models.Identity{UserID: "admin-1", Role: models.RoleAdmin, Status: models.UserActive}, nil)

	ev := &models.Event{EventID: 1, OrganizerID: "org-1"}
	db.On("GetEventByID", mock.Anything, int64(1)).Return(ev, nil)
	db.On("SoftDeleteEvent", mock.Anything, int64(1)).Return(ev, nil)

	_, err := svc.DeleteEvent(context.Background(), "admin-1", 1)
	assert.NoError(t, err)
}

func TestDeletePeriodChecksEventOwner(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "org-2").
		Return(&models.Identity{UserID: "org-2", Role: models.RoleOrganizer, Status: models.UserActive}, nil)

	period := &models.EventPeriod{
		PeriodID: 10,
		EventID:  1,
		Event:    &models.Event{EventID: 1, OrganizerID: "org-1"},
	}
	db.On("GetPeriodByID", mock.Anything, int64(10)).Return(period, nil)

	_, err := svc.DeleteEventPeriod(context.Background(), "org-2", 10)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	db.AssertNotCalled(t, "SoftDeletePeriod")
}

func TestDeleteEventNotFound(t *testing.T) {
	svc, db, directory := newService()
	directory.On("Lookup", mock.Anything, "org-1").
		Return(&models.Identity{UserID: "org-1", Role: models.RoleOrganizer, Status: models.UserActive}, nil)
	db.On("GetEventByID", mock.Anything, int64(404)).Return(nil, apperr.NotFound("event 404 not found"))

	_, err := svc.DeleteEvent(context.Background(), "org-1", 404)
	assert.True(t, apperr.IsNotFound(err))
}

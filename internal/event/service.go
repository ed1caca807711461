package event

import (
	"context"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/models"
)

type DBLayer interface {
	GetEventByID(ctx context.Context, eventID int64) (*models.Event, error)
	GetPeriodByID(ctx context.Context, periodID int64) (*models.EventPeriod, error)
	SoftDeleteEvent(ctx context.Context, eventID int64) (*models.Event, error)
	SoftDeletePeriod(ctx context.Context, periodID int64) (*models.EventPeriod, error)
}

type IdentityDirectory interface {
	Lookup(ctx context.Context, userID string) (*models.Identity, error)
}

type EventService struct {
	DB        DBLayer
	Directory IdentityDirectory
	Logger    *logger.Logger
}

func NewEventService(db DBLayer, directory IdentityDirectory, log *logger.Logger) *EventService {
	return &EventService{DB: db, Directory: directory, Logger: log}
}

func (s *EventService) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	return s.DB.GetEventByID(ctx, eventID)
}

// DeleteEvent soft-deletes an event and cascades the tombstone through its
// periods, ticket types, and tickets. Only the organizer or an admin may do it.
func (s *EventService) DeleteEvent(ctx context.Context, userID string, eventID int64) (*models.Event, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}

	event, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !identity.Admin() && event.OrganizerID != identity.UserID {
		return nil, apperr.Forbidden("you are not allowed to delete this event")
	}

	deleted, err := s.DB.SoftDeleteEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	s.Logger.LogCascade("event", eventID, "event and all descendants deactivated")
	return deleted, nil
}

// DeleteEventPeriod soft-deletes a single period and its ticket types and
// tickets, leaving the rest of the event untouched.
func (s *EventService) DeleteEventPeriod(ctx context.Context, userID string, periodID int64) (*models.EventPeriod, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}

	period, err := s.DB.GetPeriodByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !identity.Admin() && (period.Event == nil || period.Event.OrganizerID != identity.UserID) {
		return nil, apperr.Forbidden("you are not allowed to delete this event period")
	}

	deleted, err := s.DB.SoftDeletePeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	s.Logger.LogCascade("period", periodID, "period and all descendants deactivated")
	return deleted, nil
}

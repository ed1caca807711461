package models

import (
	"time"

	"github.com/uptrace/bun"
)

type EventStatus string

const (
	EventActive   EventStatus = "ACTIVE"
	EventInactive EventStatus = "INACTIVE"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	EventID     int64       `bun:"event_id,pk,autoincrement" json:"event_id"`
	OrganizerID string      `bun:"organizer_id,notnull" json:"organizer_id"`
	Title       string      `bun:"title" json:"title"`
	Status      EventStatus `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt   time.Time   `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`

	Periods []*EventPeriod `bun:"rel:has-many,join:event_id=event_id" json:"periods,omitempty"`
}

type EventPeriod struct {
	bun.BaseModel `bun:"table:event_periods,alias:p"`

	PeriodID  int64       `bun:"period_id,pk,autoincrement" json:"period_id"`
	EventID   int64       `bun:"event_id,notnull" json:"event_id"`
	StartDate time.Time   `bun:"start_date,notnull" json:"start_date"`
	EndDate   time.Time   `bun:"end_date,notnull" json:"end_date"`
	Status    EventStatus `bun:"status,notnull" json:"status"`
	CreatedAt time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt time.Time   `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`

	Event       *Event        `bun:"rel:belongs-to,join:event_id=event_id" json:"event,omitempty"`
	TicketTypes []*TicketType `bun:"rel:has-many,join:period_id=period_id" json:"ticket_types,omitempty"`
}

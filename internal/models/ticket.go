package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TicketTypeStatus string

const (
	TicketTypeAvailable TicketTypeStatus = "AVAILABLE"
	TicketTypeSoldOut   TicketTypeStatus = "SOLD_OUT"
)

type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types,alias:tt"`

	TypeID     int64            `bun:"type_id,pk,autoincrement" json:"type_id"`
	PeriodID   int64            `bun:"period_id,notnull" json:"period_id"`
	CategoryID int64            `bun:"category_id,notnull" json:"category_id"`
	Price      decimal.Decimal  `bun:"price,notnull" json:"price"`
	Discount   *decimal.Decimal `bun:"discount" json:"discount,omitempty"`
	Quota      int              `bun:"quota,notnull" json:"quota"`
	Status     TicketTypeStatus `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt  time.Time        `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`

	Period *EventPeriod `bun:"rel:belongs-to,join:period_id=period_id" json:"period,omitempty"`
}

// EffectivePrice is the price an attendee actually pays for a ticket of this
// type: price minus discount, never below zero.
func (tt *TicketType) EffectivePrice() decimal.Decimal {
	if tt.Discount == nil {
		return tt.Price
	}
	p := tt.Price.Sub(*tt.Discount)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	TicketID      int64     `bun:"ticket_id,pk,autoincrement" json:"ticket_id"`
	TypeID        int64     `bun:"type_id,notnull" json:"type_id"`
	TicketCode    string    `bun:"ticket_code,notnull,unique" json:"ticket_code"`
	TransactionID *string   `bun:"transaction_id" json:"transaction_id,omitempty"`
	BuyerID       *string   `bun:"buyer_id" json:"buyer_id,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt     time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`

	Type *TicketType `bun:"rel:belongs-to,join:type_id=type_id" json:"type,omitempty"`
}

// Sold reports whether the ticket is bound to a transaction.
func (t *Ticket) Sold() bool {
	return t.TransactionID != nil
}

type CreateTicketTypeRequest struct {
	PeriodID   int64            `json:"period_id"`
	CategoryID int64            `json:"category_id"`
	Price      decimal.Decimal  `json:"price"`
	Discount   *decimal.Decimal `json:"discount,omitempty"`
	Quota      int              `json:"quota"`
	Status     TicketTypeStatus `json:"status"`
}

// UpdateTicketTypeRequest is a patch: nil fields keep their current value.
type UpdateTicketTypeRequest struct {
	CategoryID *int64            `json:"category_id,omitempty"`
	Price      *decimal.Decimal  `json:"price,omitempty"`
	Discount   *decimal.Decimal  `json:"discount,omitempty"`
	Quota      *int              `json:"quota,omitempty"`
	Status     *TicketTypeStatus `json:"status,omitempty"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketTypeCategory labels ticket types (e.g. REGULAR, VIP). Categories are
// managed elsewhere; this service only validates references against them.
type TicketTypeCategory struct {
	bun.BaseModel `bun:"table:ticket_type_categories,alias:c"`

	CategoryID int64     `bun:"category_id,pk,autoincrement" json:"category_id"`
	Name       string    `bun:"name,notnull,unique" json:"name"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt  time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionSuccess   TransactionStatus = "SUCCESS"
	TransactionFailed    TransactionStatus = "FAILED"
	TransactionCancelled TransactionStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionSuccess || s == TransactionFailed || s == TransactionCancelled
}

// Valid reports whether s is one of the known transaction statuses.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionSuccess, TransactionFailed, TransactionCancelled:
		return true
	}
	return false
}

type PaymentMethod string

// Payment methods are stored as opaque labels; nothing in this service
// executes a payment.
const (
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentEWallet      PaymentMethod = "E_WALLET"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentBankTransfer, PaymentEWallet:
		return true
	}
	return false
}

type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:txn"`

	TransactionID string            `bun:"transaction_id,pk" json:"transaction_id"`
	UserID        string            `bun:"user_id,notnull" json:"user_id"`
	TotalPrice    decimal.Decimal   `bun:"total_price,notnull" json:"total_price"`
	Status        TransactionStatus `bun:"status,notnull" json:"status"`
	PaymentMethod PaymentMethod     `bun:"payment_method,notnull" json:"payment_method"`
	CreatedAt     time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt     time.Time         `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`

	Tickets []*Ticket `bun:"rel:has-many,join:transaction_id=transaction_id" json:"tickets,omitempty"`
}

type CreateTransactionRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
	TicketIDs     []int64       `json:"ticket_ids"`
}

type UpdateTransactionRequest struct {
	Status TransactionStatus `json:"status"`
}

// TransactionSearch narrows admin transaction listings.
type TransactionSearch struct {
	Status    TransactionStatus
	StartDate time.Time
	EndDate   time.Time
	Page      int
	Limit     int
}

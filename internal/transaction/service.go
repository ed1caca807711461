package transaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/models"
)

type DBLayer interface {
	CreateTransaction(ctx context.Context, txn *models.Transaction, ticketIDs []int64) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, transactionID string, includeDeleted bool) (*models.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	SearchTransactions(ctx context.Context, search models.TransactionSearch) ([]models.Transaction, int, error)
	UpdateTransactionStatus(ctx context.Context, transactionID string, status models.TransactionStatus, releaseTickets bool) error
	DeleteTransaction(ctx context.Context, transactionID string) error
}

type KafkaPublisher interface {
	PublishTransactionCreated(txn models.Transaction) error
	PublishTransactionUpdated(txn models.Transaction) error
	PublishTransactionCancelled(txn models.Transaction) error
}

type IdentityDirectory interface {
	Lookup(ctx context.Context, userID string) (*models.Identity, error)
}

type TransactionService struct {
	DB        DBLayer
	Kafka     KafkaPublisher
	Directory IdentityDirectory
	Logger    *logger.Logger
}

func NewTransactionService(db DBLayer, kafka KafkaPublisher, directory IdentityDirectory, log *logger.Logger) *TransactionService {
	return &TransactionService{DB: db, Kafka: kafka, Directory: directory, Logger: log}
}

// CreateTransaction reserves the requested tickets for the caller. The whole
// check-then-bind runs inside the storage transaction; here we only validate
// the request shape and the caller's account.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, req models.CreateTransactionRequest) (*models.Transaction, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !identity.Active() {
		return nil, apperr.Forbidden("your account must be active to perform this action")
	}

	if len(req.TicketIDs) == 0 {
		return nil, apperr.BadRequest("ticket_ids must not be empty")
	}
	seen := make(map[int64]struct{}, len(req.TicketIDs))
	for _, id := range req.TicketIDs {
		if _, dup := seen[id]; dup {
			return nil, apperr.BadRequest("ticket_ids contains duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
	if !req.PaymentMethod.Valid() {
		return nil, apperr.BadRequest("unknown payment method %q", req.PaymentMethod)
	}

	txn := &models.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        identity.UserID,
		Status:        models.TransactionPending,
		PaymentMethod: req.PaymentMethod,
	}

	created, err := s.DB.CreateTransaction(ctx, txn, req.TicketIDs)
	if err != nil {
		return nil, err
	}

	s.Logger.LogTransaction("CREATE", created.TransactionID,
		fmt.Sprintf("reserved %d tickets, total %s", len(created.Tickets), created.TotalPrice.String()))

	if err := s.Kafka.PublishTransactionCreated(*created); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish transaction created: %v", err))
	}

	return created, nil
}

// GetTransaction returns a transaction to its owner or an admin. Soft-deleted
// transactions stay reachable by identity so purchase history survives
// cascades.
func (s *TransactionService) GetTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !identity.Active() {
		return nil, apperr.Forbidden("your account must be active to perform this action")
	}

	txn, err := s.DB.GetTransactionByID(ctx, transactionID, true)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnershipOrAdmin(txn.UserID, identity); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *TransactionService) ListMyTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !identity.Active() {
		return nil, apperr.Forbidden("your account must be active to perform this action")
	}
	return s.DB.ListTransactionsByUser(ctx, identity.UserID)
}

// SearchTransactions is admin-only.
func (s *TransactionService) SearchTransactions(ctx context.Context, userID string, search models.TransactionSearch) ([]models.Transaction, int, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if !identity.Admin() {
		return nil, 0, apperr.Forbidden("only administrators may search transactions")
	}
	return s.DB.SearchTransactions(ctx, search)
}

// UpdateTransactionStatus moves a PENDING transaction to a terminal status.
// CANCELLED additionally releases the bound tickets back to the unsold pool.
func (s *TransactionService) UpdateTransactionStatus(ctx context.Context, userID, transactionID string, status models.TransactionStatus) (*models.Transaction, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !identity.Active() {
		return nil, apperr.Forbidden("your account must be active to perform this action")
	}

	txn, err := s.DB.GetTransactionByID(ctx, transactionID, false)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnershipOrAdmin(txn.UserID, identity); err != nil {
		return nil, err
	}

	if !status.Valid() || !status.Terminal() {
		return nil, apperr.BadRequest("invalid target status %q", status)
	}
	if txn.Status.Terminal() {
		return nil, apperr.BadRequest("transaction %s is already %s", transactionID, txn.Status)
	}

	release := status == models.TransactionCancelled
	if err := s.DB.UpdateTransactionStatus(ctx, transactionID, status, release); err != nil {
		return nil, err
	}

	updated, err := s.DB.GetTransactionByID(ctx, transactionID, false)
	if err != nil {
		return nil, err
	}

	s.Logger.LogTransaction("STATUS", transactionID, fmt.Sprintf("%s -> %s", txn.Status, status))

	if release {
		if err := s.Kafka.PublishTransactionCancelled(*updated); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish transaction cancelled: %v", err))
		}
	} else {
		if err := s.Kafka.PublishTransactionUpdated(*updated); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish transaction updated: %v", err))
		}
	}

	return updated, nil
}

// DeleteTransaction releases the transaction's tickets and soft-deletes the
// row. The released tickets become sellable again.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !identity.Active() {
		return nil, apperr.Forbidden("your account must be active to perform this action")
	}

	txn, err := s.DB.GetTransactionByID(ctx, transactionID, false)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnershipOrAdmin(txn.UserID, identity); err != nil {
		return nil, err
	}

	if err := s.DB.DeleteTransaction(ctx, transactionID); err != nil {
		return nil, err
	}

	s.Logger.LogTransaction("DELETE", transactionID, fmt.Sprintf("released %d tickets", len(txn.Tickets)))

	if err := s.Kafka.PublishTransactionCancelled(*txn); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish transaction cancelled: %v", err))
	}

	return txn, nil
}

// ApplyPaymentResult applies a settlement event from the payment gateway's
// event stream. The gateway is trusted machine-to-machine traffic, so no
// ownership check applies; already-settled transactions are left alone.
func (s *TransactionService) ApplyPaymentResult(ctx context.Context, transactionID string, status models.TransactionStatus) error {
	if !status.Valid() || !status.Terminal() {
		return apperr.BadRequest("invalid settlement status %q", status)
	}

	txn, err := s.DB.GetTransactionByID(ctx, transactionID, false)
	if err != nil {
		return err
	}
	if txn.Status.Terminal() {
		return nil
	}

	release := status == models.TransactionCancelled
	if err := s.DB.UpdateTransactionStatus(ctx, transactionID, status, release); err != nil {
		return err
	}

	s.Logger.LogTransaction("PAYMENT", transactionID, fmt.Sprintf("%s -> %s", txn.Status, status))
	return nil
}

func ensureOwnershipOrAdmin(ownerID string, identity *models.Identity) error {
	if !identity.Admin() && identity.UserID != ownerID {
		return apperr.Forbidden("access denied: you can only access your own transactions")
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- RESERVATION ----------------

// CreateTransaction reserves the requested tickets for a new PENDING
// transaction. The availability check and the binding run in one database
// transaction, and the bind itself is a conditional update
// (transaction_id IS NULL) whose affected-row count must match the request:
// two callers racing for an overlapping ticket set cannot both succeed.
func (d *DB) CreateTransaction(ctx context.Context, txn *models.Transaction, ticketIDs []int64) (*models.Transaction, error) {
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var tickets []models.Ticket
		err := tx.NewSelect().
			Model(&tickets).
			Relation("Type").
			Where("t.ticket_id IN (?)", bun.In(ticketIDs)).
			Where("t.transaction_id IS NULL").
			Scan(ctx)
		if err != nil {
			return err
		}
		if len(tickets) != len(ticketIDs) {
			return apperr.BadRequest("some tickets are not available or do not exist")
		}

		total := decimal.Zero
		for i := range tickets {
			if tickets[i].Type == nil {
				return apperr.BadRequest("some tickets are not available or do not exist")
			}
			total = total.Add(tickets[i].Type.EffectivePrice())
		}

		txn.TotalPrice = total
		txn.Status = models.TransactionPending
		if _, err := tx.NewInsert().Model(txn).Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.Ticket)(nil)).
			Set("transaction_id = ?", txn.TransactionID).
			Set("buyer_id = ?", txn.UserID).
			Where("ticket_id IN (?)", bun.In(ticketIDs)).
			Where("transaction_id IS NULL").
			Where("deleted_at IS NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows != int64(len(ticketIDs)) {
			// a concurrent reservation won the race for at least one ticket
			return apperr.BadRequest("some tickets are not available or do not exist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.GetTransactionByID(ctx, txn.TransactionID, false)
}

// ---------------- LIFECYCLE ----------------

// GetTransactionByID loads a transaction with its tickets. With
// includeDeleted the lookup reaches soft-deleted rows, so historical
// transactions stay queryable by identity.
func (d *DB) GetTransactionByID(ctx context.Context, transactionID string, includeDeleted bool) (*models.Transaction, error) {
	var txn models.Transaction
	q := d.Bun.NewSelect().
		Model(&txn).
		Where("txn.transaction_id = ?", transactionID).
		Limit(1)
	if includeDeleted {
		q = q.WhereAllWithDeleted().
			Relation("Tickets", func(sq *bun.SelectQuery) *bun.SelectQuery {
				return sq.WhereAllWithDeleted()
			})
	} else {
		q = q.Relation("Tickets")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("transaction %s not found", transactionID)
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (d *DB) ListTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := d.Bun.NewSelect().
		Model(&txns).
		Relation("Tickets").
		Where("txn.user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// SearchTransactions narrows the admin listing by status and creation window.
func (d *DB) SearchTransactions(ctx context.Context, search models.TransactionSearch) ([]models.Transaction, int, error) {
	applyFilters := func(q *bun.SelectQuery) *bun.SelectQuery {
		if search.Status != "" {
			q = q.Where("status = ?", search.Status)
		}
		if !search.StartDate.IsZero() {
			q = q.Where("created_at >= ?", search.StartDate)
		}
		if !search.EndDate.IsZero() {
			q = q.Where("created_at <= ?", search.EndDate)
		}
		return q
	}

	total, err := applyFilters(d.Bun.NewSelect().Model((*models.Transaction)(nil))).Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	page := search.Page
	if page < 1 {
		page = 1
	}
	limit := search.Limit
	if limit < 1 {
		limit = 10
	}

	var txns []models.Transaction
	err = applyFilters(d.Bun.NewSelect().Model(&txns)).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// UpdateTransactionStatus writes the new status; when releaseTickets is set
// (CANCELLED) the bound tickets return to the unsold pool in the same
// transaction.
func (d *DB) UpdateTransactionStatus(ctx context.Context, transactionID string, status models.TransactionStatus, releaseTickets bool) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Transaction)(nil)).
			Set("status = ?", status).
			Where("transaction_id = ?", transactionID).
			Where("deleted_at IS NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.NotFound("transaction %s not found", transactionID)
		}

		if releaseTickets {
			return unbindTickets(ctx, tx, transactionID)
		}
		return nil
	})
}

// DeleteTransaction releases every bound ticket back to unsold and then
// soft-deletes the transaction row, as one transactional unit.
func (d *DB) DeleteTransaction(ctx context.Context, transactionID string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Transaction)(nil)).
			Where("transaction_id = ?", transactionID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("transaction %s not found", transactionID)
		}

		if err := unbindTickets(ctx, tx, transactionID); err != nil {
			return err
		}

		_, err = tx.NewDelete().
			Model((*models.Transaction)(nil)).
			Where("transaction_id = ?", transactionID).
			Exec(ctx)
		return err
	})
}

func unbindTickets(ctx context.Context, tx bun.Tx, transactionID string) error {
	_, err := tx.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("transaction_id = NULL").
		Set("buyer_id = NULL").
		Where("transaction_id = ?", transactionID).
		Exec(ctx)
	return err
}

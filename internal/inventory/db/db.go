package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/models"
	"ms-inventory/internal/utils"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- TICKET TYPES ----------------

// CreateTicketType inserts a ticket type and materializes its ticket pool in
// the same transaction, so a reconciliation failure rolls back the type too.
func (d *DB) CreateTicketType(ctx context.Context, tt *models.TicketType) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.EventPeriod)(nil)).
			Where("period_id = ?", tt.PeriodID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("event period %d not found", tt.PeriodID)
		}

		exists, err = tx.NewSelect().
			Model((*models.TicketTypeCategory)(nil)).
			Where("category_id = ?", tt.CategoryID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("ticket type category %d not found", tt.CategoryID)
		}

		if _, err := tx.NewInsert().Model(tt).Exec(ctx); err != nil {
			return mapWriteError(err)
		}

		return reconcileTickets(ctx, tx, tt.TypeID, tt.Quota)
	})
}

// UpdateTicketType writes the mutable ticket type fields and reconciles the
// ticket pool against the (possibly changed) quota, all in one transaction.
func (d *DB) UpdateTicketType(ctx context.Context, tt *models.TicketType) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(tt).
			Column("category_id", "price", "discount", "quota", "status").
			Where("type_id = ?", tt.TypeID).
			Where("deleted_at IS NULL").
			Exec(ctx)
		if err != nil {
			return mapWriteError(err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.NotFound("ticket type %d not found", tt.TypeID)
		}

		return reconcileTickets(ctx, tx, tt.TypeID, tt.Quota)
	})
}

func (d *DB) GetTicketTypeByID(ctx context.Context, typeID int64) (*models.TicketType, error) {
	var tt models.TicketType
	err := d.Bun.NewSelect().
		Model(&tt).
		Where("type_id = ?", typeID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("ticket type %d not found", typeID)
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// EventOwnerByPeriod resolves the organizer of the event a period belongs to.
func (d *DB) EventOwnerByPeriod(ctx context.Context, periodID int64) (string, error) {
	var organizerID string
	err := d.Bun.NewSelect().
		Model((*models.EventPeriod)(nil)).
		Column("e.organizer_id").
		Join("JOIN events AS e ON e.event_id = p.event_id").
		Where("p.period_id = ?", periodID).
		Where("e.deleted_at IS NULL").
		Limit(1).
		Scan(ctx, &organizerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.NotFound("event period %d not found", periodID)
	}
	if err != nil {
		return "", err
	}
	return organizerID, nil
}

// EventOwnerByType resolves the organizer of the event a ticket type belongs to.
func (d *DB) EventOwnerByType(ctx context.Context, typeID int64) (string, error) {
	var organizerID string
	err := d.Bun.NewSelect().
		Model((*models.TicketType)(nil)).
		Column("e.organizer_id").
		Join("JOIN event_periods AS p ON p.period_id = tt.period_id").
		Join("JOIN events AS e ON e.event_id = p.event_id").
		Where("tt.type_id = ?", typeID).
		Where("p.deleted_at IS NULL").
		Where("e.deleted_at IS NULL").
		Limit(1).
		Scan(ctx, &organizerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.NotFound("ticket type %d not found", typeID)
	}
	if err != nil {
		return "", err
	}
	return organizerID, nil
}

// ---------------- TICKETS ----------------

func (d *DB) GetTicketByID(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Relation("Type").
		Where("t.ticket_id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("ticket %d not found", ticketID)
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CountAvailableTickets counts live, unsold tickets of a type.
func (d *DB) CountAvailableTickets(ctx context.Context, typeID int64) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("type_id = ?", typeID).
		Where("transaction_id IS NULL").
		Count(ctx)
}

// ListTicketsByType returns the live tickets of a type, oldest first.
func (d *DB) ListTicketsByType(ctx context.Context, typeID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("type_id = ?", typeID).
		OrderExpr("created_at ASC, ticket_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// ---------------- RECONCILIATION ----------------

// reconcileTickets brings the count of live, unsold tickets of a type to its
// quota. Missing tickets are created with fresh codes; surplus unsold tickets
// are soft-deleted oldest-first. Sold tickets are never selected for removal.
// The operation is idempotent with respect to the final live-unsold count.
func reconcileTickets(ctx context.Context, tx bun.Tx, typeID int64, quota int) error {
	existing, err := tx.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("type_id = ?", typeID).
		Where("transaction_id IS NULL").
		Count(ctx)
	if err != nil {
		return err
	}

	switch {
	case existing < quota:
		missing := quota - existing
		batch := make([]*models.Ticket, missing)
		for i := range batch {
			batch[i] = &models.Ticket{
				TypeID:     typeID,
				TicketCode: utils.GenerateTicketCode(),
			}
		}
		if _, err := tx.NewInsert().Model(&batch).Exec(ctx); err != nil {
			return mapWriteError(err)
		}

	case existing > quota:
		surplus := existing - quota
		var ids []int64
		err := tx.NewSelect().
			Model((*models.Ticket)(nil)).
			Column("ticket_id").
			Where("type_id = ?", typeID).
			Where("transaction_id IS NULL").
			OrderExpr("created_at ASC, ticket_id ASC").
			Limit(surplus).
			Scan(ctx, &ids)
		if err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.Ticket)(nil)).
			Where("ticket_id IN (?)", bun.In(ids)).
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

// mapWriteError turns unique constraint violations into retryable conflicts.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperr.Wrap(err, apperr.KindConflict, "duplicate value violates a unique constraint")
	}
	// sqliteshim surfaces constraint failures as plain error strings
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return apperr.Wrap(err, apperr.KindConflict, "duplicate value violates a unique constraint")
	}
	return err
}

package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- READS ----------------

func (d *DB) GetEventByID(ctx context.Context, eventID int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Relation("Periods").
		Relation("Periods.TicketTypes").
		Where("e.event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("event %d not found", eventID)
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetPeriodByID(ctx context.Context, periodID int64) (*models.EventPeriod, error) {
	var period models.EventPeriod
	err := d.Bun.NewSelect().
		Model(&period).
		Relation("Event").
		Where("p.period_id = ?", periodID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("event period %d not found", periodID)
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// ---------------- CASCADE ----------------

// SoftDeleteEvent tombstones an event and everything under it: live periods,
// their live ticket types, and those types' live tickets. Runs as a single
// transaction; a failure anywhere aborts the whole cascade.
func (d *DB) SoftDeleteEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(&event).
			Where("e.event_id = ?", eventID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("event %d not found", eventID)
		}
		if err != nil {
			return err
		}

		var periodIDs []int64
		err = tx.NewSelect().
			Model((*models.EventPeriod)(nil)).
			Column("period_id").
			Where("event_id = ?", eventID).
			Scan(ctx, &periodIDs)
		if err != nil {
			return err
		}

		if err := cascadePeriods(ctx, tx, periodIDs); err != nil {
			return err
		}

		_, err = tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// SoftDeletePeriod tombstones a single period and its ticket types and tickets.
func (d *DB) SoftDeletePeriod(ctx context.Context, periodID int64) (*models.EventPeriod, error) {
	var period models.EventPeriod
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(&period).
			Where("p.period_id = ?", periodID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("event period %d not found", periodID)
		}
		if err != nil {
			return err
		}

		return cascadePeriods(ctx, tx, []int64{periodID})
	})
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// cascadePeriods soft-deletes the given periods together with their live
// ticket types and tickets. Tickets go first so no read window exists where a
// live ticket hangs under a deleted type; all deletes are logical, so order
// matters only for that visibility.
func cascadePeriods(ctx context.Context, tx bun.Tx, periodIDs []int64) error {
	if len(periodIDs) == 0 {
		return nil
	}

	var typeIDs []int64
	err := tx.NewSelect().
		Model((*models.TicketType)(nil)).
		Column("type_id").
		Where("period_id IN (?)", bun.In(periodIDs)).
		Scan(ctx, &typeIDs)
	if err != nil {
		return err
	}

	if len(typeIDs) > 0 {
		if _, err := tx.NewDelete().
			Model((*models.Ticket)(nil)).
			Where("type_id IN (?)", bun.In(typeIDs)).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*models.TicketType)(nil)).
			Where("type_id IN (?)", bun.In(typeIDs)).
			Exec(ctx); err != nil {
			return err
		}
	}

	_, err = tx.NewDelete().
		Model((*models.EventPeriod)(nil)).
		Where("period_id IN (?)", bun.In(periodIDs)).
		Exec(ctx)
	return err
}

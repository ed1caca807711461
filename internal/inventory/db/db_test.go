package db_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/inventory/db"
	"ms-inventory/internal/models"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// A fresh pool connection would see an empty database
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.EventPeriod)(nil),
		(*models.TicketTypeCategory)(nil),
		(*models.TicketType)(nil),
		(*models.Transaction)(nil),
		(*models.Ticket)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(ctx); err != nil {
			t.Fatalf("Failed to create table for %T: %v", model, err)
		}
	}

	return &db.DB{Bun: bunDB}, bunDB
}

// seedPeriod inserts an event, one period and a category, returning their IDs.
func seedPeriod(t *testing.T, bunDB *bun.DB, organizerID string) (periodID, categoryID int64) {
	ctx := context.Background()

	event := &models.Event{OrganizerID: organizerID, Title: "Test Event", Status: models.EventActive}
	_, err := bunDB.NewInsert().Model(event).Exec(ctx)
	require.NoError(t, err)

	period := &models.EventPeriod{EventID: event.EventID}
	_, err = bunDB.NewInsert().Model(period).Exec(ctx)
	require.NoError(t, err)

	category := &models.TicketTypeCategory{Name: "General Admission"}
	_, err = bunDB.NewInsert().Model(category).Exec(ctx)
	require.NoError(t, err)

	return period.PeriodID, category.CategoryID
}

func newTicketType(periodID, categoryID int64, quota int) *models.TicketType {
	return &models.TicketType{
		PeriodID:   periodID,
		CategoryID: categoryID,
		Price:      decimal.NewFromInt(100),
		Quota:      quota,
		Status:     models.TicketTypeAvailable,
	}
}

func TestCreateTicketTypeMaterializesPool(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	periodID, categoryID := seedPeriod(t, bunDB, "org-1")

	tt := newTicketType(periodID, categoryID, 100)
	require.NoError(t, inventoryDB.CreateTicketType(ctx, tt))

	tickets, err := inventoryDB.ListTicketsByType(ctx, tt.TypeID)
	require.NoError(t, err)
	assert.Equal(t, 100, len(tickets))

	// Every ticket carries a unique, well-formed code
	codes := make(map[string]struct{}, len(tickets))
	for _, ticket := range tickets {
		assert.True(t, strings.HasPrefix(ticket.TicketCode, "TKT-"))
		codes[ticket.TicketCode] = struct{}{}
	}
	assert.Equal(t, 100, len(codes))
}

func TestCreateTicketTypeMissingPeriod(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	_, categoryID := seedPeriod(t, bunDB, "org-1")

	tt := newTicketType(9999, categoryID, 10)
	err := inventoryDB.CreateTicketType(ctx, tt)
	assert.True(t, apperr.IsNotFound(err))

	// Nothing was materialized
	count, err := bunDB.NewSelect().Model((*models.Ticket)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCreateTicketTypeMissingCategory(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	periodID, _ := seedPeriod(t, bunDB, "org-1")

	tt := newTicketType(periodID, 9999, 10)
	err := inventoryDB.CreateTicketType(ctx, tt)
	assert.True(t, apperr.IsNotFound(err))
}

func TestQuotaIncreaseTopsUpPool(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	periodID, categoryID := seedPeriod(t, bunDB, "org-1")

	tt := newTicketType(periodID, categoryID, 10)
	require.NoError(t, inventoryDB.CreateTicketType(ctx, tt))

	tt.Quota = 25
	require.NoError(t, inventoryDB.UpdateTicketType(ctx, tt))

	count, err := inventoryDB.CountAvailableTickets(ctx, tt.TypeID)
	require.NoError(t, err)
	assert.Equal(t, 25, count)
}

func TestQuotaDecreaseTrimsOldestUnsold(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	periodID, categoryID := seedPeriod(t, bunDB, "org-1")

	tt := newTicketType(periodID, categoryID, 10)
	require.NoError(t, inventoryDB.CreateTicketType(ctx, tt))

	tickets, err := inventoryDB.ListTicketsByType(ctx, tt.TypeID)
	require.NoError(t, err)
	require.Equal(t, 10, len(tickets))

	// Sell the three oldest tickets
	soldIDs := []int64{tickets[0].TicketID, tickets[1].TicketID, tickets[2].TicketID}
	txnID := "txn-sold"
	buyer := "buyer-1"
	_, err = bunDB.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("transaction_id = ?", txnID).
		Set("buyer_id = ?", buyer).
		Where("ticket_id IN (?)", bun.In(soldIDs)).
		Exec(ctx)
	require.NoError(t, err)

	// Shrink the unsold pool from 7 to 4
	tt.Quota = 4
	require.NoError(t, inventoryDB.UpdateTicketType(ctx, tt))

	unsold, err := inventoryDB.CountAvailableTickets(ctx, tt.TypeID)
	require.NoError(t, err)
	assert.Equal(t, 4, unsold)

	// Sold tickets are never trimmed
	remaining, err := inventoryDB.ListTicketsByType(ctx, tt.TypeID)
	require.NoError(t, err)
	assert.Equal(t, 7, len(remaining))
	for _, id := range soldIDs {
		found := false
		for _, ticket := range remaining {
			if ticket.TicketID == id {
				found = true
				assert.True(t, ticket.Sold())
			}
		}
		assert.True(t, found, "sold ticket %d must survive the trim", id)
	}

	// The trimmed tickets are the oldest unsold ones (IDs 4, 5, 6 of the batch)
	for _, ticket := range remaining {
		if !ticket.Sold() {
			assert.Greater(t, ticket.TicketID, tickets[5].TicketID)
		}
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	periodID, categoryID := seedPeriod(t, bunDB, "org-1")

	tt := newTicketType(periodID, categoryID, 15)
	require.NoError(t, inventoryDB.CreateTicketType(ctx, tt))

	before, err := inventoryDB.ListTicketsByType(ctx, tt.TypeID)
	require.NoError(t, err)

	// Re-writing the same quota must not churn the pool
	require.NoError(t, inventoryDB.UpdateTicketType(ctx, tt))

	after, err := inventoryDB.ListTicketsByType(ctx, tt.TypeID)
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].TicketID, after[i].TicketID)
		assert.Equal(t, before[i].TicketCode, after[i].TicketCode)
	}
}

func TestUpdateTicketTypeNotFound(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	tt := newTicketType(1, 1, 5)
	tt.TypeID = 404
	err := inventoryDB.UpdateTicketType(ctx, tt)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetTicketTypeByID(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	periodID, categoryID := seedPeriod(t, bunDB, "org-1")

	discount := decimal.NewFromInt(20)
	tt := newTicketType(periodID, categoryID, 3)
	tt.Discount = &discount
	require.NoError(t, inventoryDB.CreateTicketType(ctx, tt))

	got, err := inventoryDB.GetTicketTypeByID(ctx, tt.TypeID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.EffectivePrice().Equal(decimal.NewFromInt(80)))

	_, err = inventoryDB.GetTicketTypeByID(ctx, 9999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestEventOwnerLookups(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	periodID, categoryID := seedPeriod(t, bunDB, "org-owner")

	tt := newTicketType(periodID, categoryID, 1)
	require.NoError(t, inventoryDB.CreateTicketType(ctx, tt))

	owner, err := inventoryDB.EventOwnerByPeriod(ctx, periodID)
	require.NoError(t, err)
	assert.Equal(t, "org-owner", owner)

	owner, err = inventoryDB.EventOwnerByType(ctx, tt.TypeID)
	require.NoError(t, err)
	assert.Equal(t, "org-owner", owner)

	_, err = inventoryDB.EventOwnerByPeriod(ctx, 9999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetTicketByIDWithType(t *testing.T) {
	inventoryDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	periodID, categoryID := seedPeriod(t, bunDB, "org-1")

	tt := newTicketType(periodID, categoryID, 2)
	require.NoError(t, inventoryDB.CreateTicketType(ctx, tt))

	tickets, err := inventoryDB.ListTicketsByType(ctx, tt.TypeID)
	require.NoError(t, err)

	ticket, err := inventoryDB.GetTicketByID(ctx, tickets[0].TicketID)
	require.NoError(t, err)
	require.NotNil(t, ticket.Type)
	assert.Equal(t, tt.TypeID, ticket.Type.TypeID)
	assert.False(t, ticket.Sold())

	_, err = inventoryDB.GetTicketByID(ctx, 9999)
	assert.True(t, apperr.IsNotFound(err))
}

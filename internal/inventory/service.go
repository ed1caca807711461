package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/models"
)

type DBLayer interface {
	CreateTicketType(ctx context.Context, tt *models.TicketType) error
	UpdateTicketType(ctx context.Context, tt *models.TicketType) error
	GetTicketTypeByID(ctx context.Context, typeID int64) (*models.TicketType, error)
	GetTicketByID(ctx context.Context, ticketID int64) (*models.Ticket, error)
	CountAvailableTickets(ctx context.Context, typeID int64) (int, error)
	EventOwnerByPeriod(ctx context.Context, periodID int64) (string, error)
	EventOwnerByType(ctx context.Context, typeID int64) (string, error)
}

type IdentityDirectory interface {
	Lookup(ctx context.Context, userID string) (*models.Identity, error)
}

type TicketTypeService struct {
	DB        DBLayer
	Directory IdentityDirectory
	Logger    *logger.Logger
}

func NewTicketTypeService(db DBLayer, directory IdentityDirectory, log *logger.Logger) *TicketTypeService {
	return &TicketTypeService{DB: db, Directory: directory, Logger: log}
}

// CreateTicketType validates the request, checks that the caller organizes
// the target period's event, and materializes the ticket pool up to quota.
func (s *TicketTypeService) CreateTicketType(ctx context.Context, userID string, req models.CreateTicketTypeRequest) (*models.TicketType, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !identity.Active() {
		return nil, apperr.Forbidden("your account must be active to perform this action")
	}

	if err := validatePricing(req.Price, req.Discount); err != nil {
		return nil, err
	}
	if req.Quota < 0 {
		return nil, apperr.BadRequest("quota must be non-negative")
	}
	if req.Status != models.TicketTypeAvailable && req.Status != models.TicketTypeSoldOut {
		return nil, apperr.BadRequest("unknown ticket type status %q", req.Status)
	}

	if err := s.ensureOwnerOfPeriod(ctx, identity, req.PeriodID); err != nil {
		return nil, err
	}

	tt := &models.TicketType{
		PeriodID:   req.PeriodID,
		CategoryID: req.CategoryID,
		Price:      req.Price,
		Discount:   req.Discount,
		Quota:      req.Quota,
		Status:     req.Status,
	}
	if err := s.DB.CreateTicketType(ctx, tt); err != nil {
		return nil, err
	}

	s.Logger.LogInventory("CREATE", tt.TypeID, fmt.Sprintf("materialized %d tickets", tt.Quota))
	return tt, nil
}

// UpdateTicketType applies the patch and reconciles the ticket pool when the
// quota changed.
func (s *TicketTypeService) UpdateTicketType(ctx context.Context, userID string, typeID int64, req models.UpdateTicketTypeRequest) (*models.TicketType, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !identity.Active() {
		return nil, apperr.Forbidden("your account must be active to perform this action")
	}

	if err := s.ensureOwnerOfType(ctx, identity, typeID); err != nil {
		return nil, err
	}

	tt, err := s.DB.GetTicketTypeByID(ctx, typeID)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		tt.CategoryID = *req.CategoryID
	}
	if req.Price != nil {
		tt.Price = *req.Price
	}
	if req.Discount != nil {
		tt.Discount = req.Discount
	}
	if req.Quota != nil {
		if *req.Quota < 0 {
			return nil, apperr.BadRequest("quota must be non-negative")
		}
		tt.Quota = *req.Quota
	}
	if req.Status != nil {
		if *req.Status != models.TicketTypeAvailable && *req.Status != models.TicketTypeSoldOut {
			return nil, apperr.BadRequest("unknown ticket type status %q", *req.Status)
		}
		tt.Status = *req.Status
	}

	if err := validatePricing(tt.Price, tt.Discount); err != nil {
		return nil, err
	}

	if err := s.DB.UpdateTicketType(ctx, tt); err != nil {
		return nil, err
	}

	s.Logger.LogInventory("UPDATE", tt.TypeID, fmt.Sprintf("reconciled pool to quota %d", tt.Quota))
	return tt, nil
}

func (s *TicketTypeService) GetTicketType(ctx context.Context, typeID int64) (*models.TicketType, error) {
	return s.DB.GetTicketTypeByID(ctx, typeID)
}

// Availability reports how many live, unsold tickets a type currently has.
func (s *TicketTypeService) Availability(ctx context.Context, typeID int64) (int, error) {
	if _, err := s.DB.GetTicketTypeByID(ctx, typeID); err != nil {
		return 0, err
	}
	return s.DB.CountAvailableTickets(ctx, typeID)
}

// GetTicketForBuyer loads a ticket and enforces that only the buyer (or an
// admin) may see it, which gates the QR endpoint.
func (s *TicketTypeService) GetTicketForBuyer(ctx context.Context, userID string, ticketID int64) (*models.Ticket, error) {
	identity, err := s.Directory.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.Sold() {
		return nil, apperr.BadRequest("ticket %d has not been purchased", ticketID)
	}
	if !identity.Admin() && (ticket.BuyerID == nil || *ticket.BuyerID != identity.UserID) {
		return nil, apperr.Forbidden("access denied: you can only access your own tickets")
	}
	return ticket, nil
}

func (s *TicketTypeService) ensureOwnerOfPeriod(ctx context.Context, identity *models.Identity, periodID int64) error {
	owner, err := s.DB.EventOwnerByPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if !identity.Admin() && owner != identity.UserID {
		return apperr.Forbidden("you are not allowed to manage this event's inventory")
	}
	return nil
}

func (s *TicketTypeService) ensureOwnerOfType(ctx context.Context, identity *models.Identity, typeID int64) error {
	owner, err := s.DB.EventOwnerByType(ctx, typeID)
	if err != nil {
		return err
	}
	if !identity.Admin() && owner != identity.UserID {
		return apperr.Forbidden("you are not allowed to manage this event's inventory")
	}
	return nil
}

// validatePricing rejects negative amounts and discounts that would push the
// effective price below zero.
func validatePricing(price decimal.Decimal, discount *decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.BadRequest("price must be non-negative")
	}
	if discount != nil {
		if discount.IsNegative() {
			return apperr.BadRequest("discount must be non-negative")
		}
		if discount.GreaterThan(price) {
			return apperr.BadRequest("discount must not exceed price")
		}
	}
	return nil
}

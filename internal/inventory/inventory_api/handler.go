package inventory_api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/auth"
	"ms-inventory/internal/inventory"
	"ms-inventory/internal/inventory/qr"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/models"
	"ms-inventory/internal/utils"
)

type Handler struct {
	TicketTypes *inventory.TicketTypeService
	QRGenerator *qr.Generator
	Logger      *logger.Logger
}

func NewHandler(service *inventory.TicketTypeService, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{TicketTypes: service, QRGenerator: qrGen, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ticket-types", func(r chi.Router) {
		r.Post("/", h.CreateTicketType)
		r.Get("/{typeID}", h.GetTicketType)
		r.Patch("/{typeID}", h.UpdateTicketType)
		r.Get("/{typeID}/availability", h.Availability)
	})
	r.Get("/tickets/{ticketID}/qr", h.TicketQR)
}

func (h *Handler) CreateTicketType(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTicketTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	tt, err := h.TicketTypes.CreateTicketType(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, "failed to create ticket type", err)
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("ticket type created", tt))
}

func (h *Handler) UpdateTicketType(w http.ResponseWriter, r *http.Request) {
	typeID, err := pathID(r, "typeID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid type id", err.Error()))
		return
	}

	var req models.UpdateTicketTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	tt, err := h.TicketTypes.UpdateTicketType(r.Context(), auth.UserID(r.Context()), typeID, req)
	if err != nil {
		writeError(w, "failed to update ticket type", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket type updated", tt))
}

func (h *Handler) GetTicketType(w http.ResponseWriter, r *http.Request) {
	typeID, err := pathID(r, "typeID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid type id", err.Error()))
		return
	}

	tt, err := h.TicketTypes.GetTicketType(r.Context(), typeID)
	if err != nil {
		writeError(w, "failed to get ticket type", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket type", tt))
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	typeID, err := pathID(r, "typeID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid type id", err.Error()))
		return
	}

	available, err := h.TicketTypes.Availability(r.Context(), typeID)
	if err != nil {
		writeError(w, "failed to get availability", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("availability", map[string]int{"available": available}))
}

// TicketQR renders the encrypted QR code of a purchased ticket for its buyer.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathID(r, "ticketID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket id", err.Error()))
		return
	}

	ticket, err := h.TicketTypes.GetTicketForBuyer(r.Context(), auth.UserID(r.Context()), ticketID)
	if err != nil {
		writeError(w, "failed to get ticket", err)
		return
	}

	payload := qr.Payload{
		TicketID:   ticket.TicketID,
		TicketCode: ticket.TicketCode,
		TypeID:     ticket.TypeID,
	}
	if ticket.TransactionID != nil {
		payload.TransactionID = *ticket.TransactionID
	}

	png, err := h.QRGenerator.GenerateEncryptedQR(payload)
	if err != nil {
		writeError(w, "failed to render QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, message string, err error) {
	writeJSON(w, apperr.HTTPStatus(err), utils.ErrorResponse(message, err.Error()))
}

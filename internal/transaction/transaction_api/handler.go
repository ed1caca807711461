package transaction_api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/auth"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/models"
	"ms-inventory/internal/transaction"
	"ms-inventory/internal/utils"
)

type Handler struct {
	Transactions *transaction.TransactionService
	Logger       *logger.Logger
}

func NewHandler(service *transaction.TransactionService, log *logger.Logger) *Handler {
	return &Handler{Transactions: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.CreateTransaction)
		r.Get("/my", h.ListMyTransactions)
		r.Get("/search", h.SearchTransactions)
		r.Get("/{transactionID}", h.GetTransaction)
		r.Patch("/{transactionID}", h.UpdateTransactionStatus)
		r.Delete("/{transactionID}", h.DeleteTransaction)
	})
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	txn, err := h.Transactions.CreateTransaction(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		writeError(w, "failed to create transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("transaction created", txn))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")

	txn, err := h.Transactions.GetTransaction(r.Context(), auth.UserID(r.Context()), transactionID)
	if err != nil {
		writeError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("transaction", txn))
}

func (h *Handler) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.Transactions.ListMyTransactions(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("transactions", txns))
}

// SearchTransactions is the admin listing: ?status=&start_date=&end_date=&page=&limit=
func (h *Handler) SearchTransactions(w http.ResponseWriter, r *http.Request) {
	search := models.TransactionSearch{
		Status: models.TransactionStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid start_date", err.Error()))
			return
		}
		search.StartDate = t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid end_date", err.Error()))
			return
		}
		search.EndDate = t.Add(24*time.Hour - time.Nanosecond)
	}
	search.Page = queryInt(r, "page", 1)
	search.Limit = queryInt(r, "limit", 10)

	txns, total, err := h.Transactions.SearchTransactions(r.Context(), auth.UserID(r.Context()), search)
	if err != nil {
		writeError(w, "failed to search transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("transactions", map[string]interface{}{
		"transactions": txns,
		"total":        total,
		"page":         search.Page,
		"limit":        search.Limit,
	}))
}

func (h *Handler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")

	var req models.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	txn, err := h.Transactions.UpdateTransactionStatus(r.Context(), auth.UserID(r.Context()), transactionID, req.Status)
	if err != nil {
		writeError(w, "failed to update transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("transaction updated", txn))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")

	txn, err := h.Transactions.DeleteTransaction(r.Context(), auth.UserID(r.Context()), transactionID)
	if err != nil {
		writeError(w, "failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("transaction deleted, tickets released", txn))
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, message string, err error) {
	writeJSON(w, apperr.HTTPStatus(err), utils.ErrorResponse(message, err.Error()))
}

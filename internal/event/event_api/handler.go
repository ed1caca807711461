package event_api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-inventory/internal/apperr"
	"ms-inventory/internal/auth"
	"ms-inventory/internal/event"
	"ms-inventory/internal/logger"
	"ms-inventory/internal/utils"
)

type Handler struct {
	Events *event.EventService
	Logger *logger.Logger
}

func NewHandler(service *event.EventService, log *logger.Logger) *Handler {
	return &Handler{Events: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events/{eventID}", h.GetEvent)
	r.Delete("/events/{eventID}", h.DeleteEvent)
	r.Delete("/periods/{periodID}", h.DeleteEventPeriod)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	ev, err := h.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, "failed to get event", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("event", ev))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	deleted, err := h.Events.DeleteEvent(r.Context(), auth.UserID(r.Context()), eventID)
	if err != nil {
		writeError(w, "failed to delete event", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("event deleted", deleted))
}

func (h *Handler) DeleteEventPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, err := pathID(r, "periodID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid period id", err.Error()))
		return
	}

	deleted, err := h.Events.DeleteEventPeriod(r.Context(), auth.UserID(r.Context()), periodID)
	if err != nil {
		writeError(w, "failed to delete event period", err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("event period deleted", deleted))
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

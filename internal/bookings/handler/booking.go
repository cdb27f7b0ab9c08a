package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"sessly/internal/bookings/service"
	"sessly/pkg/auth"
	"sessly/pkg/config"
	apperrors "sessly/pkg/errors"
	httputil "sessly/pkg/http"
	"sessly/pkg/logger"
	"sessly/pkg/middleware"
	"sessly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	tokens  *auth.Tokens
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, tokens *auth.Tokens, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		tokens:  tokens,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var booking model.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), ownerID, &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ownerID, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("Authentication required"))
		return
	}

	booking, err := h.service.GetByID(r.Context(), ownerID, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, "GetAll", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := parsePagination(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAllForOwner(r.Context(), ownerID, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ownerID, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, "Update", apperrors.Unauthorized("Authentication required"))
		return
	}

	var updates model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Update(r.Context(), ownerID, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ownerID, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, "Receipt", apperrors.Unauthorized("Authentication required"))
		return
	}

	pdf, receiptNumber, err := h.service.Receipt(r.Context(), ownerID, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Receipt", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+receiptNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Error("failed to write receipt response", "handler", "Receipt", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func parsePagination(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, apperrors.InvalidInput(fmt.Sprintf("invalid limit parameter: %s", limitStr))
		}
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, apperrors.InvalidInput(fmt.Sprintf("invalid offset parameter: %s", offsetStr))
		}
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", middleware.Authenticate(h.tokens, h.Create))
	router.GET("/api/v1/bookings", middleware.Authenticate(h.tokens, h.GetAll))
	router.GET("/api/v1/bookings/id/:id", middleware.Authenticate(h.tokens, h.GetByID))
	router.PATCH("/api/v1/bookings/id/:id", middleware.Authenticate(h.tokens, h.Update))
	router.GET("/api/v1/bookings/id/:id/receipt", middleware.Authenticate(h.tokens, h.Receipt))
}

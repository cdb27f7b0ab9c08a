package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	adminservice "sessly/internal/admin/service"
	plansservice "sessly/internal/plans/service"
	"sessly/pkg/auth"
	"sessly/pkg/config"
	apperrors "sessly/pkg/errors"
	httputil "sessly/pkg/http"
	"sessly/pkg/logger"
	"sessly/pkg/middleware"
	"sessly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AdminHandler struct {
	admin  adminservice.AdminService
	plans  plansservice.PlanService
	tokens *auth.Tokens
	check  middleware.CapabilityCheck
	log    *logger.Logger
}

func NewAdminHandler(
	admin adminservice.AdminService,
	plans plansservice.PlanService,
	tokens *auth.Tokens,
	check middleware.CapabilityCheck,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		plans:  plans,
		tokens: tokens,
		check:  check,
		log:    log,
	}
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	bookings, total, err := h.admin.ListBookings(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListBookings", "operation", "WritePaginated", "error", err)
	}
}

type statusTransitionRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) TransitionStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req statusTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "TransitionStatus", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.admin.TransitionStatus(r.Context(), ps.ByName("id"), req.Status)
	if err != nil {
		h.writeError(w, "TransitionStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "TransitionStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) ListPlans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	plans, err := h.plans.List(r.Context())
	if err != nil {
		h.writeError(w, "ListPlans", err)
		return
	}

	if err := httputil.WriteSuccess(w, plans); err != nil {
		h.log.Error("failed to write success response", "handler", "ListPlans", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) CreateSessionPlan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var plan model.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateSessionPlan", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.plans.CreateSessionPlan(r.Context(), &plan); err != nil {
		h.writeError(w, "CreateSessionPlan", err)
		return
	}

	if err := httputil.WriteCreated(w, plan); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateSessionPlan", "operation", "WriteCreated", "error", err)
	}
}

type priceUpdateRequest struct {
	Price float64 `json:"price"`
}

func (h *AdminHandler) UpdatePlanPrice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req priceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdatePlanPrice", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.plans.UpdatePrice(r.Context(), ps.ByName("name"), req.Price); err != nil {
		h.writeError(w, "UpdatePlanPrice", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handler string, err error) {
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

// guard chains the auth gate and the admin capability check.
func (h *AdminHandler) guard(next httprouter.Handle) httprouter.Handle {
	return middleware.Authenticate(h.tokens, middleware.RequireAdmin(h.check, next))
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/bookings", h.guard(h.ListBookings))
	router.PATCH("/api/v1/admin/bookings/:id/status", h.guard(h.TransitionStatus))
	router.GET("/api/v1/admin/stats", h.guard(h.Stats))
	router.GET("/api/v1/admin/plans", h.guard(h.ListPlans))
	router.POST("/api/v1/admin/plans/session", h.guard(h.CreateSessionPlan))
	router.PUT("/api/v1/admin/plans/:name/price", h.guard(h.UpdatePlanPrice))
}

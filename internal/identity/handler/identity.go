package handler

import (
	"encoding/json"
	"net/http"

	"sessly/internal/identity/service"
	"sessly/pkg/auth"
	apperrors "sessly/pkg/errors"
	httputil "sessly/pkg/http"
	"sessly/pkg/logger"
	"sessly/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type IdentityHandler struct {
	service service.IdentityService
	tokens  *auth.Tokens
	log     *logger.Logger
}

func NewIdentityHandler(service service.IdentityService, tokens *auth.Tokens, log *logger.Logger) *IdentityHandler {
	return &IdentityHandler{
		service: service,
		tokens:  tokens,
		log:     log,
	}
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

func (h *IdentityHandler) GoogleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "GoogleLogin", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	result, err := h.service.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GoogleLogin", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "GoogleLogin", "operation", "WriteSuccess", "error", err)
	}
}

func (h *IdentityHandler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identityID, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Authentication required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Profile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	profile, err := h.service.Profile(r.Context(), identityID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Profile", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "Profile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *IdentityHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/google", h.GoogleLogin)
	router.GET("/api/v1/auth/profile", middleware.Authenticate(h.tokens, h.Profile))
}

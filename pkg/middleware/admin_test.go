package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "sessly/pkg/errors"

	"github.com/julienschmidt/httprouter"
)

func TestRequireAdmin_MissingIdentity(t *testing.T) {
	check := func(ctx context.Context, identityID string) error {
		t.Error("capability check should not run without an identity")
		return nil
	}

	handler := RequireAdmin(check, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Error("handler should not be invoked")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings", nil)
	rec := httptest.NewRecorder()

	handler(rec, req, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAdmin_CheckFails(t *testing.T) {
	check := func(ctx context.Context, identityID string) error {
		return apperrors.Forbidden("Admin access required")
	}

	handler := RequireAdmin(check, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Error("handler should not be invoked for a non-admin")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings", nil)
	ctx := context.WithValue(req.Context(), IdentityIDKey, "user-1")
	rec := httptest.NewRecorder()

	handler(rec, req.WithContext(ctx), nil)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
}

func TestRequireAdmin_CheckPasses(t *testing.T) {
	var checkedID string
	check := func(ctx context.Context, identityID string) error {
		checkedID = identityID
		return nil
	}

	handler := RequireAdmin(check, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings", nil)
	ctx := context.WithValue(req.Context(), IdentityIDKey, "admin-7")
	rec := httptest.NewRecorder()

	handler(rec, req.WithContext(ctx), nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if checkedID != "admin-7" {
		t.Errorf("capability check received %q, expected admin-7", checkedID)
	}
}

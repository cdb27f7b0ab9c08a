package middleware

import (
	"context"
	"net/http"

	apperrors "sessly/pkg/errors"
	httputil "sessly/pkg/http"

	"github.com/julienschmidt/httprouter"
)

// CapabilityCheck reports whether the identity may use admin operations.
// Implementations look the identity up in the store rather than trusting
// the role claim baked into the token.
type CapabilityCheck func(ctx context.Context, identityID string) error

// RequireAdmin composes with Authenticate: the identity must already be in
// the context, and the capability check must pass.
func RequireAdmin(check CapabilityCheck, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		identityID, ok := IdentityFrom(r.Context())
		if !ok {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
			return
		}

		if err := check(r.Context(), identityID); err != nil {
			_ = httputil.WriteError(w, err)
			return
		}

		next(w, r, ps)
	}
}

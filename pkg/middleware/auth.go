package middleware

import (
	"context"
	"net/http"
	"strings"

	"sessly/pkg/auth"
	apperrors "sessly/pkg/errors"
	httputil "sessly/pkg/http"

	"github.com/julienschmidt/httprouter"
)

const (
	IdentityIDKey contextKey = "identity_id"
	RoleClaimKey  contextKey = "role_claim"
)

const bearerPrefix = "Bearer "

// Authenticate is the sole gate for "is there a valid session". It verifies
// the bearer token and attaches the identity id (and role claim, if any) to
// the request context. It never checks the role itself.
func Authenticate(tokens *auth.Tokens, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		if header == "" {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
			return
		}

		if !strings.HasPrefix(header, bearerPrefix) {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid authorization header format"))
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), IdentityIDKey, claims.Subject)
		if claims.Role != "" {
			ctx = context.WithValue(ctx, RoleClaimKey, claims.Role)
		}

		next(w, r.WithContext(ctx), ps)
	}
}

// IdentityFrom returns the verified identity id placed by Authenticate.
func IdentityFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(IdentityIDKey).(string)
	return id, ok && id != ""
}

// RoleClaimFrom returns the unverified role claim from the token. Admin
// decisions must not trust it; see RequireAdmin.
func RoleClaimFrom(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleClaimKey).(string)
	return role, ok && role != ""
}

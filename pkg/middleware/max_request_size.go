package middleware

import "net/http"

// MaxRequestSize caps the request body. Oversized bodies fail on read with
// http.MaxBytesError, which surfaces as a decode failure in handlers.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

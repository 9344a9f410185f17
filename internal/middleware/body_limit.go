package middleware

import "net/http"

// LimitBody caps the request body at limit bytes. Reads past the cap fail with
// *http.MaxBytesError. A limit of zero or less leaves the body untouched.
func LimitBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AdminAuth guards administrative routes with the single configured admin
// credential. The comparison is constant-time, and an empty configured token
// disables the admin surface entirely rather than leaving it open.
func AdminAuth(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminToken == "" {
				http.Error(w, `{"error":"admin API disabled"}`, http.StatusForbidden)
				return
			}
			presented := BearerToken(r)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(adminToken)) != 1 {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

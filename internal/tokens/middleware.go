package tokens

import (
	"encoding/json"
	"net/http"
	"strings"

	"ssohub/internal/auth"
)

// RequireEmployee guards employee-authenticated routes. The bearer must carry
// a valid signature, map to a live token row and resolve to an active
// employee; the employee and the raw bearer are stored in the request
// context for downstream handlers.
func RequireEmployee(a *Authority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				unauthorized(w, "Missing bearer token.")
				return
			}
			raw := strings.TrimPrefix(h, "Bearer ")
			emp, err := a.Validate(r.Context(), raw)
			if err != nil {
				unauthorized(w, "Invalid token.")
				return
			}
			ctx := auth.WithEmployee(r.Context(), emp)
			ctx = auth.WithBearer(ctx, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

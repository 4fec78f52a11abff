package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"gorm.io/gorm"
)

// AppCredentials authenticates the calling application from the
// X-Client-ID/X-Client-Secret headers, falling back to client_id and
// client_secret fields in a JSON body. Missing and invalid credentials get
// the same 401 so callers cannot probe for registered client ids.
func AppCredentials(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := r.Header.Get("X-Client-ID")
			clientSecret := r.Header.Get("X-Client-Secret")
			if clientID == "" || clientSecret == "" {
				clientID, clientSecret = credentialsFromBody(r)
			}
			if clientID == "" || clientSecret == "" {
				unauthorized(w, "Missing client credentials.")
				return
			}
			app, err := AuthenticateApplication(db.WithContext(r.Context()), clientID, clientSecret)
			if err != nil {
				unauthorized(w, "Invalid client credentials.")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithApplication(r.Context(), app)))
		})
	}
}

// credentialsFromBody peeks at a JSON body for client_id/client_secret and
// restores the body so the handler can still read it.
func credentialsFromBody(r *http.Request) (string, string) {
	if r.Body == nil {
		return "", ""
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return "", ""
	}
	r.Body = io.NopCloser(bytes.NewReader(buf))
	var fields struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(buf, &fields); err != nil {
		return "", ""
	}
	return fields.ClientID, fields.ClientSecret
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

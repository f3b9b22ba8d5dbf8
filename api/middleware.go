package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"embystats/models"
	"embystats/services/sessions"
)

// SessionCookieName is the cookie carrying the dashboard session token.
const SessionCookieName = "embystats_session"

type contextKey string

// ContextKeySession carries the validated session in the request context.
const ContextKeySession contextKey = "session"

// SessionFromRequest returns the session injected by the auth middleware.
func SessionFromRequest(r *http.Request) (models.Session, bool) {
	session, ok := r.Context().Value(ContextKeySession).(models.Session)
	return session, ok
}

// SessionAuthMiddleware validates the dashboard session on every API call.
// Paths in publicPaths (and non-API paths, which belong to the static
// frontend) pass through unauthenticated.
func SessionAuthMiddleware(sessionsSvc *sessions.Service, publicPaths []string) mux.MiddlewareFunc {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if public[r.URL.Path] || !strings.HasPrefix(r.URL.Path, "/api/") {
				// Public endpoints still get the session attached when a
				// valid token is present, so handlers can distinguish
				// admin callers without requiring authentication.
				if token := ExtractToken(r); token != "" {
					if session, err := sessionsSvc.Validate(token); err == nil {
						r = r.WithContext(context.WithValue(r.Context(), ContextKeySession, session))
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			token := ExtractToken(r)
			if token == "" {
				writeAuthError(w, "authentication required")
				return
			}

			session, err := sessionsSvc.Validate(token)
			if err != nil {
				writeAuthError(w, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken pulls the session token from the cookie, the Authorization
// header, or a ?token= query parameter, in that order. The query form
// exists for <img> tags that cannot set headers.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

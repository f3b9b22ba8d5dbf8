package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"embystats/api"
	"embystats/services/emby"
	"embystats/services/sessions"
)

// embyAuthenticator is the slice of the Emby service the auth handler uses.
type embyAuthenticator interface {
	AuthenticateUser(ctx context.Context, username, password string) *emby.Identity
}

// AuthHandler exchanges Emby credentials for dashboard sessions.
type AuthHandler struct {
	emby     embyAuthenticator
	sessions *sessions.Service
}

func NewAuthHandler(embySvc embyAuthenticator, sessionsSvc *sessions.Service) *AuthHandler {
	return &AuthHandler{emby: embySvc, sessions: sessionsSvc}
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Login validates credentials against the default Emby server and mints a
// dashboard session. A failed upstream exchange is always a 401; upstream
// faults do not leak as 5xx.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity := h.emby.AuthenticateUser(r.Context(), req.Username, req.Password)
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	session, err := h.sessions.Create(identity.UserID, identity.Username, identity.IsAdmin, r.UserAgent(), api.ClientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		UserID:    session.UserID,
		Username:  session.Username,
		IsAdmin:   session.IsAdmin,
	})
}

// Logout revokes the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := api.ExtractToken(r); token != "" {
		_ = h.sessions.Revoke(token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// CheckResponse describes the current authentication state.
type CheckResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	IsAdmin       bool   `json:"isAdmin,omitempty"`
}

// Check reports whether the caller holds a valid session. It is a public
// endpoint; an unauthenticated caller gets a 200 with authenticated=false.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	token := api.ExtractToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, CheckResponse{})
		return
	}

	session, err := h.sessions.Validate(token)
	if err != nil {
		writeJSON(w, http.StatusOK, CheckResponse{})
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{
		Authenticated: true,
		Username:      session.Username,
		IsAdmin:       session.IsAdmin,
	})
}

var _ embyAuthenticator = (*emby.Service)(nil)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

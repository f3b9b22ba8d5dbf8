package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"embystats/api"
	"embystats/models"
	"embystats/services/servers"
)

// ServersHandler manages the multi-server registry. Listing is public (the
// login page shows selectable servers); mutations require an admin session.
type ServersHandler struct {
	registry *servers.Service
	defaults models.ServerConfig
}

func NewServersHandler(registry *servers.Service, defaults models.ServerConfig) *ServersHandler {
	return &ServersHandler{registry: registry, defaults: defaults}
}

// serverView is the sanitized representation exposed over the API.
// Credentials and database paths never leave the process.
type serverView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	EmbyURL string `json:"embyUrl"`
}

// List returns the default server plus every registered one.
func (h *ServersHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.List()
	views := make([]serverView, 0, len(entries)+1)
	views = append(views, serverView{ID: h.defaults.ServerID(), Name: h.defaults.Name, EmbyURL: h.defaults.EmbyURL})
	for _, entry := range entries {
		views = append(views, serverView{ID: entry.ID, Name: entry.Name, EmbyURL: entry.EmbyURL})
	}
	writeJSON(w, http.StatusOK, views)
}

// Add registers a new server.
func (h *ServersHandler) Add(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var cfg models.ServerConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	added, err := h.registry.Add(cfg)
	if err != nil {
		if errors.Is(err, servers.ErrNameRequired) || errors.Is(err, servers.ErrEmbyURLRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save server")
		return
	}
	writeJSON(w, http.StatusCreated, serverView{ID: added.ID, Name: added.Name, EmbyURL: added.EmbyURL})
}

// Delete removes a server from the registry.
func (h *ServersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.registry.Delete(id); err != nil {
		if errors.Is(err, servers.ErrServerNotFound) {
			writeError(w, http.StatusNotFound, "server not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete server")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requireAdmin enforces an admin session on mutating registry calls.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	session, ok := api.SessionFromRequest(r)
	if !ok || !session.IsAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}

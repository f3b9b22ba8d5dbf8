package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"embystats/models"
	"embystats/services/emby"
	"embystats/services/servers"
)

// MediaHandler proxies images and now-playing state from the Emby backends.
type MediaHandler struct {
	emby     *emby.Service
	registry *servers.Service
}

func NewMediaHandler(embySvc *emby.Service, registry *servers.Service) *MediaHandler {
	return &MediaHandler{emby: embySvc, registry: registry}
}

// resolveServer maps the optional server_id query parameter to a config.
// Absent, "default", or unknown ids fall back to the default server (nil).
func (h *MediaHandler) resolveServer(r *http.Request) *models.ServerConfig {
	serverID := r.URL.Query().Get("server_id")
	if serverID == "" || serverID == models.DefaultServerID {
		return nil
	}
	cfg, ok := h.registry.Get(serverID)
	if !ok {
		log.Printf("[media] unknown server_id %q, using default server", serverID)
		return nil
	}
	return &cfg
}

// Poster serves the primary image for an item. An item without a
// resolvable image answers 404 so the frontend renders a placeholder.
func (h *MediaHandler) Poster(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, h.emby.GetPoster)
}

// Backdrop serves the wide backdrop image for an item.
func (h *MediaHandler) Backdrop(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, h.emby.GetBackdrop)
}

func (h *MediaHandler) serveImage(w http.ResponseWriter, r *http.Request,
	fetch func(ctx context.Context, itemID string, maxHeight, maxWidth int, cfg *models.ServerConfig) ([]byte, string)) {
	itemID := mux.Vars(r)["id"]
	maxHeight := queryInt(r, "max_height")
	maxWidth := queryInt(r, "max_width")

	body, contentType := fetch(r.Context(), itemID, maxHeight, maxWidth, h.resolveServer(r))
	if len(body) == 0 {
		http.Error(w, "image not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(body)
}

// nowPlayingEntry is one active session enriched with derived image paths.
type nowPlayingEntry struct {
	emby.NowPlayingSession
	PosterURL   string `json:"posterUrl,omitempty"`
	BackdropURL string `json:"backdropUrl,omitempty"`
}

// NowPlaying returns live playback sessions. With a server_id parameter it
// queries that server; otherwise it aggregates the default server and every
// registered one. Sessions carry poster/backdrop paths derived from cached
// item metadata so the frontend needs no second round trip.
func (h *MediaHandler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	var playing []emby.NowPlayingSession
	if serverID := r.URL.Query().Get("server_id"); serverID != "" {
		cfg := h.resolveServer(r)
		playing = h.emby.GetNowPlaying(r.Context(), cfg)
		for i := range playing {
			playing[i].ServerID = cfg.ServerID()
		}
	} else {
		configs := append([]models.ServerConfig{h.defaultConfig()}, h.registry.List()...)
		playing = h.emby.GetNowPlayingAll(r.Context(), configs)
	}

	entries := make([]nowPlayingEntry, 0, len(playing))
	for _, session := range playing {
		entry := nowPlayingEntry{NowPlayingSession: session}
		if item := session.NowPlayingItem; item != nil {
			cfg := h.configFor(session.ServerID)
			derivedServerID := session.ServerID
			if derivedServerID == models.DefaultServerID {
				derivedServerID = ""
			}
			info := h.emby.GetItemInfo(r.Context(), item.Id, cfg)
			entry.PosterURL = emby.PosterURL(item.Id, item.Type, info, derivedServerID)
			entry.BackdropURL = emby.BackdropURL(item.Id, item.Type, info, derivedServerID)
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, entries)
}

// defaultConfig returns the default server as an explicit config so the
// aggregate path can tag its sessions.
func (h *MediaHandler) defaultConfig() models.ServerConfig {
	cfg := h.emby.DefaultServer()
	cfg.ID = models.DefaultServerID
	return cfg
}

// configFor maps a session's server tag back to a registry config, nil for
// the default server.
func (h *MediaHandler) configFor(serverID string) *models.ServerConfig {
	if serverID == "" || serverID == models.DefaultServerID {
		return nil
	}
	if cfg, ok := h.registry.Get(serverID); ok {
		return &cfg
	}
	return nil
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

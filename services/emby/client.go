package emby

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sourcegraph/conc/pool"

	"embystats/models"
)

const (
	// metadataTimeout bounds user, item, session and auth calls.
	metadataTimeout = 10 * time.Second
	// imageTimeout is longer since image payloads are larger.
	imageTimeout = 15 * time.Second

	// defaultImageContentType is returned when the server omits a content
	// type and the body cannot be sniffed.
	defaultImageContentType = "image/jpeg"

	imageQuality = 90

	// embyAuthHeader identifies this client to the Emby authentication
	// endpoint. The value is fixed; Emby only requires it to be present
	// and well-formed.
	embyAuthHeader = `MediaBrowser Client="Emby Stats", Device="Web", DeviceId="emby-stats", Version="1.0.0"`

	// itemInfoFields is the field set requested for item metadata. It must
	// include everything PosterURL / BackdropURL inspect.
	itemInfoFields = "SeriesInfo,ImageTags,SeriesPrimaryImageTag,PrimaryImageAspectRatio,Overview,BackdropImageTags"
)

// Service mediates all interaction with one or more Emby backends: it
// resolves credentials per server, caches item metadata with a bounded
// insertion-ordered cache, and answers image, now-playing, and
// authentication requests. Every method absorbs upstream failures and
// degrades to an empty result; the dashboard must stay responsive when a
// backend is down, and callers render placeholders instead of errors.
//
// Concurrent first lookups for the same server may each hit the upstream;
// the maps are guarded for memory safety only and the last writer wins.
// Values are idempotent refetches of the same truth, so this is benign.
type Service struct {
	httpClient *http.Client
	store      tokenStore
	defaultCfg models.ServerConfig

	mu      sync.Mutex
	tokens  map[string]string // server id -> access token
	userIDs map[string]string // server id -> account id

	items *itemCache
}

// Options configures a Service.
type Options struct {
	// DefaultServer is used whenever a caller passes a nil server config.
	DefaultServer models.ServerConfig
	// CacheMaxSize and CacheEvictCount bound the item metadata cache;
	// zero values select the defaults (500 / 100).
	CacheMaxSize    int
	CacheEvictCount int
}

// NewService creates an Emby integration service. Each instance owns its
// caches; independent instances never interfere.
func NewService(opts Options) *Service {
	return &Service{
		httpClient: &http.Client{},
		store:      sqliteTokenStore{},
		defaultCfg: opts.DefaultServer,
		tokens:     make(map[string]string),
		userIDs:    make(map[string]string),
		items:      newItemCache(opts.CacheMaxSize, opts.CacheEvictCount),
	}
}

// DefaultServer returns a copy of the configured default server.
func (s *Service) DefaultServer() models.ServerConfig {
	return s.defaultCfg
}

// effectiveConfig substitutes the default server for a nil config.
func (s *Service) effectiveConfig(cfg *models.ServerConfig) *models.ServerConfig {
	if cfg == nil {
		return &s.defaultCfg
	}
	return cfg
}

// GetItemInfo returns metadata for an item, fetching and caching it on
// first use. A nil result means the item could not be resolved; failures
// are never cached, so the next call retries the fetch.
func (s *Service) GetItemInfo(ctx context.Context, itemID string, cfg *models.ServerConfig) *ItemInfo {
	cfg = s.effectiveConfig(cfg)
	cacheKey := cfg.ServerID() + ":" + itemID

	if info, ok := s.items.get(cacheKey); ok {
		return &info
	}

	token := s.resolveToken(ctx, cfg)
	userID := s.resolveUserID(ctx, cfg)
	if token == "" || userID == "" {
		return nil
	}

	params := url.Values{}
	params.Set("api_key", token)
	params.Set("Fields", itemInfoFields)

	var info ItemInfo
	endpoint := fmt.Sprintf("%s/emby/Users/%s/Items/%s", cfg.EmbyURL, userID, itemID)
	if err := s.getJSON(ctx, endpoint, params, metadataTimeout, &info); err != nil {
		log.Printf("[emby] item lookup failed for %s on server %s: %v", itemID, cfg.ServerID(), err)
		return nil
	}

	s.items.put(cacheKey, info)
	return &info
}

// GetPoster fetches the primary image for an item, returning the raw bytes
// and content type. With no resolvable token it returns empty bytes and the
// default content type without touching the network.
func (s *Service) GetPoster(ctx context.Context, itemID string, maxHeight, maxWidth int, cfg *models.ServerConfig) ([]byte, string) {
	if maxHeight <= 0 {
		maxHeight = 300
	}
	if maxWidth <= 0 {
		maxWidth = 200
	}
	return s.fetchImage(ctx, itemID, "Primary", maxHeight, maxWidth, cfg)
}

// GetBackdrop fetches the wide backdrop image for an item. Same contract as
// GetPoster, with landscape default dimensions.
func (s *Service) GetBackdrop(ctx context.Context, itemID string, maxHeight, maxWidth int, cfg *models.ServerConfig) ([]byte, string) {
	if maxHeight <= 0 {
		maxHeight = 720
	}
	if maxWidth <= 0 {
		maxWidth = 1280
	}
	return s.fetchImage(ctx, itemID, "Backdrop", maxHeight, maxWidth, cfg)
}

func (s *Service) fetchImage(ctx context.Context, itemID, imageType string, maxHeight, maxWidth int, cfg *models.ServerConfig) ([]byte, string) {
	cfg = s.effectiveConfig(cfg)

	token := s.resolveToken(ctx, cfg)
	if token == "" {
		return []byte{}, defaultImageContentType
	}

	params := url.Values{}
	params.Set("api_key", token)
	params.Set("maxHeight", strconv.Itoa(maxHeight))
	params.Set("maxWidth", strconv.Itoa(maxWidth))
	params.Set("quality", strconv.Itoa(imageQuality))

	endpoint := fmt.Sprintf("%s/emby/Items/%s/Images/%s", cfg.EmbyURL, itemID, imageType)
	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return []byte{}, defaultImageContentType
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("[emby] %s image fetch failed for %s on server %s: %v", imageType, itemID, cfg.ServerID(), err)
		return []byte{}, defaultImageContentType
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[emby] %s image fetch for %s on server %s: HTTP %d", imageType, itemID, cfg.ServerID(), resp.StatusCode)
		return []byte{}, defaultImageContentType
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[emby] %s image read failed for %s on server %s: %v", imageType, itemID, cfg.ServerID(), err)
		return []byte{}, defaultImageContentType
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		// Server omitted the header; sniff the body and fall back to JPEG
		// when the bytes are not recognizably an image.
		if detected := mimetype.Detect(body); detected.Is("application/octet-stream") {
			contentType = defaultImageContentType
		} else {
			contentType = detected.String()
		}
	}
	return body, contentType
}

// GetNowPlaying returns sessions with active playback on one server. The
// result is always fetched live; a degraded server yields an empty slice.
func (s *Service) GetNowPlaying(ctx context.Context, cfg *models.ServerConfig) []NowPlayingSession {
	cfg = s.effectiveConfig(cfg)

	token := s.resolveToken(ctx, cfg)
	if token == "" {
		return []NowPlayingSession{}
	}

	params := url.Values{}
	params.Set("api_key", token)

	var sessions []NowPlayingSession
	if err := s.getJSON(ctx, cfg.EmbyURL+"/emby/Sessions", params, metadataTimeout, &sessions); err != nil {
		log.Printf("[emby] session fetch failed for server %s: %v", cfg.ServerID(), err)
		return []NowPlayingSession{}
	}

	playing := make([]NowPlayingSession, 0, len(sessions))
	for _, session := range sessions {
		if session.NowPlayingItem == nil {
			continue
		}
		playing = append(playing, session)
	}
	return playing
}

// GetNowPlayingAll fetches now-playing sessions from every given server
// concurrently and merges the results, tagging each session with the server
// it came from. Degraded servers contribute nothing rather than failing the
// whole call.
func (s *Service) GetNowPlayingAll(ctx context.Context, cfgs []models.ServerConfig) []NowPlayingSession {
	if len(cfgs) == 0 {
		return s.GetNowPlaying(ctx, nil)
	}

	p := pool.NewWithResults[[]NowPlayingSession]()
	for _, cfg := range cfgs {
		cfg := cfg
		p.Go(func() []NowPlayingSession {
			sessions := s.GetNowPlaying(ctx, &cfg)
			for i := range sessions {
				sessions[i].ServerID = cfg.ServerID()
			}
			return sessions
		})
	}

	merged := make([]NowPlayingSession, 0)
	for _, batch := range p.Wait() {
		merged = append(merged, batch...)
	}
	return merged
}

// AuthenticateUser performs a username/password exchange against the
// default server. It is independent of per-server credential resolution.
// Any failure — transport fault, non-200, malformed body — yields nil.
func (s *Service) AuthenticateUser(ctx context.Context, username, password string) *Identity {
	payload, err := json.Marshal(map[string]string{
		"Username": username,
		"Pw":       password,
	})
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	endpoint := s.defaultCfg.EmbyURL + "/emby/Users/AuthenticateByName"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("X-Emby-Authorization", embyAuthHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("[emby] authentication request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[emby] authentication rejected for user %q: HTTP %d", username, resp.StatusCode)
		return nil
	}

	var auth authenticateResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		log.Printf("[emby] authentication response decode failed: %v", err)
		return nil
	}

	return &Identity{
		UserID:      auth.User.Id,
		Username:    auth.User.Name,
		AccessToken: auth.AccessToken,
		IsAdmin:     auth.User.Policy.IsAdministrator,
	}
}

// getJSON issues a GET with the given deadline and decodes a JSON response.
// Non-200 responses are errors; bodies are not retained.
func (s *Service) getJSON(ctx context.Context, endpoint string, params url.Values, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emby api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("emby api returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package emby

import (
	"context"
	"log"
	"net/url"

	"embystats/models"
)

// resolveUserID resolves an Emby account id usable as the user context for
// metadata endpoints. The first user returned by the server is taken; with
// an admin-scoped key on a single-tenant server that is the right account,
// and the source behavior is preserved rather than guessing at a selection
// policy. Failures degrade to "".
func (s *Service) resolveUserID(ctx context.Context, cfg *models.ServerConfig) string {
	cfg = s.effectiveConfig(cfg)
	serverID := cfg.ServerID()

	s.mu.Lock()
	if id, ok := s.userIDs[serverID]; ok {
		s.mu.Unlock()
		return id
	}
	s.mu.Unlock()

	token := s.resolveToken(ctx, cfg)
	if token == "" {
		return ""
	}

	params := url.Values{}
	params.Set("api_key", token)

	var users []embyUser
	if err := s.getJSON(ctx, cfg.EmbyURL+"/emby/Users", params, metadataTimeout, &users); err != nil {
		log.Printf("[emby] user lookup failed for server %s: %v", serverID, err)
		return ""
	}
	if len(users) == 0 {
		log.Printf("[emby] server %s returned no users", serverID)
		return ""
	}

	s.mu.Lock()
	s.userIDs[serverID] = users[0].Id
	s.mu.Unlock()
	return users[0].Id
}

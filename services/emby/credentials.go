package emby

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"embystats/models"
)

// tokenStore looks up an access token from a server's local authentication
// database. Abstracted so tests can substitute a counting or failing store.
type tokenStore interface {
	ActiveToken(ctx context.Context, dbPath string) (string, error)
}

// sqliteTokenStore reads the Emby authentication database directly. The
// token table is owned by the server; we only ever read from it.
type sqliteTokenStore struct{}

func (sqliteTokenStore) ActiveToken(ctx context.Context, dbPath string) (string, error) {
	if dbPath == "" {
		return "", errors.New("no authentication database configured")
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("open auth db: %w", err)
	}
	defer db.Close()

	var token string
	err = db.QueryRowContext(ctx,
		`SELECT AccessToken FROM Tokens_2 WHERE IsActive = 1 ORDER BY DateLastActivityInt DESC LIMIT 1`,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query active token: %w", err)
	}
	return token, nil
}

// resolveToken resolves an access token for the given server. Sources are
// tried in order and the first non-empty result wins: a statically
// configured key, a previously cached token, then the newest active token
// in the server's authentication database. Store lookups that succeed are
// cached for the lifetime of the process; a static key is not cached since
// the config already carries it. All failures degrade to "" — callers
// treat an empty token as unauthenticated and bail out.
func (s *Service) resolveToken(ctx context.Context, cfg *models.ServerConfig) string {
	cfg = s.effectiveConfig(cfg)
	serverID := cfg.ServerID()

	sources := []func() (token string, cache bool){
		func() (string, bool) {
			return cfg.APIKey, false
		},
		func() (string, bool) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.tokens[serverID], false
		},
		func() (string, bool) {
			token, err := s.store.ActiveToken(ctx, cfg.AuthDB)
			if err != nil {
				log.Printf("[emby] token lookup failed for server %s (%s): %v", serverID, cfg.AuthDB, err)
				return "", false
			}
			return token, true
		},
	}

	for _, source := range sources {
		token, cache := source()
		if token == "" {
			continue
		}
		if cache {
			s.mu.Lock()
			s.tokens[serverID] = token
			s.mu.Unlock()
		}
		return token
	}
	return ""
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"embystats/models"
)

// Settings holds process-wide configuration, populated from the
// environment with sensible defaults.
type Settings struct {
	HTTPAddr string
	DataDir  string
	LogDir   string

	// Default Emby server, used when no registry entry is addressed.
	EmbyURL    string
	EmbyAPIKey string
	AuthDB     string

	// Item metadata cache bounds.
	ItemCacheMaxSize    int
	ItemCacheEvictCount int
}

// Load reads settings from the environment and ensures the data directory
// exists.
func Load() (Settings, error) {
	s := Settings{
		HTTPAddr:            envOrDefault("HTTP_ADDR", ":8500"),
		DataDir:             envOrDefault("DATA_DIR", "/data"),
		LogDir:              os.Getenv("LOG_DIR"),
		EmbyURL:             strings.TrimRight(envOrDefault("EMBY_URL", "http://localhost:8096"), "/"),
		EmbyAPIKey:          os.Getenv("EMBY_API_KEY"),
		AuthDB:              envOrDefault("AUTH_DB", "/data/authentication.db"),
		ItemCacheMaxSize:    envIntOrDefault("ITEM_CACHE_MAX_SIZE", 500),
		ItemCacheEvictCount: envIntOrDefault("ITEM_CACHE_EVICT_COUNT", 100),
	}

	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// DefaultServer builds the implicit server config from the environment.
func (s Settings) DefaultServer() models.ServerConfig {
	return models.ServerConfig{
		ID:      models.DefaultServerID,
		Name:    "Default",
		EmbyURL: s.EmbyURL,
		APIKey:  s.EmbyAPIKey,
		AuthDB:  s.AuthDB,
	}
}

// ServersPath is where the multi-server registry persists its entries.
func (s Settings) ServersPath() string {
	return filepath.Join(s.DataDir, "servers.json")
}

// SessionsDir is where dashboard sessions persist.
func (s Settings) SessionsDir() string {
	return s.DataDir
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envIntOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

package models

// DefaultServerID is the identifier used for the implicit server built from
// environment configuration when no registry entry is addressed.
const DefaultServerID = "default"

// ServerConfig describes one Emby backend instance the dashboard talks to.
type ServerConfig struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	EmbyURL string `json:"embyUrl"`
	// APIKey is an optional statically configured token. When set it takes
	// precedence over anything found in the authentication database.
	APIKey string `json:"apiKey,omitempty"`
	// AuthDB is the path to the server's local authentication database,
	// used to look up an active access token when no static key is set.
	AuthDB string `json:"authDb,omitempty"`
}

// ServerID returns the config's identifier, or DefaultServerID when the
// config is nil or carries no id.
func (c *ServerConfig) ServerID() string {
	if c == nil || c.ID == "" {
		return DefaultServerID
	}
	return c.ID
}

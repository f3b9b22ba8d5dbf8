package servers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"embystats/models"
)

var (
	ErrNameRequired    = errors.New("server name is required")
	ErrEmbyURLRequired = errors.New("server url is required")
	ErrServerNotFound  = errors.New("server not found")
)

// Service is the persistent registry of configured Emby servers. Entries
// are kept in a JSON file under the data directory; the implicit default
// server from the environment is not stored here.
type Service struct {
	mu      sync.RWMutex
	path    string
	entries []models.ServerConfig
}

// NewService loads the registry from path, creating an empty one when the
// file does not exist yet.
func NewService(path string) (*Service, error) {
	svc := &Service{path: path}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

// List returns all registered servers in insertion order.
func (s *Service) List() []models.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ServerConfig, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the server with the given id.
func (s *Service) Get(id string) (models.ServerConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return models.ServerConfig{}, false
}

// Add registers a new server and returns it with a freshly minted id.
func (s *Service) Add(cfg models.ServerConfig) (models.ServerConfig, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.EmbyURL = strings.TrimRight(strings.TrimSpace(cfg.EmbyURL), "/")
	if cfg.Name == "" {
		return models.ServerConfig{}, ErrNameRequired
	}
	if cfg.EmbyURL == "" {
		return models.ServerConfig{}, ErrEmbyURLRequired
	}
	cfg.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, cfg)
	if err := s.saveLocked(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return models.ServerConfig{}, err
	}
	return cfg, nil
}

// Update replaces the stored config for cfg.ID.
func (s *Service) Update(cfg models.ServerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.entries {
		if entry.ID == cfg.ID {
			s.entries[i] = cfg
			return s.saveLocked()
		}
	}
	return ErrServerNotFound
}

// Delete removes a server from the registry.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.entries {
		if entry.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return s.saveLocked()
		}
	}
	return ErrServerNotFound
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.entries = []models.ServerConfig{}
			return nil
		}
		return fmt.Errorf("read servers file: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("parse servers file: %w", err)
	}
	return nil
}

func (s *Service) saveLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal servers: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create servers dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write servers file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

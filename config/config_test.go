package config

import (
	"testing"

	"embystats/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("EMBY_URL", "")
	t.Setenv("EMBY_API_KEY", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.HTTPAddr != ":8500" {
		t.Errorf("HTTPAddr = %q", s.HTTPAddr)
	}
	if s.EmbyURL != "http://localhost:8096" {
		t.Errorf("EmbyURL = %q", s.EmbyURL)
	}
	if s.ItemCacheMaxSize != 500 || s.ItemCacheEvictCount != 100 {
		t.Errorf("cache bounds = %d/%d", s.ItemCacheMaxSize, s.ItemCacheEvictCount)
	}
}

func TestLoadOverridesAndTrailingSlash(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("EMBY_URL", "http://emby.local:8096/")
	t.Setenv("EMBY_API_KEY", "key")
	t.Setenv("ITEM_CACHE_MAX_SIZE", "50")
	t.Setenv("ITEM_CACHE_EVICT_COUNT", "10")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.EmbyURL != "http://emby.local:8096" {
		t.Errorf("EmbyURL = %q, trailing slash should be stripped", s.EmbyURL)
	}
	if s.ItemCacheMaxSize != 50 || s.ItemCacheEvictCount != 10 {
		t.Errorf("cache bounds = %d/%d", s.ItemCacheMaxSize, s.ItemCacheEvictCount)
	}

	server := s.DefaultServer()
	if server.ID != models.DefaultServerID || server.APIKey != "key" {
		t.Errorf("DefaultServer = %+v", server)
	}
}

func TestLoadRejectsBadInts(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("ITEM_CACHE_MAX_SIZE", "not-a-number")
	t.Setenv("ITEM_CACHE_EVICT_COUNT", "-3")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ItemCacheMaxSize != 500 || s.ItemCacheEvictCount != 100 {
		t.Errorf("bad values should fall back to defaults, got %d/%d",
			s.ItemCacheMaxSize, s.ItemCacheEvictCount)
	}
}

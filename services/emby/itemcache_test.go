package emby

import (
	"fmt"
	"testing"
)

func TestItemCache_GetMiss(t *testing.T) {
	c := newItemCache(0, 0)
	if _, ok := c.get("missing"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestItemCache_PutGet(t *testing.T) {
	c := newItemCache(0, 0)
	c.put("srv:1", ItemInfo{Id: "1", Name: "Movie One"})

	info, ok := c.get("srv:1")
	if !ok {
		t.Fatal("expected hit")
	}
	if info.Name != "Movie One" {
		t.Errorf("expected Movie One, got %q", info.Name)
	}
}

func TestItemCache_BulkEvictionAtBound(t *testing.T) {
	c := newItemCache(DefaultCacheMaxSize, DefaultCacheEvictCount)

	for i := 0; i <= DefaultCacheMaxSize; i++ {
		c.put(fmt.Sprintf("srv:%d", i), ItemInfo{Id: fmt.Sprintf("%d", i)})
	}

	// The insertion that exceeded the bound must have dropped exactly
	// EvictCount of the oldest entries in one batch.
	want := DefaultCacheMaxSize + 1 - DefaultCacheEvictCount
	if got := c.len(); got != want {
		t.Errorf("expected %d entries after bulk eviction, got %d", want, got)
	}

	for i := 0; i < DefaultCacheEvictCount; i++ {
		if _, ok := c.get(fmt.Sprintf("srv:%d", i)); ok {
			t.Fatalf("entry %d should have been evicted", i)
		}
	}
	if _, ok := c.get(fmt.Sprintf("srv:%d", DefaultCacheEvictCount)); !ok {
		t.Errorf("entry %d is newer than the eviction batch and should survive", DefaultCacheEvictCount)
	}
	if _, ok := c.get(fmt.Sprintf("srv:%d", DefaultCacheMaxSize)); !ok {
		t.Error("the triggering insertion itself should survive")
	}
}

func TestItemCache_NeverExceedsBound(t *testing.T) {
	c := newItemCache(10, 3)

	for i := 0; i < 100; i++ {
		c.put(fmt.Sprintf("k%d", i), ItemInfo{})
		if c.len() > 10 {
			t.Fatalf("cache grew to %d entries after insert %d", c.len(), i)
		}
	}
}

func TestItemCache_ReinsertReplacesValue(t *testing.T) {
	c := newItemCache(10, 3)
	c.put("k", ItemInfo{Name: "old"})
	c.put("k", ItemInfo{Name: "new"})

	if c.len() != 1 {
		t.Fatalf("re-insert should not grow the cache, len=%d", c.len())
	}
	info, _ := c.get("k")
	if info.Name != "new" {
		t.Errorf("expected replaced value, got %q", info.Name)
	}
}

func TestItemCache_ReinsertKeepsInsertionOrder(t *testing.T) {
	c := newItemCache(3, 2)
	c.put("a", ItemInfo{})
	c.put("b", ItemInfo{})
	c.put("a", ItemInfo{Name: "updated"}) // still oldest
	c.put("c", ItemInfo{})
	c.put("d", ItemInfo{}) // exceeds bound: evicts a and b

	if _, ok := c.get("a"); ok {
		t.Error("a kept its original insertion position and should be evicted")
	}
	if _, ok := c.get("b"); ok {
		t.Error("b should be evicted")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("c should survive")
	}
	if _, ok := c.get("d"); !ok {
		t.Error("d should survive")
	}
}

func TestNewItemCache_ClampsEvictCount(t *testing.T) {
	c := newItemCache(5, 50)
	for i := 0; i < 6; i++ {
		c.put(fmt.Sprintf("k%d", i), ItemInfo{})
	}
	if c.len() == 0 {
		t.Error("eviction batch larger than the bound should be clamped, not clear everything and fail")
	}
	if c.len() > 5 {
		t.Errorf("bound exceeded: %d", c.len())
	}
}

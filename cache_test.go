package kanbmine

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestCache() (*MemoryCache, *time.Time) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestMemoryCacheSetGet(t *testing.T) {
	c, _ := newTestCache()

	c.Set("issues:id:7", &Issue{ID: 7}, 5*time.Minute)
	v, ok := c.Get("issues:id:7")
	if !ok {
		t.Fatal("expected hit")
	}
	if issue, _ := v.(*Issue); issue == nil || issue.ID != 7 {
		t.Errorf("value = %v", v)
	}

	if _, ok := c.Get("issues:id:8"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c, clock := newTestCache()
	c.Set("issues:list:a", "page", 5*time.Minute)

	*clock = clock.Add(5 * time.Minute)
	if _, ok := c.Get("issues:list:a"); !ok {
		t.Fatal("entry should still be live at exactly the TTL boundary")
	}

	*clock = clock.Add(time.Nanosecond)
	if _, ok := c.Get("issues:list:a"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after lazy expiry, want 0", c.Len())
	}
}

func TestMemoryCacheNoTTL(t *testing.T) {
	c, clock := newTestCache()
	c.Set(cacheKeyStatuses, []Status{{ID: 1, Name: "New"}}, NoTTL)

	*clock = clock.Add(1000 * time.Hour)
	if _, ok := c.Get(cacheKeyStatuses); !ok {
		t.Error("NoTTL entry must never expire")
	}
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	c, _ := newTestCache()
	c.Set("issues:list:a", 1, NoTTL)
	c.Set("issues:list:b", 2, NoTTL)
	c.Set("issues:id:7", 3, NoTTL)
	c.Set("projects:list:0:100", 4, NoTTL)

	c.DeletePrefix(cacheNSIssues)

	for _, key := range []string{"issues:list:a", "issues:list:b", "issues:id:7"} {
		if _, ok := c.Get(key); ok {
			t.Errorf("key %q should be gone", key)
		}
	}
	if _, ok := c.Get("projects:list:0:100"); !ok {
		t.Error("other namespaces must survive a prefix delete")
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c, _ := newTestCache()
	c.Set("projects:id:x", 1, NoTTL)
	c.Delete("projects:id:x")
	if _, ok := c.Get("projects:id:x"); ok {
		t.Error("deleted key should miss")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c, _ := newTestCache()
	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, NoTTL)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", c.Len())
	}
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("issues:list:%d", i%20)
				c.Set(key, g, time.Minute)
				c.Get(key)
				if i%50 == 0 {
					c.DeletePrefix(cacheNSIssues)
				}
			}
		}(g)
	}
	wg.Wait()
}

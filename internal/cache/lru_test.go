package cache

import "testing"

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := New(capacity); err == nil {
			t.Fatalf("capacity %d should be rejected", capacity)
		}
	}
}

func TestPutEvictsLeastRecentlyUsed(t *testing.T) {
	c := newTestCache(t, 2)
	c.Put("a", []byte("A"), "text/plain")
	c.Put("b", []byte("B"), "text/plain")

	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	if evicted := c.Put("c", []byte("C"), "text/plain"); !evicted {
		t.Fatalf("third insert at capacity 2 should evict")
	}

	if c.Contains("b") {
		t.Fatalf("b was least recently used and should be evicted")
	}
	for _, key := range []string{"a", "c"} {
		if !c.Contains(key) {
			t.Fatalf("%s should still be cached", key)
		}
	}
	if c.Len() != 2 || c.Evictions() != 1 {
		t.Fatalf("len=%d evictions=%d", c.Len(), c.Evictions())
	}
}

func TestSizeNeverExceedsCapacity(t *testing.T) {
	c := newTestCache(t, 3)
	for i := 0; i < 50; i++ {
		c.Put(string(rune('a'+i%26))+string(rune('A'+i/26)), []byte{byte(i)}, "x")
		if c.Len() > c.Capacity() {
			t.Fatalf("len %d exceeded capacity %d", c.Len(), c.Capacity())
		}
	}
}

func TestGetReturnsContentType(t *testing.T) {
	c := newTestCache(t, 1)
	c.Put("k", []byte("body"), "image/png")
	item, ok := c.Get("k")
	if !ok || string(item.Body) != "body" || item.ContentType != "image/png" {
		t.Fatalf("unexpected item %+v ok=%v", item, ok)
	}
}

func TestClearEmptiesCache(t *testing.T) {
	c := newTestCache(t, 4)
	c.Put("a", []byte("A"), "")
	c.Put("b", []byte("B"), "")
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("cache should be empty after Clear, len=%d", c.Len())
	}
	if c.Evictions() != 0 {
		t.Fatalf("Clear must not count as eviction")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be gone after Clear")
	}
}

// newTestCache returns an EntryCache with the given capacity.
func newTestCache(t *testing.T, capacity int) *EntryCache {
	t.Helper()
	c, err := New(capacity)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c
}

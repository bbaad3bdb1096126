package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewDefaults(t *testing.T) {
	c := New[string](Options{})
	if c.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %v, want %v", c.Capacity(), DefaultCapacity)
	}
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %v, want 0", c.Len())
	}
}

func TestGetSet(t *testing.T) {
	c := New[int](Options{})

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache should miss")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) after overwrite = %v, %v, want 2, true", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() after overwrite = %v, want 1", c.Len())
	}
}

func TestLazyExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New[string](Options{Now: clock.Now})

	c.Set("k", "v")

	clock.Advance(DefaultTTL - time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("Get() before TTL should hit")
	}

	clock.Advance(time.Second)
	if c.Len() != 1 {
		t.Errorf("expired entry should stay resident until observed, Len() = %v", c.Len())
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Get() at TTL should miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on observation, Len() = %v", c.Len())
	}
}

func TestOverwriteRefreshesExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New[string](Options{Now: clock.Now, TTL: time.Minute})

	c.Set("k", "v1")
	clock.Advance(50 * time.Second)
	c.Set("k", "v2")
	clock.Advance(50 * time.Second)

	if v, ok := c.Get("k"); !ok || v != "v2" {
		t.Errorf("Get(k) = %v, %v, want v2, true", v, ok)
	}
}

func TestCapacityEvictsOldestInserted(t *testing.T) {
	c := New[int](Options{Capacity: 3})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Get("a") // reads do not change eviction order
	c.Set("d", 4)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry a should have been evicted")
	}
	for _, k := range []string{"b", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %s should still be resident", k)
		}
	}

	// Overwriting b makes it the newest, so c goes next.
	c.Set("b", 20)
	c.Set("e", 5)
	if _, ok := c.Get("c"); ok {
		t.Error("entry c should have been evicted after b was refreshed")
	}
	if v, ok := c.Get("b"); !ok || v != 20 {
		t.Errorf("Get(b) = %v, %v, want 20, true", v, ok)
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	c := New[int](Options{})

	for i := 0; i < DefaultCapacity+1; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	if c.Len() != DefaultCapacity {
		t.Errorf("Len() = %v, want %v", c.Len(), DefaultCapacity)
	}
	if _, ok := c.Get("key-0"); ok {
		t.Error("first inserted key should have been evicted")
	}
	if _, ok := c.Get(fmt.Sprintf("key-%d", DefaultCapacity)); !ok {
		t.Error("last inserted key should be resident")
	}
}

func TestInvalidate(t *testing.T) {
	c := New[int](Options{})
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	c.Invalidate("unknown")

	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Invalidate should miss")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("Get(b) should still hit")
	}
}

func TestInvalidateAll(t *testing.T) {
	clock := newFakeClock()
	c := New[int](Options{Now: clock.Now})

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	c.InvalidateAll()

	if c.Len() != 0 {
		t.Errorf("Len() after InvalidateAll = %v, want 0", c.Len())
	}
	for i := 0; i < 10; i++ {
		if _, ok := c.Get(fmt.Sprintf("k%d", i)); ok {
			t.Errorf("Get(k%d) after InvalidateAll should miss", i)
		}
	}

	// The cache remains usable.
	c.Set("again", 1)
	if _, ok := c.Get("again"); !ok {
		t.Error("Set after InvalidateAll should be readable")
	}
}

func TestSetIfDropsWritesAfterInvalidation(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *ResultCache[int])
		wantStored bool
	}{
		{"no invalidation", func(*ResultCache[int]) {}, true},
		{"invalidate all", func(c *ResultCache[int]) { c.InvalidateAll() }, false},
		{"invalidate other key", func(c *ResultCache[int]) { c.Invalidate("other") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[int](Options{})
			gen := c.Generation()

			tt.invalidate(c)

			if got := c.SetIf("k", 1, gen); got != tt.wantStored {
				t.Errorf("SetIf() = %v, want %v", got, tt.wantStored)
			}
			if _, ok := c.Get("k"); ok != tt.wantStored {
				t.Errorf("Get() ok = %v, want %v", ok, tt.wantStored)
			}
		})
	}
}

func TestGenerationAdvancesOnInvalidation(t *testing.T) {
	c := New[int](Options{})
	g0 := c.Generation()

	c.Set("k", 1)
	if c.Generation() != g0 {
		t.Errorf("Set changed Generation()")
	}

	c.Invalidate("k")
	g1 := c.Generation()
	if g1 == g0 {
		t.Fatalf("Invalidate did not advance Generation()")
	}

	c.InvalidateAll()
	if c.Generation() == g1 {
		t.Errorf("InvalidateAll did not advance Generation()")
	}
}

func TestConcurrentAccess(t *testing.T) {
	const capacity = 50
	c := New[int](Options{Capacity: capacity})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("w%d-%d", w, i)
				c.Set(key, i)
				if v, ok := c.Get(key); ok && v != i {
					t.Errorf("Get(%s) = %v, want %v", key, v, i)
				}
				if i%97 == 0 {
					c.InvalidateAll()
				}
				if n := c.Len(); n > capacity {
					t.Errorf("Len() = %v exceeds capacity %v", n, capacity)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := c.Len(); n > capacity {
		t.Errorf("Len() = %v exceeds capacity %v", n, capacity)
	}
}

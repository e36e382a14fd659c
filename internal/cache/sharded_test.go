package cache

import (
	"errors"
	"sync"
	"testing"
)

func TestShardedGetSet(t *testing.T) {
	c := NewSharded[uint64, string](4, Uint64Hasher)
	c.Set(1, "one")

	if v, ok := c.Get(1); !ok || v != "one" {
		t.Fatalf("Get(1) = (%q, %v)", v, ok)
	}
	if _, ok := c.Get(2); ok {
		t.Error("Get(2) should miss")
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", st)
	}
}

func TestShardedGetOrCreate(t *testing.T) {
	c := NewSharded[uint64, *int](4, Uint64Hasher)
	calls := 0
	create := func() (*int, error) {
		calls++
		v := calls
		return &v, nil
	}

	first, hit, err := c.GetOrCreate(7, create)
	if err != nil || hit {
		t.Fatalf("first GetOrCreate: hit=%v err=%v", hit, err)
	}
	second, hit, err := c.GetOrCreate(7, create)
	if err != nil || !hit {
		t.Fatalf("second GetOrCreate: hit=%v err=%v", hit, err)
	}
	if first != second {
		t.Error("cache hit returned a different instance")
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestShardedGetOrCreateError(t *testing.T) {
	c := NewSharded[uint64, int](4, Uint64Hasher)
	boom := errors.New("boom")

	_, _, err := c.GetOrCreate(3, func() (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c.Contains(3) {
		t.Error("failed create must not be stored")
	}
}

func TestShardedEviction(t *testing.T) {
	// Keys 0, 16, 32 all land in shard 0 with the identity hash.
	c := NewSharded[uint64, int](2, Uint64Hasher)
	c.Set(0, 0)
	c.Set(16, 16)
	c.Get(0) // 16 becomes the oldest
	c.Set(32, 32)

	if !c.Contains(0) || !c.Contains(32) {
		t.Error("recently used entries were evicted")
	}
	if c.Contains(16) {
		t.Error("least recently used entry survived")
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("evictions = %d, want 1", ev)
	}
}

func TestShardedDeleteClear(t *testing.T) {
	c := NewSharded[uint64, int](0, Uint64Hasher)
	for i := range uint64(40) {
		c.Set(i, int(i))
	}
	if c.Len() != 40 {
		t.Fatalf("Len = %d, want 40", c.Len())
	}
	if !c.Delete(5) || c.Delete(5) {
		t.Error("Delete should succeed exactly once")
	}
	seen := 0
	c.Range(func(uint64, int) bool { seen++; return true })
	if seen != 39 {
		t.Errorf("Range visited %d entries, want 39", seen)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
}

func TestShardedConcurrentSingleWriter(t *testing.T) {
	c := NewSharded[uint64, *int](8, Uint64Hasher)
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	results := make([]*int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, _ := c.GetOrCreate(42, func() (*int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				x := 42
				return &x, nil
			})
			results[i] = v
		}(i)
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("goroutine %d observed a different instance", i)
		}
	}
}

func TestMix(t *testing.T) {
	if Mix(1, 2) == Mix(2, 1) {
		t.Error("Mix should be order-sensitive")
	}
	if Mix(1, 2) != Mix(1, 2) {
		t.Error("Mix should be deterministic")
	}
}

package texture

import (
	"errors"
	"testing"

	"github.com/gogpu/f3d/segment"
)

func resolve(t *testing.T, data []byte, off uint32, n int) segment.View {
	t.Helper()
	tab := segment.NewTable()
	if err := tab.Bind(3, data); err != nil {
		t.Fatal(err)
	}
	v, err := tab.Resolve(3, off, n)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCacheSameInstance(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	c := NewCache(0)
	key := Key{Segment: 3, Offset: 0, Format: I8, Width: 8, Height: 8}
	view := resolve(t, data, 0, 64)

	a, err := c.Lookup(key, view)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Lookup(key, view)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("memoized lookup returned a different instance")
	}
	if st := c.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestCacheDistinctKeys(t *testing.T) {
	data := make([]byte, 64)
	c := NewCache(0)
	view := resolve(t, data, 0, 64)

	a, _ := c.Lookup(Key{Segment: 3, Format: I8, Width: 8, Height: 8}, view)
	b, _ := c.Lookup(Key{Segment: 3, Format: I8, Width: 4, Height: 16}, view)
	if a == b {
		t.Error("different dimensions shared a buffer")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCachePlaceholderWarning(t *testing.T) {
	c := NewCache(0)
	key := Key{Segment: 3, Format: CI8, Width: 4, Height: 4}
	view := resolve(t, make([]byte, 16), 0, 16)

	for range 2 {
		buf, err := c.Lookup(key, view)
		if !errors.Is(err, ErrPaletteUnsupported) {
			t.Fatalf("err = %v, want palette warning", err)
		}
		if buf == nil || !buf.Placeholder {
			t.Fatal("expected placeholder buffer")
		}
	}
	if c.Len() != 1 {
		t.Errorf("placeholder should be cached once, Len = %d", c.Len())
	}
}

func TestCacheFailureNotStored(t *testing.T) {
	c := NewCache(0)
	key := Key{Segment: 3, Format: I8, Width: 8, Height: 8}
	view := resolve(t, make([]byte, 4), 0, 4)

	if _, err := c.Lookup(key, view); !errors.Is(err, ErrShortInput) {
		t.Fatalf("err = %v, want ErrShortInput", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("failed decode was cached")
	}
}

func TestCacheStridedRows(t *testing.T) {
	// 2x2 I8 window inside a 4-byte-wide image.
	data := []byte{
		10, 20, 99, 99,
		30, 40, 99, 99,
	}
	c := NewCache(0)
	key := Key{Segment: 3, Format: I8, Width: 2, Height: 2, Stride: 4}
	buf, err := c.Lookup(key, resolve(t, data, 0, len(data)))
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []uint8{10, 20, 30, 40} {
		if got := buf.At(i%2, i/2)[0]; got != want {
			t.Errorf("texel %d = %d, want %d", i, got, want)
		}
	}

	short := Key{Segment: 3, Offset: 1, Format: I8, Width: 2, Height: 3, Stride: 4}
	if _, err := c.Lookup(short, resolve(t, data, 0, len(data))); !errors.Is(err, ErrShortInput) {
		t.Errorf("err = %v, want ErrShortInput", err)
	}
}

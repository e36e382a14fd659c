package vertex

import (
	"errors"
	"testing"

	"github.com/gogpu/f3d/segment"
)

func tri() []Vertex {
	return []Vertex{
		{X: -10, Y: 0, Z: 0, Shade: [4]uint8{255, 0, 0, 255}},
		{X: 10, Y: 0, Z: 0, Shade: [4]uint8{0, 255, 0, 255}},
		{X: 0, Y: 10, Z: 5, S: 32 << 5, T: 16 << 5, Shade: [4]uint8{0, 0, 255, 255}},
	}
}

func TestLoadGet(t *testing.T) {
	c := NewCache(0)
	if c.Cap() != DefaultSlots {
		t.Fatalf("Cap = %d, want %d", c.Cap(), DefaultSlots)
	}
	vs := tri()
	if err := c.Load(0, vs); err != nil {
		t.Fatal(err)
	}
	for i, want := range vs {
		got, err := c.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got != want {
			t.Errorf("Get(%d) = %+v, want %+v", i, got, want)
		}
	}
	if _, err := c.Get(3); !errors.Is(err, ErrStale) {
		t.Errorf("unwritten slot: err = %v, want ErrStale", err)
	}
}

func TestLoadCapacity(t *testing.T) {
	c := NewCache(4)
	if err := c.Load(2, tri()); !errors.Is(err, ErrCapacity) {
		t.Fatalf("err = %v, want ErrCapacity", err)
	}
	// Nothing was written.
	if _, err := c.Get(2); !errors.Is(err, ErrStale) {
		t.Errorf("rejected load wrote slot 2")
	}
	if _, err := c.Get(4); !errors.Is(err, ErrCapacity) {
		t.Errorf("Get past capacity: err = %v", err)
	}
	if err := c.Load(-1, tri()); !errors.Is(err, ErrCapacity) {
		t.Errorf("negative start: err = %v", err)
	}
}

func TestResetInvalidates(t *testing.T) {
	c := NewCache(0)
	_ = c.Load(0, tri())
	c.Reset()
	for i := range 3 {
		if _, err := c.Get(i); !errors.Is(err, ErrStale) {
			t.Errorf("slot %d readable after Reset", i)
		}
	}
}

func TestGenerationAdvances(t *testing.T) {
	c := NewCache(0)
	_ = c.Load(0, tri())
	r1, _ := c.Ref(1)
	_ = c.Load(1, tri()[:1])
	r2, _ := c.Ref(1)
	if r1.Generation == r2.Generation {
		t.Error("reload did not advance generation")
	}
	if r2.Vertex != tri()[0] {
		t.Error("reload did not overwrite slot")
	}
	if g := c.Generation(2); g != 1 {
		t.Errorf("Generation(2) = %d, want 1", g)
	}
}

func TestDecodeEncode(t *testing.T) {
	vs := tri()
	buf := make([]byte, len(vs)*RecordSize)
	for i, v := range vs {
		Encode(buf[i*RecordSize:], v)
	}
	tab := segment.NewTable()
	_ = tab.Bind(6, buf)
	view, err := tab.Resolve(6, 0, len(buf))
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode(view, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range vs {
		if got[i] != vs[i] {
			t.Errorf("vertex %d = %+v, want %+v", i, got[i], vs[i])
		}
	}
	if _, err := Decode(view, 4); !errors.Is(err, segment.ErrOutOfRange) {
		t.Errorf("short view: err = %v", err)
	}
}

func TestTexCoordAndNormal(t *testing.T) {
	v := Vertex{S: 64, T: -16, Shade: [4]uint8{0x7F, 0x81, 0, 0xFF}}
	s, tt := v.TexCoord()
	if s != 2 || tt != -0.5 {
		t.Errorf("TexCoord = (%v, %v), want (2, -0.5)", s, tt)
	}
	nx, ny, nz := v.Normal()
	if nx != 127 || ny != -127 || nz != 0 {
		t.Errorf("Normal = (%d, %d, %d)", nx, ny, nz)
	}
}

package vertex

import "fmt"

// Ref identifies a loaded vertex: its slot and the generation that slot had
// when it was read. Two Refs are equal only if they name the same load.
type Ref struct {
	Slot       uint8
	Generation uint32
	Vertex     Vertex
}

// Cache is a fixed array of vertex slots.
//
// Each slot carries a generation that increases on every write. A slot is
// readable only if it was written in the current epoch; Reset starts a new
// epoch so invalidation is O(1).
type Cache struct {
	slots   []Vertex
	gen     []uint32
	written []uint32 // epoch of the last write
	epoch   uint32
}

// NewCache returns a cache with n slots. n <= 0 selects DefaultSlots.
func NewCache(n int) *Cache {
	if n <= 0 {
		n = DefaultSlots
	}
	if n > 256 {
		n = 256
	}
	return &Cache{
		slots:   make([]Vertex, n),
		gen:     make([]uint32, n),
		written: make([]uint32, n),
		epoch:   1,
	}
}

// Cap returns the number of slots.
func (c *Cache) Cap() int { return len(c.slots) }

// Reset invalidates every slot.
func (c *Cache) Reset() {
	c.epoch++
	if c.epoch == 0 {
		// Wrapped: clear explicitly so no old write looks current.
		clear(c.written)
		c.epoch = 1
	}
}

// Load overwrites slots [start, start+len(vs)). Writing past the capacity is
// an error and leaves the cache untouched.
func (c *Cache) Load(start int, vs []Vertex) error {
	if start < 0 || start+len(vs) > len(c.slots) {
		return fmt.Errorf("%w: load [%d,%d) into %d slots", ErrCapacity, start, start+len(vs), len(c.slots))
	}
	for i, v := range vs {
		s := start + i
		c.slots[s] = v
		c.gen[s]++
		c.written[s] = c.epoch
	}
	return nil
}

// Get returns the vertex in slot.
func (c *Cache) Get(slot int) (Vertex, error) {
	r, err := c.Ref(slot)
	return r.Vertex, err
}

// Ref returns the vertex in slot together with its generation.
func (c *Cache) Ref(slot int) (Ref, error) {
	if slot < 0 || slot >= len(c.slots) {
		return Ref{}, fmt.Errorf("%w: slot %d of %d", ErrCapacity, slot, len(c.slots))
	}
	if c.written[slot] != c.epoch {
		return Ref{}, fmt.Errorf("%w: slot %d", ErrStale, slot)
	}
	return Ref{Slot: uint8(slot), Generation: c.gen[slot], Vertex: c.slots[slot]}, nil
}

// Generation returns the write count of slot.
func (c *Cache) Generation(slot int) uint32 {
	if slot < 0 || slot >= len(c.gen) {
		return 0
	}
	return c.gen[slot]
}

package texture

import (
	"errors"
	"fmt"

	"github.com/gogpu/f3d/internal/cache"
	"github.com/gogpu/f3d/segment"
)

// Key identifies a decoded texture by its source range and shape.
type Key struct {
	Segment segment.ID
	Offset  uint32
	Format  Format
	Width   uint16
	Height  uint16
	Stride  uint16 // source row stride in bytes; 0 when rows are packed
}

func (k Key) String() string {
	if k.Stride != 0 {
		return fmt.Sprintf("%02d:%06x/%v/%dx%d+%d", k.Segment, k.Offset, k.Format, k.Width, k.Height, k.Stride)
	}
	return fmt.Sprintf("%02d:%06x/%v/%dx%d", k.Segment, k.Offset, k.Format, k.Width, k.Height)
}

func hashKey(k Key) uint64 {
	return cache.Mix(uint64(k.Segment)<<32|uint64(k.Offset), uint64(k.Format)<<48|uint64(k.Stride)<<32|uint64(k.Width)<<16|uint64(k.Height))
}

// Cache memoizes decoded textures by Key.
//
// The first lookup for a key decodes under the shard lock; every later lookup
// returns the same *Buffer. Cache is safe for concurrent use so one instance
// can be shared across frames and translators.
type Cache struct {
	c *cache.Sharded[Key, *Buffer]
}

// NewCache creates a cache holding up to perShard entries in each of its
// 16 shards. perShard <= 0 selects the default.
func NewCache(perShard int) *Cache {
	return &Cache{c: cache.NewSharded[Key, *Buffer](perShard, hashKey)}
}

// Lookup returns the decoded buffer for key, decoding view's bytes on a miss.
// When key.Stride is set the rows are gathered from view first.
//
// Placeholder buffers are cached like any other result, and the placeholder
// warning is returned on every lookup so callers can count it.
func (c *Cache) Lookup(key Key, view segment.View) (*Buffer, error) {
	buf, hit, err := c.c.GetOrCreate(key, func() (*Buffer, error) {
		raw := view.Bytes()
		if key.Stride != 0 {
			var err error
			if raw, err = gatherRows(raw, key); err != nil {
				return nil, err
			}
		}
		b, err := Decode(raw, key.Format, int(key.Width), int(key.Height))
		if b != nil && isWarning(err) {
			return b, nil
		}
		return b, err
	})
	if err != nil {
		return nil, err
	}
	if !hit {
		slogger().Debug("texture decoded", "key", key.String(), "placeholder", buf.Placeholder)
	}
	if buf.Placeholder {
		if key.Format.Palette() {
			return buf, ErrPaletteUnsupported
		}
		return buf, ErrUnsupportedFormat
	}
	return buf, nil
}

// Get returns a previously decoded buffer.
func (c *Cache) Get(key Key) (*Buffer, bool) {
	return c.c.Get(key)
}

// Len returns the number of cached textures.
func (c *Cache) Len() int { return c.c.Len() }

// Stats returns hit/miss counters.
func (c *Cache) Stats() cache.Stats { return c.c.Stats() }

// Range calls fn for every cached texture until it returns false.
func (c *Cache) Range(fn func(Key, *Buffer) bool) { c.c.Range(fn) }

// Clear drops all cached textures.
func (c *Cache) Clear() { c.c.Clear() }

func isWarning(err error) bool {
	return errors.Is(err, ErrPaletteUnsupported) || errors.Is(err, ErrUnsupportedFormat)
}

// IsWarning reports whether err is a placeholder warning rather than a failure.
func IsWarning(err error) bool { return isWarning(err) }

// gatherRows packs height rows of a strided source into a contiguous block.
func gatherRows(src []byte, key Key) ([]byte, error) {
	row := SizeBytes(key.Format, int(key.Width), 1)
	stride, h := int(key.Stride), int(key.Height)
	if row > stride {
		return nil, fmt.Errorf("%w: row of %d bytes exceeds stride %d", ErrInvalidSize, row, stride)
	}
	if need := stride*(h-1) + row; h > 0 && len(src) < need {
		return nil, fmt.Errorf("%w: %v needs %d bytes, have %d", ErrShortInput, key, need, len(src))
	}
	out := make([]byte, 0, row*h)
	for y := range h {
		out = append(out, src[y*stride:y*stride+row]...)
	}
	return out, nil
}

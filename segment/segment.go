// Package segment resolves segmented addresses into bounds-checked views.
//
// Display lists never carry raw pointers. Every address is a segment id in
// bits 24..27 plus a 24-bit offset, and resolves through a Table that maps
// each id to a byte region registered by the caller before decoding.
package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Count is the number of addressable segments.
const Count = 16

// Errors returned by Table and View.
var (
	// ErrOutOfRange is returned when offset+length exceeds a bound region.
	ErrOutOfRange = errors.New("segment: access out of range")

	// ErrUnbound is returned when resolving a segment with no region.
	ErrUnbound = errors.New("segment: segment not bound")

	// ErrInvalidSegment is returned for ids outside [0, Count).
	ErrInvalidSegment = errors.New("segment: invalid segment id")
)

// ID identifies one of the 16 segments.
type ID uint8

// RangeError describes an out-of-range access.
// It matches ErrOutOfRange with errors.Is.
type RangeError struct {
	Segment ID
	Offset  uint32
	Length  int
	Size    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("segment: access out of range: segment %d offset 0x%06x length %d (region size %d)",
		e.Segment, e.Offset, e.Length, e.Size)
}

// Is reports whether target is ErrOutOfRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// Split breaks a segmented address into its segment id and offset.
func Split(addr uint32) (ID, uint32) {
	return ID((addr >> 24) & 0x0F), addr & 0x00FFFFFF
}

// Address builds a segmented address from an id and offset.
func Address(id ID, offset uint32) uint32 {
	return uint32(id&0x0F)<<24 | offset&0x00FFFFFF
}

// Table maps segment ids to backing memory.
//
// Bindings are set up before a stream is decoded and treated as read-only
// afterward. Table is not safe for concurrent mutation.
type Table struct {
	regions [Count][]byte
	bound   [Count]bool
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Bind registers data as the region for id. The slice is not copied.
func (t *Table) Bind(id ID, data []byte) error {
	if id >= Count {
		return fmt.Errorf("%w: %d", ErrInvalidSegment, id)
	}
	t.regions[id] = data
	t.bound[id] = true
	return nil
}

// Unbind removes the region for id.
func (t *Table) Unbind(id ID) {
	if id >= Count {
		return
	}
	t.regions[id] = nil
	t.bound[id] = false
}

// Bound reports whether id has a region.
func (t *Table) Bound(id ID) bool {
	return id < Count && t.bound[id]
}

// Size returns the length of the region bound to id, or 0.
func (t *Table) Size(id ID) int {
	if id >= Count {
		return 0
	}
	return len(t.regions[id])
}

// Resolve returns a read-only view of length bytes at offset within segment id.
func (t *Table) Resolve(id ID, offset uint32, length int) (View, error) {
	if id >= Count {
		return View{}, fmt.Errorf("%w: %d", ErrInvalidSegment, id)
	}
	if !t.bound[id] {
		return View{}, fmt.Errorf("%w: %d", ErrUnbound, id)
	}
	region := t.regions[id]
	if length < 0 || uint64(offset)+uint64(length) > uint64(len(region)) {
		return View{}, &RangeError{Segment: id, Offset: offset, Length: length, Size: len(region)}
	}
	end := int(offset) + length
	return View{seg: id, off: offset, data: region[offset:end:end]}, nil
}

// ResolveAddress splits a segmented address and resolves it.
func (t *Table) ResolveAddress(addr uint32, length int) (View, error) {
	id, off := Split(addr)
	return t.Resolve(id, off, length)
}

// Remaining returns a view from offset to the end of the segment.
func (t *Table) Remaining(addr uint32) (View, error) {
	id, off := Split(addr)
	if id < Count && t.bound[id] && int(off) <= len(t.regions[id]) {
		return t.Resolve(id, off, len(t.regions[id])-int(off))
	}
	return t.Resolve(id, off, 0)
}

// View is a bounds-checked, read-only window into a segment.
// The zero View is empty.
type View struct {
	seg  ID
	off  uint32
	data []byte
}

// Segment returns the segment the view was resolved from.
func (v View) Segment() ID { return v.seg }

// Offset returns the view's start offset inside its segment.
func (v View) Offset() uint32 { return v.off }

// Len returns the view length in bytes.
func (v View) Len() int { return len(v.data) }

// Bytes returns the underlying bytes. Callers must not modify them.
func (v View) Bytes() []byte { return v.data }

// Sub returns a nested view of length bytes starting at off.
func (v View) Sub(off, length int) (View, error) {
	if off < 0 || length < 0 || off+length > len(v.data) {
		return View{}, &RangeError{Segment: v.seg, Offset: v.off + uint32(off), Length: length, Size: len(v.data)}
	}
	end := off + length
	return View{seg: v.seg, off: v.off + uint32(off), data: v.data[off:end:end]}, nil
}

func (v View) check(off, n int) error {
	if off < 0 || off+n > len(v.data) {
		return &RangeError{Segment: v.seg, Offset: v.off + uint32(off), Length: n, Size: len(v.data)}
	}
	return nil
}

// Uint8 reads a byte at off.
func (v View) Uint8(off int) (uint8, error) {
	if err := v.check(off, 1); err != nil {
		return 0, err
	}
	return v.data[off], nil
}

// Uint16 reads a big-endian uint16 at off.
func (v View) Uint16(off int) (uint16, error) {
	if err := v.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(v.data[off:]), nil
}

// Int16 reads a big-endian int16 at off.
func (v View) Int16(off int) (int16, error) {
	u, err := v.Uint16(off)
	return int16(u), err
}

// Uint32 reads a big-endian uint32 at off.
func (v View) Uint32(off int) (uint32, error) {
	if err := v.check(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(v.data[off:]), nil
}

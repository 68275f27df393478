// Package ringbuffer implements a contiguous byte region split into
// equally sized slots, used by the frame and minimal codecs to give the
// block primitive's "_continue" dictionary window a stable memory address
// between calls.
package ringbuffer

import "github.com/pkg/errors"

// ErrInvalidSlotSize is returned by New when slotSize is not positive.
var ErrInvalidSlotSize = errors.New("ringbuffer: slot size must be positive")

// ErrInvalidSlotCount is returned by New when slots is not positive.
var ErrInvalidSlotCount = errors.New("ringbuffer: slot count must be at least 1")

// Ring is a fixed-size byte region partitioned into equal slots. The
// two-slot case is what the LZ4 Frame linked-block contract needs; the
// minimal codec may ask for more when its configured block size is smaller
// than the 64 KiB LZ4 window, so the window still spans at least two ring
// slots worth of bytes. A single slot is also valid — the minimal codec's
// way of asking for independently compressed chunks — but then Previous has
// no well-defined answer and must not be called.
type Ring struct {
	buf      []byte
	slotSize int
	slots    int
	offset   int // current slot's byte offset into buf
}

// New allocates a ring with the given number of slots, each slotSize bytes.
func New(slots, slotSize int) (*Ring, error) {
	if slotSize <= 0 {
		return nil, errors.WithStack(ErrInvalidSlotSize)
	}
	if slots < 1 {
		return nil, errors.WithStack(ErrInvalidSlotCount)
	}
	return &Ring{
		buf:      make([]byte, slots*slotSize),
		slotSize: slotSize,
		slots:    slots,
	}, nil
}

// SlotSize returns the configured per-slot byte capacity.
func (r *Ring) SlotSize() int { return r.slotSize }

// Slots returns the configured slot count.
func (r *Ring) Slots() int { return r.slots }

// Current returns the slice backing the slot currently selected for
// writing or reading.
func (r *Ring) Current() []byte {
	return r.buf[r.offset : r.offset+r.slotSize]
}

// Previous returns the slice backing the slot immediately before the
// current one in ring order — the dictionary window for Linked-mode
// decode/encode of the current slot.
func (r *Ring) Previous() []byte {
	prev := r.offset - r.slotSize
	if prev < 0 {
		prev += r.slots * r.slotSize
	}
	return r.buf[prev : prev+r.slotSize]
}

// Advance moves to the next slot in ring order, wrapping back to slot 0
// once the buffer is exhausted.
func (r *Ring) Advance() {
	r.offset += r.slotSize
	if r.offset >= r.slots*r.slotSize {
		r.offset = 0
	}
}

// Reset returns the ring to its initial slot without clearing its
// contents — used when a codec starts a fresh frame but wants to keep
// reusing the same backing storage.
func (r *Ring) Reset() {
	r.offset = 0
}

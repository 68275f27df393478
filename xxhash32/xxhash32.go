// Package xxhash32 binds to the reference xxHash32 implementation
// (libxxhash, via cgo) the same way lz4block binds to liblz4 — by wrapping
// the external primitive, not reimplementing it.
package xxhash32

// #cgo pkg-config: libxxhash
// #include <xxhash.h>
// #include <stdlib.h>
import "C"

import (
	"unsafe"

	"github.com/pkg/errors"
)

// ErrUpdateFailed is returned when XXH32_update reports an error, which in
// practice only happens if the incremental state was corrupted.
var ErrUpdateFailed = errors.New("xxhash32: update failed")

func cptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// Hash is the pure one-shot form: hash(bytes, seed) -> u32.
func Hash(data []byte, seed uint32) uint32 {
	return uint32(C.XXH32(cptr(data), C.size_t(len(data)), C.uint(seed)))
}

// State is an incremental xxHash32 computation: new(seed), update(bytes),
// digest(), reset(seed).
type State struct {
	state *C.XXH32_state_t
}

// New creates a new incremental hasher seeded with seed.
func New(seed uint32) *State {
	s := &State{state: C.XXH32_createState()}
	C.XXH32_reset(s.state, C.uint(seed))
	return s
}

// Update folds data into the running hash.
func (s *State) Update(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	rc := C.XXH32_update(s.state, cptr(data), C.size_t(len(data)))
	if rc != C.XXH_OK {
		return errors.WithStack(ErrUpdateFailed)
	}
	return nil
}

// Digest returns the current hash value without resetting the state.
func (s *State) Digest() uint32 {
	return uint32(C.XXH32_digest(s.state))
}

// Reset reseeds the hasher, discarding any accumulated state.
func (s *State) Reset(seed uint32) {
	C.XXH32_reset(s.state, C.uint(seed))
}

// Close releases the native hash state. The State must not be used
// afterwards.
func (s *State) Close() {
	if s.state != nil {
		C.XXH32_freeState(s.state)
		s.state = nil
	}
}

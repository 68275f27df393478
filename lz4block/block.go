// Package lz4block wraps the external LZ4 block compressor and
// decompressor (liblz4, reached through cgo) behind the small
// continuation-style contract the frame and minimal codecs are built on. It
// does not implement LZ4 block compression itself — it only binds to it.
package lz4block

// #cgo pkg-config: liblz4
// #include <lz4.h>
// #include <lz4hc.h>
// #include <stdlib.h>
import "C"

import (
	"unsafe"

	"github.com/pkg/errors"
)

// ErrCompressFailed is returned when the underlying block primitive signals
// failure (a negative or unexpected return code).
var ErrCompressFailed = errors.New("lz4block: compress failed")

// ErrDecompressFailed is returned when LZ4_decompress_safe(_continue)
// reports malformed input.
var ErrDecompressFailed = errors.New("lz4block: malformed compressed block")

// ErrDictTooLarge is returned by SetDict when LZ4_setStreamDecode rejects
// the dictionary handed to it.
var ErrDictTooLarge = errors.New("lz4block: dictionary too large")

func cptr(b []byte) *C.char {
	if len(b) == 0 {
		return (*C.char)(unsafe.Pointer(nil))
	}
	return (*C.char)(unsafe.Pointer(&b[0]))
}

func clen(b []byte) C.int {
	return C.int(len(b))
}

// CompressBound returns the maximum possible size of the compressed output
// of an input of length n, per LZ4_COMPRESSBOUND.
func CompressBound(n int) int {
	if n <= 0 {
		return 16
	}
	return n + n/255 + 16
}

// Encoder is a reusable fast-mode streaming compressor: each call
// compresses one block against the dictionary window built from the blocks
// compressed since the last Reset.
type Encoder struct {
	stream *C.LZ4_stream_t
}

// NewEncoder allocates a fresh streaming compression context.
func NewEncoder() *Encoder {
	return &Encoder{stream: C.LZ4_createStream()}
}

// Reset clears the dictionary window, so the next CompressContinue call
// behaves as if it were the first block of a stream (used at frame
// boundaries and for Independent block mode).
func (e *Encoder) Reset() {
	C.LZ4_loadDict(e.stream, nil, 0)
}

// CompressContinue compresses src into dst using the dictionary built from
// prior calls since the last Reset. Returns the compressed length, or 0 if
// the library declined to produce output (caller must fall back to storing
// src uncompressed), or an error on hard failure.
func (e *Encoder) CompressContinue(dst, src []byte) (int, error) {
	n := int(C.LZ4_compress_fast_continue(e.stream, cptr(src), cptr(dst), clen(src), clen(dst), 1))
	if n < 0 {
		return 0, errors.WithStack(ErrCompressFailed)
	}
	return n, nil
}

// Close releases the native stream context. The Encoder must not be used
// afterwards.
func (e *Encoder) Close() {
	if e.stream != nil {
		C.LZ4_freeStream(e.stream)
		e.stream = nil
	}
}

// HCEncoder is the high-compression counterpart to Encoder: slower to
// encode, better ratio, identical block-level contract.
type HCEncoder struct {
	stream *C.LZ4_streamHC_t
}

// NewHCEncoder allocates a high-compression streaming context at the given
// level.
func NewHCEncoder(level int) *HCEncoder {
	s := C.LZ4_createStreamHC()
	C.LZ4_resetStreamHC(s, C.int(level))
	return &HCEncoder{stream: s}
}

// Reset clears the HC dictionary window.
func (e *HCEncoder) Reset() {
	C.LZ4_loadDictHC(e.stream, nil, 0)
}

// CompressContinue is the HC analogue of Encoder.CompressContinue.
func (e *HCEncoder) CompressContinue(dst, src []byte) (int, error) {
	n := int(C.LZ4_compress_HC_continue(e.stream, cptr(src), cptr(dst), clen(src), clen(dst)))
	if n < 0 {
		return 0, errors.WithStack(ErrCompressFailed)
	}
	return n, nil
}

// Close releases the native HC stream context.
func (e *HCEncoder) Close() {
	if e.stream != nil {
		C.LZ4_freeStreamHC(e.stream)
		e.stream = nil
	}
}

// Decoder is a reusable streaming decompressor implementing
// "decode_block_continue" / "reset_decoder_with_dict".
type Decoder struct {
	stream *C.LZ4_streamDecode_t
}

// NewDecoder allocates a fresh streaming decompression context.
func NewDecoder() *Decoder {
	return &Decoder{stream: C.LZ4_createStreamDecode()}
}

// SetDict installs dict as the decompression window for the next
// DecompressContinue call (the previously decoded block's plaintext, in
// Linked mode), or clears it when dict is empty (Independent mode or the
// first block of a frame).
func (d *Decoder) SetDict(dict []byte) error {
	ok := C.LZ4_setStreamDecode(d.stream, cptr(dict), clen(dict))
	if ok != 1 {
		return errors.WithStack(ErrDictTooLarge)
	}
	return nil
}

// DecompressContinue decompresses src into dst, dst capped at its length.
func (d *Decoder) DecompressContinue(dst, src []byte) (int, error) {
	n := int(C.LZ4_decompress_safe_continue(d.stream, cptr(src), cptr(dst), clen(src), clen(dst)))
	if n < 0 {
		return 0, errors.WithStack(ErrDecompressFailed)
	}
	return n, nil
}

// Close releases the native decode stream context.
func (d *Decoder) Close() {
	if d.stream != nil {
		C.LZ4_freeStreamDecode(d.stream)
		d.stream = nil
	}
}

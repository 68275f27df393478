package frame

import (
	"bytes"
	"io"
)

// PullEncoder adapts the push-driven Writer to a pull-driven io.Reader:
// bytes are pulled from src, fed through a Writer, and whatever compressed
// output lands in an internal buffer is drained to the caller.
type PullEncoder struct {
	src    io.Reader
	w      *Writer
	buf    bytes.Buffer
	chunk  []byte
	srcEOF bool
	closed bool
}

// NewPullEncoder creates a PullEncoder that compresses src on demand as it
// is read.
func NewPullEncoder(src io.Reader, cfg Config) (*PullEncoder, error) {
	pe := &PullEncoder{src: src, chunk: make([]byte, cfg.BlockSize.Bytes())}
	w, err := NewWriter(&pe.buf, cfg)
	if err != nil {
		return nil, err
	}
	pe.w = w
	return pe, nil
}

// Read implements io.Reader, producing compressed frame bytes.
func (pe *PullEncoder) Read(p []byte) (int, error) {
	for pe.buf.Len() == 0 {
		if pe.srcEOF {
			return 0, io.EOF
		}
		n, err := pe.src.Read(pe.chunk)
		if n > 0 {
			if _, werr := pe.w.Write(pe.chunk[:n]); werr != nil {
				return 0, werr
			}
		}
		if err == io.EOF {
			pe.srcEOF = true
			if cerr := pe.w.Close(); cerr != nil {
				return 0, cerr
			}
		} else if err != nil {
			return 0, err
		}
	}
	return pe.buf.Read(p)
}

// Close releases the underlying Writer's native resources. It does not
// close src.
func (pe *PullEncoder) Close() error {
	if pe.closed {
		return nil
	}
	pe.closed = true
	if !pe.srcEOF {
		return pe.w.Close()
	}
	return nil
}

// PullDecoder adapts the Reader's own pull-driven io.Reader contract to an
// explicit transcoder type, for symmetry with PullEncoder. It is a thin
// wrapper: Reader already pulls compressed bytes from its source and yields
// plaintext.
type PullDecoder struct {
	*Reader
}

// NewPullDecoder creates a PullDecoder pulling compressed frame bytes from
// src and yielding plaintext on Read.
func NewPullDecoder(src io.Reader, cfg Config) *PullDecoder {
	return &PullDecoder{Reader: NewReader(src, cfg)}
}

var _ io.ReadCloser = (*PullEncoder)(nil)
var _ io.ReadCloser = (*PullDecoder)(nil)

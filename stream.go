// Package lz4frame is a streaming implementation of the LZ4 Frame format:
// a linked-block LZ4 compressor wrapped in a self-describing container with
// optional header/block/content checksums and skippable user-data frames.
//
// An Encoder is write-only and a Decoder is read-only — matching the
// underlying frame state machine, which only ever runs in one direction at
// a time. Calling the wrong-direction method returns an *CodecError whose
// Kind field is KindUnsupportedOperation rather than panicking.
package lz4frame

import (
	"io"

	"github.com/lz4kiwi/lz4frame/frame"
)

// Encoder writes an LZ4 frame stream to an underlying io.Writer.
type Encoder struct {
	inner  io.Writer
	fw     *frame.Writer
	cfg    Config
	closed bool
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) (*Encoder, error) {
	cfg := buildConfig(opts)
	fw, err := frame.NewWriter(w, cfg.toFrameConfig())
	if err != nil {
		return nil, wrap("NewEncoder", err)
	}
	return &Encoder{inner: w, fw: fw, cfg: cfg}, nil
}

// Write implements io.Writer.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.closed {
		return 0, wrap("Write", ErrClosed)
	}
	n, err := e.fw.Write(p)
	return n, wrap("Write", err)
}

// WriteByte implements io.ByteWriter.
func (e *Encoder) WriteByte(b byte) error {
	if e.closed {
		return wrap("WriteByte", ErrClosed)
	}
	return wrap("WriteByte", e.fw.WriteByte(b))
}

// Flush writes any buffered partial block without ending the frame.
func (e *Encoder) Flush() error {
	return wrap("Flush", e.fw.Flush())
}

// WriteUserDataFrame writes a skippable user-data frame.
func (e *Encoder) WriteUserDataFrame(id int, data []byte) error {
	return wrap("WriteUserDataFrame", e.fw.WriteUserDataFrame(id, data))
}

// WriteEndFrame ends the current frame, if one is open; the next Write
// opens a new frame.
func (e *Encoder) WriteEndFrame() error {
	return wrap("WriteEndFrame", e.fw.WriteEndFrame())
}

// FrameCount reports how many frames have been started so far.
func (e *Encoder) FrameCount() uint64 { return e.fw.FrameCount() }

// Read always fails: Encoder is write-only.
func (e *Encoder) Read([]byte) (int, error) { return 0, unsupported("Read") }

// Seek always fails: the frame format is not seekable.
func (e *Encoder) Seek(int64, int) (int64, error) { return 0, unsupported("Seek") }

// SetLength always fails.
func (e *Encoder) SetLength(int64) error { return unsupported("SetLength") }

// Length always fails: the frame format is not seekable.
func (e *Encoder) Length() (int64, error) { return 0, unsupported("Length") }

// Position always fails.
func (e *Encoder) Position() (int64, error) { return 0, unsupported("Position") }

// CanRead reports whether this direction supports Read. An Encoder never
// does.
func (e *Encoder) CanRead() bool { return false }

// CanWrite reports whether this direction supports Write. An Encoder
// always does.
func (e *Encoder) CanWrite() bool { return true }

// Close ends the current frame and, unless Config.LeaveInnerOpen is set,
// closes the underlying writer if it implements io.Closer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.fw.Close(); err != nil {
		return wrap("Close", err)
	}
	if !e.cfg.LeaveInnerOpen {
		if c, ok := e.inner.(io.Closer); ok {
			return wrap("Close", c.Close())
		}
	}
	return nil
}

// Decoder reads an LZ4 frame stream from an underlying io.Reader.
type Decoder struct {
	inner  io.Reader
	fr     *frame.Reader
	cfg    Config
	closed bool
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	cfg := buildConfig(opts)
	return &Decoder{inner: r, fr: frame.NewReader(r, cfg.toFrameConfig()), cfg: cfg}
}

// Read implements io.Reader.
func (d *Decoder) Read(p []byte) (int, error) {
	if d.closed {
		return 0, wrap("Read", ErrClosed)
	}
	n, err := d.fr.Read(p)
	if err != nil && err != io.EOF {
		return n, wrap("Read", err)
	}
	return n, err
}

// ReadByte implements io.ByteReader.
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	n, err := d.Read(b[:])
	if n == 1 {
		return b[0], nil
	}
	return 0, err
}

// FrameCount reports how many frames have been reached so far; see
// frame.Reader.FrameCount.
func (d *Decoder) FrameCount() uint64 { return d.fr.FrameCount() }

// Write always fails: Decoder is read-only.
func (d *Decoder) Write([]byte) (int, error) { return 0, unsupported("Write") }

// Seek always fails.
func (d *Decoder) Seek(int64, int) (int64, error) { return 0, unsupported("Seek") }

// SetLength always fails.
func (d *Decoder) SetLength(int64) error { return unsupported("SetLength") }

// Length always fails: frame content length is not known up front unless
// the encoder recorded it in the descriptor, which this decoder does not
// expose as a random-access property.
func (d *Decoder) Length() (int64, error) { return 0, unsupported("Length") }

// Position always fails.
func (d *Decoder) Position() (int64, error) { return 0, unsupported("Position") }

// CanRead reports whether this direction supports Read. A Decoder always
// does.
func (d *Decoder) CanRead() bool { return true }

// CanWrite reports whether this direction supports Write. A Decoder never
// does.
func (d *Decoder) CanWrite() bool { return false }

// Close releases decoder resources and, unless Config.LeaveInnerOpen is
// set, closes the underlying reader if it implements io.Closer.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.fr.Close(); err != nil {
		return wrap("Close", err)
	}
	if !d.cfg.LeaveInnerOpen {
		if c, ok := d.inner.(io.Closer); ok {
			return wrap("Close", c.Close())
		}
	}
	return nil
}

// NewPullEncoder adapts the push-driven Encoder to a pull-driven
// io.ReadCloser that compresses src on demand as it is read.
func NewPullEncoder(src io.Reader, opts ...Option) (*frame.PullEncoder, error) {
	cfg := buildConfig(opts)
	pe, err := frame.NewPullEncoder(src, cfg.toFrameConfig())
	if err != nil {
		return nil, wrap("NewPullEncoder", err)
	}
	return pe, nil
}

// NewPullDecoder mirrors NewDecoder under the pull-mode transcoder name,
// for callers composing it with NewPullEncoder.
func NewPullDecoder(src io.Reader, opts ...Option) *frame.PullDecoder {
	cfg := buildConfig(opts)
	return frame.NewPullDecoder(src, cfg.toFrameConfig())
}

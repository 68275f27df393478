// Package minimal implements a bare 4-byte length-prefixed block stream
// with no magic, no descriptor, and no checksums, for callers that already
// know both ends are this package and want the least possible overhead. It
// scales its ring buffer slot count up when the configured block size is
// smaller than LZ4's 64 KiB window so the dictionary still spans a full
// window's worth of history.
package minimal

import (
	"encoding/binary"
	"io"

	"github.com/lz4kiwi/lz4frame/lz4block"
	"github.com/lz4kiwi/lz4frame/ringbuffer"
	"github.com/pkg/errors"
)

// DefaultBlockSize is used by NewWriter/NewReader when no explicit size is
// given, matching LZ4's native window size.
const DefaultBlockSize = 64 * 1024

// ErrInvalidLengthPrefix is returned when a chunk's length word has its
// high bit set, which the format reserves and never produces.
var ErrInvalidLengthPrefix = errors.New("minimal: invalid chunk length prefix")

// ErrTruncated is returned when the stream ends in the middle of a length
// prefix or a chunk payload.
var ErrTruncated = errors.New("minimal: truncated stream")

func ringbufferSlots(blockSize int) int {
	if blockSize >= DefaultBlockSize {
		return 2
	}
	slots := (2*DefaultBlockSize + blockSize - 1) / blockSize
	if slots < 2 {
		slots = 2
	}
	return slots
}

// Writer is the push side of the minimal codec.
type Writer struct {
	w         io.Writer
	blockSize int
	ring      *ringbuffer.Ring
	enc       *lz4block.Encoder
	outBuf    []byte
	offset    int
	closed    bool
}

// NewWriter creates a Writer with the default block size and an
// automatically scaled ring buffer.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterSize(w, DefaultBlockSize)
}

// NewWriterSize creates a Writer with an explicit block size, picking a
// ring buffer slot count large enough to cover LZ4's window.
func NewWriterSize(w io.Writer, blockSize int) (*Writer, error) {
	return NewWriterSlots(w, blockSize, ringbufferSlots(blockSize))
}

// NewWriterSlots creates a Writer with full control over the ring buffer
// shape. slots == 1 produces independently compressed chunks: the
// dictionary is discarded before every block.
func NewWriterSlots(w io.Writer, blockSize, slots int) (*Writer, error) {
	ring, err := ringbuffer.New(slots, blockSize)
	if err != nil {
		return nil, err
	}
	return &Writer{
		w:         w,
		blockSize: blockSize,
		ring:      ring,
		enc:       lz4block.NewEncoder(),
		outBuf:    make([]byte, lz4block.CompressBound(blockSize)),
	}, nil
}

// Write implements io.Writer, buffering into the ring and flushing full
// blocks as they fill.
func (mw *Writer) Write(p []byte) (int, error) {
	if mw.closed {
		return 0, errors.New("minimal: write on closed Writer")
	}
	total := 0
	for len(p) > 0 {
		cur := mw.ring.Current()
		n := copy(cur[mw.offset:], p)
		mw.offset += n
		p = p[n:]
		total += n
		if mw.offset >= len(cur) {
			if err := mw.flushChunk(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func (mw *Writer) flushChunk() error {
	if mw.offset <= 0 {
		return nil
	}
	src := mw.ring.Current()[:mw.offset]

	if mw.ring.Slots() == 1 {
		mw.enc.Reset()
	}

	n, err := mw.enc.CompressContinue(mw.outBuf, src)
	if err != nil {
		return errors.Wrap(err, "minimal: compress")
	}
	if n <= 0 {
		return errors.New("minimal: compress produced no output")
	}

	lenBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBuf, uint32(n))
	if _, err := mw.w.Write(lenBuf); err != nil {
		return errors.Wrap(err, "minimal: write length")
	}
	if _, err := mw.w.Write(mw.outBuf[:n]); err != nil {
		return errors.Wrap(err, "minimal: write chunk")
	}

	mw.offset = 0
	mw.ring.Advance()
	return nil
}

// Flush writes any partially filled block to the underlying writer.
func (mw *Writer) Flush() error {
	return mw.flushChunk()
}

// Close flushes any pending data and releases the native encoder.
func (mw *Writer) Close() error {
	if mw.closed {
		return nil
	}
	mw.closed = true
	err := mw.flushChunk()
	mw.enc.Close()
	return err
}

// Reader is the pull side of the minimal codec.
type Reader struct {
	r         io.Reader
	blockSize int
	ring      *ringbuffer.Ring
	dec       *lz4block.Decoder
	chunkBuf  []byte
	out       []byte
	outPos    int
	eof       bool
	err       error
	closed    bool
}

// NewReader creates a Reader with the default block size and ring shape.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultBlockSize)
}

// NewReaderSize creates a Reader matched to a non-default block size used
// by the writer it is reading from.
func NewReaderSize(r io.Reader, blockSize int) *Reader {
	return NewReaderSlots(r, blockSize, ringbufferSlots(blockSize))
}

// NewReaderSlots creates a Reader with an explicit ring shape, matching
// NewWriterSlots on the encode side.
func NewReaderSlots(r io.Reader, blockSize, slots int) *Reader {
	ring, err := ringbuffer.New(slots, blockSize)
	if err != nil {
		// blockSize/slots were already validated on the write side this
		// reader is meant to mirror; surface the mistake on first Read.
		return &Reader{r: r, err: err}
	}
	return &Reader{
		r:         r,
		blockSize: blockSize,
		ring:      ring,
		dec:       lz4block.NewDecoder(),
		chunkBuf:  make([]byte, lz4block.CompressBound(blockSize)),
	}
}

// Read implements io.Reader.
func (mr *Reader) Read(p []byte) (int, error) {
	for {
		if mr.outPos < len(mr.out) {
			n := copy(p, mr.out[mr.outPos:])
			mr.outPos += n
			return n, nil
		}
		if mr.err != nil {
			return 0, mr.err
		}
		if mr.eof {
			return 0, io.EOF
		}
		if err := mr.acquireNextChunk(); err != nil {
			mr.err = err
			return 0, err
		}
	}
}

func (mr *Reader) acquireNextChunk() error {
	lenBuf := make([]byte, 4)
	n, err := io.ReadFull(mr.r, lenBuf)
	if err == io.EOF && n == 0 {
		mr.eof = true
		return nil
	}
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading chunk length")
	}
	if lenBuf[3]&0x80 != 0 {
		return errors.WithStack(ErrInvalidLengthPrefix)
	}
	size := binary.LittleEndian.Uint32(lenBuf)
	if size == 0 {
		mr.eof = true
		return nil
	}

	if cap(mr.chunkBuf) < int(size) {
		mr.chunkBuf = make([]byte, size)
	}
	chunk := mr.chunkBuf[:size]
	if _, err := io.ReadFull(mr.r, chunk); err != nil {
		return errors.Wrap(ErrTruncated, "reading chunk payload")
	}

	if mr.ring.Slots() == 1 {
		if err := mr.dec.SetDict(nil); err != nil {
			return err
		}
	}
	dst := mr.ring.Current()
	got, err := mr.dec.DecompressContinue(dst, chunk)
	if err != nil {
		return errors.Wrap(err, "minimal: decompress")
	}
	mr.out = dst[:got]
	mr.outPos = 0
	mr.ring.Advance()
	return nil
}

// Close releases the native decoder. It does not close the underlying
// reader.
func (mr *Reader) Close() error {
	if mr.closed {
		return nil
	}
	mr.closed = true
	if mr.dec != nil {
		mr.dec.Close()
	}
	return nil
}

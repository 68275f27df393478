package frame

import (
	"io"

	"github.com/lz4kiwi/lz4frame/lz4block"
	"github.com/lz4kiwi/lz4frame/ringbuffer"
	"github.com/lz4kiwi/lz4frame/xxhash32"
	"github.com/pkg/errors"
)

// blockEncoder is the subset of lz4block.Encoder / lz4block.HCEncoder the
// Writer needs; it lets Writer stay agnostic to which speed/ratio variant
// backs it.
type blockEncoder interface {
	Reset()
	CompressContinue(dst, src []byte) (int, error)
	Close()
}

// Writer is the push-driven Frame Writer state machine.
type Writer struct {
	w   io.Writer
	cfg Config

	ring   *ringbuffer.Ring
	enc    blockEncoder
	outBuf []byte

	contentHash *xxhash32.State

	inputOffset int

	frameCount         uint64
	blockCountInFrame  uint64
	hasStartedAnyFrame bool
	hasOpenFrame       bool

	closed bool
}

// NewWriter creates a Frame Writer over w using cfg.
func NewWriter(w io.Writer, cfg Config) (*Writer, error) {
	blockBytes := cfg.BlockSize.Bytes()
	if blockBytes == 0 {
		return nil, errors.Wrap(ErrUnsupportedBlockSize, "NewWriter")
	}

	ring, err := ringbuffer.New(2, blockBytes)
	if err != nil {
		return nil, errors.Wrap(err, "NewWriter")
	}

	var enc blockEncoder
	if cfg.HighCompression {
		enc = lz4block.NewHCEncoder(cfg.HCLevel)
	} else {
		enc = lz4block.NewEncoder()
	}

	return &Writer{
		w:      w,
		cfg:    cfg,
		ring:   ring,
		enc:    enc,
		outBuf: make([]byte, lz4block.CompressBound(blockBytes)),
	}, nil
}

// FrameCount reports how many LZ4 frames (and skippable frames) have been
// started so far.
func (fw *Writer) FrameCount() uint64 { return fw.frameCount }

// Write accumulates bytes into the current input block, flushing full
// blocks as it goes.
func (fw *Writer) Write(p []byte) (int, error) {
	if fw.closed {
		return 0, errors.New("frame: write on closed Writer")
	}
	total := 0
	for len(p) > 0 {
		if !fw.hasOpenFrame {
			if err := fw.openFrame(); err != nil {
				return total, err
			}
		}
		cur := fw.ring.Current()
		chunk := copy(cur[fw.inputOffset:], p)
		fw.inputOffset += chunk
		p = p[chunk:]
		total += chunk

		if fw.inputOffset >= len(cur) {
			if err := fw.flushBlock(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// WriteByte writes a single byte.
func (fw *Writer) WriteByte(b byte) error {
	_, err := fw.Write([]byte{b})
	return err
}

// Flush emits a partial block if the input slot is non-empty. It never
// forces a frame boundary; ending a frame is WriteEndFrame's job.
func (fw *Writer) Flush() error {
	if fw.inputOffset > 0 {
		return fw.flushBlock()
	}
	return nil
}

// openFrame writes the frame header (magic, descriptor, descriptor
// checksum) and resets the per-frame state.
func (fw *Writer) openFrame() error {
	fw.frameCount++
	fw.blockCountInFrame = 0
	fw.hasStartedAnyFrame = true
	fw.hasOpenFrame = true

	if fw.cfg.Checksum.Has(ChecksumContent) {
		if fw.contentHash == nil {
			fw.contentHash = xxhash32.New(0)
		} else {
			fw.contentHash.Reset(0)
		}
	}

	if err := writeUint32LE(fw.w, Magic); err != nil {
		return errors.Wrap(err, "openFrame: magic")
	}
	descriptor := encodeDescriptor(Header{
		BlockSize: fw.cfg.BlockSize,
		BlockMode: fw.cfg.BlockMode,
		Checksum:  fw.cfg.Checksum,
	})
	if _, err := fw.w.Write(descriptor); err != nil {
		return errors.Wrap(err, "openFrame: descriptor")
	}
	if _, err := fw.w.Write([]byte{descriptorChecksum(descriptor)}); err != nil {
		return errors.Wrap(err, "openFrame: descriptor checksum")
	}

	fw.cfg.logger().WithFields(map[string]interface{}{
		"blockSize": fw.cfg.BlockSize.Bytes(),
		"blockMode": fw.cfg.BlockMode,
		"checksum":  fw.cfg.Checksum,
	}).Debug("frame: opened")

	return nil
}

// writeEmptyFrame emits a header-only frame (magic, descriptor, checksum,
// zero end marker) with no checksums, for preceding a user-data frame that
// has no plaintext before it.
func (fw *Writer) writeEmptyFrame() error {
	fw.frameCount++
	fw.hasStartedAnyFrame = true

	if err := writeUint32LE(fw.w, Magic); err != nil {
		return err
	}
	descriptor := encodeDescriptor(Header{
		BlockSize: fw.cfg.BlockSize,
		BlockMode: fw.cfg.BlockMode,
	})
	if _, err := fw.w.Write(descriptor); err != nil {
		return err
	}
	if _, err := fw.w.Write([]byte{descriptorChecksum(descriptor)}); err != nil {
		return err
	}
	return writeUint32LE(fw.w, 0)
}

// flushBlock runs the block emission algorithm: reset the dictionary if
// needed, hash the plaintext, compress or fall back to storing it
// uncompressed, and write the length, payload, and optional checksum.
func (fw *Writer) flushBlock() error {
	if !fw.hasOpenFrame {
		if err := fw.openFrame(); err != nil {
			return err
		}
	}

	src := fw.ring.Current()[:fw.inputOffset]

	if fw.cfg.BlockMode == Independent || fw.blockCountInFrame == 0 {
		fw.enc.Reset()
	}

	if fw.contentHash != nil {
		if err := fw.contentHash.Update(src); err != nil {
			return errors.Wrap(err, "flushBlock: content hash")
		}
	}

	n, err := fw.enc.CompressContinue(fw.outBuf, src)
	if err != nil {
		return errors.Wrap(err, "flushBlock: compress")
	}

	var payload []byte
	uncompressed := false
	if n <= 0 || n >= len(src) {
		payload = src
		uncompressed = true
	} else {
		payload = fw.outBuf[:n]
	}

	if _, err := fw.w.Write(blockLengthWord(len(payload), uncompressed)); err != nil {
		return errors.Wrap(err, "flushBlock: length")
	}
	if _, err := fw.w.Write(payload); err != nil {
		return errors.Wrap(err, "flushBlock: payload")
	}
	if fw.cfg.Checksum.Has(ChecksumBlock) {
		sum := xxhash32.Hash(payload, 0)
		if _, err := fw.w.Write(putUint32LE(sum)); err != nil {
			return errors.Wrap(err, "flushBlock: block checksum")
		}
	}

	fw.inputOffset = 0
	fw.blockCountInFrame++
	fw.ring.Advance()

	if fw.cfg.MaxBlocksPerFrame > 0 && fw.blockCountInFrame >= fw.cfg.MaxBlocksPerFrame {
		return fw.WriteEndFrame()
	}
	return nil
}

// WriteEndFrame closes the current frame, if any, writing the end marker
// and content checksum. It is a no-op if no frame has ever been started or
// none is currently open.
func (fw *Writer) WriteEndFrame() error {
	if !fw.hasStartedAnyFrame || !fw.hasOpenFrame {
		return nil
	}

	if fw.inputOffset > 0 {
		if err := fw.flushBlock(); err != nil {
			return err
		}
		// flushBlock may itself have closed the frame via
		// MaxBlocksPerFrame; nothing more to do in that case.
		if !fw.hasOpenFrame {
			return nil
		}
	}

	if err := writeUint32LE(fw.w, 0); err != nil {
		return errors.Wrap(err, "WriteEndFrame: end marker")
	}

	if fw.contentHash != nil {
		digest := fw.contentHash.Digest()
		if _, err := fw.w.Write(putUint32LE(digest)); err != nil {
			return errors.Wrap(err, "WriteEndFrame: content checksum")
		}
		fw.cfg.logger().WithField("digest", digest).Debug("frame: closed")
	}

	fw.enc.Reset()
	fw.hasOpenFrame = false
	return nil
}

// WriteUserDataFrame writes a skippable user-data frame with the given id
// (0..15) and payload. If no frame has ever started, an empty LZ4 frame is
// emitted first; if a frame is open, it is closed first.
func (fw *Writer) WriteUserDataFrame(id int, data []byte) error {
	if id < 0 || id > 15 {
		return errors.Wrapf(ErrInvalidUserDataID, "id=%d", id)
	}

	if !fw.hasStartedAnyFrame {
		if err := fw.writeEmptyFrame(); err != nil {
			return err
		}
	} else if fw.hasOpenFrame {
		if err := fw.WriteEndFrame(); err != nil {
			return err
		}
	}

	magic := UserDataMagicBase | uint32(id)
	if err := writeUint32LE(fw.w, magic); err != nil {
		return errors.Wrap(err, "WriteUserDataFrame: magic")
	}
	if err := writeUint32LE(fw.w, uint32(len(data))); err != nil {
		return errors.Wrap(err, "WriteUserDataFrame: size")
	}
	if _, err := fw.w.Write(data); err != nil {
		return errors.Wrap(err, "WriteUserDataFrame: payload")
	}

	fw.frameCount++
	fw.cfg.logger().WithFields(map[string]interface{}{"id": id, "len": len(data)}).Debug("user-data frame: written")
	return nil
}

// Close flushes any pending block, closes an open frame, and releases the
// native block encoder. It does not close the underlying writer — lifecycle
// ownership of w is the root package's concern.
func (fw *Writer) Close() error {
	if fw.closed {
		return nil
	}
	fw.closed = true

	var err error
	if fw.inputOffset > 0 {
		err = fw.flushBlock()
	}
	if err == nil && fw.hasOpenFrame {
		err = fw.WriteEndFrame()
	}
	if fw.contentHash != nil {
		fw.contentHash.Close()
	}
	fw.enc.Close()
	return err
}

func writeUint32LE(w io.Writer, v uint32) error {
	_, err := w.Write(putUint32LE(v))
	return err
}

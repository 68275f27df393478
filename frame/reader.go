package frame

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/lz4kiwi/lz4frame/lz4block"
	"github.com/lz4kiwi/lz4frame/ringbuffer"
	"github.com/lz4kiwi/lz4frame/xxhash32"
	"github.com/pkg/errors"
)

// mode names the point the Frame Reader has reached within a frame, the Go
// equivalent of the original decoder's numbered state machine: every step
// below only ever consumes the bytes it needs for that one structural
// element, so it makes forward progress no matter how the underlying
// io.Reader chooses to chunk its deliveries.
type mode int

const (
	modeMagic mode = iota
	modeDescriptorPrefix
	modeDescriptorContentSize
	modeDescriptorChecksum
	modeBlockLength
	modeBlockData
	modeBlockChecksum
	modeContentChecksum
)

// Reader is the pull-driven Frame Reader state machine. It implements
// io.Reader and io.Closer.
type Reader struct {
	src *bufio.Reader
	cfg Config

	mode mode

	header         Header
	descriptorRaw  []byte
	hasContentSize bool

	ring *ringbuffer.Ring
	dec  *lz4block.Decoder

	contentHash *xxhash32.State

	blockLen          uint32
	blockUncompressed bool
	blockBuf          []byte

	out    []byte
	outPos int

	frameCount        uint64
	blockCountInFrame uint64

	err    error
	closed bool
}

// NewReader creates a Frame Reader pulling from r using cfg. BlockSize,
// BlockMode, Checksum and HighCompression in cfg are ignored for decoding —
// Reader adapts to whatever each frame's descriptor says — but Logger and
// OnUserData still apply.
func NewReader(r io.Reader, cfg Config) *Reader {
	return &Reader{
		src: bufio.NewReader(r),
		cfg: cfg,
		dec: lz4block.NewDecoder(),
	}
}

// FrameCount reports how many frames (LZ4 and skippable) have been reached
// so far. An LZ4 frame is counted as soon as its magic is read; a skippable
// frame once its payload has been read.
func (fr *Reader) FrameCount() uint64 { return fr.frameCount }

// Read implements io.Reader, pulling more compressed input as required. It
// decodes one block at a time and returns as soon as decoded bytes are
// available, so a single call returns at most the rest of the current
// block even when p is larger.
func (fr *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if fr.outPos < len(fr.out) {
			n := copy(p, fr.out[fr.outPos:])
			fr.outPos += n
			return n, nil
		}
		if fr.err != nil {
			return 0, fr.err
		}
		if err := fr.advance(); err != nil {
			fr.err = err
			if fr.outPos < len(fr.out) {
				continue
			}
			return 0, err
		}
	}
}

// Close releases the native decompression context. It does not close the
// underlying reader.
func (fr *Reader) Close() error {
	if fr.closed {
		return nil
	}
	fr.closed = true
	fr.dec.Close()
	if fr.contentHash != nil {
		fr.contentHash.Close()
	}
	return nil
}

// advance performs one structural step of the state machine, producing
// either decoded output bytes in fr.out or a terminal error (io.EOF on a
// clean end of stream).
func (fr *Reader) advance() error {
	switch fr.mode {
	case modeMagic:
		return fr.readMagic()
	case modeDescriptorPrefix:
		return fr.readDescriptorPrefix()
	case modeDescriptorContentSize:
		return fr.readDescriptorContentSize()
	case modeDescriptorChecksum:
		return fr.readDescriptorChecksum()
	case modeBlockLength:
		return fr.readBlockLength()
	case modeBlockData:
		return fr.readBlockData()
	case modeBlockChecksum:
		return fr.readBlockChecksum()
	case modeContentChecksum:
		return fr.readContentChecksum()
	default:
		return errors.Errorf("frame: reader in unknown mode %d", fr.mode)
	}
}

func (fr *Reader) fill(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(fr.src, buf)
	return buf, err
}

// readMagic looks for the start of the next LZ4 frame or skippable
// user-data frame. A clean io.EOF here (zero bytes available) ends the
// stream; anything else at this boundary is truncation.
func (fr *Reader) readMagic() error {
	buf := make([]byte, 4)
	_, err := io.ReadFull(fr.src, buf)
	if err == io.EOF {
		return io.EOF
	}
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading magic")
	}

	magic := binary.LittleEndian.Uint32(buf)
	if magic == Magic {
		fr.frameCount++
		fr.blockCountInFrame = 0
		fr.descriptorRaw = nil
		fr.mode = modeDescriptorPrefix
		return nil
	}
	if magic&0xFFFFFFF0 == UserDataMagicBase {
		return fr.skipUserDataFrame(int(magic & 0xF))
	}
	return errors.Wrapf(ErrBadMagic, "0x%08x", magic)
}

func (fr *Reader) skipUserDataFrame(id int) error {
	lenBuf, err := fr.fill(4)
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading user-data length")
	}
	size := binary.LittleEndian.Uint32(lenBuf)
	data := make([]byte, size)
	if _, err := io.ReadFull(fr.src, data); err != nil {
		return errors.Wrap(ErrTruncated, "reading user-data payload")
	}
	fr.frameCount++
	if fr.cfg.OnUserData != nil {
		fr.cfg.OnUserData(id, data)
	}
	fr.cfg.logger().WithFields(map[string]interface{}{"id": id, "len": size}).Debug("user-data frame: skipped")
	return nil
}

func (fr *Reader) readDescriptorPrefix() error {
	buf, err := fr.fill(2)
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading frame descriptor")
	}
	h, hasContentSize, err := decodeDescriptor(buf)
	if err != nil {
		return err
	}
	fr.header = h
	fr.hasContentSize = hasContentSize
	fr.descriptorRaw = buf
	if hasContentSize {
		fr.mode = modeDescriptorContentSize
	} else {
		fr.mode = modeDescriptorChecksum
	}
	return nil
}

func (fr *Reader) readDescriptorContentSize() error {
	buf, err := fr.fill(8)
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading content size")
	}
	size := binary.LittleEndian.Uint64(buf)
	fr.header.ContentSize = &size
	fr.descriptorRaw = append(fr.descriptorRaw, buf...)
	fr.mode = modeDescriptorChecksum
	return nil
}

func (fr *Reader) readDescriptorChecksum() error {
	buf, err := fr.fill(1)
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading descriptor checksum")
	}
	if buf[0] != descriptorChecksum(fr.descriptorRaw) {
		return errors.WithStack(ErrHeaderChecksum)
	}

	blockBytes := fr.header.BlockSize.Bytes()
	if fr.ring == nil || fr.ring.SlotSize() != blockBytes {
		ring, err := ringbuffer.New(2, blockBytes)
		if err != nil {
			return err
		}
		fr.ring = ring
	} else {
		fr.ring.Reset()
	}

	if fr.header.Checksum.Has(ChecksumContent) {
		if fr.contentHash == nil {
			fr.contentHash = xxhash32.New(0)
		} else {
			fr.contentHash.Reset(0)
		}
	}

	fr.cfg.logger().WithFields(map[string]interface{}{
		"blockSize": blockBytes,
		"blockMode": fr.header.BlockMode,
		"checksum":  fr.header.Checksum,
	}).Debug("frame: opened")

	fr.mode = modeBlockLength
	return nil
}

func (fr *Reader) readBlockLength() error {
	buf, err := fr.fill(4)
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading block length")
	}
	word := binary.LittleEndian.Uint32(buf)
	if word == 0 {
		if fr.header.Checksum.Has(ChecksumContent) {
			fr.mode = modeContentChecksum
		} else {
			fr.cfg.logger().Debug("frame: closed")
			fr.mode = modeMagic
		}
		return nil
	}

	fr.blockUncompressed = word&0x80000000 != 0
	fr.blockLen = word &^ 0x80000000
	if int(fr.blockLen) > fr.header.BlockSize.Bytes() {
		return errors.Wrapf(ErrBlockTooLarge, "%d bytes", fr.blockLen)
	}
	if cap(fr.blockBuf) < int(fr.blockLen) {
		fr.blockBuf = make([]byte, fr.blockLen)
	} else {
		fr.blockBuf = fr.blockBuf[:fr.blockLen]
	}
	fr.mode = modeBlockData
	return nil
}

func (fr *Reader) readBlockData() error {
	if _, err := io.ReadFull(fr.src, fr.blockBuf); err != nil {
		return errors.Wrap(ErrTruncated, "reading block data")
	}
	if fr.header.Checksum.Has(ChecksumBlock) {
		fr.mode = modeBlockChecksum
		return nil
	}
	if err := fr.decodeAndFinalizeBlock(); err != nil {
		return err
	}
	fr.mode = modeBlockLength
	return nil
}

func (fr *Reader) readBlockChecksum() error {
	buf, err := fr.fill(4)
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading block checksum")
	}
	expected := binary.LittleEndian.Uint32(buf)
	if actual := xxhash32.Hash(fr.blockBuf, 0); actual != expected {
		return errors.WithStack(ErrBlockChecksum)
	}
	if err := fr.decodeAndFinalizeBlock(); err != nil {
		return err
	}
	fr.mode = modeBlockLength
	return nil
}

func (fr *Reader) decodeAndFinalizeBlock() error {
	dst := fr.ring.Current()
	var n int
	var err error
	if fr.blockUncompressed {
		n = copy(dst, fr.blockBuf)
	} else {
		if fr.header.BlockMode == Linked && fr.blockCountInFrame > 0 {
			err = fr.dec.SetDict(fr.ring.Previous())
		} else {
			err = fr.dec.SetDict(nil)
		}
		if err != nil {
			return err
		}
		n, err = fr.dec.DecompressContinue(dst, fr.blockBuf)
		if err != nil {
			return err
		}
	}

	plaintext := dst[:n]
	if fr.contentHash != nil {
		if err := fr.contentHash.Update(plaintext); err != nil {
			return err
		}
	}
	fr.out = plaintext
	fr.outPos = 0
	fr.blockCountInFrame++
	fr.ring.Advance()
	return nil
}

func (fr *Reader) readContentChecksum() error {
	buf, err := fr.fill(4)
	if err != nil {
		return errors.Wrap(ErrTruncated, "reading content checksum")
	}
	expected := binary.LittleEndian.Uint32(buf)
	actual := fr.contentHash.Digest()
	if actual != expected {
		return errors.WithStack(ErrContentChecksum)
	}
	fr.cfg.logger().WithField("digest", actual).Debug("frame: closed")
	fr.mode = modeMagic
	return nil
}

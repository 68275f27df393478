// Package frame implements the LZ4 Frame state machine: multi-frame
// concatenation, mixed compressed/uncompressed blocks, linked-block
// dictionary windows, three scopes of checksum, skippable user-data frames,
// and byte-incremental decoding.
package frame

import (
	"encoding/binary"

	"github.com/lz4kiwi/lz4frame/xxhash32"
	"github.com/pkg/errors"
)

// Magic is the little-endian magic that begins an LZ4 frame.
const Magic uint32 = 0x184D2204

// UserDataMagicBase is the low nibble-parameterized magic that begins a
// skippable user-data frame; UserDataMagicBase | id (id in 0..15) is the
// full magic for a given user-data id.
const UserDataMagicBase uint32 = 0x184D2A50

// BlockSize identifies one of the four block size classes the LZ4 Frame
// format permits.
type BlockSize int

// The four block size classes the LZ4 Frame format permits, and their
// descriptor ids.
const (
	BlockSize64KB BlockSize = iota
	BlockSize256KB
	BlockSize1MB
	BlockSize4MB
)

// Bytes returns the number of plaintext bytes a block of this size class
// holds.
func (b BlockSize) Bytes() int {
	switch b {
	case BlockSize64KB:
		return 64 * 1024
	case BlockSize256KB:
		return 256 * 1024
	case BlockSize1MB:
		return 1024 * 1024
	case BlockSize4MB:
		return 4 * 1024 * 1024
	default:
		return 0
	}
}

func (b BlockSize) descriptorID() byte {
	switch b {
	case BlockSize64KB:
		return 4
	case BlockSize256KB:
		return 5
	case BlockSize1MB:
		return 6
	case BlockSize4MB:
		return 7
	default:
		return 0
	}
}

func blockSizeFromID(id byte) (BlockSize, bool) {
	switch id {
	case 4:
		return BlockSize64KB, true
	case 5:
		return BlockSize256KB, true
	case 6:
		return BlockSize1MB, true
	case 7:
		return BlockSize4MB, true
	default:
		return 0, false
	}
}

// BlockMode selects whether successive blocks in a frame share a
// dictionary window (Linked) or are decodable independently.
type BlockMode int

const (
	Linked BlockMode = iota
	Independent
)

// ChecksumFlags is a bitmask of the optional checksum scopes a frame can
// carry.
type ChecksumFlags uint8

const (
	ChecksumNone    ChecksumFlags = 0
	ChecksumContent ChecksumFlags = 1 << iota
	ChecksumBlock   ChecksumFlags = 1 << iota
)

// Has reports whether flag is set in f.
func (f ChecksumFlags) Has(flag ChecksumFlags) bool { return f&flag != 0 }

// Header is the parsed (or about-to-be-written) frame descriptor.
type Header struct {
	BlockSize   BlockSize
	BlockMode   BlockMode
	Checksum    ChecksumFlags
	ContentSize *uint64
}

// Sentinel errors this package returns. The root package wraps these with
// its broader ErrorKind taxonomy; callers can still match with errors.Is
// against the sentinels directly.
var (
	ErrBadMagic              = errors.New("frame: invalid magic")
	ErrReservedBit           = errors.New("frame: reserved bit set")
	ErrUnsupportedBlockSize  = errors.New("frame: unsupported block size id")
	ErrDictionaryUnsupported = errors.New("frame: predefined dictionaries are not supported")
	ErrUnexpectedVersion     = errors.New("frame: unexpected frame version")
	ErrHeaderChecksum        = errors.New("frame: frame descriptor checksum mismatch")
	ErrBlockChecksum         = errors.New("frame: block checksum mismatch")
	ErrContentChecksum       = errors.New("frame: content checksum mismatch")
	ErrBlockTooLarge         = errors.New("frame: block size exceeds configured maximum")
	ErrTruncated             = errors.New("frame: truncated stream")
	ErrInvalidUserDataID     = errors.New("frame: user-data id must be in 0..15")
)

// encodeDescriptor renders the 2 or 10 byte frame descriptor (without the
// trailing checksum byte) for h.
func encodeDescriptor(h Header) []byte {
	n := 2
	if h.ContentSize != nil {
		n = 10
	}
	d := make([]byte, n)

	d[0] = 0x40 // version bits
	if h.Checksum.Has(ChecksumContent) {
		d[0] |= 0x04
	}
	if h.ContentSize != nil {
		d[0] |= 0x08
	}
	if h.Checksum.Has(ChecksumBlock) {
		d[0] |= 0x10
	}
	if h.BlockMode == Independent {
		d[0] |= 0x20
	}

	d[1] = h.BlockSize.descriptorID() << 4

	if h.ContentSize != nil {
		binary.LittleEndian.PutUint64(d[2:10], *h.ContentSize)
	}
	return d
}

// descriptorChecksum computes the single trailing checksum byte:
// (xxhash32(descriptorBytes, seed=0) >> 8) & 0xFF.
func descriptorChecksum(descriptor []byte) byte {
	return byte((xxhash32.Hash(descriptor, 0) >> 8) & 0xFF)
}

// decodeDescriptor parses a 2-byte descriptor prefix (content-size bit not
// yet known to the caller) into a Header, returning whether an 8-byte
// content size follows.
func decodeDescriptor(d []byte) (h Header, hasContentSize bool, err error) {
	b0, b1 := d[0], d[1]

	if (b0&0xC0) != 0x40 && (b0&0xC0) != 0x60 {
		return h, false, errors.WithStack(ErrUnexpectedVersion)
	}
	if b0&0x80 != 0 {
		return h, false, errors.WithStack(ErrUnexpectedVersion)
	}
	if b0&0x01 != 0 {
		return h, false, errors.WithStack(ErrDictionaryUnsupported)
	}
	if b0&0x02 != 0 {
		return h, false, errors.WithStack(ErrReservedBit)
	}

	if b0&0x04 != 0 {
		h.Checksum |= ChecksumContent
	}
	hasContentSize = b0&0x08 != 0
	if b0&0x10 != 0 {
		h.Checksum |= ChecksumBlock
	}
	if b0&0x20 != 0 {
		h.BlockMode = Independent
	} else {
		h.BlockMode = Linked
	}

	if b1&0x0F != 0 {
		return h, false, errors.WithStack(ErrReservedBit)
	}
	if b1&0x80 != 0 {
		return h, false, errors.WithStack(ErrReservedBit)
	}

	id := (b1 & 0x70) >> 4
	bs, ok := blockSizeFromID(id)
	if !ok {
		return h, false, errors.Wrapf(ErrUnsupportedBlockSize, "id=%d", id)
	}
	h.BlockSize = bs

	return h, hasContentSize, nil
}

func putUint32LE(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// blockLengthWord packs a block's on-wire length header: 31 bits of byte
// count plus the high "stored uncompressed" flag bit.
func blockLengthWord(size int, uncompressed bool) []byte {
	v := uint32(size)
	if uncompressed {
		v |= 0x80000000
	}
	return putUint32LE(v)
}

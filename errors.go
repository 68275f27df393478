package lz4frame

import (
	"fmt"

	"github.com/lz4kiwi/lz4frame/frame"
	"github.com/lz4kiwi/lz4frame/lz4block"
	"github.com/lz4kiwi/lz4frame/minimal"
	"github.com/lz4kiwi/lz4frame/ringbuffer"
	"github.com/lz4kiwi/lz4frame/xxhash32"
	"github.com/pkg/errors"
)

// ErrorKind classifies every error this package can return, per the
// taxonomy the codec's callers need to tell "your input is bad" from
// "your setup is bad" from "we hit a hard internal failure".
type ErrorKind int

const (
	KindInvalidArgument ErrorKind = iota
	KindUnsupportedOperation
	KindMalformedInput
	KindChecksumMismatch
	KindCodecFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindUnsupportedOperation:
		return "unsupported operation"
	case KindMalformedInput:
		return "malformed input"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindCodecFailure:
		return "codec failure"
	default:
		return "unknown"
	}
}

// CodecError is the concrete error type every exported operation returns.
// Callers that only care about the kind should switch on the Kind field; callers
// that want the original sentinel should use errors.Is/errors.As, which
// unwrap straight through to Err.
type CodecError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("lz4frame: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// ErrUnsupported is returned by operations a direction doesn't support —
// Read on an Encoder, Write on a Decoder, or Seek/SetLength on either,
// mirroring the original stream's CanRead/CanWrite/CanSeek contract.
var ErrUnsupported = errors.New("lz4frame: operation not supported in this direction")

// ErrClosed is returned by operations attempted after Close.
var ErrClosed = errors.New("lz4frame: stream is closed")

// ErrInvalidArgument is the generic invalid-configuration sentinel for
// errors this package originates itself, as opposed to ones classified
// from an underlying package.
var ErrInvalidArgument = errors.New("lz4frame: invalid argument")

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrUnsupported):
		return KindUnsupportedOperation
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ringbuffer.ErrInvalidSlotSize),
		errors.Is(err, ringbuffer.ErrInvalidSlotCount),
		errors.Is(err, lz4block.ErrDictTooLarge),
		errors.Is(err, frame.ErrInvalidUserDataID):
		return KindInvalidArgument
	case errors.Is(err, frame.ErrHeaderChecksum),
		errors.Is(err, frame.ErrBlockChecksum),
		errors.Is(err, frame.ErrContentChecksum):
		return KindChecksumMismatch
	case errors.Is(err, frame.ErrBadMagic),
		errors.Is(err, frame.ErrReservedBit),
		errors.Is(err, frame.ErrUnsupportedBlockSize),
		errors.Is(err, frame.ErrDictionaryUnsupported),
		errors.Is(err, frame.ErrUnexpectedVersion),
		errors.Is(err, frame.ErrBlockTooLarge),
		errors.Is(err, frame.ErrTruncated),
		errors.Is(err, lz4block.ErrDecompressFailed),
		errors.Is(err, minimal.ErrInvalidLengthPrefix),
		errors.Is(err, minimal.ErrTruncated):
		return KindMalformedInput
	case errors.Is(err, lz4block.ErrCompressFailed),
		errors.Is(err, xxhash32.ErrUpdateFailed):
		return KindCodecFailure
	default:
		return KindCodecFailure
	}
}

// wrap turns an underlying error into a *CodecError tagged with op,
// passing nil through unchanged so call sites can `return n, wrap(...)`
// without an extra nil check.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CodecError
	if errors.As(err, &ce) {
		return err
	}
	return &CodecError{Kind: classify(err), Op: op, Err: err}
}

func unsupported(op string) error {
	return &CodecError{Kind: KindUnsupportedOperation, Op: op, Err: ErrUnsupported}
}

package lz4frame

import (
	"io"

	"github.com/lz4kiwi/lz4frame/minimal"
)

// NewMinimalWriter creates a Minimal Frame Codec writer using the default
// 64 KiB block size.
func NewMinimalWriter(w io.Writer) (*minimal.Writer, error) {
	mw, err := minimal.NewWriter(w)
	if err != nil {
		return nil, wrap("NewMinimalWriter", err)
	}
	return mw, nil
}

// NewMinimalWriterSize creates a Minimal Frame Codec writer with an
// explicit block size, scaling its ring buffer to cover LZ4's window when
// blockSize is smaller than 64 KiB.
func NewMinimalWriterSize(w io.Writer, blockSize int) (*minimal.Writer, error) {
	mw, err := minimal.NewWriterSize(w, blockSize)
	if err != nil {
		return nil, wrap("NewMinimalWriterSize", err)
	}
	return mw, nil
}

// NewMinimalReader creates a Minimal Frame Codec reader matched to
// NewMinimalWriter's defaults.
func NewMinimalReader(r io.Reader) *minimal.Reader {
	return minimal.NewReader(r)
}

// NewMinimalReaderSize creates a Minimal Frame Codec reader matched to
// NewMinimalWriterSize's block size.
func NewMinimalReaderSize(r io.Reader, blockSize int) *minimal.Reader {
	return minimal.NewReaderSize(r, blockSize)
}

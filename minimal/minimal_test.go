package minimal

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripDefault(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	want := bytes.Repeat([]byte("minimal frame payload "), 6000)
	_, err = w.Write(want)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewReader(&buf)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestRoundTripSmallBlockScalesRingbuffer(t *testing.T) {
	const blockSize = 4096
	var buf bytes.Buffer
	w, err := NewWriterSize(&buf, blockSize)
	require.NoError(t, err)

	want := bytes.Repeat([]byte("small block stream "), 5000)
	_, err = w.Write(want)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewReaderSize(&buf, blockSize)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestIndependentChunksWithSingleSlot(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriterSlots(&buf, DefaultBlockSize, 1)
	require.NoError(t, err)

	want := bytes.Repeat([]byte("independent chunk body "), 4000)
	_, err = w.Write(want)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewReaderSlots(&buf, DefaultBlockSize, 1)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestEmptyStreamRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewReader(&buf)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestTruncatedStreamRejected(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte("a full chunk of data that will not round trip"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	truncated := buf.Bytes()[:buf.Len()-2]
	r := NewReader(bytes.NewReader(truncated))
	_, err = io.ReadAll(r)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestRingbufferSlotsScaling(t *testing.T) {
	require.Equal(t, 2, ringbufferSlots(DefaultBlockSize))
	require.Equal(t, 2, ringbufferSlots(128*1024))
	require.Equal(t, 32, ringbufferSlots(4096))
}

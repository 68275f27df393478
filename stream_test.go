package lz4frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/lz4kiwi/lz4frame/frame"
	"github.com/stretchr/testify/require"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, WithChecksums(frame.ChecksumContent))
	require.NoError(t, err)

	want := bytes.Repeat([]byte("root package round trip "), 4000)
	_, err = enc.Write(want)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	dec := NewDecoder(&buf)
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.NoError(t, dec.Close())
}

func TestEncoderReadUnsupported(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	require.NoError(t, err)

	_, err = enc.Read(make([]byte, 4))
	var ce *CodecError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, KindUnsupportedOperation, ce.Kind)
}

func TestDecoderWriteUnsupported(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(nil))
	_, err := dec.Write([]byte("x"))
	var ce *CodecError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, KindUnsupportedOperation, ce.Kind)
}

func TestStreamDirectionReporting(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	require.NoError(t, err)
	require.False(t, enc.CanRead())
	require.True(t, enc.CanWrite())

	dec := NewDecoder(&buf)
	require.True(t, dec.CanRead())
	require.False(t, dec.CanWrite())
}

func TestStreamSeekSetLengthLengthPositionUnsupported(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	require.NoError(t, err)

	assertUnsupported := func(err error) {
		t.Helper()
		var ce *CodecError
		require.True(t, errors.As(err, &ce))
		require.Equal(t, KindUnsupportedOperation, ce.Kind)
	}

	_, err = enc.Seek(0, io.SeekStart)
	assertUnsupported(err)
	assertUnsupported(enc.SetLength(0))
	_, err = enc.Length()
	assertUnsupported(err)
	_, err = enc.Position()
	assertUnsupported(err)

	dec := NewDecoder(bytes.NewReader(nil))
	_, err = dec.Seek(0, io.SeekStart)
	assertUnsupported(err)
	assertUnsupported(dec.SetLength(0))
	_, err = dec.Length()
	assertUnsupported(err)
	_, err = dec.Position()
	assertUnsupported(err)
}

func TestInvalidUserDataIDClassifiedAsInvalidArgument(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	require.NoError(t, err)

	err = enc.WriteUserDataFrame(16, []byte("x"))
	var ce *CodecError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, KindInvalidArgument, ce.Kind)
}

func TestDecoderRejectsCorruptContentChecksumAsCodecError(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, WithChecksums(frame.ChecksumContent))
	require.NoError(t, err)
	_, err = enc.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	dec := NewDecoder(bytes.NewReader(corrupted))
	_, err = io.ReadAll(dec)
	var ce *CodecError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, KindChecksumMismatch, ce.Kind)
}

func TestLeaveInnerOpenDoesNotCloseUnderlying(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()

	done := make(chan struct{})
	go func() {
		io.ReadAll(pr)
		close(done)
	}()

	cw := &closeTrackingWriter{Writer: pw}
	enc, err := NewEncoder(cw, WithLeaveInnerOpen(true))
	require.NoError(t, err)
	_, err = enc.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.False(t, cw.closed)
	pw.Close()
	<-done
}

func TestUserDataHandlerOption(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	require.NoError(t, err)
	require.NoError(t, enc.WriteUserDataFrame(5, []byte("meta")))
	_, err = enc.Write([]byte("body"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	var gotID int
	dec := NewDecoder(&buf, WithUserDataHandler(func(id int, data []byte) { gotID = id }))
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, "body", string(got))
	require.Equal(t, 5, gotID)
}

func TestMinimalWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewMinimalWriter(&buf)
	require.NoError(t, err)
	want := bytes.Repeat([]byte("minimal via root package "), 3000)
	_, err = w.Write(want)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewMinimalReader(&buf)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestPullTranscoderRoundTrip(t *testing.T) {
	want := bytes.Repeat([]byte("pull transcoder via root package "), 2000)
	enc, err := NewPullEncoder(bytes.NewReader(want))
	require.NoError(t, err)
	defer enc.Close()

	dec := NewPullDecoder(enc)
	got, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

type closeTrackingWriter struct {
	io.Writer
	closed bool
}

func (c *closeTrackingWriter) Close() error {
	c.closed = true
	return nil
}

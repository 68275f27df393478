package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwoSlotFlip(t *testing.T) {
	r, err := New(2, 4)
	require.NoError(t, err)

	copy(r.Current(), []byte("AAAA"))
	r.Advance()
	copy(r.Current(), []byte("BBBB"))

	require.Equal(t, []byte("BBBB"), r.Current())
	require.Equal(t, []byte("AAAA"), r.Previous())

	r.Advance()
	copy(r.Current(), []byte("CCCC"))
	require.Equal(t, []byte("CCCC"), r.Current())
	require.Equal(t, []byte("BBBB"), r.Previous())
}

func TestMultiSlotWraparound(t *testing.T) {
	r, err := New(3, 2)
	require.NoError(t, err)

	labels := [][]byte{[]byte("A1"), []byte("B2"), []byte("C3"), []byte("D4")}
	for _, l := range labels {
		copy(r.Current(), l)
		r.Advance()
	}
	// after 4 advances over 3 slots we've wrapped once; current slot is
	// slot index 1.
	require.Equal(t, 1*2, r.offset)
}

func TestInvalidConstruction(t *testing.T) {
	_, err := New(2, 0)
	require.ErrorIs(t, err, ErrInvalidSlotSize)
	_, err = New(0, 4)
	require.ErrorIs(t, err, ErrInvalidSlotCount)
}

func TestSingleSlotAlwaysCurrent(t *testing.T) {
	r, err := New(1, 4)
	require.NoError(t, err)

	copy(r.Current(), []byte("AAAA"))
	r.Advance()
	require.Equal(t, []byte("AAAA"), r.Current())
	copy(r.Current(), []byte("BBBB"))
	r.Advance()
	require.Equal(t, []byte("BBBB"), r.Current())
}

func TestReset(t *testing.T) {
	r, err := New(2, 4)
	require.NoError(t, err)
	r.Advance()
	require.NotEqual(t, 0, r.offset)
	r.Reset()
	require.Equal(t, 0, r.offset)
}

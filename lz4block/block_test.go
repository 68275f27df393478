package lz4block

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressBound(t *testing.T) {
	require.Equal(t, 16, CompressBound(0))
	require.Equal(t, 17, CompressBound(1))
	require.Equal(t, 270, CompressBound(254))
	require.Equal(t, 272, CompressBound(255))
	require.Equal(t, 528, CompressBound(510))
}

func TestEncoderLinkedBlocks(t *testing.T) {
	enc := NewEncoder()
	defer enc.Close()
	dec := NewDecoder()
	defer dec.Close()

	blockA := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 2000))
	blockB := append([]byte("the quick brown fox jumps over the lazy dog."), blockA[:2000]...)

	dstA := make([]byte, CompressBound(len(blockA)))
	nA, err := enc.CompressContinue(dstA, blockA)
	require.NoError(t, err)
	dstA = dstA[:nA]

	dstB := make([]byte, CompressBound(len(blockB)))
	nB, err := enc.CompressContinue(dstB, blockB)
	require.NoError(t, err)
	dstB = dstB[:nB]

	require.NoError(t, dec.SetDict(nil))
	outA := make([]byte, len(blockA))
	nA, err = dec.DecompressContinue(outA, dstA)
	require.NoError(t, err)
	require.Equal(t, blockA, outA[:nA])

	require.NoError(t, dec.SetDict(blockA))
	outB := make([]byte, len(blockB))
	nB, err = dec.DecompressContinue(outB, dstB)
	require.NoError(t, err)
	require.Equal(t, blockB, outB[:nB])
}

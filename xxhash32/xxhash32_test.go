package xxhash32

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEmptyDigest pins the known-answer value for an empty input:
// xxhash32("", seed=0) == 0x02CC5D05.
func TestEmptyDigest(t *testing.T) {
	require.Equal(t, uint32(0x02CC5D05), Hash(nil, 0))
}

func TestIncrementalMatchesOneShot(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	want := Hash(data, 0)

	s := New(0)
	defer s.Close()
	require.NoError(t, s.Update(data[:10]))
	require.NoError(t, s.Update(data[10:]))
	require.Equal(t, want, s.Digest())
}

func TestResetReseeds(t *testing.T) {
	s := New(1234)
	defer s.Close()
	require.NoError(t, s.Update([]byte("abc")))
	withSeed := s.Digest()

	s.Reset(0)
	require.NoError(t, s.Update([]byte("abc")))
	withoutSeed := s.Digest()

	require.NotEqual(t, withSeed, withoutSeed)
	require.Equal(t, Hash([]byte("abc"), 0), withoutSeed)
}

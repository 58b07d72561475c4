package box

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStream_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemoryStream()
	require.NoError(t, m.WriteUI32(0xdeadbeef))
	require.NoError(t, m.WriteUI08(0x42))
	require.NoError(t, m.Seek(0))

	v, err := m.ReadUI32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), v)

	b, err := m.ReadUI08()
	require.NoError(t, err)
	require.Equal(t, uint8(0x42), b)
}

func TestMemoryStream_SeekPastEndThenWriteZeroFills(t *testing.T) {
	t.Parallel()

	m := NewMemoryStream()
	require.NoError(t, m.Seek(4))
	require.NoError(t, m.WriteUI08(0xff))

	require.Equal(t, []byte{0, 0, 0, 0, 0xff}, m.Bytes())
}

func TestMemoryStream_ReadPastEndFails(t *testing.T) {
	t.Parallel()

	m := WrapMemoryStream([]byte{1, 2, 3})
	_, err := m.ReadUI32()
	require.Error(t, err)
	require.Equal(t, CodeNotEnoughData, CodeOf(err))
}

func TestSubStream_BoundsEnforced(t *testing.T) {
	t.Parallel()

	backing := WrapMemoryStream([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	sub := NewSubStream(backing, 2, 4)

	require.Equal(t, int64(4), sub.Len())
	require.Equal(t, int64(4), sub.Remaining())

	var buf [4]byte
	require.NoError(t, sub.Read(buf[:]))
	require.Equal(t, []byte{3, 4, 5, 6}, buf[:])
	require.Equal(t, int64(0), sub.Remaining())

	var one [1]byte
	require.Error(t, sub.Read(one[:]))
}

func TestSubStream_WriteStaysWithinBacking(t *testing.T) {
	t.Parallel()

	backing := NewMemoryStream()
	require.NoError(t, backing.Seek(0))
	require.NoError(t, backing.Write(make([]byte, 8)))
	require.NoError(t, backing.Seek(0))

	sub := NewSubStream(backing, 2, 4)
	require.NoError(t, sub.Write([]byte{0xaa, 0xbb, 0xcc, 0xdd}))

	require.Equal(t, []byte{0, 0, 0xaa, 0xbb, 0xcc, 0xdd, 0, 0}, backing.Bytes())
}

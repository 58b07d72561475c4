package box

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringAtom_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	a := NewStringAtom(StringToFourCC("albm"), false, "hello")

	s := NewMemoryStream()
	require.NoError(t, a.Write(s))
	require.Equal(t, uint64(8+6), a.Size())
	require.NoError(t, s.Seek(0))

	RegisterBoxFactory(StringToFourCC("albm"), NewStringAtomFactory())
	f := NewAtomFactory()
	got, err := f.CreateAtomFromStream(s, nil)
	require.NoError(t, err)

	sa, ok := got.(*StringAtom)
	require.True(t, ok)
	require.Equal(t, "hello", sa.Value)
	require.Equal(t, a.Size(), sa.Size())
}

func TestStringAtom_ForcesNullTerminationOnTruncatedValue(t *testing.T) {
	t.Parallel()

	s := NewMemoryStream()
	require.NoError(t, s.Write([]byte("abc")))
	require.NoError(t, s.Seek(0))

	sub := NewSubStream(s, 0, 3)
	got, err := readStringAtom(StringToFourCC("albm"), ParsedHeader{}, sub)
	require.NoError(t, err)
	require.Equal(t, "ab", got.Value)
}

func TestStringAtom_WritePreservesDeclaredPadding(t *testing.T) {
	t.Parallel()

	s := NewMemoryStream()
	require.NoError(t, s.Write([]byte("ab\x00\x00\x00")))
	require.NoError(t, s.Seek(0))

	sub := NewSubStream(s, 0, 5)
	got, err := readStringAtom(StringToFourCC("albm"), ParsedHeader{}, sub)
	require.NoError(t, err)
	require.Equal(t, "ab", got.Value)

	out := NewMemoryStream()
	require.NoError(t, got.Write(out))
	require.Equal(t, []byte("ab\x00\x00\x00"), out.Bytes()[8:])
}

func TestStringAtom_Clone(t *testing.T) {
	t.Parallel()

	a := NewStringAtom(StringToFourCC("albm"), false, "clone me")
	clone, err := a.Clone()
	require.NoError(t, err)

	cs, ok := clone.(*StringAtom)
	require.True(t, ok)
	require.Equal(t, a.Value, cs.Value)
	require.Nil(t, cs.Parent())
}

package box

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeader_HeaderSizeEncodings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		h        header
		expected uint32
	}{
		{name: "short_leaf", h: header{size32: 16}, expected: 8},
		{name: "long_form", h: header{forceLong: true}, expected: 16},
		{name: "full_atom", h: header{isFull: true}, expected: 12},
		{name: "uuid_typed", h: header{isUUID: true}, expected: 24},
		{name: "long_full_uuid", h: header{forceLong: true, isFull: true, isUUID: true}, expected: 36},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, tt.h.HeaderSize())
		})
	}
}

func TestHeader_SetSize_MinimalEncodingUnlessForced(t *testing.T) {
	t.Parallel()

	var h header
	h.SetSize(1000, false)
	require.Equal(t, uint32(1000), h.size32)
	require.False(t, h.forceLong)

	h.SetSize(1000, true)
	require.Equal(t, uint32(1), h.size32)
	require.Equal(t, uint64(1000), h.size64)
	require.True(t, h.forceLong)

	var h2 header
	h2.SetSize(uint64(1)<<33, false)
	require.Equal(t, uint32(1), h2.size32)
	require.Equal(t, uint64(1)<<33, h2.size64)
}

func TestUnknownAtom_WriteRoundTrip(t *testing.T) {
	t.Parallel()

	u := NewUnknownAtomBuffered(StringToFourCC("free"), false, []byte{0, 0, 0, 0, 0, 0, 0, 0})
	u.SetSize(16, false)

	s := NewMemoryStream()
	require.NoError(t, u.Write(s))
	require.Equal(t, uint64(16), u.Size())

	want := append([]byte{0, 0, 0, 16}, []byte("free")...)
	want = append(want, make([]byte, 8)...)
	require.Equal(t, want, s.Bytes())
}

func TestDetach_RemovesFromParent(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	parent := NewContainerAtom(StringToFourCC("moov"), false, f)
	child := NewUnknownAtomBuffered(StringToFourCC("free"), false, nil)

	require.NoError(t, parent.AddChild(child, -1))
	require.Equal(t, Atom(parent), child.Parent())

	child.Detach()
	require.Nil(t, child.Parent())
	require.Empty(t, parent.Children())
}

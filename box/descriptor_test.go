package box

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescSize_BoundaryValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    uint32
		want []byte
	}{
		{name: "one_byte_max", n: 0x7F, want: []byte{0x7F}},
		{name: "two_byte_min", n: 0x80, want: []byte{0x81, 0x00}},
		{name: "two_byte_max", n: 0x3FFF, want: []byte{0xFF, 0x7F}},
		{name: "three_byte_min", n: 0x4000, want: []byte{0x81, 0x80, 0x00}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewMemoryStream()
			require.NoError(t, encodeDescSize(s, tt.n))
			require.Equal(t, tt.want, s.Bytes())

			require.NoError(t, s.Seek(0))
			got, length, err := decodeDescSize(s)
			require.NoError(t, err)
			require.Equal(t, tt.n, got)
			require.Equal(t, uint32(len(tt.want)), length)
		})
	}
}

func TestDescSize_RoundTripSweep(t *testing.T) {
	t.Parallel()

	values := []uint32{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 0x1FFFFF, 0x200000, 0xFFFFFFF}
	for _, n := range values {
		s := NewMemoryStream()
		require.NoError(t, encodeDescSize(s, n))
		require.LessOrEqual(t, len(s.Bytes()), 4)
		require.Equal(t, sizeLen(n), uint32(len(s.Bytes())))

		require.NoError(t, s.Seek(0))
		got, _, err := decodeDescSize(s)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestEsDescriptor_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	e := NewEsDescriptor()
	e.EsID = 7
	e.StreamDependenceFlag = true
	e.DependsOnEsID = 3
	e.UrlFlag = true
	e.Url = "rtsp://x"
	e.OcrStreamFlag = true
	e.OcrEsID = 99
	e.StreamPriority = 0x1f

	s := NewMemoryStream()
	require.NoError(t, e.Write(s))

	require.NoError(t, s.Seek(0))
	f := NewDescriptorFactory()
	d, err := f.ReadDescriptor(s)
	require.NoError(t, err)

	got, ok := d.(*EsDescriptor)
	require.True(t, ok)
	require.Equal(t, e.EsID, got.EsID)
	require.Equal(t, e.StreamDependenceFlag, got.StreamDependenceFlag)
	require.Equal(t, e.DependsOnEsID, got.DependsOnEsID)
	require.Equal(t, e.UrlFlag, got.UrlFlag)
	require.Equal(t, e.Url, got.Url)
	require.Equal(t, e.OcrStreamFlag, got.OcrStreamFlag)
	require.Equal(t, e.OcrEsID, got.OcrEsID)
	require.Equal(t, e.StreamPriority, got.StreamPriority)
	require.Equal(t, e.Size(), got.Size())
}

func TestEsDescriptor_WithNestedEsIdIncChild(t *testing.T) {
	t.Parallel()

	e := NewEsDescriptor()
	e.EsID = 1
	inc := NewEsIdIncDescriptor()
	inc.TrackID = 42
	e.AddChild(inc)

	s := NewMemoryStream()
	require.NoError(t, e.Write(s))
	require.NoError(t, s.Seek(0))

	f := NewDescriptorFactory()
	d, err := f.ReadDescriptor(s)
	require.NoError(t, err)

	got := d.(*EsDescriptor)
	require.Len(t, got.Children(), 1)
	child, ok := got.Children()[0].(*EsIdIncDescriptor)
	require.True(t, ok)
	require.Equal(t, uint32(42), child.TrackID)
}

func TestEsIdRefDescriptor_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	e := NewEsIdRefDescriptor()
	e.RefIndex = 5

	s := NewMemoryStream()
	require.NoError(t, e.Write(s))
	require.NoError(t, s.Seek(0))

	f := NewDescriptorFactory()
	d, err := f.ReadDescriptor(s)
	require.NoError(t, err)
	got := d.(*EsIdRefDescriptor)
	require.Equal(t, uint16(5), got.RefIndex)
}

func TestUnknownDescriptor_FallbackOnUnregisteredTag(t *testing.T) {
	t.Parallel()

	s := NewMemoryStream()
	require.NoError(t, s.WriteUI08(0x7F)) // unregistered tag
	require.NoError(t, encodeDescSize(s, 3))
	require.NoError(t, s.Write([]byte{1, 2, 3}))
	require.NoError(t, s.Seek(0))

	f := NewDescriptorFactory()
	d, err := f.ReadDescriptor(s)
	require.NoError(t, err)

	u, ok := d.(*UnknownDescriptor)
	require.True(t, ok)
	require.Equal(t, uint8(0x7F), u.Tag())
	require.Equal(t, []byte{1, 2, 3}, u.buffered)
}

package box

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRtpConstructor_RejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := NewRtpConstructor(0xff)
	require.Error(t, err)
	require.Equal(t, CodeInvalidRtpConstructorType, CodeOf(err))

	c, err := NewRtpConstructor(RtpConstructorSample)
	require.NoError(t, err)
	require.Equal(t, uint8(RtpConstructorSample), c.Type)
}

func TestRtpPacket_WriteReadRoundTrip_NoExtra(t *testing.T) {
	t.Parallel()

	immediate, err := NewRtpConstructor(RtpConstructorImmediate)
	require.NoError(t, err)
	sample, err := NewRtpConstructor(RtpConstructorSample)
	require.NoError(t, err)

	p := RtpPacket{
		RelativeTime: 12345,
		FlagsByte1:   0x01,
		FlagsByte3:   0x02,
		SequenceSeed: 99,
		Constructors: []RtpConstructor{immediate, sample},
	}

	s := NewMemoryStream()
	require.NoError(t, p.write(s))
	require.NoError(t, s.Seek(0))

	got, err := readRtpPacket(s)
	require.NoError(t, err)
	require.Equal(t, p.RelativeTime, got.RelativeTime)
	require.Equal(t, p.FlagsByte1, got.FlagsByte1)
	require.Equal(t, p.FlagsByte3, got.FlagsByte3)
	require.Equal(t, p.SequenceSeed, got.SequenceSeed)
	require.Equal(t, p.Constructors, got.Constructors)
	require.False(t, got.hasExtra())
}

func TestRtpPacket_TimestampOffsetRoundTrip(t *testing.T) {
	t.Parallel()

	var p RtpPacket
	_, ok := p.TimestampOffset()
	require.False(t, ok)

	p.SetTimestampOffset(0xaabbccdd)
	v, ok := p.TimestampOffset()
	require.True(t, ok)
	require.Equal(t, uint32(0xaabbccdd), v)

	s := NewMemoryStream()
	require.NoError(t, p.write(s))
	require.NoError(t, s.Seek(0))

	got, err := readRtpPacket(s)
	require.NoError(t, err)
	gotV, ok := got.TimestampOffset()
	require.True(t, ok)
	require.Equal(t, uint32(0xaabbccdd), gotV)

	p.SetTimestampOffset(0x11223344)
	require.Len(t, p.Extra, 1)
	v2, _ := p.TimestampOffset()
	require.Equal(t, uint32(0x11223344), v2)
}

func TestRtpPacket_SkipsUnknownExtraTagTolerantly(t *testing.T) {
	t.Parallel()

	s := NewMemoryStream()
	require.NoError(t, s.WriteUI32(0))    // relative_time
	require.NoError(t, s.WriteUI08(0))    // flags1
	require.NoError(t, s.WriteUI08(0))    // flags2
	require.NoError(t, s.WriteUI16(0))    // sequence_seed
	require.NoError(t, s.WriteUI08(0))    // unused
	require.NoError(t, s.WriteUI08(0x04)) // flags3 with extra bit set
	require.NoError(t, s.WriteUI16(0))    // constructor count

	unknownEntry := []byte{0, 0, 0, 0} // 4-byte value for the unknown tag
	entryLen := uint32(8 + len(unknownEntry))
	require.NoError(t, s.WriteUI32(4+entryLen)) // extra_data length (4-byte count + entry)
	require.NoError(t, s.WriteUI32(entryLen))
	require.NoError(t, s.WriteUI32(0x41414141)) // unrecognized tag
	require.NoError(t, s.Write(unknownEntry))

	require.NoError(t, s.Seek(0))
	p, err := readRtpPacket(s)
	require.NoError(t, err)
	require.Empty(t, p.Extra)
	require.Empty(t, p.Constructors)
}

func TestRtpSampleData_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewRtpConstructor(RtpConstructorNoop)
	require.NoError(t, err)

	r := &RtpSampleData{
		Reserved: 7,
		Packets: []RtpPacket{
			{RelativeTime: 1, Constructors: []RtpConstructor{c}},
			{RelativeTime: 2, Constructors: nil},
		},
		TrailingExtra: []byte{0xde, 0xad},
	}

	s := NewMemoryStream()
	require.NoError(t, r.Write(s))
	require.NoError(t, s.Seek(0))

	got, err := ParseRtpSampleData(s)
	require.NoError(t, err)
	require.Equal(t, r.Reserved, got.Reserved)
	require.Len(t, got.Packets, 2)
	require.Equal(t, r.Packets[0].Constructors, got.Packets[0].Constructors)
	require.Equal(t, r.TrailingExtra, got.TrailingExtra)
}

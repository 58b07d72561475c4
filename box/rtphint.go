package box

import "github.com/ugparu/isobmff/bits/pio"

// RTP hint constructor types (§4.8): the first byte of every 16-byte
// constructor record.
const (
	RtpConstructorNoop       = 0
	RtpConstructorImmediate  = 1
	RtpConstructorSample     = 2
	RtpConstructorSampleDesc = 3
)

// rtpExtraTag is the only extra-data tag this package understands (§4.8):
// an RTP timestamp offset.
const rtpExtraTag = 0x7274706f // "rtpo"

// RtpConstructor is one 16-byte region descriptor inside an RtpPacket's
// constructor list (§4.8, GLOSSARY). Only the first byte (its type) is
// interpreted generically here; the remaining 15 bytes are opaque to this
// package and simply round-trip, since their semantics (which sample,
// which byte range) are exactly the "specific box semantics" §1 assigns to
// external collaborators.
type RtpConstructor struct {
	Type uint8
	Data [15]byte
}

// NewRtpConstructor returns a constructor of the given type with a zeroed
// payload.
func NewRtpConstructor(typ uint8) (RtpConstructor, error) {
	switch typ {
	case RtpConstructorNoop, RtpConstructorImmediate, RtpConstructorSample, RtpConstructorSampleDesc:
		return RtpConstructor{Type: typ}, nil
	default:
		return RtpConstructor{}, newErr(CodeInvalidRtpConstructorType, "NewRtpConstructor: unrecognized type", 0, nil)
	}
}

func readRtpConstructor(s ByteStream) (RtpConstructor, error) {
	var c RtpConstructor
	typ, err := s.ReadUI08()
	if err != nil {
		return c, newErr(CodeNotEnoughData, "RtpConstructor: truncated", 0, err)
	}
	c.Type = typ
	if err := s.Read(c.Data[:]); err != nil {
		return c, newErr(CodeNotEnoughData, "RtpConstructor: truncated", 0, err)
	}
	return c, nil
}

func (c RtpConstructor) write(s ByteStream) error {
	if err := s.WriteUI08(c.Type); err != nil {
		return err
	}
	return s.Write(c.Data[:])
}

// RtpExtraEntry is one `{length, tag, value}` record from an RtpPacket's
// optional extra-data block (§4.8). Only the rtpo tag is decoded into
// TimestampOffset; every other tag's Value is kept opaque and round-trips.
type RtpExtraEntry struct {
	Tag   uint32
	Value []byte
}

// RtpPacket is one packetization instruction: a 12-byte envelope, an
// optional extra-data block, and exactly ConstructorCount 16-byte
// constructors (§4.8).
type RtpPacket struct {
	RelativeTime uint32
	FlagsByte1   uint8
	FlagsByte2   uint8
	SequenceSeed uint16
	FlagsByte3   uint8
	Extra        []RtpExtraEntry
	Constructors []RtpConstructor
}

// TimestampOffset returns the decoded rtpo extra-data entry's value, and
// whether one was present.
func (p *RtpPacket) TimestampOffset() (uint32, bool) {
	for _, e := range p.Extra {
		if e.Tag == rtpExtraTag && len(e.Value) >= 4 {
			return pio.U32BE(e.Value), true
		}
	}
	return 0, false
}

// SetTimestampOffset installs or replaces the rtpo extra-data entry.
func (p *RtpPacket) SetTimestampOffset(v uint32) {
	buf := make([]byte, 4)
	pio.PutU32BE(buf, v)
	for i := range p.Extra {
		if p.Extra[i].Tag == rtpExtraTag {
			p.Extra[i].Value = buf
			return
		}
	}
	p.Extra = append(p.Extra, RtpExtraEntry{Tag: rtpExtraTag, Value: buf})
}

func (p *RtpPacket) hasExtra() bool { return len(p.Extra) > 0 }

func (p *RtpPacket) extraSize() uint32 {
	if !p.hasExtra() {
		return 0
	}
	n := uint32(4)
	for _, e := range p.Extra {
		n += 8 + uint32(len(e.Value))
	}
	return n
}

func readRtpPacket(s ByteStream) (RtpPacket, error) {
	var p RtpPacket
	relTime, err := s.ReadUI32()
	if err != nil {
		return p, newErr(CodeNotEnoughData, "RtpPacket: truncated envelope", 0, err)
	}
	p.RelativeTime = relTime
	f1, err := s.ReadUI08()
	if err != nil {
		return p, newErr(CodeNotEnoughData, "RtpPacket: truncated envelope", 0, err)
	}
	p.FlagsByte1 = f1
	f2, err := s.ReadUI08()
	if err != nil {
		return p, newErr(CodeNotEnoughData, "RtpPacket: truncated envelope", 0, err)
	}
	p.FlagsByte2 = f2
	seed, err := s.ReadUI16()
	if err != nil {
		return p, newErr(CodeNotEnoughData, "RtpPacket: truncated envelope", 0, err)
	}
	p.SequenceSeed = seed
	if _, err := s.ReadUI08(); err != nil { // unused
		return p, newErr(CodeNotEnoughData, "RtpPacket: truncated envelope", 0, err)
	}
	f3, err := s.ReadUI08()
	if err != nil {
		return p, newErr(CodeNotEnoughData, "RtpPacket: truncated envelope", 0, err)
	}
	p.FlagsByte3 = f3
	count, err := s.ReadUI16()
	if err != nil {
		return p, newErr(CodeNotEnoughData, "RtpPacket: truncated envelope", 0, err)
	}

	// The extra-data-present flag lives in flags_byte3, not flags_byte2:
	// flags_byte2's low bits belong to the 7-bit payload_type field, so
	// testing a bit there would corrupt it instead of gating extra-data.
	if p.FlagsByte3&0x04 != 0 {
		extraLen, err := s.ReadUI32()
		if err != nil {
			return p, newErr(CodeNotEnoughData, "RtpPacket: truncated extra-data length", 0, err)
		}
		remaining := int64(extraLen) - 4
		for remaining > 0 {
			entryLen, err := s.ReadUI32()
			if err != nil {
				return p, newErr(CodeNotEnoughData, "RtpPacket: truncated extra-data entry", 0, err)
			}
			tag, err := s.ReadUI32()
			if err != nil {
				return p, newErr(CodeNotEnoughData, "RtpPacket: truncated extra-data entry", 0, err)
			}
			valLen := int64(entryLen) - 8
			if valLen < 0 {
				return p, newErr(CodeInvalidFormat, "RtpPacket: extra-data entry shorter than its own header", 0, nil)
			}
			if tag == rtpExtraTag {
				val := make([]byte, valLen)
				if valLen > 0 {
					if err := s.Read(val); err != nil {
						return p, newErr(CodeNotEnoughData, "RtpPacket: truncated extra-data value", 0, err)
					}
				}
				p.Extra = append(p.Extra, RtpExtraEntry{Tag: tag, Value: val})
			} else {
				// Tolerated with continuation (§7 class 3): an unknown tag
				// is skipped rather than failing the packet.
				if err := skipBytes(s, valLen); err != nil {
					return p, err
				}
			}
			remaining -= int64(entryLen)
		}
	}

	p.Constructors = make([]RtpConstructor, count)
	for i := range p.Constructors {
		c, err := readRtpConstructor(s)
		if err != nil {
			return p, err
		}
		p.Constructors[i] = c
	}
	return p, nil
}

func skipBytes(s ByteStream, n int64) error {
	if n <= 0 {
		return nil
	}
	pos, err := s.Tell()
	if err != nil {
		return err
	}
	return s.Seek(pos + n)
}

func (p *RtpPacket) write(s ByteStream) error {
	if err := s.WriteUI32(p.RelativeTime); err != nil {
		return err
	}
	if err := s.WriteUI08(p.FlagsByte1); err != nil {
		return err
	}
	if err := s.WriteUI08(p.FlagsByte2); err != nil {
		return err
	}
	if err := s.WriteUI16(p.SequenceSeed); err != nil {
		return err
	}
	if err := s.WriteUI08(0); err != nil { // unused
		return err
	}
	flags3 := p.FlagsByte3
	if p.hasExtra() {
		flags3 |= 0x04
	} else {
		flags3 &^= 0x04
	}
	if err := s.WriteUI08(flags3); err != nil {
		return err
	}
	if err := s.WriteUI16(uint16(len(p.Constructors))); err != nil {
		return err
	}
	if p.hasExtra() {
		if err := s.WriteUI32(p.extraSize()); err != nil {
			return err
		}
		for _, e := range p.Extra {
			if err := s.WriteUI32(uint32(8 + len(e.Value))); err != nil {
				return err
			}
			if err := s.WriteUI32(e.Tag); err != nil {
				return err
			}
			if len(e.Value) > 0 {
				if err := s.Write(e.Value); err != nil {
					return err
				}
			}
		}
	}
	for _, c := range p.Constructors {
		if err := c.write(s); err != nil {
			return err
		}
	}
	return nil
}

// RtpSampleData is the full packetization blob (§4.8): a packet_count
// header followed by that many RtpPackets and an opaque trailing
// extra-data tail.
type RtpSampleData struct {
	Reserved      uint16
	Packets       []RtpPacket
	TrailingExtra []byte
}

// ParseRtpSampleData reads an RtpSampleData occupying the whole of s
// (§4.8's "stream of known total size").
func ParseRtpSampleData(s ByteStream) (*RtpSampleData, error) {
	total, err := s.GetSize()
	if err != nil {
		return nil, err
	}
	count, err := s.ReadUI16()
	if err != nil {
		return nil, newErr(CodeNotEnoughData, "RtpSampleData: truncated header", 0, err)
	}
	reserved, err := s.ReadUI16()
	if err != nil {
		return nil, newErr(CodeNotEnoughData, "RtpSampleData: truncated header", 0, err)
	}
	r := &RtpSampleData{Reserved: reserved}
	r.Packets = make([]RtpPacket, count)
	for i := range r.Packets {
		p, err := readRtpPacket(s)
		if err != nil {
			return nil, err
		}
		r.Packets[i] = p
	}
	pos, err := s.Tell()
	if err != nil {
		return nil, err
	}
	if remaining := int64(total) - pos; remaining > 0 {
		buf := make([]byte, remaining)
		if err := s.Read(buf); err != nil {
			return nil, err
		}
		r.TrailingExtra = buf
	}
	return r, nil
}

// Write serializes r back to its on-wire form.
func (r *RtpSampleData) Write(s ByteStream) error {
	if err := s.WriteUI16(uint16(len(r.Packets))); err != nil {
		return err
	}
	if err := s.WriteUI16(r.Reserved); err != nil {
		return err
	}
	for i := range r.Packets {
		if err := r.Packets[i].write(s); err != nil {
			return err
		}
	}
	if len(r.TrailingExtra) > 0 {
		return s.Write(r.TrailingExtra)
	}
	return nil
}

// Inspect renders r through insp, one array entry per packet.
func (r *RtpSampleData) Inspect(insp AtomInspector) error {
	if err := insp.StartObject("rtp_sample_data", 2, false); err != nil {
		return err
	}
	if err := insp.AddUint("reserved", uint64(r.Reserved), false); err != nil {
		return err
	}
	if err := insp.StartArray("packets", len(r.Packets)); err != nil {
		return err
	}
	for i := range r.Packets {
		if err := inspectRtpPacket(&r.Packets[i], insp); err != nil {
			return err
		}
	}
	if err := insp.EndArray(); err != nil {
		return err
	}
	return insp.EndObject()
}

func inspectRtpPacket(p *RtpPacket, insp AtomInspector) error {
	if err := insp.StartObject("", 3, true); err != nil {
		return err
	}
	if err := insp.AddUint("relative_time", uint64(p.RelativeTime), false); err != nil {
		return err
	}
	if err := insp.AddUint("sequence_seed", uint64(p.SequenceSeed), false); err != nil {
		return err
	}
	if err := insp.AddUint("constructor_count", uint64(len(p.Constructors)), false); err != nil {
		return err
	}
	return insp.EndObject()
}

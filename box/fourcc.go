package box

import "github.com/ugparu/isobmff/bits/pio"

// FourCC is a 32-bit box or extended-type identifier, conventionally four
// printable ASCII characters.
type FourCC uint32

// UUIDTag is the FourCC carried by a uuid-typed box: its first 16 payload
// bytes are an extended type rather than ordinary payload.
const UUIDTag FourCC = 0x75756964 // "uuid"

// MdatTag is exempted from UnknownAtom's eager-buffering rule (§4.4): media
// data is never small enough to be worth copying into memory.
const MdatTag FourCC = 0x6d646174 // "mdat"

// StringToFourCC packs the first four bytes of s (padded with spaces) into
// a FourCC.
func StringToFourCC(s string) FourCC {
	var b [4]byte
	for i := 0; i < 4; i++ {
		if i < len(s) {
			b[i] = s[i]
		} else {
			b[i] = ' '
		}
	}
	return FourCC(pio.U32BE(b[:]))
}

// String renders the four bytes as ASCII text; non-printable bytes pass
// through verbatim, matching the original on-wire bytes for round-trip
// debugging.
func (t FourCC) String() string {
	b := [4]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	return string(b[:])
}

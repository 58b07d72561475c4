// Package pio provides fixed-width big-endian encode/decode helpers used
// throughout the box and descriptor readers. It mirrors the small
// utils/bits/pio package shared by the rest of this family of libraries.
package pio

// U8 reads one byte.
func U8(b []byte) uint8 {
	return b[0]
}

// PutU8 writes one byte.
func PutU8(b []byte, v uint8) {
	b[0] = v
}

// U16BE reads a big-endian uint16.
func U16BE(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// PutU16BE writes a big-endian uint16.
func PutU16BE(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

// U24BE reads a big-endian 24-bit unsigned integer.
func U24BE(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// PutU24BE writes a big-endian 24-bit unsigned integer. The top 8 bits of v
// are ignored.
func PutU24BE(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// U32BE reads a big-endian uint32.
func U32BE(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// PutU32BE writes a big-endian uint32.
func PutU32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// U64BE reads a big-endian uint64.
func U64BE(b []byte) uint64 {
	return uint64(U32BE(b))<<32 | uint64(U32BE(b[4:]))
}

// PutU64BE writes a big-endian uint64.
func PutU64BE(b []byte, v uint64) {
	PutU32BE(b, uint32(v>>32))
	PutU32BE(b[4:], uint32(v))
}

// I64BE reads a big-endian int64.
func I64BE(b []byte) int64 {
	return int64(U64BE(b))
}

// PutI64BE writes a big-endian int64.
func PutI64BE(b []byte, v int64) {
	PutU64BE(b, uint64(v))
}

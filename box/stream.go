package box

import (
	"io"
	"os"

	"github.com/ugparu/isobmff/bits/pio"
)

// ByteStream is a random-access octet source/sink. It is the one I/O
// abstraction the box and descriptor stacks depend on; everything else in
// this package is built in terms of it.
//
// All operations return an error instead of panicking or truncating
// silently: a short read is CodeNotEnoughData, never a partial result.
type ByteStream interface {
	// Read fills buf completely or fails with CodeNotEnoughData.
	Read(buf []byte) error
	// Write writes buf in full, extending a growable stream as needed.
	Write(buf []byte) error
	// Seek moves the cursor to an absolute position.
	Seek(pos int64) error
	// Tell reports the current cursor position.
	Tell() (int64, error)
	// GetSize reports the total addressable size of the stream.
	GetSize() (uint64, error)
	// CopyTo copies n bytes from the current position of this stream to
	// dst's current position, advancing both cursors.
	CopyTo(dst ByteStream, n int64) error

	ReadUI08() (uint8, error)
	ReadUI16() (uint16, error)
	ReadUI24() (uint32, error)
	ReadUI32() (uint32, error)
	ReadUI64() (uint64, error)

	WriteUI08(v uint8) error
	WriteUI16(v uint16) error
	WriteUI24(v uint32) error
	WriteUI32(v uint32) error
	WriteUI64(v uint64) error
	WriteString(s string, withNul bool) error
}

// fixedWidth implements the ReadUIxx/WriteUIxx helpers in terms of Read and
// Write, so every concrete ByteStream gets them for free by embedding it.
type fixedWidth struct {
	rw interface {
		Read(buf []byte) error
		Write(buf []byte) error
	}
}

func (f fixedWidth) ReadUI08() (uint8, error) {
	var b [1]byte
	if err := f.rw.Read(b[:]); err != nil {
		return 0, err
	}
	return pio.U8(b[:]), nil
}

func (f fixedWidth) ReadUI16() (uint16, error) {
	var b [2]byte
	if err := f.rw.Read(b[:]); err != nil {
		return 0, err
	}
	return pio.U16BE(b[:]), nil
}

func (f fixedWidth) ReadUI24() (uint32, error) {
	var b [3]byte
	if err := f.rw.Read(b[:]); err != nil {
		return 0, err
	}
	return pio.U24BE(b[:]), nil
}

func (f fixedWidth) ReadUI32() (uint32, error) {
	var b [4]byte
	if err := f.rw.Read(b[:]); err != nil {
		return 0, err
	}
	return pio.U32BE(b[:]), nil
}

func (f fixedWidth) ReadUI64() (uint64, error) {
	var b [8]byte
	if err := f.rw.Read(b[:]); err != nil {
		return 0, err
	}
	return pio.U64BE(b[:]), nil
}

func (f fixedWidth) WriteUI08(v uint8) error {
	return f.rw.Write([]byte{v})
}

func (f fixedWidth) WriteUI16(v uint16) error {
	var b [2]byte
	pio.PutU16BE(b[:], v)
	return f.rw.Write(b[:])
}

func (f fixedWidth) WriteUI24(v uint32) error {
	var b [3]byte
	pio.PutU24BE(b[:], v)
	return f.rw.Write(b[:])
}

func (f fixedWidth) WriteUI32(v uint32) error {
	var b [4]byte
	pio.PutU32BE(b[:], v)
	return f.rw.Write(b[:])
}

func (f fixedWidth) WriteUI64(v uint64) error {
	var b [8]byte
	pio.PutU64BE(b[:], v)
	return f.rw.Write(b[:])
}

func (f fixedWidth) WriteString(s string, withNul bool) error {
	if withNul {
		return f.rw.Write(append([]byte(s), 0))
	}
	return f.rw.Write([]byte(s))
}

// MemoryStream is an in-memory, growable ByteStream. Seeking past the
// current end and then writing extends the stream with zero fill, per
// spec's growable-stream policy.
type MemoryStream struct {
	fixedWidth
	buf []byte
	pos int64
}

// NewMemoryStream returns an empty writable stream.
func NewMemoryStream() *MemoryStream {
	m := &MemoryStream{}
	m.fixedWidth = fixedWidth{rw: m}
	return m
}

// WrapMemoryStream returns a read/write stream over an existing buffer,
// cursor at zero. b is copied at construction, so writes never touch the
// caller's slice.
func WrapMemoryStream(b []byte) *MemoryStream {
	m := &MemoryStream{buf: append([]byte(nil), b...)}
	m.fixedWidth = fixedWidth{rw: m}
	return m
}

// Bytes returns the current backing buffer. Do not mutate it.
func (m *MemoryStream) Bytes() []byte {
	return m.buf
}

func (m *MemoryStream) Read(buf []byte) error {
	if m.pos < 0 || m.pos+int64(len(buf)) > int64(len(m.buf)) {
		return newErr(CodeNotEnoughData, "MemoryStream.Read", m.pos, nil)
	}
	copy(buf, m.buf[m.pos:])
	m.pos += int64(len(buf))
	return nil
}

func (m *MemoryStream) Write(buf []byte) error {
	end := m.pos + int64(len(buf))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], buf)
	m.pos = end
	return nil
}

func (m *MemoryStream) Seek(pos int64) error {
	if pos < 0 {
		return newErr(CodeInvalidParameters, "MemoryStream.Seek", pos, nil)
	}
	m.pos = pos
	return nil
}

func (m *MemoryStream) Tell() (int64, error) {
	return m.pos, nil
}

func (m *MemoryStream) GetSize() (uint64, error) {
	return uint64(len(m.buf)), nil
}

func (m *MemoryStream) CopyTo(dst ByteStream, n int64) error {
	return genericCopyTo(m, dst, n)
}

// FileStream is a ByteStream backed by an *os.File, used by the deferred
// UnknownAtom path so that large mdat payloads are never buffered.
type FileStream struct {
	fixedWidth
	f   *os.File
	pos int64
}

// NewFileStream wraps an already-open file. The stream owns a private
// cursor independent of the file's own offset, so several FileStreams (or
// a FileStream and a SubStream over it) can coexist safely as long as each
// read/write is bracketed by an explicit Seek, which is exactly the
// discipline this type enforces internally.
func NewFileStream(f *os.File) *FileStream {
	fs := &FileStream{f: f}
	fs.fixedWidth = fixedWidth{rw: fs}
	return fs
}

func (fs *FileStream) Read(buf []byte) error {
	n, err := fs.f.ReadAt(buf, fs.pos)
	fs.pos += int64(n)
	if err != nil {
		if err == io.EOF && n == len(buf) {
			return nil
		}
		return newErr(CodeNotEnoughData, "FileStream.Read", fs.pos, err)
	}
	return nil
}

func (fs *FileStream) Write(buf []byte) error {
	n, err := fs.f.WriteAt(buf, fs.pos)
	fs.pos += int64(n)
	if err != nil {
		return newErr(CodeFailure, "FileStream.Write", fs.pos, err)
	}
	return nil
}

func (fs *FileStream) Seek(pos int64) error {
	if pos < 0 {
		return newErr(CodeInvalidParameters, "FileStream.Seek", pos, nil)
	}
	fs.pos = pos
	return nil
}

func (fs *FileStream) Tell() (int64, error) {
	return fs.pos, nil
}

func (fs *FileStream) GetSize() (uint64, error) {
	info, err := fs.f.Stat()
	if err != nil {
		return 0, newErr(CodeFailure, "FileStream.GetSize", fs.pos, err)
	}
	return uint64(info.Size()), nil
}

func (fs *FileStream) CopyTo(dst ByteStream, n int64) error {
	return genericCopyTo(fs, dst, n)
}

func genericCopyTo(src, dst ByteStream, n int64) error {
	const chunk = 64 * 1024
	buf := make([]byte, chunk)
	for n > 0 {
		take := int64(chunk)
		if n < take {
			take = n
		}
		if err := src.Read(buf[:take]); err != nil {
			return err
		}
		if err := dst.Write(buf[:take]); err != nil {
			return err
		}
		n -= take
	}
	return nil
}

// SubStream exposes [offset, offset+length) of a backing stream as an
// independent stream with its own cursor. Reads or writes beyond length
// fail with CodeNotEnoughData instead of reaching into the backing stream's
// neighboring data.
type SubStream struct {
	fixedWidth
	backing ByteStream
	offset  int64
	length  int64
	pos     int64
}

// NewSubStream returns a view over [offset, offset+length) of backing.
func NewSubStream(backing ByteStream, offset, length int64) *SubStream {
	s := &SubStream{backing: backing, offset: offset, length: length}
	s.fixedWidth = fixedWidth{rw: s}
	return s
}

// Len reports the substream's declared length.
func (s *SubStream) Len() int64 {
	return s.length
}

func (s *SubStream) Read(buf []byte) error {
	if s.pos+int64(len(buf)) > s.length {
		return newErr(CodeNotEnoughData, "SubStream.Read", s.pos, nil)
	}
	if err := s.backing.Seek(s.offset + s.pos); err != nil {
		return err
	}
	if err := s.backing.Read(buf); err != nil {
		return err
	}
	s.pos += int64(len(buf))
	return nil
}

func (s *SubStream) Write(buf []byte) error {
	if s.pos+int64(len(buf)) > s.length {
		return newErr(CodeNotEnoughData, "SubStream.Write", s.pos, nil)
	}
	if err := s.backing.Seek(s.offset + s.pos); err != nil {
		return err
	}
	if err := s.backing.Write(buf); err != nil {
		return err
	}
	s.pos += int64(len(buf))
	return nil
}

func (s *SubStream) Seek(pos int64) error {
	if pos < 0 || pos > s.length {
		return newErr(CodeInvalidParameters, "SubStream.Seek", pos, nil)
	}
	s.pos = pos
	return nil
}

func (s *SubStream) Tell() (int64, error) {
	return s.pos, nil
}

func (s *SubStream) GetSize() (uint64, error) {
	return uint64(s.length), nil
}

func (s *SubStream) CopyTo(dst ByteStream, n int64) error {
	return genericCopyTo(s, dst, n)
}

// Remaining reports how many bytes are left before the substream's bound.
func (s *SubStream) Remaining() int64 {
	return s.length - s.pos
}

package box

import "github.com/google/uuid"

// StringAtom is a box whose entire payload is a single NUL-terminated
// string (spec.md §1): a plain byte value followed by one 0x00 byte, with
// any additional declared size beyond that zero-padded on write. It mirrors
// AP4_NullTerminatedStringAtom, generalized the way this package's core
// generalizes every other concrete box: it carries no opinion about which
// FourCC should be decoded this way. A caller opts a type in by registering
// NewStringAtomFactory's result with RegisterBoxFactory (§4.5, §1's "Out of
// scope: specific semantics of individual box types").
type StringAtom struct {
	header
	Value string
	// padded is the number of trailing zero bytes this atom was parsed
	// with beyond the value+NUL, preserved so a re-serialize round-trips
	// the original declared size exactly.
	padded uint64
}

// NewStringAtom constructs a StringAtom whose declared size is exactly
// header+len(value)+1, with no extra padding.
func NewStringAtom(typ FourCC, isFull bool, value string) *StringAtom {
	return &StringAtom{header: header{typ: typ, isFull: isFull}, Value: value}
}

// NewStringAtomFactory returns a BoxFactory that decodes its registered
// FourCC as a StringAtom (§4.5). It never inspects a real-world type's
// name; callers supply that binding themselves via RegisterBoxFactory.
func NewStringAtomFactory() BoxFactory {
	return func(_ *AtomFactory, typ FourCC, parsed ParsedHeader, payload *SubStream) (Atom, error) {
		return readStringAtom(typ, parsed, payload)
	}
}

func readStringAtom(typ FourCC, parsed ParsedHeader, s *SubStream) (*StringAtom, error) {
	a := &StringAtom{header: header{typ: typ, isUUID: parsed.IsUUID, extType: uuid.UUID(parsed.ExtType), forceLong: parsed.ForceLong}}
	n := s.Remaining()
	if n <= 0 {
		return a, nil
	}
	buf := make([]byte, n)
	if err := s.Read(buf); err != nil {
		return nil, newErr(CodeNotEnoughData, "StringAtom: truncated payload", 0, err)
	}
	buf[len(buf)-1] = 0 // force null-termination, per the original's ReadFields
	end := 0
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	a.Value = string(buf[:end])
	if trailing := int64(len(buf)) - int64(end) - 1; trailing > 0 {
		a.padded = uint64(trailing)
	}
	return a, nil
}

func (a *StringAtom) Size() uint64 { return sizeWithPayload(a) }

func (a *StringAtom) payloadSize() uint64 {
	return uint64(len(a.Value)) + 1 + a.padded
}

func (a *StringAtom) WriteHeader(s ByteStream) error  { return writeHeader(a, &a.header, s) }
func (a *StringAtom) Write(s ByteStream) error        { return writeAtom(a, s) }
func (a *StringAtom) Inspect(insp AtomInspector) error { return inspectAtom(a, insp) }
func (a *StringAtom) Detach()                          { detachAtom(a) }

// writeFields writes the value, its terminating NUL, then zero-pads up to
// the declared payload size (§4.8-style tolerant-write; mirrors the
// original's WriteFields).
func (a *StringAtom) writeFields(s ByteStream) error {
	if err := s.WriteString(a.Value, true); err != nil {
		return err
	}
	if a.padded > 0 {
		return s.Write(make([]byte, a.padded))
	}
	return nil
}

func (a *StringAtom) inspectFields(insp AtomInspector) error {
	return insp.AddString("string value", a.Value)
}

// Clone deep-copies the atom; the value is an immutable Go string so no
// further copying is needed.
func (a *StringAtom) Clone() (Atom, error) {
	clone := &StringAtom{header: a.header, Value: a.Value, padded: a.padded}
	clone.parent = nil
	return clone, nil
}

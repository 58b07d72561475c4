package box

import (
	"github.com/google/uuid"
	"github.com/ugparu/isobmff/utils/logger"
)

// Atom is the abstract base every concrete box implements: identity,
// on-wire size, the full-atom variant, a weak back-reference to its parent,
// and the read/write/inspect contract (§4.2).
//
// Per §9's redesign flag, there is no runtime downcasting hierarchy here:
// every concrete type (UnknownAtom, ContainerAtom, StringAtom, plus
// anything a caller registers through RegisterBoxFactory) satisfies this
// one interface directly, and callers that need to know "is this a
// container" use a type assertion to AtomParent rather than a dynamic cast
// on a base class.
type Atom interface {
	// Type returns the box's four-character type.
	Type() FourCC
	// Size returns the full on-wire size including header.
	Size() uint64
	// HeaderSize returns the size of size32+type+[size64]+[uuid]+[version+flags].
	HeaderSize() uint32
	// SetSize records n in the header's size fields and selects the 32- or
	// 64-bit encoding per the policy in §3. Size() and the header emitted by
	// WriteHeader are always derived from HeaderSize and the payload, so n
	// itself does not change them; only the long-form choice carries over.
	SetSize(n uint64, force64 bool)
	// IsFull reports whether this box carries version+flags.
	IsFull() bool
	// Version returns the full-atom version byte (0 if not a full atom).
	Version() uint8
	// Flags returns the full-atom 24-bit flags (0 if not a full atom).
	Flags() uint32
	// UUID returns the extended type of a uuid-typed box, or the zero UUID.
	UUID() uuid.UUID

	// WriteHeader emits size32, type, optional size64, optional uuid,
	// optional version+flags, in that order.
	WriteHeader(s ByteStream) error
	// Write emits WriteHeader followed by the type-specific payload.
	Write(s ByteStream) error
	// Inspect renders this atom (and, for containers, its children) through
	// insp.
	Inspect(insp AtomInspector) error

	// Detach removes this atom from its parent. No-op if rootless.
	Detach()
	// Clone deep-copies this atom. The base behavior serializes into memory
	// and re-parses; concrete types may implement a cheaper override.
	Clone() (Atom, error)
	// Parent returns the owning container, or nil if rootless.
	Parent() AtomParent

	setParent(p AtomParent)
	writeFields(s ByteStream) error
	inspectFields(insp AtomInspector) error
	payloadSize() uint64
}

// header holds the attributes common to every concrete atom (§3). Concrete
// types embed it and implement the payload-specific half of the Atom
// interface (writeFields/inspectFields/payloadSize/Clone).
type header struct {
	typ       FourCC
	size32    uint32
	size64    uint64
	isFull    bool
	version   uint8
	flags     uint32
	isUUID    bool
	extType   uuid.UUID
	forceLong bool
	parent    AtomParent
}

func (h *header) Type() FourCC { return h.typ }

func (h *header) IsFull() bool    { return h.isFull }
func (h *header) Version() uint8  { return h.version }
func (h *header) Flags() uint32   { return h.flags }
func (h *header) UUID() uuid.UUID { return h.extType }

func (h *header) Parent() AtomParent { return h.parent }

func (h *header) setParent(p AtomParent) { h.parent = p }

// HeaderSize derives the header length from is_full, whether the on-wire
// (or forced) encoding uses the 64-bit long form, and whether an extended
// uuid type is present (§3). forceLong, not size32, is the source of truth
// for the long form: the factory does not store size32 while parsing, and
// writeHeaderFields emits the sentinel value 1 whenever forceLong is set.
func (h *header) HeaderSize() uint32 {
	var n uint32 = 8
	if h.forceLong {
		n += 8
	}
	if h.isUUID {
		n += 16
	}
	if h.isFull {
		n += 4
	}
	return n
}

// sizeWithPayload composes HeaderSize with the concrete type's payload
// size; it is what every concrete Size() method delegates to.
func sizeWithPayload(a Atom) uint64 {
	return uint64(a.HeaderSize()) + a.payloadSize()
}

// SetSize chooses the minimal encoding unless force64 is set or the atom
// was itself constructed with a forced long encoding, per §3's round-trip
// preservation rule. n is kept in size32/size64, which Size() and
// writeHeaderFields do not read.
func (h *header) SetSize(n uint64, force64 bool) {
	if force64 || h.forceLong || n > 0xFFFFFFFF {
		h.size32 = 1
		h.size64 = n
		h.forceLong = true
		return
	}
	h.size32 = uint32(n)
	h.size64 = 0
}

func (h *header) writeHeaderFields(s ByteStream, declaredSize uint64) error {
	if h.forceLong {
		if err := s.WriteUI32(1); err != nil {
			return err
		}
	} else {
		if err := s.WriteUI32(uint32(declaredSize)); err != nil {
			return err
		}
	}
	if err := s.WriteUI32(uint32(h.typ)); err != nil {
		return err
	}
	if h.forceLong {
		if err := s.WriteUI64(declaredSize); err != nil {
			return err
		}
	}
	if h.isUUID {
		if err := s.Write(h.extType[:]); err != nil {
			return err
		}
	}
	if h.isFull {
		if err := s.WriteUI08(h.version); err != nil {
			return err
		}
		if err := s.WriteUI24(h.flags); err != nil {
			return err
		}
	}
	return nil
}

// writeHeader is the shared WriteHeader() implementation: concrete types
// forward to it once they know their own Size().
func writeHeader(a Atom, h *header, s ByteStream) error {
	return h.writeHeaderFields(s, a.Size())
}

// writeAtom is the shared Write() implementation: header, then fields,
// with the debug round-trip assertion from §4.2/§7.
func writeAtom(a Atom, s ByteStream) error {
	if err := a.WriteHeader(s); err != nil {
		return err
	}
	start, err := s.Tell()
	if err != nil {
		return err
	}
	start -= int64(a.HeaderSize())
	if err := a.writeFields(s); err != nil {
		return err
	}
	end, err := s.Tell()
	if err != nil {
		return err
	}
	written := uint64(end - start)
	if written != a.Size() {
		return fixupWrittenLength(a, s, written)
	}
	return nil
}

// fixupWrittenLength applies §7/§9's writer policy: pad short writes with
// zeros up to 1024 bytes, fail otherwise (long writes always fail).
func fixupWrittenLength(a Atom, s ByteStream, written uint64) error {
	want := a.Size()
	if written > want {
		return newErr(CodeInvalidFormat, "atom write overran declared size", 0, nil)
	}
	short := want - written
	if short > 1024 {
		return newErr(CodeInvalidFormat, "atom write underran declared size beyond pad budget", 0, nil)
	}
	logger.Warningf(a.Type().String(), "padding short write by %d bytes", short)
	return s.Write(make([]byte, short))
}

// inspectAtom is the shared Inspect() implementation: InspectHeader, then
// InspectFields, then EndAtom (§4.2). A uuid-typed atom's Type() is always
// the literal "uuid" FourCC, so its actual extended type is rendered as an
// extra leading field rather than folded into StartAtom's name (§3).
func inspectAtom(a Atom, insp AtomInspector) error {
	if err := insp.StartAtom(a.Type().String(), a.IsFull(), a.Version(), a.Flags(), a.HeaderSize(), a.Size()); err != nil {
		return err
	}
	if a.Type() == UUIDTag && a.UUID() != uuid.Nil {
		if err := insp.AddString("uuid", a.UUID().String()); err != nil {
			return err
		}
	}
	if err := a.inspectFields(insp); err != nil {
		return err
	}
	return insp.EndAtom()
}

// detachAtom removes a from its parent, if any (§4.2).
func detachAtom(a Atom) {
	p := a.Parent()
	if p == nil {
		return
	}
	_ = p.RemoveChild(a)
}

// maxCloneSize bounds the base Clone() implementation (§4.2): atoms above
// this size must supply a cheaper override or cloning fails.
const maxCloneSize = 1 << 20

// cloneAtom implements the base Clone(): serialize into memory, re-parse
// with a default factory. Oversize or parse failure returns an error.
func cloneAtom(a Atom, f *AtomFactory) (Atom, error) {
	if a.Size() > maxCloneSize {
		return nil, newErr(CodeInvalidParameters, "Clone: atom exceeds 1MiB base-clone limit", 0, nil)
	}
	buf := NewMemoryStream()
	if err := a.Write(buf); err != nil {
		return nil, err
	}
	src := WrapMemoryStream(buf.Bytes())
	sub := NewSubStream(src, 0, int64(len(buf.Bytes())))
	clone, err := f.CreateAtomFromStream(sub, nil)
	if err != nil {
		return nil, newErr(CodeInvalidFormat, "Clone: re-parse failed", 0, err)
	}
	return clone, nil
}

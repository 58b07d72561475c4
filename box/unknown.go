package box

import (
	"github.com/ugparu/isobmff/utils/logger"
)

// bufferedThreshold is the declared-size cutoff at or below which
// UnknownAtom eagerly buffers its payload (§4.4).
const bufferedThreshold = 4096

// UnknownAtom is the fallback concrete atom used when the factory's
// registry has no BoxFactory for a type (§4.4). It also doubles as the
// generic "full atom with undecoded payload" representation: if the
// registry marked the type full, UnknownAtom reads version+flags off the
// front of the payload the same way any other full atom would, and treats
// only what remains as opaque.
//
// Two storage modes, chosen at construction:
//   - buffered: payload copied into memory eagerly, source stream released.
//   - deferred: only the source stream + its offset are kept; Write() seeks,
//     copies, and restores the source cursor.
type UnknownAtom struct {
	header
	buffered   []byte
	pooled     bool
	deferredOK bool
	src        ByteStream
	srcOffset  int64
	plen       uint64 // payload length, excluding the full-atom version+flags
}

// NewUnknownAtomBuffered constructs an UnknownAtom whose payload is held
// in memory.
func NewUnknownAtomBuffered(typ FourCC, isFull bool, payload []byte) *UnknownAtom {
	u := &UnknownAtom{header: header{typ: typ, isFull: isFull}}
	u.buffered = payload
	u.plen = uint64(len(payload))
	return u
}

// readUnknownAtom is invoked by the factory (§4.5 step 6) once it has
// decided no registered BoxFactory claims typ. declaredPayloadSize is the
// payload length computed from the on-wire size before any truncation;
// this function clamps it against what src actually has left, per §4.4's
// "stored size... reduced to match" tolerance. bufferedMax is the calling
// factory's FactoryOptions.MaxBufferedPayload (§4.4's buffered/deferred
// threshold).
func readUnknownAtom(typ FourCC, isFull, isUUID bool, extType [16]byte, declaredPayloadSize int64, src *SubStream, force64 bool, bufferedMax int) (*UnknownAtom, int64, error) {
	u := &UnknownAtom{header: header{typ: typ, isFull: isFull, isUUID: isUUID}}
	copy(u.extType[:], extType[:])
	u.forceLong = force64

	available := src.Remaining()
	clamped := declaredPayloadSize
	truncated := false
	if clamped > available {
		clamped = available
		truncated = true
	}
	if clamped < 0 {
		return nil, 0, newErr(CodeInvalidFormat, "UnknownAtom: negative payload size", 0, nil)
	}
	consumed := clamped

	if isFull {
		if clamped < 4 {
			return nil, 0, newErr(CodeNotEnoughData, "UnknownAtom: truncated full-atom header", 0, nil)
		}
		ver, err := src.ReadUI08()
		if err != nil {
			return nil, 0, err
		}
		fl, err := src.ReadUI24()
		if err != nil {
			return nil, 0, err
		}
		u.version, u.flags = ver, fl
		clamped -= 4
	}
	u.plen = uint64(clamped)

	if truncated {
		logger.Warningf(typ.String(), "declared size extends past end of stream, clamping payload to %d bytes", clamped)
	}

	if typ != MdatTag && int64(u.HeaderSize())+clamped <= int64(bufferedMax) {
		buf := getPooledBuffer(int(clamped))
		if clamped > 0 {
			if err := src.Read(buf); err != nil {
				putPooledBuffer(buf)
				return nil, 0, err
			}
		}
		u.buffered = buf
		u.pooled = true
	} else {
		u.deferredOK = true
		u.src = src
		pos, err := src.Tell()
		if err != nil {
			return nil, 0, err
		}
		u.srcOffset = pos
		if err := src.Seek(pos + clamped); err != nil {
			return nil, 0, err
		}
	}
	return u, consumed, nil
}

func (u *UnknownAtom) Size() uint64 { return sizeWithPayload(u) }

func (u *UnknownAtom) payloadSize() uint64 {
	extra := uint64(0)
	if u.isFull {
		extra = 4
	}
	return u.plen + extra
}

func (u *UnknownAtom) WriteHeader(s ByteStream) error { return writeHeader(u, &u.header, s) }
func (u *UnknownAtom) Write(s ByteStream) error        { return writeAtom(u, s) }
func (u *UnknownAtom) Inspect(insp AtomInspector) error { return inspectAtom(u, insp) }
func (u *UnknownAtom) Detach()                          { detachAtom(u) }

func (u *UnknownAtom) writeFields(s ByteStream) error {
	if u.isFull {
		if err := s.WriteUI08(u.version); err != nil {
			return err
		}
		if err := s.WriteUI24(u.flags); err != nil {
			return err
		}
	}
	if u.buffered != nil {
		return s.Write(u.buffered)
	}
	if !u.deferredOK {
		return nil
	}
	savedPos, err := u.src.Tell()
	if err != nil {
		return err
	}
	if err := u.src.Seek(u.srcOffset); err != nil {
		return err
	}
	err = u.src.CopyTo(s, int64(u.plen))
	if seekErr := u.src.Seek(savedPos); seekErr != nil && err == nil {
		err = seekErr
	}
	return err
}

func (u *UnknownAtom) inspectFields(insp AtomInspector) error {
	if u.buffered != nil {
		return insp.AddBytes("data", u.buffered)
	}
	return insp.AddBytes("data", nil)
}

// Clone is a shallow structural copy that re-shares the source stream
// handle for deferred atoms (§4.4).
func (u *UnknownAtom) Clone() (Atom, error) {
	clone := &UnknownAtom{header: u.header, plen: u.plen, deferredOK: u.deferredOK, src: u.src, srcOffset: u.srcOffset}
	clone.parent = nil
	if u.buffered != nil {
		clone.buffered = append([]byte(nil), u.buffered...)
	}
	return clone, nil
}

// Release returns a pool-backed buffered payload to the pool. Callers that
// discard an UnknownAtom outright (as opposed to detaching it for reuse
// elsewhere, per §5's ownership-transfer rule) should call this once no
// further reads of its buffered data will occur.
func (u *UnknownAtom) Release() {
	if u.pooled && u.buffered != nil {
		putPooledBuffer(u.buffered)
		u.buffered = nil
		u.pooled = false
	}
}

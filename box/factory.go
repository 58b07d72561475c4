package box

import (
	"github.com/google/uuid"
	"github.com/ugparu/isobmff/utils/logger"
)

// FactoryOptions configures an AtomFactory's tolerance policy (§4.5, §7).
type FactoryOptions struct {
	// StrictMode, when true, propagates a malformed child's error up and
	// aborts the enclosing container's parse. When false (the default),
	// the container keeps the children it successfully read and stops.
	StrictMode bool
	// MaxBufferedPayload overrides bufferedThreshold for this factory's
	// UnknownAtom decisions.
	MaxBufferedPayload int
}

// FactoryOption mutates a FactoryOptions being built.
type FactoryOption func(*FactoryOptions)

// WithStrictMode sets the strictness policy described on FactoryOptions.
func WithStrictMode(strict bool) FactoryOption {
	return func(o *FactoryOptions) { o.StrictMode = strict }
}

// WithMaxBufferedPayload sets the eager-buffering threshold (§4.4).
func WithMaxBufferedPayload(n int) FactoryOption {
	return func(o *FactoryOptions) { o.MaxBufferedPayload = n }
}

// AtomFactory is the dispatcher described in §4.5: it reads a box header
// from a ByteStream and instantiates the appropriate concrete Atom,
// recursing into containers.
type AtomFactory struct {
	opts  FactoryOptions
	stack []FourCC
}

// NewAtomFactory returns an AtomFactory with the given options applied over
// spec.md's tolerant-parse defaults.
func NewAtomFactory(opts ...FactoryOption) *AtomFactory {
	o := FactoryOptions{MaxBufferedPayload: bufferedThreshold}
	for _, fn := range opts {
		fn(&o)
	}
	return &AtomFactory{opts: o}
}

// CreateAtomFromStream implements §4.5's algorithm. parent is passed
// through only so a freshly constructed atom can later be inserted via
// parent.AddChild; CreateAtomFromStream itself never mutates parent.
func (f *AtomFactory) CreateAtomFromStream(s ByteStream, parent AtomParent) (Atom, error) {
	startPos, err := s.Tell()
	if err != nil {
		return nil, err
	}
	totalSize, err := s.GetSize()
	if err != nil {
		return nil, err
	}
	enclosingRemaining := int64(totalSize) - startPos
	if enclosingRemaining < 8 {
		return nil, newErr(CodeNotEnoughData, "CreateAtomFromStream: header truncated", startPos, nil)
	}

	size32, err := s.ReadUI32()
	if err != nil {
		return nil, newErr(CodeNotEnoughData, "CreateAtomFromStream: size32", startPos, err)
	}
	rawType, err := s.ReadUI32()
	if err != nil {
		return nil, newErr(CodeNotEnoughData, "CreateAtomFromStream: type", startPos, err)
	}
	typ := FourCC(rawType)

	var headerLen int64 = 8
	var size64 uint64
	if size32 == 1 {
		size64, err = s.ReadUI64()
		if err != nil {
			return nil, newErr(CodeNotEnoughData, "CreateAtomFromStream: size64", startPos, err)
		}
		headerLen += 8
	}

	parsed := ParsedHeader{ForceLong: size32 == 1}
	if typ == UUIDTag {
		var raw [16]byte
		if err := s.Read(raw[:]); err != nil {
			return nil, newErr(CodeNotEnoughData, "CreateAtomFromStream: uuid extended type", startPos, err)
		}
		parsed.IsUUID = true
		parsed.ExtType = raw
		headerLen += 16
	}

	var declaredSize int64
	switch {
	case size32 == 0:
		declaredSize = enclosingRemaining
	case size32 == 1:
		declaredSize = int64(size64)
	default:
		declaredSize = int64(size32)
	}

	payloadSize := declaredSize - headerLen
	if payloadSize < 0 {
		return nil, newErr(CodeInvalidFormat, "CreateAtomFromStream: payload size negative", startPos, nil)
	}
	if declaredSize > enclosingRemaining {
		return nil, newErr(CodeInvalidFormat, "CreateAtomFromStream: declared size exceeds enclosing bound", startPos, nil)
	}

	payloadStart, err := s.Tell()
	if err != nil {
		return nil, err
	}
	payload := NewSubStream(s, payloadStart, payloadSize)

	kind := lookupKind(f.stack, typ)

	if bf, ok := lookupBoxFactory(typ); ok {
		atom, err := bf(f, typ, parsed, payload)
		if err != nil {
			return nil, err
		}
		if err := s.Seek(payloadStart + payloadSize); err != nil {
			return nil, err
		}
		return atom, nil
	}

	if kind.isContainer {
		atom, err := f.readContainer(typ, kind.isFull, parsed, payload)
		if err != nil {
			return nil, err
		}
		if err := s.Seek(payloadStart + payloadSize); err != nil {
			return nil, err
		}
		return atom, nil
	}

	atom, consumed, err := readUnknownAtom(typ, kind.isFull, parsed.IsUUID, parsed.ExtType, payloadSize, payload, parsed.ForceLong, f.opts.MaxBufferedPayload)
	if err != nil {
		return nil, err
	}
	if err := s.Seek(payloadStart + consumed); err != nil {
		return nil, err
	}
	return atom, nil
}

func (f *AtomFactory) readContainer(typ FourCC, isFull bool, parsed ParsedHeader, payload *SubStream) (*ContainerAtom, error) {
	c := NewContainerAtom(typ, isFull, f)
	c.isUUID, c.extType = parsed.IsUUID, uuid.UUID(parsed.ExtType)
	c.forceLong = parsed.ForceLong

	if isFull {
		ver, err := payload.ReadUI08()
		if err != nil {
			return nil, newErr(CodeNotEnoughData, "readContainer: full-atom header truncated", 0, err)
		}
		fl, err := payload.ReadUI24()
		if err != nil {
			return nil, newErr(CodeNotEnoughData, "readContainer: full-atom header truncated", 0, err)
		}
		c.version, c.flags = ver, fl
	}

	f.stack = append(f.stack, typ)
	defer func() { f.stack = f.stack[:len(f.stack)-1] }()

	for payload.Remaining() > 0 {
		child, err := f.CreateAtomFromStream(payload, c)
		if err != nil {
			if f.opts.StrictMode {
				return nil, err
			}
			logger.Warningf(typ.String(), "tolerating malformed child, returning partial container: %v", err)
			break
		}
		if err := c.AddChild(child, -1); err != nil {
			return nil, err
		}
	}
	return c, nil
}

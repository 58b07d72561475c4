package box

import "sync"

// boxKind is the structural fact the registry records about a FourCC: is
// it a container, and does it carry the full-atom version+flags header.
// Per SPEC_FULL.md §4.5, this is deliberately the only thing the core is
// allowed to know about a registered FourCC without decoding its payload —
// actual field semantics (movie header duration, track header matrix, ...)
// are the external collaborators' job (§1).
type boxKind struct {
	isContainer bool
	isFull      bool
}

// BoxFactory fully decodes a registered box type's payload. Callers that
// want a specific FourCC decoded beyond the generic container/unknown
// shapes register one of these; none ship in this package.
type BoxFactory func(f *AtomFactory, typ FourCC, parsed ParsedHeader, payload *SubStream) (Atom, error)

// ParsedHeader carries the header fields the factory has already decoded
// by the time it consults a BoxFactory or the kind registry.
type ParsedHeader struct {
	IsUUID bool
	// ExtType holds the uuid atom's 16-byte extended type, set iff IsUUID.
	ExtType [16]byte
	// ForceLong is true when the on-wire header used the 64-bit size form.
	ForceLong bool
}

type ctxKey struct {
	parent FourCC
	child  FourCC
}

var (
	registryMu    sync.RWMutex
	kindRegistry  = map[FourCC]boxKind{}
	ctxRegistry   = map[ctxKey]boxKind{}
	factoryByType = map[FourCC]BoxFactory{}
)

// RegisterKind records that typ is structurally a container and/or a full
// atom, for every parent context.
func RegisterKind(typ FourCC, isContainer, isFull bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	kindRegistry[typ] = boxKind{isContainer: isContainer, isFull: isFull}
}

// RegisterContextualKind records typ's structural kind only when it
// appears directly inside a box of type parent — the "small stack of
// enclosing types" disambiguation of §4.5. It takes precedence over a
// context-free RegisterKind entry for the same typ.
func RegisterContextualKind(parent, typ FourCC, isContainer, isFull bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	ctxRegistry[ctxKey{parent: parent, child: typ}] = boxKind{isContainer: isContainer, isFull: isFull}
}

// RegisterBoxFactory installs a fully-decoding BoxFactory for typ, taking
// precedence over both the contextual and context-free kind registries.
func RegisterBoxFactory(typ FourCC, bf BoxFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factoryByType[typ] = bf
}

func lookupKind(enclosing []FourCC, typ FourCC) boxKind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if len(enclosing) > 0 {
		if k, ok := ctxRegistry[ctxKey{parent: enclosing[len(enclosing)-1], child: typ}]; ok {
			return k
		}
	}
	return kindRegistry[typ]
}

func lookupBoxFactory(typ FourCC) (BoxFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	bf, ok := factoryByType[typ]
	return bf, ok
}

func init() {
	// The container/full-atom shapes spec.md's own testable scenarios (§8)
	// exercise. Registering these is pure structural bookkeeping: nothing
	// here decodes a single field of mvhd, tkhd, or any other specific box.
	for _, c := range []string{"moov", "trak", "mdia", "minf", "stbl", "udta", "edts", "mvex", "moof", "traf", "mfra", "dinf"} {
		RegisterKind(StringToFourCC(c), true, false)
	}
	for _, f := range []string{"mvhd", "tkhd", "mdhd", "hdlr", "vmhd", "smhd"} {
		RegisterKind(StringToFourCC(f), false, true)
	}
}

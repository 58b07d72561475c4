package box

// DescriptorBoxFactory fully decodes a registered descriptor tag's payload,
// given the tag byte already consumed and payloadLen bytes remaining.
type DescriptorBoxFactory func(f *DescriptorFactory, tag uint8, payloadLen uint32, s ByteStream) (Descriptor, error)

// DescriptorFactory dispatches on a descriptor's tag byte (§4.6), the same
// role AtomFactory plays for boxes. The three concrete descriptors this
// package ships are pre-registered in init(); callers may register
// additional tags with RegisterDescriptorFactory.
type DescriptorFactory struct{}

// NewDescriptorFactory returns a DescriptorFactory ready to parse.
func NewDescriptorFactory() *DescriptorFactory {
	return &DescriptorFactory{}
}

var descriptorFactoryByTag = map[uint8]DescriptorBoxFactory{}

// RegisterDescriptorFactory installs a fully-decoding DescriptorBoxFactory
// for tag, taking precedence over the unknown-descriptor fallback.
func RegisterDescriptorFactory(tag uint8, bf DescriptorBoxFactory) {
	descriptorFactoryByTag[tag] = bf
}

// ReadDescriptor reads one descriptor from s, dispatching on its tag byte.
func (f *DescriptorFactory) ReadDescriptor(s ByteStream) (Descriptor, error) {
	d, _, err := f.readOne(s)
	return d, err
}

// readOne reads one descriptor from s and reports how many bytes
// (header+payload) it consumed, so a caller iterating a sibling list can
// track its own remaining budget (§4.6's "own a child list... recurse").
func (f *DescriptorFactory) readOne(s ByteStream) (Descriptor, uint32, error) {
	tag, err := s.ReadUI08()
	if err != nil {
		return nil, 0, newErr(CodeNotEnoughData, "readOne: truncated tag", 0, err)
	}
	payloadLen, sizeLen, err := decodeDescSize(s)
	if err != nil {
		return nil, 0, err
	}
	headerLen := 1 + sizeLen

	if bf, ok := descriptorFactoryByTag[tag]; ok {
		d, err := bf(f, tag, payloadLen, s)
		if err != nil {
			return nil, 0, err
		}
		return d, headerLen + payloadLen, nil
	}

	u := &UnknownDescriptor{descHeader: descHeader{tag: tag}}
	if payloadLen > 0 {
		buf := make([]byte, payloadLen)
		if err := s.Read(buf); err != nil {
			return nil, 0, err
		}
		u.buffered = buf
	}
	return u, headerLen + payloadLen, nil
}

func init() {
	RegisterDescriptorFactory(EsDescrTag, func(f *DescriptorFactory, tag uint8, payloadLen uint32, s ByteStream) (Descriptor, error) {
		e := NewEsDescriptor()
		if err := unmarshalEsDescriptorFields(e, s, payloadLen, f); err != nil {
			return nil, err
		}
		return e, nil
	})
	RegisterDescriptorFactory(EsIdIncDescrTag, func(f *DescriptorFactory, tag uint8, payloadLen uint32, s ByteStream) (Descriptor, error) {
		if payloadLen < 4 {
			return nil, newErr(CodeNotEnoughData, "EsIdIncDescriptor: truncated track_id", 0, nil)
		}
		trackID, err := s.ReadUI32()
		if err != nil {
			return nil, err
		}
		e := NewEsIdIncDescriptor()
		e.TrackID = trackID
		consumed := uint32(4)
		for consumed < payloadLen {
			child, childLen, err := f.readOne(s)
			if err != nil {
				return nil, err
			}
			e.AddChild(child)
			consumed += childLen
		}
		return e, nil
	})
	RegisterDescriptorFactory(EsIdRefDescrTag, func(f *DescriptorFactory, tag uint8, payloadLen uint32, s ByteStream) (Descriptor, error) {
		if payloadLen < 2 {
			return nil, newErr(CodeNotEnoughData, "EsIdRefDescriptor: truncated ref_index", 0, nil)
		}
		refIdx, err := s.ReadUI16()
		if err != nil {
			return nil, err
		}
		e := NewEsIdRefDescriptor()
		e.RefIndex = refIdx
		consumed := uint32(2)
		for consumed < payloadLen {
			child, childLen, err := f.readOne(s)
			if err != nil {
				return nil, err
			}
			e.AddChild(child)
			consumed += childLen
		}
		return e, nil
	})
}

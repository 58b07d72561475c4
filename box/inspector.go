package box

// AtomInspector is the visitor interface used to render a parsed tree
// (§4.7). Atoms and descriptors describe themselves by calling these
// methods; TextInspector and JsonInspector are the two concrete renderers
// this package ships. Go has no method overloading, so the single
// overloaded AddField(name, value) of §4.7 is split into one method per
// value kind.
type AtomInspector interface {
	// StartAtom opens a box node. isFull gates whether version/flags are
	// meaningful for this box.
	StartAtom(name string, isFull bool, version uint8, flags uint32, headerSize uint32, size uint64) error
	// EndAtom closes the most recently opened box node.
	EndAtom() error

	// StartDescriptor opens a descriptor node.
	StartDescriptor(name string, tag uint8, headerSize uint32, size uint32) error
	// EndDescriptor closes the most recently opened descriptor node.
	EndDescriptor() error

	// StartArray opens a named array of n elements.
	StartArray(name string, n int) error
	// EndArray closes the most recently opened array.
	EndArray() error

	// StartObject opens a named object of n fields. compact hints that a
	// renderer supporting single-line rendering should use it.
	StartObject(name string, n int, compact bool) error
	// EndObject closes the most recently opened object.
	EndObject() error

	// AddString adds a string-valued field.
	AddString(name, value string) error
	// AddUint adds an unsigned-integer field; hex hints decimal vs. hex
	// rendering.
	AddUint(name string, value uint64, hex bool) error
	// AddFloat adds a floating-point field.
	AddFloat(name string, value float64) error
	// AddBytes adds a byte-vector field, rendered as a hex dump.
	AddBytes(name string, value []byte) error
}

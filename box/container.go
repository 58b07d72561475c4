package box

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AtomParent is the capability exposed by every box that owns children
// (§4.3). ContainerAtom is the sole implementation shipped here; a caller
// that registers its own concrete box type for a container-shaped FourCC
// can embed ContainerAtom to get it for free.
type AtomParent interface {
	// AddChild inserts atom at position (-1 tail, 0 head, else after the
	// (position-1)-th existing child). Fails if atom already has a parent
	// or position is out of range.
	AddChild(atom Atom, position int) error
	// RemoveChild detaches atom, which must be a direct child of this
	// parent.
	RemoveChild(atom Atom) error
	// DeleteChild removes and discards the n-th child of the given type.
	DeleteChild(typ FourCC, index int) error
	// GetChild returns the n-th direct child of the given type, or nil.
	GetChild(typ FourCC, index int) Atom
	// GetChildByUUID returns the n-th direct child whose extended type
	// equals id, or nil.
	GetChildByUUID(id uuid.UUID, index int) Atom
	// FindChild walks a slash-separated path (§3). When a segment has no
	// match, index is 0, and autoCreate is set, an empty container atom is
	// created (full if autoCreateFull) and the walk descends into it.
	FindChild(path string, autoCreate, autoCreateFull bool) (Atom, error)
	// CopyChildren deep-clones every child and appends the clones to dest.
	CopyChildren(dest AtomParent) error
	// Children returns the live child list in on-wire order. Callers must
	// not mutate the returned slice.
	Children() []Atom

	onChildAdded(c Atom)
	onChildRemoved(c Atom)
}

// ContainerAtom is a box whose payload is purely a sequence of child boxes
// (§4.3, GLOSSARY "Container atom"). It is deliberately generic: it knows
// nothing about which FourCCs are conventionally containers in real ISO-BMFF
// files beyond what the factory's registry (§4.5) told it when it was
// constructed.
type ContainerAtom struct {
	header
	children []Atom
	factory  *AtomFactory
}

// NewContainerAtom constructs an empty container atom of the given type.
func NewContainerAtom(typ FourCC, isFull bool, f *AtomFactory) *ContainerAtom {
	return &ContainerAtom{
		header:  header{typ: typ, isFull: isFull},
		factory: f,
	}
}

func (c *ContainerAtom) Size() uint64 { return sizeWithPayload(c) }

func (c *ContainerAtom) payloadSize() uint64 {
	var n uint64
	for _, ch := range c.children {
		n += ch.Size()
	}
	return n
}

func (c *ContainerAtom) WriteHeader(s ByteStream) error { return writeHeader(c, &c.header, s) }
func (c *ContainerAtom) Write(s ByteStream) error       { return writeAtom(c, s) }
func (c *ContainerAtom) Inspect(insp AtomInspector) error { return inspectAtom(c, insp) }
func (c *ContainerAtom) Detach()                        { detachAtom(c) }

func (c *ContainerAtom) writeFields(s ByteStream) error {
	for _, ch := range c.children {
		if err := ch.Write(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *ContainerAtom) inspectFields(insp AtomInspector) error {
	for _, ch := range c.children {
		if err := ch.Inspect(insp); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies the container and every descendant.
func (c *ContainerAtom) Clone() (Atom, error) {
	clone := NewContainerAtom(c.typ, c.isFull, c.factory)
	clone.version, clone.flags = c.version, c.flags
	clone.isUUID, clone.extType = c.isUUID, c.extType
	if err := c.CopyChildren(clone); err != nil {
		return nil, err
	}
	return clone, nil
}

func (c *ContainerAtom) onChildAdded(Atom)   {}
func (c *ContainerAtom) onChildRemoved(Atom) {}

// Children returns the live child list in on-wire order.
func (c *ContainerAtom) Children() []Atom {
	return c.children
}

// AddChild implements AtomParent.AddChild.
func (c *ContainerAtom) AddChild(atom Atom, position int) error {
	if atom.Parent() != nil {
		return newErr(CodeInvalidParameters, "AddChild: atom already has a parent", 0, nil)
	}
	switch {
	case position == -1:
		c.children = append(c.children, atom)
	case position == 0:
		c.children = append([]Atom{atom}, c.children...)
	default:
		if position-1 >= len(c.children) {
			return newErr(CodeOutOfRange, "AddChild: position out of range", 0, nil)
		}
		idx := position
		c.children = append(c.children[:idx:idx], append([]Atom{atom}, c.children[idx:]...)...)
	}
	atom.setParent(c)
	c.onChildAdded(atom)
	return nil
}

// RemoveChild implements AtomParent.RemoveChild.
func (c *ContainerAtom) RemoveChild(atom Atom) error {
	if atom.Parent() != AtomParent(c) {
		return newErr(CodeInvalidParameters, "RemoveChild: not a child of this parent", 0, nil)
	}
	for i, ch := range c.children {
		if ch == atom {
			c.children = append(c.children[:i], c.children[i+1:]...)
			atom.setParent(nil)
			c.onChildRemoved(atom)
			return nil
		}
	}
	return newErr(CodeInvalidParameters, "RemoveChild: not found", 0, nil)
}

// DeleteChild implements AtomParent.DeleteChild.
func (c *ContainerAtom) DeleteChild(typ FourCC, index int) error {
	ch := c.GetChild(typ, index)
	if ch == nil {
		return newErr(CodeOutOfRange, "DeleteChild: no such child", 0, nil)
	}
	return c.RemoveChild(ch)
}

// GetChild implements AtomParent.GetChild.
func (c *ContainerAtom) GetChild(typ FourCC, index int) Atom {
	n := 0
	for _, ch := range c.children {
		if ch.Type() == typ {
			if n == index {
				return ch
			}
			n++
		}
	}
	return nil
}

// GetChildByUUID implements AtomParent.GetChildByUUID.
func (c *ContainerAtom) GetChildByUUID(id uuid.UUID, index int) Atom {
	n := 0
	for _, ch := range c.children {
		if ch.Type() == UUIDTag && ch.UUID() == id {
			if n == index {
				return ch
			}
			n++
		}
	}
	return nil
}

// CopyChildren implements AtomParent.CopyChildren.
func (c *ContainerAtom) CopyChildren(dest AtomParent) error {
	for _, ch := range c.children {
		clone, err := ch.Clone()
		if err != nil {
			return err
		}
		if err := dest.AddChild(clone, -1); err != nil {
			return err
		}
	}
	return nil
}

var pathComponentRe = regexp.MustCompile(`^([0-9A-Za-z]+)(?:\[(\d+)\])?$`)
var hexUUIDRe = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

type pathComponent struct {
	fourcc FourCC
	uuid   uuid.UUID
	isUUID bool
	index  int
}

func parsePathComponent(s string) (pathComponent, error) {
	m := pathComponentRe.FindStringSubmatch(s)
	if m == nil {
		return pathComponent{}, newErr(CodeInvalidFormat, "FindChild: malformed path component "+s, 0, nil)
	}
	lit, idxStr := m[1], m[2]
	idx := 0
	if idxStr != "" {
		idx, _ = strconv.Atoi(idxStr)
	}
	if hexUUIDRe.MatchString(lit) {
		id, err := uuid.Parse(lit)
		if err != nil {
			return pathComponent{}, newErr(CodeInvalidFormat, "FindChild: malformed uuid "+lit, 0, err)
		}
		return pathComponent{uuid: id, isUUID: true, index: idx}, nil
	}
	if len(lit) != 4 {
		return pathComponent{}, newErr(CodeInvalidFormat, "FindChild: component is neither a 4-char code nor a uuid: "+lit, 0, nil)
	}
	return pathComponent{fourcc: StringToFourCC(lit), index: idx}, nil
}

// FindChild implements AtomParent.FindChild (§3 path grammar).
func (c *ContainerAtom) FindChild(path string, autoCreate, autoCreateFull bool) (Atom, error) {
	segments := strings.Split(path, "/")
	var cur AtomParent = c
	var result Atom
	for i, seg := range segments {
		pc, err := parsePathComponent(seg)
		if err != nil {
			return nil, err
		}
		var child Atom
		if pc.isUUID {
			child = cur.GetChildByUUID(pc.uuid, pc.index)
		} else {
			child = cur.GetChild(pc.fourcc, pc.index)
		}
		if child == nil {
			if !autoCreate || pc.index != 0 {
				return nil, nil
			}
			if pc.isUUID {
				return nil, newErr(CodeInvalidParameters, "FindChild: cannot auto-create a uuid-typed segment", 0, nil)
			}
			created := NewContainerAtom(pc.fourcc, autoCreateFull, c.factory)
			if err := cur.AddChild(created, -1); err != nil {
				return nil, err
			}
			child = created
		}
		result = child
		if i < len(segments)-1 {
			next, ok := child.(AtomParent)
			if !ok {
				return nil, nil
			}
			cur = next
		}
	}
	return result, nil
}

package box

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newLeaf(typ string) *UnknownAtom {
	u := NewUnknownAtomBuffered(StringToFourCC(typ), false, []byte{1, 2, 3, 4})
	u.SetSize(12, false)
	return u
}

func TestContainerAtom_AddRemoveChild_PreservesListIdentity(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	c := NewContainerAtom(StringToFourCC("moov"), false, f)

	a := newLeaf("aaaa")
	b := newLeaf("bbbb")
	require.NoError(t, c.AddChild(a, -1))
	require.NoError(t, c.AddChild(b, -1))

	before := append([]Atom(nil), c.Children()...)

	require.NoError(t, c.RemoveChild(b))
	require.NoError(t, c.AddChild(b, -1))

	require.Equal(t, before, c.Children())
	require.Equal(t, Atom(c), a.Parent())
	require.Equal(t, Atom(c), b.Parent())
}

func TestContainerAtom_AddChild_RejectsAlreadyParented(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	c1 := NewContainerAtom(StringToFourCC("moov"), false, f)
	c2 := NewContainerAtom(StringToFourCC("udta"), false, f)

	a := newLeaf("free")
	require.NoError(t, c1.AddChild(a, -1))

	err := c2.AddChild(a, -1)
	require.Error(t, err)
	require.Equal(t, CodeInvalidParameters, CodeOf(err))
}

func TestContainerAtom_GetChild_ByTypeAndIndex(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	trak := StringToFourCC("trak")
	moov := NewContainerAtom(StringToFourCC("moov"), false, f)

	t1 := NewContainerAtom(trak, false, f)
	t2 := NewContainerAtom(trak, false, f)
	require.NoError(t, moov.AddChild(t1, -1))
	require.NoError(t, moov.AddChild(t2, -1))

	require.Equal(t, Atom(t1), moov.GetChild(trak, 0))
	require.Equal(t, Atom(t2), moov.GetChild(trak, 1))
	require.Nil(t, moov.GetChild(trak, 2))
}

func TestContainerAtom_AddChild_ExplicitPositionBoundary(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	c := NewContainerAtom(StringToFourCC("moov"), false, f)
	a := newLeaf("aaaa")
	b := newLeaf("bbbb")
	require.NoError(t, c.AddChild(a, -1))
	require.NoError(t, c.AddChild(b, -1))

	// len(children) == 2: position == len(children) is the last valid
	// insertion point (equivalent to appending at the tail).
	tail := newLeaf("cccc")
	require.NoError(t, c.AddChild(tail, 2))
	require.Equal(t, []Atom{a, b, tail}, c.Children())

	// position == len(children)+1 runs past the last child and must be
	// rejected, not silently clamped into an append.
	rejected := newLeaf("dddd")
	err := c.AddChild(rejected, len(c.Children())+1)
	require.Error(t, err)
	require.Equal(t, CodeOutOfRange, CodeOf(err))
	require.Nil(t, rejected.Parent())
}

func TestContainerAtom_FindChild_PathWithIndex(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	moov := NewContainerAtom(StringToFourCC("moov"), false, f)
	t1 := NewContainerAtom(StringToFourCC("trak"), false, f)
	t2 := NewContainerAtom(StringToFourCC("trak"), false, f)
	require.NoError(t, moov.AddChild(t1, -1))
	require.NoError(t, moov.AddChild(t2, -1))

	found, err := moov.FindChild("trak[1]", false, false)
	require.NoError(t, err)
	require.Equal(t, Atom(t2), found)

	absent, err := moov.FindChild("trak[2]", false, false)
	require.NoError(t, err)
	require.Nil(t, absent)
}

func TestContainerAtom_FindChild_AssociativeWithSlash(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	moov := NewContainerAtom(StringToFourCC("moov"), false, f)
	trak := NewContainerAtom(StringToFourCC("trak"), false, f)
	mdia := NewContainerAtom(StringToFourCC("mdia"), false, f)
	require.NoError(t, moov.AddChild(trak, -1))
	require.NoError(t, trak.AddChild(mdia, -1))

	viaPath, err := moov.FindChild("trak/mdia", false, false)
	require.NoError(t, err)

	viaSteps, err := moov.FindChild("trak", false, false)
	require.NoError(t, err)
	viaStepsChild, err := viaSteps.(AtomParent).FindChild("mdia", false, false)
	require.NoError(t, err)

	require.Equal(t, viaStepsChild, viaPath)
}

func TestContainerAtom_FindChild_AutoCreate(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	moov := NewContainerAtom(StringToFourCC("moov"), false, f)

	created, err := moov.FindChild("udta", true, false)
	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, StringToFourCC("udta"), created.Type())
	require.Equal(t, created, moov.GetChild(StringToFourCC("udta"), 0))
}

func TestContainerAtom_CopyChildren_DeepClonesIndependently(t *testing.T) {
	t.Parallel()

	f := NewAtomFactory()
	src := NewContainerAtom(StringToFourCC("moov"), false, f)
	leaf := newLeaf("free")
	require.NoError(t, src.AddChild(leaf, -1))

	dst := NewContainerAtom(StringToFourCC("moov"), false, f)
	require.NoError(t, src.CopyChildren(dst))

	require.Len(t, dst.Children(), 1)
	require.NotSame(t, src.Children()[0], dst.Children()[0])
	require.Equal(t, src.Children()[0].Type(), dst.Children()[0].Type())
}

package binser

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNode is a self-referential record: a value plus a pointer to another
// node.
type testNode struct {
	DataStruct
	Value uint32
	Next  Ref[testNode]
}

func (n *testNode) Serialize(s SerializerObject) {
	n.Value = s.UInt32(n.Value, "Value")
	n.Next = RefField[testNode](s, n.Next, "Next", Resolve())
}

// buildNodeFile lays out two nodes: one at 0 pointing to 16, one at 16
// pointing to itself.
func buildNodeFile() []byte {
	data := make([]byte, 0x20)
	binary.LittleEndian.PutUint32(data[0:], 1)
	binary.LittleEndian.PutUint32(data[4:], 16)
	binary.LittleEndian.PutUint32(data[16:], 2)
	binary.LittleEndian.PutUint32(data[20:], 16)
	return data
}

// Scenario: recursive object graphs resolve back-references through the
// object cache, including cycles.
func TestObjectGraphWithCycle(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"graph.bin": buildNodeFile()})
	addLinearFile(t, ctx, "graph.bin")

	root, err := Read[testNode](ctx, "graph.bin")
	require.NoError(t, err)

	assert.Equal(t, uint32(1), root.Value)
	require.NotNil(t, root.Next.Value)
	inner := root.Next.Value
	assert.Equal(t, uint32(2), inner.Value)

	// The self-pointer at 16 resolves to the same instance.
	require.NotNil(t, inner.Next.Value)
	assert.Same(t, inner, inner.Next.Value)
}

// Two serializations at the same absolute pointer return the same instance,
// and the second advances the cursor by exactly the instance size.
func TestObjectCacheDeterminism(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"graph.bin": buildNodeFile()})
	f := addLinearFile(t, ctx, "graph.bin")

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	first := Object[testNode](s, nil, "first")
	require.NoError(t, s.Err())
	require.NotNil(t, first)

	s.Goto(f.StartPointer())
	second := Object[testNode](s, nil, "second")
	require.NoError(t, s.Err())

	assert.Same(t, first, second)
	assert.Equal(t, first.SerializedSize(), s.CurrentPointer().FileOffset())
}

func TestIgnoreCacheOnRead(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"graph.bin": buildNodeFile()})
	addLinearFile(t, ctx, "graph.bin", WithIgnoreCacheOnRead())
	f, err := ctx.File("graph.bin")
	require.NoError(t, err)

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	first := Object[testNode](s, nil, "first")
	s.Goto(f.StartPointer())
	second := Object[testNode](s, nil, "second")
	require.NoError(t, s.Err())

	assert.NotSame(t, first, second)
}

func TestCachedAt(t *testing.T) {
	ctx, _, _ := newTestContext(t, map[string][]byte{"graph.bin": buildNodeFile()})
	f := addLinearFile(t, ctx, "graph.bin")

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	obj := Object[testNode](s, nil, "node")
	require.NoError(t, s.Err())

	cached, ok := CachedAt[testNode](ctx, f.StartPointer())
	require.True(t, ok)
	assert.Same(t, obj, cached)

	_, ok = CachedAt[testNode](ctx, f.StartPointer().Add(4))
	assert.False(t, ok)
}

package scene

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/achilleasa/bindless/types"
	"github.com/olekukonko/tablewriter"
)

// InvalidIndex marks an unused index field. Leaf nodes store it as their
// entry index and internal nodes store it as their face index.
const InvalidIndex uint32 = math.MaxUint32

// A mesh vertex.
type Vertex struct {
	Position types.Vec3
	Normal   types.Vec3
	UV       types.Vec2
}

// A triangle primitive. The vertex positions are duplicated from the vertex
// list so that traversal kernels can test intersections without an extra
// indirection.
type Primitive struct {
	Vertices [3]types.Vec3

	// Indices into the owning mesh vertex list. Consumers must add the
	// mesh vertex offset before indexing the global vertex buffer.
	Indices [3]uint32

	// The slot of the leaf node that owns this primitive.
	NodeIndex uint32
}

// Get the primitive AABB.
func (p *Primitive) BBox() types.AABB {
	return types.EmptyAABB().
		Grow(p.Vertices[0]).
		Grow(p.Vertices[1]).
		Grow(p.Vertices[2])
}

// Bvh nodes are stored in depth-first order and encode a stackless traversal:
//
// - On a box hit, traversal continues at EntryIndex. For internal nodes this
//   is the first child; for leaves it is InvalidIndex and the kernel tests
//   the leaf primitives and then continues at ExitIndex.
// - On a box miss, traversal continues at ExitIndex; the node that follows
//   the subtree rooted at this node. On the root miss path it equals the
//   number of nodes in the mesh.
// - For leaves, FaceIndex points to the first primitive of the leaf run.
//   The run continues while Primitive.NodeIndex equals the leaf slot.
//
// All indices are local to the owning mesh.
type Node struct {
	Min types.Vec3
	Max types.Vec3

	EntryIndex uint32
	ExitIndex  uint32
	FaceIndex  uint32
}

// Set bounding box.
func (n *Node) SetBBox(bbox types.AABB) {
	n.Min = bbox.Min
	n.Max = bbox.Max
}

// Get bounding box.
func (n *Node) BBox() types.AABB {
	return types.AABB{Min: n.Min, Max: n.Max}
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.EntryIndex == InvalidIndex
}

// A CompiledMesh contains the GPU-ready geometry for a single source mesh.
type CompiledMesh struct {
	Vertices   []Vertex
	Primitives []Primitive
	Nodes      []Node
}

// Get the primitive run [first, first+count) owned by the leaf at the given
// node slot. It returns a zero count if slot is not a leaf.
func (m *CompiledMesh) LeafPrimitives(slot uint32) (first, count uint32) {
	if int(slot) >= len(m.Nodes) || !m.Nodes[slot].IsLeaf() {
		return 0, 0
	}

	first = m.Nodes[slot].FaceIndex
	for idx := int(first); idx < len(m.Primitives) && m.Primitives[idx].NodeIndex == slot; idx++ {
		count++
	}
	return first, count
}

// Get the mesh AABB. Meshes without nodes return an empty box.
func (m *CompiledMesh) BBox() types.AABB {
	if len(m.Nodes) == 0 {
		return types.EmptyAABB()
	}
	return m.Nodes[0].BBox()
}

// The OffsetRecord for a mesh stores the position of its data in each of the
// global buffers.
type OffsetRecord struct {
	VertexOffset    uint32
	PrimitiveOffset uint32
	NodeOffset      uint32
}

// Buffers holds the concatenated contents of all compiled meshes.
type Buffers struct {
	Vertices   []Vertex
	Primitives []Primitive
	Nodes      []Node
}

// Build a tabular representation of buffer statistics.
func (b *Buffers) Stats(meshCount int) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Buffer", "Entries", "Host size", "GPU size"})
	table.Append([]string{"Vertices", fmt.Sprint(len(b.Vertices)), fmtSize(b.Vertices), fmtBytes(len(b.Vertices) * VertexStride)})
	table.Append([]string{"Primitives", fmt.Sprint(len(b.Primitives)), fmtSize(b.Primitives), fmtBytes(len(b.Primitives) * PrimitiveStride)})
	table.Append([]string{"BVH nodes", fmt.Sprint(len(b.Nodes)), fmtSize(b.Nodes), fmtBytes(len(b.Nodes) * NodeStride)})
	table.SetFooter([]string{
		fmt.Sprintf("%d meshes", meshCount),
		" ",
		strings.TrimLeft(fmtSize(b.Vertices, b.Primitives, b.Nodes), " "),
		strings.TrimLeft(fmtBytes(len(b.Vertices)*VertexStride+len(b.Primitives)*PrimitiveStride+len(b.Nodes)*NodeStride), " "),
	})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	totalBytes := 0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += int(t.Elem().Size()) * v.Len()
	}

	return fmtBytes(totalBytes)
}

func fmtBytes(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}

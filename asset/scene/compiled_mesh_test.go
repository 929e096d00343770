package scene

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/achilleasa/bindless/types"
)

func TestPrimitiveBBox(t *testing.T) {
	prim := Primitive{
		Vertices: [3]types.Vec3{{0, 2, 0}, {1, 0, -1}, {-1, 1, 0}},
	}

	bbox := prim.BBox()
	expMin := types.XYZ(-1, 0, -1)
	expMax := types.XYZ(1, 2, 0)
	if bbox.Min != expMin || bbox.Max != expMax {
		t.Fatalf("expected bbox [%v, %v]; got [%v, %v]", expMin, expMax, bbox.Min, bbox.Max)
	}
}

func TestLeafPrimitives(t *testing.T) {
	m := &CompiledMesh{
		Nodes: []Node{
			{EntryIndex: 1, ExitIndex: 3, FaceIndex: InvalidIndex},
			{EntryIndex: InvalidIndex, ExitIndex: 2, FaceIndex: 0},
			{EntryIndex: InvalidIndex, ExitIndex: 3, FaceIndex: 2},
		},
		Primitives: []Primitive{
			{NodeIndex: 1}, {NodeIndex: 1}, {NodeIndex: 2},
		},
	}

	specs := []struct {
		slot               uint32
		expFirst, expCount uint32
	}{
		{0, 0, 0},
		{1, 0, 2},
		{2, 2, 1},
		{7, 0, 0},
	}

	for _, spec := range specs {
		first, count := m.LeafPrimitives(spec.slot)
		if first != spec.expFirst || count != spec.expCount {
			t.Fatalf("[slot %d] expected run (%d, %d); got (%d, %d)", spec.slot, spec.expFirst, spec.expCount, first, count)
		}
	}
}

func TestMarshalLayout(t *testing.T) {
	nodes := MarshalNodes([]Node{{
		Min:        types.XYZ(1, 2, 3),
		Max:        types.XYZ(4, 5, 6),
		EntryIndex: 7,
		ExitIndex:  8,
		FaceIndex:  InvalidIndex,
	}})
	if len(nodes) != NodeStride {
		t.Fatalf("expected node buffer len to be %d; got %d", NodeStride, len(nodes))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(nodes[16:])); got != 4 {
		t.Fatalf("expected max.x at byte 16 to be 4; got %f", got)
	}
	for offset, exp := range map[int]uint32{28: 7, 32: 8, 36: InvalidIndex} {
		if got := binary.LittleEndian.Uint32(nodes[offset:]); got != exp {
			t.Fatalf("expected uint32 at byte %d to be %d; got %d", offset, exp, got)
		}
	}

	prims := MarshalPrimitives([]Primitive{{}, {Indices: [3]uint32{3, 4, 5}, NodeIndex: 9}})
	if len(prims) != 2*PrimitiveStride {
		t.Fatalf("expected primitive buffer len to be %d; got %d", 2*PrimitiveStride, len(prims))
	}
	second := prims[PrimitiveStride:]
	if got := binary.LittleEndian.Uint32(second[52:]); got != 4 {
		t.Fatalf("expected second index to be 4; got %d", got)
	}
	if got := binary.LittleEndian.Uint32(second[60:]); got != 9 {
		t.Fatalf("expected node index to be 9; got %d", got)
	}

	verts := MarshalVertices([]Vertex{{UV: types.XY(0.25, 0.5)}})
	if got := math.Float32frombits(binary.LittleEndian.Uint32(verts[36:])); got != 0.5 {
		t.Fatalf("expected uv.y at byte 36 to be 0.5; got %f", got)
	}
}

func TestBuffersStats(t *testing.T) {
	b := &Buffers{
		Vertices:   make([]Vertex, 4),
		Primitives: make([]Primitive, 2),
		Nodes:      make([]Node, 1),
	}

	out := b.Stats(1)
	for _, exp := range []string{"Vertices", "Primitives", "BVH nodes", "1 meshes"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected stats table to contain %q; got:\n%s", exp, out)
		}
	}
}

package compiler

import (
	"time"

	"github.com/achilleasa/bindless/asset/compiler/bvh"
	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/asset/scene"
	"github.com/achilleasa/bindless/log"
	"github.com/achilleasa/bindless/types"
)

const (
	// Leafs hold at most this many primitives unless configured otherwise.
	DefaultMinLeafPrimitives = 4
)

// A MeshCompiler turns mesh descriptions into GPU-friendly compiled meshes.
// It holds no per-mesh state and may be shared by concurrent callers.
type MeshCompiler struct {
	logger       log.Logger
	minLeafItems int
}

// Create a mesh compiler whose BVH leafs hold at most minLeafItems
// primitives. Values < 1 select DefaultMinLeafPrimitives.
func New(minLeafItems int) *MeshCompiler {
	if minLeafItems < 1 {
		minLeafItems = DefaultMinLeafPrimitives
	}
	return &MeshCompiler{
		logger:       log.New("mesh compiler"),
		minLeafItems: minLeafItems,
	}
}

// Compile a mesh description. The returned mesh contains the extracted
// vertices, the primitives reordered so that each BVH leaf owns a contiguous
// run, and the flattened BVH nodes.
func (mc *MeshCompiler) Compile(m *mesh.Mesh) (*scene.CompiledMesh, error) {
	start := time.Now()

	vertices, primitives, err := Extract(m)
	if err != nil {
		return nil, err
	}

	volList := make([]bvh.BoundedVolume, len(primitives))
	for index := range primitives {
		bbox := primitives[index].BBox()
		volList[index] = &bvhPrimitive{
			index:  index,
			bbox:   bbox,
			center: bbox.Center(),
		}
	}

	ordered := make([]scene.Primitive, 0, len(primitives))
	nodes, _ := bvh.Build(volList, mc.minLeafItems, func(leafIndex uint32, workList []bvh.BoundedVolume) {
		for _, workItem := range workList {
			prim := primitives[workItem.(*bvhPrimitive).index]
			prim.NodeIndex = leafIndex
			ordered = append(ordered, prim)
		}
	}, bvh.SurfaceAreaHeuristic)

	mc.logger.Debugf(
		`compiled %q in %d ms (%d vertices, %d primitives, %d nodes)`,
		m.Name, time.Since(start).Nanoseconds()/1e6, len(vertices), len(ordered), len(nodes),
	)

	return &scene.CompiledMesh{
		Vertices:   vertices,
		Primitives: ordered,
		Nodes:      nodes,
	}, nil
}

// bvhPrimitive adapts an extracted primitive to the BVH builder.
type bvhPrimitive struct {
	index  int
	bbox   types.AABB
	center types.Vec3
}

// Get the primitive AABB.
func (prim *bvhPrimitive) BBox() types.AABB {
	return prim.bbox
}

// Get primitive AABB center.
func (prim *bvhPrimitive) Center() types.Vec3 {
	return prim.center
}

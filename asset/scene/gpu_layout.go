package scene

import (
	"encoding/binary"
	"math"

	"github.com/achilleasa/bindless/types"
)

// Element strides of the GPU buffers. The layouts follow std430 rules where
// vec3 members are 16-byte aligned and structs are padded to a multiple of
// their largest member alignment.
const (
	// position @0, normal @16, uv @32
	VertexStride = 48

	// vertices @0/@16/@32, indices @48, node_index @60
	PrimitiveStride = 64

	// min @0, max @16, entry_index @28, exit_index @32, face_index @36
	NodeStride = 48
)

// Serialize vertices into a byte buffer suitable for GPU upload.
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for index, v := range vertices {
		out := buf[index*VertexStride:]
		putVec3(out[0:], v.Position)
		putVec3(out[16:], v.Normal)
		putFloat32(out[32:], v.UV[0])
		putFloat32(out[36:], v.UV[1])
	}
	return buf
}

// Serialize primitives into a byte buffer suitable for GPU upload.
func MarshalPrimitives(primitives []Primitive) []byte {
	buf := make([]byte, len(primitives)*PrimitiveStride)
	for index, p := range primitives {
		out := buf[index*PrimitiveStride:]
		putVec3(out[0:], p.Vertices[0])
		putVec3(out[16:], p.Vertices[1])
		putVec3(out[32:], p.Vertices[2])
		binary.LittleEndian.PutUint32(out[48:], p.Indices[0])
		binary.LittleEndian.PutUint32(out[52:], p.Indices[1])
		binary.LittleEndian.PutUint32(out[56:], p.Indices[2])
		binary.LittleEndian.PutUint32(out[60:], p.NodeIndex)
	}
	return buf
}

// Serialize bvh nodes into a byte buffer suitable for GPU upload.
func MarshalNodes(nodes []Node) []byte {
	buf := make([]byte, len(nodes)*NodeStride)
	for index, n := range nodes {
		out := buf[index*NodeStride:]
		putVec3(out[0:], n.Min)
		putVec3(out[16:], n.Max)
		binary.LittleEndian.PutUint32(out[28:], n.EntryIndex)
		binary.LittleEndian.PutUint32(out[32:], n.ExitIndex)
		binary.LittleEndian.PutUint32(out[36:], n.FaceIndex)
	}
	return buf
}

func putVec3(out []byte, v types.Vec3) {
	putFloat32(out[0:], v[0])
	putFloat32(out[4:], v[1])
	putFloat32(out[8:], v[2])
}

func putFloat32(out []byte, f float32) {
	binary.LittleEndian.PutUint32(out, math.Float32bits(f))
}

package compiler

import (
	"fmt"

	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/asset/scene"
)

// Extract normalizes a mesh description into a vertex list and a list of
// triangle primitives. The returned primitives are in source order and carry
// a zero NodeIndex; the BVH builder assigns the final value.
//
// The vertex count is the length of the shortest of the position, normal
// and uv attribute arrays. Meshes without an index list are treated as if
// their indices were 0..vertexCount-1.
func Extract(m *mesh.Mesh) ([]scene.Vertex, []scene.Primitive, error) {
	positions, ok := attribute[mesh.Float32x3](m, mesh.AttributePosition)
	if !ok {
		return nil, nil, ErrMissingPositionAttribute
	}
	normals, ok := attribute[mesh.Float32x3](m, mesh.AttributeNormal)
	if !ok {
		return nil, nil, ErrMissingNormalAttribute
	}
	uvs, ok := attribute[mesh.Float32x2](m, mesh.AttributeUV0)
	if !ok {
		return nil, nil, ErrMissingUVAttribute
	}

	vertexCount := min(len(positions), len(normals), len(uvs))
	vertices := make([]scene.Vertex, vertexCount)
	for index := range vertices {
		vertices[index] = scene.Vertex{
			Position: positions[index],
			Normal:   normals[index],
			UV:       uvs[index],
		}
	}

	indices, indexed := m.Indices()
	if !indexed {
		indices = make([]uint32, vertexCount)
		for index := range indices {
			indices[index] = uint32(index)
		}
	}

	var faces [][3]uint32
	switch m.Topology {
	case mesh.TriangleList:
		if len(indices)%3 != 0 {
			return nil, nil, fmt.Errorf("%w: %s index count %d is not a multiple of 3", ErrIncompatiblePrimitiveTopology, m.Topology, len(indices))
		}
		faces = make([][3]uint32, 0, len(indices)/3)
		for index := 0; index < len(indices); index += 3 {
			faces = append(faces, [3]uint32{indices[index], indices[index+1], indices[index+2]})
		}
	case mesh.TriangleStrip:
		if len(indices) >= 3 {
			faces = make([][3]uint32, 0, len(indices)-2)
		}
		for index := 0; index+2 < len(indices); index++ {
			// Swap the first two indices of odd triangles to keep a
			// consistent winding.
			if index&1 == 0 {
				faces = append(faces, [3]uint32{indices[index], indices[index+1], indices[index+2]})
			} else {
				faces = append(faces, [3]uint32{indices[index+1], indices[index], indices[index+2]})
			}
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrIncompatiblePrimitiveTopology, m.Topology)
	}

	primitives := make([]scene.Primitive, len(faces))
	for faceIndex, face := range faces {
		prim := &primitives[faceIndex]
		for corner, vertexIndex := range face {
			if int(vertexIndex) >= vertexCount {
				return nil, nil, fmt.Errorf("%w: face %d references vertex %d; mesh has %d vertices", ErrIndexOutOfRange, faceIndex, vertexIndex, vertexCount)
			}
			prim.Vertices[corner] = vertices[vertexIndex].Position
			prim.Indices[corner] = vertexIndex
		}
	}

	return vertices, primitives, nil
}

// Lookup an attribute and check that it has the expected element type.
func attribute[T mesh.Values](m *mesh.Mesh, attr mesh.Attribute) (T, bool) {
	values, ok := m.Attribute(attr)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := values.(T)
	return typed, ok
}

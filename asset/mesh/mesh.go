// Package mesh describes source meshes as the asset collaborator hands them
// to the bindless pipeline: named attribute arrays, an optional index list
// and a primitive topology.
package mesh

import (
	"fmt"

	"github.com/achilleasa/bindless/types"
)

// ID is the stable identity of a mesh asset across its lifetime. Ascending
// ID order is the packing order of the global buffers.
type ID uint64

// The primitive topology of a mesh.
type Topology uint8

// Supported topologies. Only triangle lists and strips can be compiled.
const (
	PointList Topology = iota
	LineList
	LineStrip
	TriangleList
	TriangleStrip
)

func (t Topology) String() string {
	switch t {
	case PointList:
		return "point-list"
	case LineList:
		return "line-list"
	case LineStrip:
		return "line-strip"
	case TriangleList:
		return "triangle-list"
	case TriangleStrip:
		return "triangle-strip"
	}
	return fmt.Sprintf("topology(%d)", uint8(t))
}

// Attribute names a per-vertex data stream.
type Attribute string

// Well known attribute names.
const (
	AttributePosition Attribute = "Vertex_Position"
	AttributeNormal   Attribute = "Vertex_Normal"
	AttributeUV0      Attribute = "Vertex_Uv"
	AttributeColor    Attribute = "Vertex_Color"
)

// Values is implemented by all typed attribute arrays.
type Values interface {
	Len() int
}

// Typed attribute arrays.
type (
	Float32x2 []types.Vec2
	Float32x3 []types.Vec3
	Float32x4 [][4]float32
	Uint32x1  []uint32
)

func (v Float32x2) Len() int { return len(v) }
func (v Float32x3) Len() int { return len(v) }
func (v Float32x4) Len() int { return len(v) }
func (v Uint32x1) Len() int  { return len(v) }

// A Mesh is a readable mesh description.
type Mesh struct {
	Name     string
	Topology Topology

	attributes map[Attribute]Values

	// A nil slice means that the mesh is not indexed.
	indices []uint32
}

// Create a new mesh with the given topology and no attributes.
func New(name string, topology Topology) *Mesh {
	return &Mesh{
		Name:       name,
		Topology:   topology,
		attributes: make(map[Attribute]Values),
	}
}

// Set (or replace) the values for an attribute.
func (m *Mesh) SetAttribute(attr Attribute, values Values) {
	m.attributes[attr] = values
}

// Remove an attribute.
func (m *Mesh) RemoveAttribute(attr Attribute) {
	delete(m.attributes, attr)
}

// Get the values for an attribute.
func (m *Mesh) Attribute(attr Attribute) (Values, bool) {
	values, ok := m.attributes[attr]
	return values, ok
}

// Set the explicit index list. Passing nil makes the mesh non-indexed.
func (m *Mesh) SetIndices(indices []uint32) {
	m.indices = indices
}

// Get the explicit index list, if one is defined.
func (m *Mesh) Indices() ([]uint32, bool) {
	return m.indices, m.indices != nil
}

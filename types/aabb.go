package types

import "github.com/chewxy/math32"

// An axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Create an empty box. Growing an empty box by a point yields a box that
// contains only that point.
func EmptyAABB() AABB {
	return AABB{
		Min: Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Check whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Return a copy of the box expanded to include point p.
func (b AABB) Grow(p Vec3) AABB {
	return AABB{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Return the union of two boxes.
func (b AABB) Union(b2 AABB) AABB {
	return AABB{Min: MinVec3(b.Min, b2.Min), Max: MaxVec3(b.Max, b2.Max)}
}

// Get the box center.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the box side lengths.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Get half of the box surface area. An empty box has zero area.
func (b AABB) HalfArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	side := b.Size()
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}

// Check whether b fully contains b2. An empty b2 is contained by any box.
func (b AABB) Contains(b2 AABB) bool {
	if b2.IsEmpty() {
		return true
	}
	for axis := 0; axis < 3; axis++ {
		if b2.Min[axis] < b.Min[axis] || b2.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

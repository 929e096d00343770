package types

import "testing"

func TestAABBGrow(t *testing.T) {
	box := EmptyAABB()
	if !box.IsEmpty() {
		t.Fatal("expected new box to be empty")
	}

	box = box.Grow(XYZ(1, 0, 0)).Grow(XYZ(0, 1, 0)).Grow(XYZ(0, 0, -1))
	expMin := XYZ(0, 0, -1)
	expMax := XYZ(1, 1, 0)
	if box.Min != expMin || box.Max != expMax {
		t.Fatalf("expected box to be [%v, %v]; got [%v, %v]", expMin, expMax, box.Min, box.Max)
	}

	if expArea := float32(1 + 1 + 1); box.HalfArea() != expArea {
		t.Fatalf("expected half area to be %f; got %f", expArea, box.HalfArea())
	}
}

func TestAABBContains(t *testing.T) {
	outer := AABB{Min: XYZ(-1, -1, -1), Max: XYZ(1, 1, 1)}
	inner := AABB{Min: XYZ(0, 0, 0), Max: XYZ(1, 1, 0)}

	if !outer.Contains(inner) {
		t.Fatal("expected outer box to contain inner box")
	}
	if inner.Contains(outer) {
		t.Fatal("expected inner box not to contain outer box")
	}
	if !inner.Contains(EmptyAABB()) {
		t.Fatal("expected any box to contain the empty box")
	}
	if got := outer.Union(inner); got != outer {
		t.Fatalf("expected union to be %v; got %v", outer, got)
	}
}

package registry

import (
	"reflect"
	"testing"

	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/asset/scene"
)

func TestIterationOrder(t *testing.T) {
	r := New()
	for _, id := range []mesh.ID{42, 7, 19, 3} {
		r.Insert(id, &scene.CompiledMesh{})
	}

	var got []mesh.ID
	r.Each(func(id mesh.ID, _ *scene.CompiledMesh) {
		got = append(got, id)
	})

	exp := []mesh.ID{3, 7, 19, 42}
	if !reflect.DeepEqual(got, exp) {
		t.Fatalf("expected iteration order %v; got %v", exp, got)
	}

	r.Remove(7)
	r.Insert(1, &scene.CompiledMesh{})
	exp = []mesh.ID{1, 3, 19, 42}
	if got := r.IDs(); !reflect.DeepEqual(got, exp) {
		t.Fatalf("expected ids %v after mutation; got %v", exp, got)
	}
}

func TestInsertReplaces(t *testing.T) {
	r := New()
	first := &scene.CompiledMesh{Vertices: make([]scene.Vertex, 1)}
	second := &scene.CompiledMesh{Vertices: make([]scene.Vertex, 2)}

	r.Insert(5, first)
	r.Insert(5, second)

	if r.Len() != 1 {
		t.Fatalf("expected 1 entry; got %d", r.Len())
	}
	got, ok := r.Get(5)
	if !ok || got != second {
		t.Fatal("expected the second insert to replace the first entry")
	}
}

func TestRemoveMissing(t *testing.T) {
	r := New()
	if r.Remove(99) {
		t.Fatal("expected removing a missing id to report false")
	}

	r.Insert(99, &scene.CompiledMesh{})
	if !r.Remove(99) {
		t.Fatal("expected removing an existing id to report true")
	}
	if _, ok := r.Get(99); ok {
		t.Fatal("expected entry to be evicted")
	}
	if len(r.IDs()) != 0 {
		t.Fatalf("expected no ids; got %v", r.IDs())
	}
}

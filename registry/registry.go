// Package registry owns the compiled meshes of a scene.
package registry

import (
	"maps"
	"slices"

	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/asset/scene"
)

// Registry maps mesh identities to compiled meshes. Iteration follows
// ascending identity order, which is also the packing order of the global
// buffers. A Registry is not safe for concurrent use; the pipeline only
// mutates it during the prepare phase.
type Registry struct {
	meshes map[mesh.ID]*scene.CompiledMesh

	// Sorted identity list; rebuilt lazily after a mutation.
	order      []mesh.ID
	orderDirty bool
}

// Create an empty registry.
func New() *Registry {
	return &Registry{
		meshes: make(map[mesh.ID]*scene.CompiledMesh),
	}
}

// Insert a compiled mesh, replacing any existing entry for id.
func (r *Registry) Insert(id mesh.ID, cm *scene.CompiledMesh) {
	if _, exists := r.meshes[id]; !exists {
		r.orderDirty = true
	}
	r.meshes[id] = cm
}

// Remove the entry for id. Returns false if no entry existed.
func (r *Registry) Remove(id mesh.ID) bool {
	if _, exists := r.meshes[id]; !exists {
		return false
	}
	delete(r.meshes, id)
	r.orderDirty = true
	return true
}

// Get the compiled mesh for id.
func (r *Registry) Get(id mesh.ID) (*scene.CompiledMesh, bool) {
	cm, ok := r.meshes[id]
	return cm, ok
}

// Get the number of registered meshes.
func (r *Registry) Len() int {
	return len(r.meshes)
}

// Get the registered identities in ascending order. The returned slice
// must not be modified.
func (r *Registry) IDs() []mesh.ID {
	if r.orderDirty || r.order == nil {
		r.order = slices.Sorted(maps.Keys(r.meshes))
		r.orderDirty = false
	}
	return r.order
}

// Invoke fn for each entry in ascending identity order.
func (r *Registry) Each(fn func(id mesh.ID, cm *scene.CompiledMesh)) {
	for _, id := range r.IDs() {
		fn(id, r.meshes[id])
	}
}

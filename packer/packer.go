// Package packer concatenates compiled meshes into the global bindless
// buffers and uploads them to a device.
package packer

import (
	"fmt"
	"maps"
	"time"

	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/asset/scene"
	"github.com/achilleasa/bindless/device"
	"github.com/achilleasa/bindless/log"
	"github.com/achilleasa/bindless/registry"
)

// A Packer owns the global vertex, primitive and node buffers together
// with the per-mesh offsets into them.
//
// Every structural change triggers a full repack whose cost is linear in
// the total amount of geometry in the registry, not in the size of the
// change. Scenes with frequent mesh churn pay for every mesh on every
// dirty tick.
type Packer struct {
	logger log.Logger

	buffers scene.Buffers
	offsets map[mesh.ID]scene.OffsetRecord
}

// Create a packer with empty buffers.
func New() *Packer {
	return &Packer{
		logger:  log.New("packer"),
		offsets: make(map[mesh.ID]scene.OffsetRecord),
	}
}

// Repack and upload the registry contents if dirty is set. It returns true
// if the buffers were rebuilt and uploaded.
//
// Packing happens into fresh buffers that replace the current ones only
// after all uploads succeed. If the device rejects an upload, the buffers
// that were already replaced are rewritten from the previous contents and
// the packer keeps serving the previous buffers and offsets.
func (p *Packer) Pack(reg *registry.Registry, dirty bool, dev device.Device) (bool, error) {
	if !dirty {
		return false, nil
	}

	start := time.Now()
	buffers, offsets := pack(reg)

	uploads := marshal(buffers)
	for index, upload := range uploads {
		if err := dev.WriteBuffer(upload.name, upload.data); err != nil {
			err = fmt.Errorf("packer: could not upload %s to %s device: %w", upload.name, dev.Name(), err)
			if restoreErr := p.restore(dev, index); restoreErr != nil {
				p.logger.Errorf("could not restore device buffers: %v", restoreErr)
			}
			return false, err
		}
	}

	p.buffers = buffers
	p.offsets = offsets

	p.logger.Infof(
		"packed %d meshes in %d ms (%d vertices, %d primitives, %d nodes)",
		len(offsets), time.Since(start).Nanoseconds()/1e6,
		len(buffers.Vertices), len(buffers.Primitives), len(buffers.Nodes),
	)
	return true, nil
}

type bufferUpload struct {
	name string
	data []byte
}

// Serialize packed buffers in upload order.
func marshal(buffers scene.Buffers) []bufferUpload {
	return []bufferUpload{
		{device.VertexBuffer, scene.MarshalVertices(buffers.Vertices)},
		{device.PrimitiveBuffer, scene.MarshalPrimitives(buffers.Primitives)},
		{device.NodeBuffer, scene.MarshalNodes(buffers.Nodes)},
	}
}

// Rewrite the first count device buffers from the currently published
// buffers so they stay consistent with the published offsets.
func (p *Packer) restore(dev device.Device, count int) error {
	for _, upload := range marshal(p.buffers)[:count] {
		if err := dev.WriteBuffer(upload.name, upload.data); err != nil {
			return fmt.Errorf("packer: could not restore %s: %w", upload.name, err)
		}
	}
	return nil
}

// Concatenate all registered meshes in registry order. Each mesh offset is
// the length of each buffer right before the mesh data is appended.
func pack(reg *registry.Registry) (scene.Buffers, map[mesh.ID]scene.OffsetRecord) {
	var vertexCount, primCount, nodeCount int
	reg.Each(func(_ mesh.ID, cm *scene.CompiledMesh) {
		vertexCount += len(cm.Vertices)
		primCount += len(cm.Primitives)
		nodeCount += len(cm.Nodes)
	})

	buffers := scene.Buffers{
		Vertices:   make([]scene.Vertex, 0, vertexCount),
		Primitives: make([]scene.Primitive, 0, primCount),
		Nodes:      make([]scene.Node, 0, nodeCount),
	}
	offsets := make(map[mesh.ID]scene.OffsetRecord, reg.Len())

	reg.Each(func(id mesh.ID, cm *scene.CompiledMesh) {
		offsets[id] = scene.OffsetRecord{
			VertexOffset:    uint32(len(buffers.Vertices)),
			PrimitiveOffset: uint32(len(buffers.Primitives)),
			NodeOffset:      uint32(len(buffers.Nodes)),
		}
		buffers.Vertices = append(buffers.Vertices, cm.Vertices...)
		buffers.Primitives = append(buffers.Primitives, cm.Primitives...)
		buffers.Nodes = append(buffers.Nodes, cm.Nodes...)
	})

	return buffers, offsets
}

// Get the offsets of a packed mesh.
func (p *Packer) Offset(id mesh.ID) (scene.OffsetRecord, bool) {
	rec, ok := p.offsets[id]
	return rec, ok
}

// Get a copy of the offsets of all packed meshes.
func (p *Packer) Offsets() map[mesh.ID]scene.OffsetRecord {
	return maps.Clone(p.offsets)
}

// Get the packed buffers. The returned slices must not be modified.
func (p *Packer) Buffers() scene.Buffers {
	return p.buffers
}

// Build a tabular representation of the packed buffer sizes.
func (p *Packer) Stats() string {
	return p.buffers.Stats(len(p.offsets))
}

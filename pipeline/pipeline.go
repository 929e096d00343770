// Package pipeline runs the per-tick flow that turns mesh lifecycle events
// into uploaded bindless buffers.
package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/achilleasa/bindless/asset/compiler"
	"github.com/achilleasa/bindless/asset/mesh"
	"github.com/achilleasa/bindless/asset/scene"
	"github.com/achilleasa/bindless/device"
	"github.com/achilleasa/bindless/events"
	"github.com/achilleasa/bindless/log"
	"github.com/achilleasa/bindless/packer"
	"github.com/achilleasa/bindless/registry"
)

// An AssetSource resolves mesh identities to mesh descriptions.
type AssetSource interface {
	// Get the mesh for id. It returns false if the asset is not available.
	Mesh(id mesh.ID) (*mesh.Mesh, bool)
}

// A Failure records a mesh that could not be compiled.
type Failure struct {
	ID  mesh.ID
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("mesh %d: %v", f.ID, f.Err)
}

// A compiled mesh produced by the extract phase.
type compiledEntry struct {
	id   mesh.ID
	mesh *scene.CompiledMesh
}

// Extracted holds the output of the extract phase. It is consumed by the
// prepare phase of the same tick.
type Extracted struct {
	compiled []compiledEntry
	removed  []mesh.ID
	failures []Failure
}

// Report summarizes a tick.
type Report struct {
	// Set if the buffers were repacked and uploaded.
	Dirty bool

	// Number of meshes inserted into the registry.
	Compiled int

	// Number of meshes evicted from the registry.
	Removed int

	// Meshes that failed to compile. They keep whatever registry entry they
	// had before this tick.
	Failures []Failure
}

// A Pipeline owns the mesh registry and the packer. Ticks must not run
// concurrently; events may be pushed to the queue from any goroutine.
type Pipeline struct {
	logger log.Logger

	queue    *events.Queue
	compiler *compiler.MeshCompiler
	registry *registry.Registry
	packer   *packer.Packer
	device   device.Device

	// Max number of meshes compiled in parallel.
	workers int
}

// Create a pipeline that compiles meshes with mc and uploads buffers to dev.
func New(mc *compiler.MeshCompiler, dev device.Device) *Pipeline {
	return &Pipeline{
		logger:   log.New("pipeline"),
		queue:    events.NewQueue(),
		compiler: mc,
		registry: registry.New(),
		packer:   packer.New(),
		device:   dev,
		workers:  runtime.NumCPU(),
	}
}

// Get the event queue that feeds the pipeline.
func (p *Pipeline) Queue() *events.Queue {
	return p.queue
}

// Get the mesh registry.
func (p *Pipeline) Registry() *registry.Registry {
	return p.registry
}

// Get the buffer packer.
func (p *Pipeline) Packer() *packer.Packer {
	return p.packer
}

// Drain the event queue and run both phases.
func (p *Pipeline) Tick(source AssetSource) (*Report, error) {
	return p.Prepare(p.Extract(p.queue.Drain(), source))
}

// Reduce a batch of events and compile every changed mesh that the source
// can still resolve. This phase does not touch the registry or the packer.
func (p *Pipeline) Extract(batch []events.Event, source AssetSource) *Extracted {
	changes := events.Reduce(batch)
	ex := &Extracted{
		removed: changes.Removed,
	}
	if changes.Empty() {
		return ex
	}

	start := time.Now()

	type result struct {
		cm  *scene.CompiledMesh
		err error
		ok  bool
	}
	results := make([]result, len(changes.Changed))

	var wg sync.WaitGroup
	sem := make(chan struct{}, max(p.workers, 1))
	for index, id := range changes.Changed {
		m, found := source.Mesh(id)
		if !found {
			// The asset is gone; a Removed event will follow.
			p.logger.Debugf("skipping mesh %d: asset no longer available", id)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(index int, m *mesh.Mesh) {
			defer func() {
				<-sem
				wg.Done()
			}()
			cm, err := p.compiler.Compile(m)
			results[index] = result{cm: cm, err: err, ok: true}
		}(index, m)
	}
	wg.Wait()

	for index, res := range results {
		if !res.ok {
			continue
		}
		id := changes.Changed[index]
		if res.err != nil {
			p.logger.Warningf("could not compile mesh %d: %v", id, res.err)
			ex.failures = append(ex.failures, Failure{ID: id, Err: res.err})
			continue
		}
		ex.compiled = append(ex.compiled, compiledEntry{id: id, mesh: res.cm})
	}

	p.logger.Debugf(
		"extracted %d meshes in %d ms (%d failed, %d removed)",
		len(ex.compiled), time.Since(start).Nanoseconds()/1e6, len(ex.failures), len(ex.removed),
	)
	return ex
}

// Apply extracted meshes to the registry and repack if anything changed.
// A device error aborts the tick but leaves the previously uploaded buffers
// and offsets in place.
func (p *Pipeline) Prepare(ex *Extracted) (*Report, error) {
	report := &Report{
		Failures: ex.failures,
	}

	for _, entry := range ex.compiled {
		p.registry.Insert(entry.id, entry.mesh)
		report.Compiled++
	}
	for _, id := range ex.removed {
		p.registry.Remove(id)
		report.Removed++
	}

	dirty := len(ex.compiled) > 0 || len(ex.removed) > 0
	uploaded, err := p.packer.Pack(p.registry, dirty, p.device)
	if err != nil {
		return nil, err
	}
	report.Dirty = uploaded

	return report, nil
}

// Get the offsets of a packed mesh.
func (p *Pipeline) Offset(id mesh.ID) (scene.OffsetRecord, bool) {
	return p.packer.Offset(id)
}
